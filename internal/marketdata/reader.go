// Package marketdata reads depth snapshots from CSV files.
package marketdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/iminoaru/zaphft/internal/domain"
)

// Reader errors
var (
	ErrMissingColumn = errors.New("missing column")
	ErrParse         = errors.New("parse error")
)

// Reader streams snapshots from a CSV source with a header row.
// Columns are located by name, so extra columns and any column order are accepted.
type Reader struct {
	csv    *csv.Reader
	closer io.Closer
	cols   columns
	read   int
}

// columns holds the index of every required header.
type columns struct {
	row, ts, datetime int
	bidPrice, bidQty  [domain.BookDepth]int
	askPrice, askQty  [domain.BookDepth]int
}

// NewReader reads the header from r and prepares to stream rows.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no header row", ErrParse)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	return &Reader{csv: cr, cols: cols}, nil
}

// Open opens a CSV file for streaming. Close releases the file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}

	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.closer = f
	return r, nil
}

func locateColumns(header []string) (columns, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}

	find := func(name string) (int, error) {
		i, ok := idx[name]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		return i, nil
	}

	var (
		c   columns
		err error
	)
	if c.row, err = find("row_index"); err != nil {
		return c, err
	}
	if c.ts, err = find("timestamp_us"); err != nil {
		return c, err
	}
	if c.datetime, err = find("datetime"); err != nil {
		return c, err
	}
	for i := 0; i < domain.BookDepth; i++ {
		n := i + 1
		if c.bidPrice[i], err = find(fmt.Sprintf("bid_price_%d", n)); err != nil {
			return c, err
		}
		if c.bidQty[i], err = find(fmt.Sprintf("bid_qty_%d", n)); err != nil {
			return c, err
		}
		if c.askPrice[i], err = find(fmt.Sprintf("ask_price_%d", n)); err != nil {
			return c, err
		}
		if c.askQty[i], err = find(fmt.Sprintf("ask_qty_%d", n)); err != nil {
			return c, err
		}
	}
	return c, nil
}

// Next returns the next snapshot, or io.EOF when the input is exhausted.
func (r *Reader) Next() (*domain.Snapshot, error) {
	record, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("row %d: %w", r.read, err)
	}

	snap, err := r.parse(record)
	if err != nil {
		return nil, fmt.Errorf("row %d: %w", r.read, err)
	}

	r.read++
	return snap, nil
}

func (r *Reader) parse(record []string) (*domain.Snapshot, error) {
	field := func(i int) (string, error) {
		if i >= len(record) {
			return "", fmt.Errorf("%w: record has %d fields", ErrParse, len(record))
		}
		return record[i], nil
	}
	parseInt := func(i int, name string) (int64, error) {
		s, err := field(i)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q", ErrParse, name, s)
		}
		return v, nil
	}
	parseFloat := func(i int, name string, n int) (float64, error) {
		s, err := field(i)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s_%d=%q", ErrParse, name, n, s)
		}
		return v, nil
	}

	var (
		snap domain.Snapshot
		err  error
	)

	if snap.RowIndex, err = parseInt(r.cols.row, "row_index"); err != nil {
		return nil, err
	}
	if snap.TimestampUs, err = parseInt(r.cols.ts, "timestamp_us"); err != nil {
		return nil, err
	}
	if snap.Datetime, err = field(r.cols.datetime); err != nil {
		return nil, err
	}

	for i := 0; i < domain.BookDepth; i++ {
		n := i + 1
		if snap.Bids[i].Price, err = parseFloat(r.cols.bidPrice[i], "bid_price", n); err != nil {
			return nil, err
		}
		if snap.Bids[i].Quantity, err = parseFloat(r.cols.bidQty[i], "bid_qty", n); err != nil {
			return nil, err
		}
		if snap.Asks[i].Price, err = parseFloat(r.cols.askPrice[i], "ask_price", n); err != nil {
			return nil, err
		}
		if snap.Asks[i].Quantity, err = parseFloat(r.cols.askQty[i], "ask_qty", n); err != nil {
			return nil, err
		}
	}

	return &snap, nil
}

// Count returns the number of snapshots read so far.
func (r *Reader) Count() int {
	return r.read
}

// Close releases the underlying file, if the reader owns one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// ReadAll reads up to limit snapshots from a CSV file (limit <= 0 reads all).
func ReadAll(path string, limit int) ([]*domain.Snapshot, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return Collect(r, limit)
}

// Collect drains r into a slice, stopping after limit snapshots when limit > 0.
func Collect(r *Reader, limit int) ([]*domain.Snapshot, error) {
	var snaps []*domain.Snapshot
	for limit <= 0 || len(snaps) < limit {
		snap, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}
