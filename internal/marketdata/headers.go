package marketdata

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iminoaru/zaphft/internal/domain"
)

// ErrEmptyInput is returned by AddHeaders when the input has no lines.
var ErrEmptyInput = errors.New("input file is empty")

// Headers returns the snapshot CSV header: row_index, timestamp_us, datetime,
// then bid_price_i,bid_qty_i for each level, then ask_price_i,ask_qty_i.
func Headers() []string {
	headers := make([]string, 0, 3+4*domain.BookDepth)
	headers = append(headers, "row_index", "timestamp_us", "datetime")

	for i := 1; i <= domain.BookDepth; i++ {
		headers = append(headers, fmt.Sprintf("bid_price_%d", i), fmt.Sprintf("bid_qty_%d", i))
	}
	for i := 1; i <= domain.BookDepth; i++ {
		headers = append(headers, fmt.Sprintf("ask_price_%d", i), fmt.Sprintf("ask_qty_%d", i))
	}

	return headers
}

// AddHeaders copies a raw snapshot file from inPath to outPath, replacing its
// first line with the generated header. Returns the number of data rows copied.
func AddHeaders(inPath, outPath string) (int, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return 0, fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	rows, err := addHeaders(in, out)
	if err != nil {
		return rows, err
	}

	return rows, out.Close()
}

func addHeaders(r io.Reader, w io.Writer) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	bw := bufio.NewWriter(w)

	// Drop the original first line
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return 0, fmt.Errorf("read input: %w", err)
		}
		return 0, ErrEmptyInput
	}

	if _, err := fmt.Fprintln(bw, strings.Join(Headers(), ",")); err != nil {
		return 0, fmt.Errorf("write headers: %w", err)
	}

	rows := 0
	for scanner.Scan() {
		if _, err := fmt.Fprintln(bw, scanner.Text()); err != nil {
			return rows, fmt.Errorf("write row %d: %w", rows, err)
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return rows, fmt.Errorf("read input: %w", err)
	}

	return rows, bw.Flush()
}
