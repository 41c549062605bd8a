package migrations

import "embed"

// PostgresFS holds the run and trade schema.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the snapshot schema.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
