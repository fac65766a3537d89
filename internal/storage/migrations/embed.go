package migrations

import "embed"

// PostgresFS embeds the checkpoint and fill table migrations.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the candle table migrations.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
