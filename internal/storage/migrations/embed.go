package migrations

import "embed"

// PostgresFS embeds the assessment store schema migrations.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the risk history schema migrations.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
