// Package migrations embeds the schema for both supported SQL dialects.
package migrations

import "embed"

//go:embed postgres/*.sql mysql/*.sql
var FS embed.FS
