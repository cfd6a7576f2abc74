package appfs

import "embed"

// FS embeds the database migrations so goose can run them from any binary.
//go:embed migrations
var FS embed.FS
