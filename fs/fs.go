package appfs

import "embed"

// FS holds the app's embedded assets (DB migrations).
//go:embed migrations
var FS embed.FS
