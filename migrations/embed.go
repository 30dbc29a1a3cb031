package migrations

import "embed"

// Files holds the forward-only SQL migrations applied when the rule store
// is opened.
//
//go:embed *.sql
var Files embed.FS
