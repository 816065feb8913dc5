// Package views embeds the server-rendered templates.
package views

import "embed"

// FS holds the page templates and layouts.
//
//go:embed *.html layouts/*.html
var FS embed.FS
