// Package scaffold provides the embedded files that `salonpress init` renders
// into a new site directory.
package scaffold

import "embed"

// Templates contains all scaffold template files.
// Files use Go text/template syntax and have a .tmpl suffix.
//
//go:embed all:templates
var Templates embed.FS
