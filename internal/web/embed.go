// Package web holds the static HTML pages served by the page controller.
package web

import "embed"

//go:embed *.html
var Pages embed.FS
