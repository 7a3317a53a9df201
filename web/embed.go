// Package web bundles the portfolio front end served at the site root.
package web

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed static
var static embed.FS

// Site returns the static site. A non-empty dir serves files from disk
// instead of the embedded copy, which is handy while editing the front end.
func Site(dir string) (fs.FS, error) {
	if dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
		return os.DirFS(dir), nil
	}
	return fs.Sub(static, "static")
}
