// Package appfs embeds the static assets shipped with the binaries.
package appfs

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql templates/email/*
var FS embed.FS

// Glob returns the names of the embedded files matching pattern.
func Glob(pattern string) ([]string, error) {
	return fs.Glob(FS, pattern)
}
