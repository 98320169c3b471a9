// Package assets serves the web UI, either embedded in the binary or from a directory.
package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"strings"
)

//go:embed all:dist
var dist embed.FS

// Asset is a file ready to be written to a response.
type Asset struct {
	Body        []byte
	ContentType string
}

// Source looks up UI files.
type Source struct {
	fsys fs.FS
}

// Embedded returns the UI compiled into the binary.
func Embedded() *Source {
	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		panic(err) // "dist" is a valid path
	}
	return &Source{fsys: sub}
}

// Dir serves the UI from dir on disk, useful while developing the frontend.
func Dir(dir string) (*Source, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("assets: %s is not a directory", dir)
	}
	return &Source{fsys: os.DirFS(dir)}, nil
}

// New wraps an arbitrary file system.
func New(fsys fs.FS) *Source {
	return &Source{fsys: fsys}
}

// Get returns the file at the slash-separated path p, without fallbacks.
func (s *Source) Get(p string) (*Asset, bool) {
	name := strings.TrimPrefix(path.Clean("/"+p), "/")
	if name == "" {
		return nil, false
	}
	body, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return nil, false
	}
	ct := mime.TypeByExtension(path.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &Asset{Body: body, ContentType: ct}, true
}

// ErrNoIndex is returned by Resolve when not even index.html exists.
var ErrNoIndex = errors.New("index.html not embedded; build the web UI first")

// Resolve finds the asset for a request path: the exact file, then
// <dir>/index.html for paths ending in "/", then index.html so the
// single-page app can route client-side.
func (s *Source) Resolve(p string) (*Asset, error) {
	if a, ok := s.Get(p); ok {
		return a, nil
	}
	if strings.HasSuffix(p, "/") {
		if a, ok := s.Get(p + "index.html"); ok {
			return a, nil
		}
	}
	if a, ok := s.Get("index.html"); ok {
		return a, nil
	}
	return nil, ErrNoIndex
}
