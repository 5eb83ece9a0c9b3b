// Package pages loads the HTML pages whose forms are validated.
package pages

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Ext is the file extension of a page.
const Ext = ".html"

// Store errors.
var (
	ErrNotFound    = errors.New("pages: not found")
	ErrInvalidName = errors.New("pages: invalid page name")
)

// Store loads pages by name. A name is a slash-separated path without the
// .html extension, e.g. "signup" or "account/profile".
type Store interface {
	Open(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
}

// CleanName validates a page name and returns it without extension.
// Names that are empty, absolute or escape the root are rejected.
func CleanName(name string) (string, error) {
	name = strings.TrimSuffix(name, Ext)
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	cleaned := path.Clean(name)
	if cleaned != name || cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, seg := range strings.Split(cleaned, "/") {
		if strings.HasPrefix(seg, ".") {
			return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return cleaned, nil
}

// fileName maps a page name to its file name under the store root.
func fileName(name string) (string, error) {
	n, err := CleanName(name)
	if err != nil {
		return "", err
	}
	return n + Ext, nil
}
