package imagestore

import (
	"net/url"
	"strings"
)

// PublicIDFromURL derives the host identifier of a stored image:
// ".../<folder>/<file>.<ext>" becomes "<folder>/<file>". The file name is cut
// at its first dot. A URL with no folder segment yields the file name alone.
func PublicIDFromURL(raw string) string {
	path := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		path = u.Path
	}
	path = strings.TrimRight(path, "/")

	parts := strings.Split(path, "/")
	file := parts[len(parts)-1]
	if i := strings.IndexByte(file, '.'); i >= 0 {
		file = file[:i]
	}

	if len(parts) < 2 || parts[len(parts)-2] == "" {
		return file
	}
	return parts[len(parts)-2] + "/" + file
}
