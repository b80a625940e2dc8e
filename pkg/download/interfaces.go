//go:generate mockgen -destination=./mocks/manager.go . Manager

package download

import (
	"context"
	"net/url"
)

// Manager downloads remote files such as resolver release archives.
type Manager interface {
	// Fetch downloads a single item into opts.Dir and returns the absolute local file path.
	Fetch(ctx context.Context, item Item, opts Options) (string, error)
}

// Item represents one remote resource to download.
type Item struct {
	URL      *url.URL // source URL to download
	Checksum string   // optional hex-encoded SHA-256 checksum; if provided, will be verified
	Filename string   // optional preferred filename; if empty, the last URL path segment is used
}

// Options control the behavior of the download manager.
type Options struct {
	Dir string // destination directory. Must be absolute.
}
