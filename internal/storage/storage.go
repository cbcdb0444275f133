// Package storage keeps listing images in an S3-compatible object store.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrObjectExists is returned by Upload when the key is already taken.
var ErrObjectExists = errors.New("object already exists")

// ObjectStore is the object storage used for listing images.
type ObjectStore interface {
	// Upload stores r under key and returns its public URL. It never
	// overwrites an existing object.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Remove deletes key. A missing key is not an error.
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
	// KeyFromURL extracts the object key from a URL produced by PublicURL.
	KeyFromURL(rawURL string) (string, bool)
}

func publicURL(base, bucket, key string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + key
}

// keyFromURL returns the key of an object URL. URLs under the configured
// public base are cut at that prefix; others at the first "/<bucket>/".
func keyFromURL(rawURL, base, bucket string) (string, bool) {
	var key string
	if prefix := publicURL(base, bucket, ""); base != "" && strings.HasPrefix(rawURL, prefix) {
		key = strings.TrimPrefix(rawURL, prefix)
	} else {
		marker := "/" + bucket + "/"
		idx := strings.Index(rawURL, marker)
		if idx < 0 {
			return "", false
		}
		key = rawURL[idx+len(marker):]
	}

	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	if key == "" {
		return "", false
	}

	return key, true
}
