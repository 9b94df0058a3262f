// Package storage abstracts the artifact bucket holding rendered documents
// and signature images.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ObjectStore writes and reads immutable artifacts. Put returns a stable
// locator for the stored object; keys carry a timestamp so existing
// artifacts are never overwritten.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// DocumentKey names a rendered declaration PDF.
func DocumentKey(productCode string, at time.Time) string {
	return fmt.Sprintf("djc_%s_%d.pdf", productCode, at.UnixMilli())
}

// SignatureKey names a stored signature image.
func SignatureKey(productCode string, at time.Time) string {
	return fmt.Sprintf("signature_%s_%d.png", productCode, at.UnixMilli())
}

// KeyFromURL recovers the object key from a locator returned by Put: the
// segment after the final slash.
func KeyFromURL(url string) string {
	if i := strings.LastIndexByte(url, '/'); i >= 0 {
		return url[i+1:]
	}
	return url
}
