// Package bucket stores durable copies of generated images in a public
// object-storage bucket.
package bucket

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const (
	DefaultName   = "adhook"
	maxSlugLength = 60
	fallbackSlug  = "project"
)

// Bucket is a single public bucket.
type Bucket interface {
	// Ensure creates the bucket when missing. An existing bucket is not an error.
	Ensure(ctx context.Context) error
	// Upload writes data at key. Existing objects are never overwritten.
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a product name into a path segment: lowercase alphanumerics
// joined by single hyphens, at most 60 characters, "project" when empty.
func Slugify(s string) string {
	slug := nonAlnum.ReplaceAllString(strings.ToLower(s), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// ObjectKey is the storage path of the index-th (1-based) image of a save
// started at startedMillis.
func ObjectKey(productName string, startedMillis int64, index int, ext string) string {
	return fmt.Sprintf("%s/%d/img-%d.%s", Slugify(productName), startedMillis, index, ext)
}
