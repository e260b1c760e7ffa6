package jpeg2000

import (
	"context"
	"strings"

	"github.com/mrjoshuak/grokj2k/internal/fetch"
)

// OpenSource resolves uri into a random-access fetch.Source: a local file
// path, an "s3://bucket/key" URI, or an "http(s)://" URL reached through
// concurrent ranged GETs. Since fetch.Source satisfies io.Reader, the
// result can be passed directly to Decode/DecodeConfig/DecodeMetadata, or
// wrapped in a fetch.BufferedSource first for sequential full-image reads.
func OpenSource(ctx context.Context, uri string) (fetch.Source, error) {
	switch {
	case strings.HasPrefix(uri, "s3://"):
		rest := strings.TrimPrefix(uri, "s3://")
		parts := strings.SplitN(rest, "/", 2)
		bucket := parts[0]
		key := ""
		if len(parts) == 2 {
			key = parts[1]
		}
		return fetch.NewS3Source(ctx, bucket, key)
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return fetch.NewHTTPSource(ctx, uri)
	default:
		path := strings.TrimPrefix(uri, "file://")
		return fetch.NewFileSource(path)
	}
}
