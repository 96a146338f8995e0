// Package gcsfetch downloads statement exports from Google Cloud Storage.
package gcsfetch

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ParseURI splits a gs://bucket/object URI.
func ParseURI(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", fmt.Errorf("ParseURI: not a gs:// URI: %q", uri)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("ParseURI: malformed GCS URI: %q", uri)
	}
	return bucket, object, nil
}

// Fetch downloads the object named by a gs:// URI. Client options pass
// through, so a test or an emulator setup can supply its own endpoint and
// credentials.
func Fetch(ctx context.Context, uri string, opts ...option.ClientOption) ([]byte, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("Fetch: create storage client: %w", err)
	}
	defer client.Close()

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("Fetch: read GCS object: %w", err)
	}

	return data, nil
}
