/*
Package storage talks to the chat server's HTTP file store and keeps downloaded
files in a Destination: a local directory or an S3-compatible bucket.
*/
package storage

import (
	"context"
	"io"
)

// ServiceConfig holds the configuration required to mirror downloads to an S3-compatible bucket.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// S3Prefix is prepended to every object key.
	S3Prefix string
}

// Enabled reports whether a bucket is configured.
func (c ServiceConfig) Enabled() bool {
	return c.S3BucketName != ""
}

// Destination defines where downloaded files are stored.
type Destination interface {
	// Store writes the content of the file name and returns its location.
	Store(ctx context.Context, name string, content io.Reader, size int64) (string, error)

	// Has reports whether the file name is already stored.
	Has(ctx context.Context, name string) (bool, error)
}

// NewDestination is the factory function for Destination.
// A configured bucket wins over the local directory.
func NewDestination(ctx context.Context, cfg ServiceConfig, dir string) (Destination, error) {
	if cfg.Enabled() {
		return NewS3Destination(ctx, cfg)
	}
	return NewDirDestination(dir)
}
