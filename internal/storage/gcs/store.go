// Package gcs stores artifacts in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"declara/pkg/platform/sentinel"
)

// Store writes artifacts to one GCS bucket. Locators returned by Put use the
// configured public base URL so they can be handed straight to clients.
type Store struct {
	client        *storage.Client
	bucket        *storage.BucketHandle
	bucketName    string
	publicBaseURL string
}

// Option configures the Store.
type Option func(*config)

type config struct {
	credentialsFile string
	publicBaseURL   string
}

// WithCredentialsFile points the client at a service account key file.
// Without it the ambient application default credentials are used.
func WithCredentialsFile(path string) Option {
	return func(c *config) { c.credentialsFile = path }
}

// WithPublicBaseURL overrides the default https://storage.googleapis.com/<bucket>
// locator prefix, for buckets served through a CDN.
func WithPublicBaseURL(base string) Option {
	return func(c *config) { c.publicBaseURL = base }
}

// New connects to GCS and binds the bucket.
func New(ctx context.Context, bucketName string, opts ...Option) (*Store, error) {
	if bucketName == "" {
		return nil, errors.New("gcs: bucket not set")
	}

	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	var clientOpts []option.ClientOption
	if cfg.credentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.credentialsFile))
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	base := cfg.publicBaseURL
	if base == "" {
		base = "https://storage.googleapis.com/" + bucketName
	}

	return &Store{
		client:        client,
		bucket:        client.Bucket(bucketName),
		bucketName:    bucketName,
		publicBaseURL: base,
	}, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize object %s: %w", key, err)
	}
	return s.publicBaseURL + "/" + key, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("open object %s: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
