// Package objectstore keeps the enrollment set as a single zstd-compressed
// JSON snapshot in an S3-compatible bucket.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/kozaktomas/biomatch/internal/config"
	"github.com/kozaktomas/biomatch/internal/database"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const contentType = "application/zstd"

// Store implements database.Backend on top of a MinIO/S3 bucket.
type Store struct {
	client *minio.Client
	bucket string
	key    string
}

// New connects to the endpoint and creates the bucket when it does not exist.
func New(ctx context.Context, cfg *config.S3Config) (*Store, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, errors.New("S3 endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("S3 bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return NewStore(client, cfg.Bucket, cfg.ObjectKey), nil
}

// NewStore wraps an existing client.
func NewStore(client *minio.Client, bucket, key string) *Store {
	return &Store{client: client, bucket: bucket, key: key}
}

// Name returns the backend name.
func (s *Store) Name() string {
	return "s3"
}

// LoadSnapshot downloads and decodes the snapshot. A missing object is an
// empty store.
func (s *Store) LoadSnapshot(ctx context.Context) (database.Snapshot, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return database.Snapshot{}, fmt.Errorf("get object %s: %w", s.key, err)
	}
	defer obj.Close()

	compressed, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return database.Snapshot{Enrollments: []database.Enrollment{}}, nil
		}
		return database.Snapshot{}, fmt.Errorf("read object %s: %w", s.key, err)
	}

	data, err := decompress(compressed)
	if err != nil {
		return database.Snapshot{}, err
	}
	return database.UnmarshalSnapshot(data)
}

// SaveSnapshot uploads the full snapshot with a single PutObject, which
// replaces the previous object atomically. The bucket offers no lock, so a
// store is meant to have a single writing process.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot database.Snapshot) error {
	data, err := database.MarshalSnapshot(snapshot)
	if err != nil {
		return err
	}
	compressed := compress(data)

	_, err = s.client.PutObject(ctx, s.bucket, s.key, bytes.NewReader(compressed), int64(len(compressed)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %s: %w", s.key, err)
	}
	return nil
}

// Close is a no-op; the client holds no persistent connections to release.
func (s *Store) Close() error {
	return nil
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

func compress(data []byte) []byte {
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2))
}

func decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	return out, nil
}
