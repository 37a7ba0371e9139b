package mapdata

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Fetcher returns the raw bytes stored at location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// SourceSpec names one map document to load.
type SourceSpec struct {
	Name     string
	Location string
	Format   Format
}

// Load fetches every spec in order. A fetch failure is carried on the RawCollection
// so it surfaces as a ParseError for that source only.
func Load(ctx context.Context, f Fetcher, specs []SourceSpec) []RawCollection {
	raws := make([]RawCollection, 0, len(specs))
	for _, s := range specs {
		format := s.Format
		if format == "" {
			format = FormatFromPath(s.Location)
		}
		data, err := f.Fetch(ctx, s.Location)
		if err != nil {
			log.Printf("failed to fetch map source %s from %s: %v", s.Name, s.Location, err)
		}
		raws = append(raws, RawCollection{Source: s.Name, Format: format, Data: data, Err: err})
	}
	return raws
}

// FileSource reads documents relative to Root.
type FileSource struct {
	Root string
}

func (s FileSource) Fetch(_ context.Context, location string) ([]byte, error) {
	path := location
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.Root, location)
	}
	return os.ReadFile(path)
}

// S3Source reads documents from one bucket of an S3-compatible store.
type S3Source struct {
	client *minio.Client
	bucket string
}

// NewS3Source connects to endpoint with static credentials.
func NewS3Source(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*S3Source, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	log.Println("Map sources will be read from MinIO endpoint:", endpoint)
	return &S3Source{client: client, bucket: bucket}, nil
}

func (s *S3Source) Fetch(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", s.bucket, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", s.bucket, key, err)
	}
	return data, nil
}
