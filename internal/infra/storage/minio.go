// Package storage reads rule packs and remediation overlays from an S3
// compatible bucket. The service never writes to it.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MaxObjectSize caps a single overlay object.
const MaxObjectSize = 1 << 20

var ErrNotFound = errors.New("object not found")

type Options struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	// Prefix is prepended to every key the service reads.
	Prefix string `yaml:"prefix"`
}

type Store struct {
	client     *minio.Client
	bucketName string
	prefix     string
}

// New connects to the bucket and checks that it exists.
func New(ctx context.Context, opts Options) (*Store, error) {
	cli, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", opts.Bucket)
	}
	return &Store{client: cli, bucketName: opts.Bucket, prefix: strings.Trim(opts.Prefix, "/")}, nil
}

func (s *Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + strings.TrimLeft(name, "/")
}

// ListYAML returns the YAML object names under dir, relative to the store
// prefix, sorted.
func (s *Store) ListYAML(ctx context.Context, dir string) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    s.key(strings.TrimSuffix(dir, "/") + "/"),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if !IsYAML(obj.Key) {
			continue
		}
		names = append(names, strings.TrimPrefix(strings.TrimPrefix(obj.Key, s.prefix), "/"))
	}
	sort.Strings(names)
	return names, nil
}

// Get reads one object. Objects larger than MaxObjectSize are rejected.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, s.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, MaxObjectSize+1))
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(data) > MaxObjectSize {
		return nil, fmt.Errorf("object %s exceeds %d bytes", name, MaxObjectSize)
	}
	return data, nil
}

// IsYAML reports whether key names a YAML document.
func IsYAML(key string) bool {
	switch strings.ToLower(path.Ext(key)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
