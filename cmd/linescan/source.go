package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hupe1980/linescan/blobstore"
	blobminio "github.com/hupe1980/linescan/blobstore/minio"
	blobs3 "github.com/hupe1980/linescan/blobstore/s3"
)

const stdinInput = "-"

// resolver maps input names to blob stores. Remote clients are created
// on first use.
type resolver struct {
	cfg Config

	awsOnce sync.Once
	awsCfg  aws.Config
	awsErr  error

	minioOnce  sync.Once
	minioStore func(bucket string) blobstore.BlobStore
	minioErr   error
}

func newResolver(cfg Config) *resolver {
	return &resolver{cfg: cfg}
}

func (r *resolver) aws(ctx context.Context) (aws.Config, error) {
	r.awsOnce.Do(func() {
		var opts []func(*awsconfig.LoadOptions) error
		if r.cfg.S3.Region != "" {
			opts = append(opts, awsconfig.WithRegion(r.cfg.S3.Region))
		}
		r.awsCfg, r.awsErr = awsconfig.LoadDefaultConfig(ctx, opts...)
	})
	return r.awsCfg, r.awsErr
}

func (r *resolver) s3Store(ctx context.Context, bucket string) (blobstore.BlobStore, error) {
	cfg, err := r.aws(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if r.cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(r.cfg.S3.Endpoint)
			o.UsePathStyle = true
		}
	})
	return blobs3.NewStore(client, bucket, ""), nil
}

func (r *resolver) dynamoDB(ctx context.Context) (*dynamodb.Client, error) {
	cfg, err := r.aws(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg), nil
}

func (r *resolver) minio(bucket string) (blobstore.BlobStore, error) {
	r.minioOnce.Do(func() {
		client, err := blobminio.NewClient(blobminio.Config{
			Endpoint:  r.cfg.Minio.Endpoint,
			AccessKey: r.cfg.Minio.AccessKey,
			SecretKey: r.cfg.Minio.SecretKey,
			Region:    r.cfg.Minio.Region,
			Secure:    r.cfg.Minio.Secure,
		})
		if err != nil {
			r.minioErr = err
			return
		}
		r.minioStore = func(bucket string) blobstore.BlobStore {
			return blobminio.NewStore(client, bucket, "")
		}
	})
	if r.minioErr != nil {
		return nil, fmt.Errorf("minio client: %w", r.minioErr)
	}
	return r.minioStore(bucket), nil
}

// resolve returns the store holding input and the blob's name in it.
func (r *resolver) resolve(ctx context.Context, input string) (blobstore.BlobStore, string, error) {
	scheme, rest, ok := strings.Cut(input, "://")
	if !ok {
		return localStore(input)
	}

	u, err := url.Parse(input)
	if err != nil {
		return nil, "", fmt.Errorf("input %q: %w", input, err)
	}
	key := strings.TrimPrefix(u.Path, "/")

	switch scheme {
	case "file":
		return localStore(rest)
	case "s3":
		if u.Host == "" || key == "" {
			return nil, "", fmt.Errorf("input %q: want s3://bucket/key", input)
		}
		store, err := r.s3Store(ctx, u.Host)
		return store, key, err
	case "minio":
		if u.Host == "" || key == "" {
			return nil, "", fmt.Errorf("input %q: want minio://bucket/key", input)
		}
		store, err := r.minio(u.Host)
		return store, key, err
	default:
		return nil, "", fmt.Errorf("input %q: unsupported scheme %q", input, scheme)
	}
}

func localStore(path string) (blobstore.BlobStore, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}
	return blobstore.NewLocalStore(filepath.Dir(abs)), filepath.Base(abs), nil
}

// open opens input as a blob.
func (r *resolver) open(ctx context.Context, input string) (blobstore.Blob, error) {
	store, name, err := r.resolve(ctx, input)
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, name)
}

// remote resolves a bucket location such as s3://bucket/prefix to its
// store and key prefix. ok is false for local paths.
func (r *resolver) remote(ctx context.Context, loc string) (store blobstore.BlobStore, prefix string, ok bool, err error) {
	scheme, _, found := strings.Cut(loc, "://")
	if !found || scheme == "file" {
		return nil, "", false, nil
	}

	u, err := url.Parse(loc)
	if err != nil {
		return nil, "", false, fmt.Errorf("location %q: %w", loc, err)
	}
	if u.Host == "" {
		return nil, "", false, fmt.Errorf("location %q: missing bucket", loc)
	}
	if prefix = strings.Trim(u.Path, "/"); prefix != "" {
		prefix += "/"
	}

	switch scheme {
	case "s3":
		store, err = r.s3Store(ctx, u.Host)
	case "minio":
		store, err = r.minio(u.Host)
	default:
		return nil, "", false, fmt.Errorf("location %q: unsupported scheme %q", loc, scheme)
	}
	return store, prefix, true, err
}

// localPath strips a file:// scheme.
func localPath(loc string) string {
	return strings.TrimPrefix(loc, "file://")
}

// putBlob streams w's output to name in store. The blob is discarded when
// write fails.
func putBlob(ctx context.Context, store blobstore.BlobStore, name string, write func(io.Writer) error) error {
	w, err := store.Create(ctx, name)
	if err != nil {
		return err
	}
	if err := write(w); err != nil {
		if a, ok := w.(interface{ Abort() error }); ok {
			_ = a.Abort()
		} else {
			_ = w.Close()
			_ = store.Delete(ctx, name)
		}
		return err
	}
	return w.Close()
}
