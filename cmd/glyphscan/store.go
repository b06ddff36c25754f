package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"

	"github.com/hupe1980/glyphscan/blobstore"
	miniostore "github.com/hupe1980/glyphscan/blobstore/minio"
	s3store "github.com/hupe1980/glyphscan/blobstore/s3"
)

type storeFlags struct {
	kind      string
	bucket    string
	prefix    string
	endpoint  string
	region    string
	accessKey string
	secretKey string
	secure    bool
	retries   uint64
}

func (f *storeFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.kind, "store", "local", "input store: local, s3 or minio")
	fs.StringVar(&f.bucket, "bucket", "", "bucket name (s3, minio)")
	fs.StringVar(&f.prefix, "prefix", "", "root prefix of all names (directory for local)")
	fs.StringVar(&f.endpoint, "endpoint", "", "endpoint host (minio) or URL (s3-compatible services)")
	fs.StringVar(&f.region, "region", "", "AWS region (s3)")
	fs.StringVar(&f.accessKey, "access-key", "", "access key (s3, minio)")
	fs.StringVar(&f.secretKey, "secret-key", "", "secret key (s3, minio)")
	fs.BoolVar(&f.secure, "secure", true, "use TLS (minio)")
	fs.Uint64Var(&f.retries, "retries", 5, "retries of failed remote operations (0 = default)")
}

func (f *storeFlags) open(ctx context.Context) (blobstore.Store, error) {
	switch f.kind {
	case "local", "":
		return blobstore.NewLocalStore(f.prefix), nil
	case "s3":
		s, err := f.openS3(ctx)
		if err != nil {
			return nil, err
		}
		return blobstore.WithRetry(s, blobstore.RetryOptions{MaxRetries: f.retries}), nil
	case "minio":
		s, err := f.openMinIO()
		if err != nil {
			return nil, err
		}
		return blobstore.WithRetry(s, blobstore.RetryOptions{MaxRetries: f.retries}), nil
	default:
		return nil, fmt.Errorf("unknown store %q (want local, s3 or minio)", f.kind)
	}
}

func (f *storeFlags) openS3(ctx context.Context) (*s3store.Store, error) {
	if f.bucket == "" {
		return nil, errors.New("--bucket is required for the s3 store")
	}

	var loadOpts []func(*config.LoadOptions) error
	if f.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(f.region))
	}
	if f.accessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(f.accessKey, f.secretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if f.endpoint != "" {
			o.BaseEndpoint = aws.String(f.endpoint)
			o.UsePathStyle = true
		}
	})
	return s3store.NewStore(client, f.bucket, f.prefix), nil
}

func (f *storeFlags) openMinIO() (*miniostore.Store, error) {
	if f.bucket == "" || f.endpoint == "" {
		return nil, errors.New("--bucket and --endpoint are required for the minio store")
	}

	client, err := minio.New(f.endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(f.accessKey, f.secretKey, ""),
		Secure: f.secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return miniostore.NewStore(client, f.bucket, f.prefix), nil
}
