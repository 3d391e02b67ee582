// Package mirror copies newly retrieved archives to an S3-compatible bucket.
// Upload failures are reported, never fatal: the local directory stays the
// source of truth.
package mirror

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	rconfig "github.com/dmitrijs2005/raddo/internal/config"
	"github.com/dmitrijs2005/raddo/internal/logging"
	"github.com/dmitrijs2005/raddo/internal/shard"
)

var loadDefaultAWSConfig = config.LoadDefaultConfig

// Uploader is the subset of *s3.Client used here.
type Uploader interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Mirror uploads archives under <prefix><name>.
type Mirror struct {
	client Uploader
	bucket string
	prefix string
	logger logging.Logger
}

// Result lists uploaded and failed archive names.
type Result struct {
	Uploaded []string
	Failed   map[string]error
}

// New builds an S3 client from cfg. Static credentials are used when an
// access key is configured, the default AWS chain otherwise.
func New(ctx context.Context, cfg rconfig.S3Config, logger logging.Logger) (*Mirror, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	return NewWithClient(client, cfg.Bucket, cfg.Prefix, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client Uploader, bucket, prefix string, logger logging.Logger) *Mirror {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Mirror{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

// Key returns the object key of an archive.
func (m *Mirror) Key(name string) string {
	return m.prefix + path.Base(name)
}

// Upload copies each named archive found under root, either at the top
// level or in its sorted subdirectory.
func (m *Mirror) Upload(ctx context.Context, root string, names []string) Result {
	res := Result{Failed: map[string]error{}}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			res.Failed[name] = err
			continue
		}
		if err := m.put(ctx, root, name); err != nil {
			m.logger.Warn(ctx, "mirror upload failed", "file", name, "bucket", m.bucket, "err", err)
			res.Failed[name] = err
			continue
		}
		m.logger.Info(ctx, "archive mirrored", "file", name, "bucket", m.bucket, "key", m.Key(name))
		res.Uploaded = append(res.Uploaded, name)
	}
	return res
}

func (m *Mirror) put(ctx context.Context, root, name string) error {
	p, ok := shard.Locate(root, name)
	if !ok {
		return fmt.Errorf("%s: %w", name, os.ErrNotExist)
	}
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(m.Key(name)),
		Body:          f,
		ContentLength: aws.Int64(fi.Size()),
		ContentType:   aws.String("application/x-tar"),
	})
	return err
}
