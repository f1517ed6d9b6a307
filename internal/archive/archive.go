// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive mirrors the artifacts written by a batch to an S3 bucket.
package archive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pdiddy/gleam-vo/internal/cutout"
	"github.com/pdiddy/gleam-vo/pkg/types"
)

const (
	defaultTimeout = 60 * time.Second

	errorContentType = "text/html"
)

// PutObjectAPI is the subset of the S3 client the mirror uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Mirror uploads batch artifacts to a bucket.
type Mirror struct {
	api    PutObjectAPI
	bucket string
	prefix string
}

// Summary reports the outcome of one MirrorBatch call.
type Summary struct {
	Uploaded int
	Failed   int
}

// New returns a Mirror backed by an S3 client built from cfg.
func New(ctx context.Context, cfg types.ArchiveConfig) (*Mirror, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is empty")
	}
	awsCfg, err := buildAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("building AWS config: %w", err)
	}
	return NewWithAPI(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil
}

// NewWithAPI returns a Mirror using api for uploads.
func NewWithAPI(api PutObjectAPI, bucket, prefix string) *Mirror {
	return &Mirror{api: api, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func buildAWSConfig(ctx context.Context, cfg types.ArchiveConfig) (aws.Config, error) {
	var optFns []func(*awsconfig.LoadOptions) error

	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	optFns = append(optFns, awsconfig.WithHTTPClient(&http.Client{Timeout: timeout}))

	return awsconfig.LoadDefaultConfig(ctx, optFns...)
}

// Key returns the object key for a local artifact path.
func (m *Mirror) Key(localPath string) string {
	name := filepath.Base(localPath)
	if m.prefix == "" {
		return name
	}
	return path.Join(m.prefix, name)
}

// MirrorBatch uploads every artifact written by result, in row order.
// Upload failures are reported to w and counted; they do not stop the
// remaining uploads.
func (m *Mirror) MirrorBatch(ctx context.Context, result types.BatchResult, w io.Writer) (Summary, error) {
	if w == nil {
		w = io.Discard
	}
	var sum Summary
	for _, row := range result.Rows {
		if row.Outcome != types.OutcomeDownloaded && row.Outcome != types.OutcomeSavedAsError {
			continue
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		key := m.Key(row.Path)
		if err := m.upload(ctx, row.Path, key, contentType(row.Outcome)); err != nil {
			fmt.Fprintf(w, "  warning: mirroring %s: %v\n", row.Path, err)
			sum.Failed++
			continue
		}
		fmt.Fprintf(w, "Mirrored '%s' to s3://%s/%s\n", row.Path, m.bucket, key)
		sum.Uploaded++
	}
	return sum, nil
}

func (m *Mirror) upload(ctx context.Context, localPath, key, ct string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening artifact: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat artifact: %w", err)
	}

	_, err = m.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(ct),
	})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

func contentType(o types.Outcome) string {
	if o == types.OutcomeSavedAsError {
		return errorContentType
	}
	return cutout.FITSContentType
}
