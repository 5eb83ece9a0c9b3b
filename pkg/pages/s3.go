package pages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// S3Store serves pages from an S3 bucket.
//
// Example usage:
//
//	client := pages.NewS3Client(pages.S3Options{Region: "us-east-1"})
//	store := pages.NewS3Store(client, "my-bucket", "forms/")
type S3Store struct {
	client  S3API
	bucket  string
	prefix  string
	maxSize int64
}

// DefaultMaxPageSize caps how much of an object is read (4MB).
const DefaultMaxPageSize = 4 << 20

// NewS3Store creates a store for the pages under prefix in bucket.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Store{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		maxSize: DefaultMaxPageSize,
	}
}

// WithMaxSize sets the largest object Open accepts. Zero keeps the
// current limit.
func (s *S3Store) WithMaxSize(n int64) *S3Store {
	if n > 0 {
		s.maxSize = n
	}
	return s
}

// S3Options configures NewS3Client.
type S3Options struct {
	Region          string
	Endpoint        string // Custom endpoint (MinIO, LocalStack)
	UsePathStyle    bool
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Client builds an S3 client from explicit options. Without keys,
// requests are sent unsigned.
func NewS3Client(opts S3Options) *s3.Client {
	o := s3.Options{
		Region:       opts.Region,
		UsePathStyle: opts.UsePathStyle,
	}
	if opts.Endpoint != "" {
		o.BaseEndpoint = aws.String(opts.Endpoint)
	}
	if opts.AccessKeyID != "" {
		creds := aws.Credentials{
			AccessKeyID:     opts.AccessKeyID,
			SecretAccessKey: opts.SecretAccessKey,
			Source:          "livevalidate",
		}
		o.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) { return creds, nil },
		))
	}
	return s3.New(o)
}

// Open downloads the named page.
func (s *S3Store) Open(ctx context.Context, name string) ([]byte, error) {
	file, err := fileName(name)
	if err != nil {
		return nil, err
	}
	key := s.prefix + file

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		var nf *types.NotFound
		if errors.As(err, &nsk) || errors.As(err, &nf) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("pages: s3 get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("pages: s3 read %s: %w", key, err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("pages: %s exceeds %d bytes", key, s.maxSize)
	}
	return data, nil
}

// List returns the names of all pages under the prefix, sorted.
func (s *S3Store) List(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("pages: s3 list: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, Ext) {
				continue
			}
			if name, err := CleanName(strings.TrimPrefix(key, s.prefix)); err == nil {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}
