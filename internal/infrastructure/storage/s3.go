// Package storage archives the original uploaded catalog files in
// S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	catalogapp "github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/application/catalog"
	infraconfig "github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ catalogapp.UploadArchive = (*S3UploadArchive)(nil)

// ErrObjectKeyRequired is returned when an operation is given an empty key
var ErrObjectKeyRequired = errors.New("object key is required")

const (
	defaultEndpoint    = "http://localhost:9000"
	defaultRegion      = "us-east-1"
	defaultPresignTTL  = 15 * time.Minute
	metadataBatchID    = "batch-id"
	metadataSourceName = "source-name"
)

// S3UploadArchive keeps uploaded catalog files in an S3-compatible bucket
// (AWS S3, MinIO, RustFS), one object per batch.
type S3UploadArchive struct {
	client     *s3.Client
	presign    *s3.PresignClient
	bucket     string
	keyPrefix  string
	presignTTL time.Duration
	logger     *zap.Logger
}

// S3UploadArchiveOption configures an S3UploadArchive
type S3UploadArchiveOption func(*S3UploadArchive)

func WithLogger(logger *zap.Logger) S3UploadArchiveOption {
	return func(s *S3UploadArchive) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPresignExpiration overrides the lifetime of download URLs
func WithPresignExpiration(d time.Duration) S3UploadArchiveOption {
	return func(s *S3UploadArchive) {
		if d > 0 {
			s.presignTTL = d
		}
	}
}

// NewS3UploadArchive builds the client from storage configuration. No
// request is sent until the first operation.
func NewS3UploadArchive(cfg *infraconfig.StorageConfig, opts ...S3UploadArchiveOption) (*S3UploadArchive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if err := checkStorageConfig(cfg); err != nil {
		return nil, err
	}

	client, err := newS3Client(cfg)
	if err != nil {
		return nil, err
	}

	archive := &S3UploadArchive{
		client:     client,
		presign:    s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		keyPrefix:  cfg.KeyPrefix,
		presignTTL: defaultPresignTTL,
		logger:     zap.NewNop(),
	}
	if cfg.PresignExpiration > 0 {
		archive.presignTTL = cfg.PresignExpiration
	}
	for _, opt := range opts {
		opt(archive)
	}
	return archive, nil
}

func checkStorageConfig(cfg *infraconfig.StorageConfig) error {
	var errs []error
	if cfg.Bucket == "" {
		errs = append(errs, errors.New("storage bucket is required"))
	}
	if cfg.AccessKey == "" {
		errs = append(errs, errors.New("storage access key is required"))
	}
	if cfg.SecretKey == "" {
		errs = append(errs, errors.New("storage secret key is required"))
	}
	return errors.Join(errs...)
}

func newS3Client(cfg *infraconfig.StorageConfig) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	endpoint := endpointURL(cfg.Endpoint, cfg.UseSSL)
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// endpointURL adds a scheme to a bare host:port endpoint
func endpointURL(endpoint string, useSSL bool) string {
	switch {
	case endpoint == "":
		return defaultEndpoint
	case strings.HasPrefix(endpoint, "http://"), strings.HasPrefix(endpoint, "https://"):
		return endpoint
	case useSSL:
		return "https://" + endpoint
	default:
		return "http://" + endpoint
	}
}

// EnsureBucket creates the bucket when it is missing. Startup calls it once.
func (s *S3UploadArchive) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}

	s.logger.Info("Creating upload archive bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Put archives the file of a batch and returns its object key
func (s *S3UploadArchive) Put(ctx context.Context, batchID uuid.UUID, fileName string, data []byte) (string, error) {
	key := ObjectKey(s.keyPrefix, batchID, fileName)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:            aws.String(s.bucket),
		Key:               aws.String(key),
		Body:              bytes.NewReader(data),
		ContentLength:     aws.Int64(int64(len(data))),
		ContentType:       aws.String(ContentType(fileName)),
		ChecksumAlgorithm: types.ChecksumAlgorithmSha256,
		Metadata: map[string]string{
			metadataBatchID:    batchID.String(),
			metadataSourceName: path.Base(key),
		},
	})
	if err != nil {
		return "", fmt.Errorf("archive upload %s: %w", key, err)
	}
	s.logger.Debug("Upload archived",
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return key, nil
}

// DownloadURL presigns a GET for an archived file
func (s *S3UploadArchive) DownloadURL(ctx context.Context, objectKey string) (string, time.Time, error) {
	if objectKey == "" {
		return "", time.Time{}, ErrObjectKeyRequired
	}
	expires := time.Now().Add(s.presignTTL)
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign %s: %w", objectKey, err)
	}
	return req.URL, expires, nil
}

// Delete removes an archived file. A missing object is not an error.
func (s *S3UploadArchive) Delete(ctx context.Context, objectKey string) error {
	if objectKey == "" {
		return ErrObjectKeyRequired
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete %s: %w", objectKey, err)
	}
	return nil
}

// Exists reports whether an archived file is present
func (s *S3UploadArchive) Exists(ctx context.Context, objectKey string) (bool, error) {
	if objectKey == "" {
		return false, ErrObjectKeyRequired
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, fmt.Errorf("head %s: %w", objectKey, err)
	}
}

func (s *S3UploadArchive) Bucket() string {
	return s.bucket
}

// isNotFound matches the typed S3 errors and the bare API codes some
// S3-compatible servers answer with instead
func isNotFound(err error) bool {
	var (
		notFound *types.NotFound
		noKey    *types.NoSuchKey
		noBucket *types.NoSuchBucket
	)
	if errors.As(err, &notFound) || errors.As(err, &noKey) || errors.As(err, &noBucket) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return true
		}
	}
	return false
}

// ObjectKey builds <prefix>/<batch id>/<base file name>. Directory parts of
// the client-supplied name are dropped.
func ObjectKey(prefix string, batchID uuid.UUID, fileName string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), `\`, "/"))
	switch name {
	case "", ".", "/":
		name = "upload"
	}
	return path.Join(prefix, batchID.String(), name)
}

// ContentType maps an uploaded file name to its MIME type
func ContentType(fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	switch ext {
	case ".csv":
		return "text/csv"
	case ".tsv":
		return "text/tab-separated-values"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
