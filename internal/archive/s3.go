package archive

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dkhalov/genflow/internal/task"
	"github.com/dkhalov/genflow/internal/tracker"
)

// S3Config holds the configuration for the S3 archive backend.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: for custom S3-compatible endpoints
	AccessKeyID     string // Optional: AWS access key ID
	SecretAccessKey string // Optional: AWS secret access key
}

// S3 archives artifacts in an S3 bucket and reports the object's public
// URL as its location.
type S3 struct {
	client     *s3.Client
	bucket     string
	region     string
	httpClient *http.Client
}

// NewS3 creates an S3 archive. Static credentials take precedence over
// the default AWS credential chain when provided.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3{
		client:     s3.NewFromConfig(awsCfg, clientOpts...),
		bucket:     cfg.Bucket,
		region:     cfg.Region,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// Store uploads the artifact and returns its public URL.
func (s *S3) Store(ctx context.Context, t *task.Task, a tracker.Artifact) (string, error) {
	body, err := openArtifact(ctx, s.httpClient, a)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()

	key := objectKey(t, time.Now())
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return "", fmt.Errorf("upload to S3: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

var _ tracker.Archive = (*S3)(nil)
