package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"kyc/internal/platform/config"
)

// S3 writes documents to a bucket. A custom endpoint (MinIO, LocalStack)
// switches to path-style addressing.
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3 loads the AWS configuration, preferring static credentials when set.
func NewS3(ctx context.Context, cfg config.StorageConfig) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3{client: client, bucket: cfg.S3Bucket, prefix: cfg.Prefix}, nil
}

func (s *S3) Upload(ctx context.Context, obj Object) (Stored, error) {
	key := objectKey(s.prefix, obj)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(obj.Payload),
		ContentLength: aws.Int64(int64(len(obj.Payload))),
		ContentType:   aws.String(obj.ContentType),
		Metadata: map[string]string{
			"process-id":    obj.ProcessID.String(),
			"document-type": obj.Type.String(),
		},
	}
	if sum, err := hex.DecodeString(obj.Hash); err == nil && len(sum) == 32 {
		input.ChecksumSHA256 = aws.String(base64.StdEncoding.EncodeToString(sum))
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return Stored{}, fmt.Errorf("put object %s: %w", key, err)
	}
	return Stored{Path: key, Hash: obj.Hash, SizeBytes: int64(len(obj.Payload))}, nil
}
