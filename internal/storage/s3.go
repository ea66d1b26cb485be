package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Presigner issues short-lived URLs the browser uploads to directly.
type Presigner interface {
	PresignUpload(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
}

type S3Presigner struct {
	presign *s3.PresignClient
	bucket  string
}

func NewS3Presigner(ctx context.Context, cfg config.StorageConfig) (*S3Presigner, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Presigner{
		presign: s3.NewPresignClient(s3.NewFromConfig(awsCfg)),
		bucket:  cfg.PhotoBucket,
	}, nil
}

func (p *S3Presigner) PresignUpload(ctx context.Context, key, contentType string, expires time.Duration) (string, error) {
	req, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
