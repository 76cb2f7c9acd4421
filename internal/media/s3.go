package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"vidtube/internal/config"
)

// S3Uploader implements Uploader backed by an S3-compatible service.
type S3Uploader struct {
	uploader *manager.Uploader
	bucket   string
	region   string
	baseURL  string
}

// NewS3Uploader configures an uploader targeting the provided object
// store. A custom endpoint switches to path-style addressing, which
// keeps MinIO-style stores working.
func NewS3Uploader(ctx context.Context, cfg *config.Config) (*S3Uploader, error) {
	if strings.TrimSpace(cfg.S3Bucket) == "" {
		return nil, fmt.Errorf("s3 uploader: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}

	if strings.TrimSpace(cfg.S3Endpoint) != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.S3Endpoint,
					SigningRegion: cfg.S3Region,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return &S3Uploader{
		uploader: uploader,
		bucket:   cfg.S3Bucket,
		region:   cfg.S3Region,
		baseURL:  strings.TrimSuffix(cfg.S3PublicBaseURL, "/"),
	}, nil
}

// Upload stores the file under a fresh key and returns its public URL.
// The local temporary file is removed in every outcome; S3 reports no
// media duration, so Asset.Duration stays zero.
func (s *S3Uploader) Upload(ctx context.Context, localPath string) (Asset, error) {
	if strings.TrimSpace(localPath) == "" {
		return Asset{}, fmt.Errorf("s3 uploader: empty path")
	}
	defer os.Remove(localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return Asset{}, fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	key := uuid.NewString() + strings.ToLower(filepath.Ext(localPath))

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
		ACL:    s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return Asset{}, fmt.Errorf("upload %s: %w", key, err)
	}

	if s.baseURL != "" {
		return Asset{URL: fmt.Sprintf("%s/%s", s.baseURL, key)}, nil
	}
	return Asset{URL: fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)}, nil
}
