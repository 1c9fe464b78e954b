package storage

import (
	"bytes"
	"context"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/mailharvest/interfaces"
	"github.com/customeros/mailharvest/internal/logger"
	"github.com/customeros/mailharvest/internal/tracing"
	"github.com/customeros/mailharvest/services/storage/aws_client"
)

// ObjectStorageService implements StorageService using S3Client
type ObjectStorageService struct {
	client     aws_client.S3Client
	bucketName string
	keyPrefix  string
	log        logger.Logger
}

type StorageConfig struct {
	BucketName string
	KeyPrefix  string
}

func NewStorageService(client aws_client.S3Client, config StorageConfig, log logger.Logger) interfaces.StorageService {
	return &ObjectStorageService{
		client:     client,
		bucketName: config.BucketName,
		keyPrefix:  strings.Trim(config.KeyPrefix, "/"),
		log:        log,
	}
}

// Upload stores data under <prefix>/<key> in the configured bucket.
func (s *ObjectStorageService) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ObjectStorageService.Upload")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	objectKey := s.objectKey(key)
	span.SetTag("bucket", s.bucketName)
	span.SetTag("key", objectKey)

	location, err := s.client.Upload(ctx, s3manager.UploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "failed to upload %s to bucket %s", objectKey, s.bucketName)
	}

	s.log.Infof("Uploaded %s (%d bytes) to %s", objectKey, len(data), location)
	return nil
}

func (s *ObjectStorageService) objectKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return path.Join(s.keyPrefix, key)
}
