package storage

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"

	"github.com/customeros/mailharvest/config"
	"github.com/customeros/mailharvest/interfaces"
	"github.com/customeros/mailharvest/internal/logger"
	"github.com/customeros/mailharvest/services/storage/aws_client"
)

// NewStorageServiceFromConfig returns nil when no bucket is configured.
// A Cloudflare R2 account id selects R2, otherwise AWS S3 is used.
func NewStorageServiceFromConfig(cfg *config.StorageConfig, log logger.Logger) (interfaces.StorageService, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if cfg.R2AccountID != "" {
		return NewR2StorageService(cfg.R2AccountID, cfg.AccessKeyID, cfg.AccessKeySecret, cfg.Bucket, cfg.KeyPrefix, log)
	}
	return NewS3StorageService(cfg.Region, cfg.AccessKeyID, cfg.AccessKeySecret, cfg.Bucket, cfg.KeyPrefix, log)
}

// NewS3StorageService creates a StorageService configured for AWS S3
func NewS3StorageService(awsRegion, accessKeyID, accessKeySecret, bucketName, keyPrefix string, log logger.Logger) (interfaces.StorageService, error) {
	awsConfig := &aws.Config{
		Region: aws.String(awsRegion),
	}
	// Without static keys the default credential chain applies.
	if accessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(accessKeyID, accessKeySecret, "")
	}

	s3Client, err := aws_client.NewS3Client(awsConfig)
	if err != nil {
		return nil, err
	}

	return NewStorageService(s3Client, StorageConfig{
		BucketName: bucketName,
		KeyPrefix:  keyPrefix,
	}, log), nil
}

// NewR2StorageService creates a StorageService configured for Cloudflare R2
func NewR2StorageService(accountID, accessKeyID, accessKeySecret, bucketName, keyPrefix string, log logger.Logger) (interfaces.StorageService, error) {
	r2Client, err := aws_client.NewS3Client(&aws.Config{
		Endpoint:         aws.String("https://" + accountID + ".r2.cloudflarestorage.com"),
		Region:           aws.String("auto"),
		Credentials:      credentials.NewStaticCredentials(accessKeyID, accessKeySecret, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}

	return NewStorageService(r2Client, StorageConfig{
		BucketName: bucketName,
		KeyPrefix:  keyPrefix,
	}, log), nil
}
