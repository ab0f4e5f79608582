package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"alcyxob/program-engine/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Archive implements CandidateArchive against an S3-compatible backend.
type s3Archive struct {
	client     *s3.Client
	bucketName string
}

// NewS3Archive creates a new S3-backed candidate archive.
func NewS3Archive(cfg config.S3Config) (CandidateArchive, error) {
	// Custom resolver for S3-compatible endpoints (like MinIO, DigitalOcean Spaces)
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				PartitionID:   "aws",
				URL:           cfg.Endpoint,
				SigningRegion: cfg.Region,
			}, nil
		}
		// Fallback to default AWS endpoint resolution if no custom endpoint is set
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(context.TODO(),
		awsCfg.WithRegion(cfg.Region),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsCfg.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		log.Printf("ERROR: Failed to load AWS SDK config for S3: %v", err)
		return nil, err
	}

	// Force path-style addressing required by most S3-compatible services (like MinIO)
	s3Client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		o.UsePathStyle = true
		// Local MinIO setups usually run without TLS
		o.EndpointOptions.DisableHTTPS = !cfg.UseSSL
	})

	log.Printf("Candidate archive initialized for endpoint: %s, bucket: %s", cfg.Endpoint, cfg.BucketName)

	return &s3Archive{
		client:     s3Client,
		bucketName: cfg.BucketName,
	}, nil
}

// StoreCandidate writes one raw model payload under
// candidates/<jobID>/<attemptID>.json.
func (s *s3Archive) StoreCandidate(ctx context.Context, jobID, attemptID string, payload []byte) (string, error) {
	objectKey := fmt.Sprintf("candidates/%s/%s.json", jobID, attemptID)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		log.Printf("ERROR: Failed to archive candidate '%s': %v", objectKey, err)
		return "", err
	}
	return objectKey, nil
}
