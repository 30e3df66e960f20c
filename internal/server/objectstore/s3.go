package objectstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/dmitrijs2005/filevault/internal/server/config"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
	headObject = func(c *s3.Client, ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		return c.HeadObject(ctx, in, optFns...)
	}
)

// S3Client implements Client against an S3-compatible backend (AWS S3 or
// MinIO via the base endpoint override).
type S3Client struct {
	config *sc.Config
}

func NewS3Client(config *sc.Config) *S3Client {
	return &S3Client{config: config}
}

func (c *S3Client) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.config.S3RootUser,     // MINIO_ROOT_USER
			c.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

func (c *S3Client) PresignPut(ctx context.Context, key string, expires time.Duration) (string, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return "", err
	}
	presignClient := newS3PresignClient(client)

	bucket := c.config.S3Bucket

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

func (c *S3Client) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return "", err
	}
	presignClient := newS3PresignClient(client)

	bucket := c.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// Stat HEADs the object and normalizes the ETag into a bare checksum.
func (c *S3Client) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := c.config.S3Bucket

	head, err := headObject(client, ctx, &s3.HeadObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("head object: %w", err)
	}

	info := &ObjectInfo{}
	if head.ContentLength != nil {
		info.SizeBytes = *head.ContentLength
	}
	if head.ETag != nil {
		info.Checksum = strings.Trim(*head.ETag, `"`)
	}
	return info, nil
}
