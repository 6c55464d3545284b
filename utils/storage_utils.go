package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// StorageConfig points at an S3-compatible bucket.
type StorageConfig struct {
	Endpoint       string
	Region         string
	Bucket         string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
}

// FileStore signs and uploads objects in one private bucket.
type FileStore struct {
	client *s3.S3
	bucket string
}

func NewFileStore(cfg StorageConfig) (*FileStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is empty")
	}
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create storage session: %w", err)
	}
	return &FileStore{client: s3.New(sess), bucket: cfg.Bucket}, nil
}

// PresignGet returns a GET URL for key that stops working after ttl.
// The response is served as an attachment named after the object.
func (s *FileStore) PresignGet(key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("object key is empty")
	}
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", path.Base(key))),
	})
	u, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u, nil
}

// UploadFile replaces the object at key. The bucket stays private.
func (s *FileStore) UploadFile(ctx context.Context, key string, file []byte, contentType string) error {
	if key == "" || len(file) == 0 {
		return errors.New("object key and body are required")
	}
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(file),
		ContentLength: aws.Int64(int64(len(file))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("unable to upload file to storage: %w", err)
	}
	return nil
}
