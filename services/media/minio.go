// Package mediasvc stores uploaded media in an S3-compatible object store.
package mediasvc

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/tmwangi/darasa/core"
)

type minioStorage struct {
	client *minio.Client
	conf   core.MediaConfig
}

var _ core.MediaStorage = (*minioStorage)(nil)

// NewMinioStorage connects to the object store and ensures the media bucket
// exists with a public read policy, so stored URLs can be served directly.
func NewMinioStorage(ctx context.Context, conf core.MediaConfig) (core.MediaStorage, error) {
	client, err := minio.New(conf.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(conf.AccessKeyID, conf.SecretAccessKey, ""),
		Secure: conf.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "connecting to object store")
	}

	exists, err := client.BucketExists(ctx, conf.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, "checking media bucket")
	}
	if !exists {
		if err = client.MakeBucket(ctx, conf.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, "creating media bucket")
		}
		policy := fmt.Sprintf(`{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Principal": {"AWS": ["*"]},
      "Action": ["s3:GetObject"],
      "Resource": ["arn:aws:s3:::%s/*"]
    }
  ]
}`, conf.Bucket)
		if err = client.SetBucketPolicy(ctx, conf.Bucket, policy); err != nil {
			return nil, errors.Wrap(err, "setting media bucket policy")
		}
	}

	return &minioStorage{client: client, conf: conf}, nil
}

func (s *minioStorage) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.conf.Bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", errors.Wrap(err, "storing media object")
	}

	scheme := "http"
	if s.conf.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.conf.Endpoint, s.conf.Bucket, key), nil
}
