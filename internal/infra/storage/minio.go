package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// NewMinioClient buat koneksi MinIO dan pastikan bucket ada.
func NewMinioClient(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*minio.Client, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}
	return cli, nil
}

// MinioBucket maps a Bucket onto a key prefix inside one S3 bucket, so
// results and audio can share a bucket.
type MinioBucket struct {
	client     *minio.Client
	bucketName string
	prefix     string
}

func NewMinioBucket(client *minio.Client, bucketName, prefix string) *MinioBucket {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &MinioBucket{client: client, bucketName: bucketName, prefix: prefix}
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func (s *MinioBucket) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	if contentType == "" {
		contentType = contentTypeFor(key)
	}

	// S3 has no create-only put here; check first. Keys are random so the
	// window between stat and put does not matter in practice.
	_, err := s.client.StatObject(ctx, s.bucketName, s.prefix+key, minio.StatObjectOptions{})
	if err == nil {
		return ErrObjectExists
	}
	if !isNoSuchKey(err) {
		return fmt.Errorf("stat %s: %w", key, err)
	}

	_, err = s.client.PutObject(ctx, s.bucketName, s.prefix+key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *MinioBucket) Get(ctx context.Context, key string) ([]byte, error) {
	if !validKey(key) {
		return nil, ErrInvalidKey
	}
	obj, err := s.client.GetObject(ctx, s.bucketName, s.prefix+key, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer obj.Close()

	// GetObject is lazy; a missing key only shows up on first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (s *MinioBucket) Exists(ctx context.Context, key string) (bool, error) {
	if !validKey(key) {
		return false, ErrInvalidKey
	}
	_, err := s.client.StatObject(ctx, s.bucketName, s.prefix+key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return true, nil
}

func (s *MinioBucket) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    s.prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", s.prefix, obj.Err)
		}
		keys = append(keys, strings.TrimPrefix(obj.Key, s.prefix))
	}
	return keys, nil
}

func (s *MinioBucket) Check(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !exists {
		return errors.New("bucket " + s.bucketName + " does not exist")
	}
	return nil
}
