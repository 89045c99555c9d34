package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsBucket stores objects in a JetStream object store bucket.
type NatsBucket struct {
	bucket string
	store  nats.ObjectStore
}

// NewNats creates the object store bucket, or binds to it if it already exists.
func NewNats(js nats.JetStreamContext, bucketName string) (*NatsBucket, error) {
	store, err := js.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Storage for the %s bucket.", bucketName),
		Storage:     nats.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucketName, err)
		}
		store, err = js.ObjectStore(bucketName)
		if err != nil {
			return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucketName, err)
		}
	}
	return &NatsBucket{bucket: bucketName, store: store}, nil
}

func (n *NatsBucket) Put(_ context.Context, key string, data []byte, contentType string) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	if _, err := n.store.GetInfo(key); err == nil {
		return ErrObjectExists
	} else if !errors.Is(err, nats.ErrObjectNotFound) {
		return fmt.Errorf("failed to stat object '%s' in bucket '%s': %w", key, n.bucket, err)
	}

	if contentType == "" {
		contentType = contentTypeFor(key)
	}
	_, err := n.store.Put(&nats.ObjectMeta{
		Name:    key,
		Headers: nats.Header{"Content-Type": []string{contentType}},
	}, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, n.bucket, err)
	}
	return nil
}

func (n *NatsBucket) Get(_ context.Context, key string) ([]byte, error) {
	if !validKey(key) {
		return nil, ErrInvalidKey
	}
	obj, err := n.store.Get(key)
	if err != nil {
		if errors.Is(err, nats.ErrObjectNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, n.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()
	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}
	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}
	return data, nil
}

func (n *NatsBucket) Exists(_ context.Context, key string) (bool, error) {
	if !validKey(key) {
		return false, ErrInvalidKey
	}
	info, err := n.store.GetInfo(key)
	if err != nil {
		if errors.Is(err, nats.ErrObjectNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object '%s' in bucket '%s': %w", key, n.bucket, err)
	}
	return !info.Deleted, nil
}

func (n *NatsBucket) Keys(_ context.Context) ([]string, error) {
	infos, err := n.store.List()
	if err != nil {
		if errors.Is(err, nats.ErrNoObjectsFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list bucket '%s': %w", n.bucket, err)
	}
	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.Deleted {
			continue
		}
		keys = append(keys, info.Name)
	}
	return keys, nil
}

func (n *NatsBucket) Check(_ context.Context) error {
	_, err := n.store.Status()
	return err
}
