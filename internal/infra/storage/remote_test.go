package storage

import (
	"context"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The remote buckets must reject bad keys before any network call; the
// clients below point at nothing.

func TestRedisBucket_GuardsKeys(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { client.Close() })

	b := NewRedisBucket(client, "voicemood:results")
	assert.Equal(t, "voicemood:results:", b.prefix)

	_, err := b.Get(context.Background(), "../x.json")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, b.Put(context.Background(), "a/b.json", []byte("{}"), ""), ErrInvalidKey)
	_, err = b.Exists(context.Background(), "..")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestMinioBucket_GuardsKeys(t *testing.T) {
	client, err := minio.New("127.0.0.1:1", &minio.Options{
		Creds: credentials.NewStaticV4("k", "s", ""),
	})
	require.NoError(t, err)

	b := NewMinioBucket(client, "voicemood", "audio_files")
	assert.Equal(t, "audio_files/", b.prefix)

	_, err = b.Get(context.Background(), "..")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, b.Put(context.Background(), `a\b.webm`, []byte("x"), ""), ErrInvalidKey)
	_, err = b.Exists(context.Background(), "../a.webm")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/json", contentTypeFor("a.json"))
	assert.Equal(t, "audio/webm", contentTypeFor("a.webm"))
	assert.Equal(t, "audio/mpeg", contentTypeFor("a.mp3"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("a"))
}
