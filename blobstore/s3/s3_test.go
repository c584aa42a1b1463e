package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/nnindex/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is an in-memory S3 fake for testing.
type fakeClient struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func newFakeClient() *fakeClient {
	return &fakeClient{objects: make(map[string][]byte)}
}

func (c *fakeClient) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.objects[aws.ToString(params.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (c *fakeClient) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	body, ok := c.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}

	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(body)),
	}, nil
}

func (c *fakeClient) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.objects, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (c *fakeClient) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var keys []string
	for key := range c.objects {
		if strings.HasPrefix(key, aws.ToString(params.Prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{}
	for _, key := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	return out, nil
}

func (c *fakeClient) UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (c *fakeClient) CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (c *fakeClient) CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (c *fakeClient) AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	client := newFakeClient()
	store := NewStore(client, "test-bucket", "indexes")

	t.Run("PutGet", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "snap.bin", strings.NewReader("payload")))

		// The key carries the root prefix.
		client.mu.RLock()
		_, ok := client.objects["indexes/snap.bin"]
		client.mu.RUnlock()
		assert.True(t, ok)

		rc, err := store.Get(ctx, "snap.bin")
		require.NoError(t, err)
		defer rc.Close()

		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(got))
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "a/1", strings.NewReader("1")))
		require.NoError(t, store.Put(ctx, "a/2", strings.NewReader("2")))
		require.NoError(t, store.Put(ctx, "b/3", strings.NewReader("3")))

		names, err := store.List(ctx, "a/")
		require.NoError(t, err)
		assert.Equal(t, []string{"a/1", "a/2"}, names)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "a/1"))

		_, err := store.Get(ctx, "a/1")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}

func TestStorePagination(t *testing.T) {
	ctx := context.Background()

	client := &pagedClient{fakeClient: newFakeClient()}
	store := NewStore(client, "test-bucket", "")

	require.NoError(t, store.Put(ctx, "1", strings.NewReader("1")))
	require.NoError(t, store.Put(ctx, "2", strings.NewReader("2")))
	require.NoError(t, store.Put(ctx, "3", strings.NewReader("3")))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, names)
	assert.Greater(t, client.pages, 1)
}

// pagedClient serves list results one key per page.
type pagedClient struct {
	*fakeClient
	pages int
}

func (c *pagedClient) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	c.pages++

	full, err := c.fakeClient.ListObjectsV2(ctx, params, optFns...)
	if err != nil {
		return nil, err
	}

	start := 0
	if params.ContinuationToken != nil {
		for i, obj := range full.Contents {
			if aws.ToString(obj.Key) == aws.ToString(params.ContinuationToken) {
				start = i
				break
			}
		}
	}

	out := &s3.ListObjectsV2Output{}
	if start < len(full.Contents) {
		out.Contents = full.Contents[start : start+1]
	}
	if start+1 < len(full.Contents) {
		out.NextContinuationToken = full.Contents[start+1].Key
	}
	return out, nil
}
