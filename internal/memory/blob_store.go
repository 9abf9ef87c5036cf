package memory

import (
	"context"
	"fmt"
	"io"
	"sync"
)

type Object struct {
	ContentType string
	Data        []byte
}

type BlobStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]Object
}

func NewBlobStore(bucket string) *BlobStore {
	return &BlobStore{
		bucket:  bucket,
		objects: make(map[string]Object),
	}
}

func (bs *BlobStore) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read object %s: %w", name, err)
	}

	bs.mu.Lock()
	bs.objects[name] = Object{ContentType: contentType, Data: data}
	bs.mu.Unlock()

	return fmt.Sprintf("memory://%s/%s", bs.bucket, name), nil
}

func (bs *BlobStore) Object(name string) (Object, bool) {
	bs.mu.RLock()
	obj, ok := bs.objects[name]
	bs.mu.RUnlock()
	return obj, ok
}

func (bs *BlobStore) Len() int {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return len(bs.objects)
}
