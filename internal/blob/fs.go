package blob

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const metaSuffix = ".meta.json"

// FSStore keeps objects as files under Root/<bucket>/<key>, with a JSON
// sidecar per object holding the upload metadata.
type FSStore struct {
	Root string
}

func NewFSStore(root string) *FSStore {
	if root == "" {
		root = "."
	}
	return &FSStore{Root: root}
}

func (s *FSStore) objectPath(bucket, key string) string {
	return filepath.Join(s.Root, bucket, filepath.FromSlash(key))
}

func (s *FSStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	_ = ctx

	data, err := os.ReadFile(s.objectPath(bucket, key))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

func (s *FSStore) Put(ctx context.Context, bucket, key string, data []byte, opts PutOptions) error {
	_ = ctx

	path := s.objectPath(bucket, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s/%s: %w", bucket, key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write object %s/%s: %w", bucket, key, err)
	}
	meta, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path+metaSuffix, meta, 0o644); err != nil {
		return fmt.Errorf("write metadata %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *FSStore) Delete(ctx context.Context, bucket, key string) error {
	_ = ctx

	path := s.objectPath(bucket, key)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
		}
		return fmt.Errorf("delete object %s/%s: %w", bucket, key, err)
	}
	_ = os.Remove(path + metaSuffix)
	return nil
}

// Metadata reads back the sidecar written for an object.
func (s *FSStore) Metadata(bucket, key string) (PutOptions, error) {
	var opts PutOptions
	data, err := os.ReadFile(s.objectPath(bucket, key) + metaSuffix)
	if err != nil {
		return opts, err
	}
	if err := json.Unmarshal(data, &opts); err != nil {
		return opts, err
	}
	return opts, nil
}
