package service

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/Skotchmaster/marketplace/pkg/filestore"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

// Upload is one file received from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// storeImages writes the allowed images under prefix and returns their keys.
// Files with other extensions are skipped. On error nothing stays stored.
func storeImages(ctx context.Context, store filestore.Store, prefix string, files []Upload) ([]string, error) {
	var keys []string
	for _, f := range files {
		if !filestore.IsAllowedImage(f.Filename) {
			continue
		}
		key := prefix + "/" + uuid.NewString() + "-" + filestore.SecureFilename(f.Filename)
		if err := putUpload(ctx, store, key, f); err != nil {
			removeFiles(ctx, store, keys)
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func putUpload(ctx context.Context, store filestore.Store, key string, f Upload) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return store.Put(ctx, key, rc, f.Size, f.ContentType)
}

func removeFiles(ctx context.Context, store filestore.Store, keys []string) {
	for _, k := range keys {
		if err := store.Delete(ctx, k); err != nil {
			logging.FromContext(ctx).Warn("file_delete_failed", "key", k, "error", err)
		}
	}
}
