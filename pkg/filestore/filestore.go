package filestore

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"regexp"
	"strings"
)

var ErrInvalidKey = errors.New("filestore: invalid key")

type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

var allowedImageExt = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {},
}

func IsAllowedImage(name string) bool {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return false
	}
	_, ok := allowedImageExt[strings.ToLower(name[i+1:])]
	return ok
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SecureFilename strips directories and anything outside [A-Za-z0-9_.-].
func SecureFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, "._")
	if name == "" {
		return "file"
	}
	return name
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
