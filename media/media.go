// Package media uploads user assets to object storage. Two backends are
// supported: Google Cloud Storage and Cloudflare R2 through its S3 API.
package media

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"time"

	"github.com/arjundev/vidtubebackend/config"
	"github.com/google/uuid"
)

// Store is the object-storage collaborator. Upload consumes the local
// temporary file at localPath and removes it whether or not the upload
// succeeds, then returns the public URL of the stored object.
type Store interface {
	Upload(ctx context.Context, localPath string) (string, error)
	Delete(ctx context.Context, url string) error
}

func New(ctx context.Context, cfg config.MediaConfig) (Store, error) {
	switch cfg.Backend {
	case "gcs":
		return NewGCSStore(ctx, cfg)
	case "r2":
		return NewR2Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.Backend)
	}
}

// objectName builds a unique object key, keeping the original extension.
func objectName(localPath string) string {
	ext := filepath.Ext(localPath)
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("uploads/%d-%s%s", time.Now().UTC().Unix(), uuid.New().String(), ext)
}

func contentTypeFor(localPath string) string {
	ct := mime.TypeByExtension(filepath.Ext(localPath))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return ct
}
