package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/arjundev/vidtubebackend/config"
	"google.golang.org/api/option"
)

type GCSStore struct {
	client *storage.Client
	bucket string
}

func NewGCSStore(ctx context.Context, cfg config.MediaConfig) (*GCSStore, error) {
	var opts []option.ClientOption
	if cfg.GCSCredentials != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, cfg.GCSCredentials))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &GCSStore{client: client, bucket: cfg.GCSBucket}, nil
}

func (s *GCSStore) Upload(ctx context.Context, localPath string) (string, error) {
	defer os.Remove(localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	object := objectName(localPath)
	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentTypeFor(localPath)

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload copy: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload close: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, object), nil
}

func (s *GCSStore) Delete(ctx context.Context, url string) error {
	object, err := s.objectFromPublicURL(url)
	if err != nil {
		return err
	}
	if err := s.client.Bucket(s.bucket).Object(object).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", object, err)
	}
	return nil
}

// objectFromPublicURL accepts both public URL styles:
// storage.googleapis.com/<bucket>/<object> and <bucket>.storage.googleapis.com/<object>.
func (s *GCSStore) objectFromPublicURL(raw string) (string, error) {
	for _, prefix := range []string{
		"https://storage.googleapis.com/" + s.bucket + "/",
		"https://" + s.bucket + ".storage.googleapis.com/",
	} {
		if strings.HasPrefix(raw, prefix) {
			object := strings.TrimPrefix(raw, prefix)
			if object == "" {
				return "", fmt.Errorf("missing object path")
			}
			return object, nil
		}
	}
	return "", fmt.Errorf("not a gcs public url")
}
