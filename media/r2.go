package media

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/arjundev/vidtubebackend/config"
)

// R2Store talks to Cloudflare R2 through its S3-compatible API.
type R2Store struct {
	s3           *s3.Client
	bucket       string
	publicDomain string
}

func NewR2Store(ctx context.Context, cfg config.MediaConfig) (*R2Store, error) {
	if cfg.R2Bucket == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretKey == "" || cfg.R2Endpoint == "" {
		return nil, fmt.Errorf("missing R2 config (R2_BUCKET, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_ENDPOINT)")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretKey, ""),
		),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.R2Endpoint)
		o.UsePathStyle = true // required for R2
	})

	return &R2Store{s3: client, bucket: cfg.R2Bucket, publicDomain: cfg.R2PublicDomain}, nil
}

func (s *R2Store) Upload(ctx context.Context, localPath string) (string, error) {
	defer os.Remove(localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	object := objectName(localPath)
	_, err = s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(object),
		Body:        f,
		ContentType: aws.String(contentTypeFor(localPath)),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", object, err)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicDomain, s.bucket, object), nil
}

func (s *R2Store) Delete(ctx context.Context, url string) error {
	object, err := s.objectFromPublicURL(url)
	if err != nil {
		return err
	}
	_, err = s.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(object),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", object, err)
	}
	return nil
}

func (s *R2Store) objectFromPublicURL(raw string) (string, error) {
	if s.publicDomain != "" {
		prefix := s.publicDomain + "/" + s.bucket + "/"
		if strings.HasPrefix(raw, prefix) {
			return strings.TrimPrefix(raw, prefix), nil
		}
	}

	// r2.dev style: https://<bucket>.<account>.r2.dev/<object>
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(raw, prefix) {
			withoutScheme := strings.TrimPrefix(raw, prefix)
			slash := strings.Index(withoutScheme, "/")
			if slash == -1 {
				return "", fmt.Errorf("no object path in url")
			}
			return withoutScheme[slash+1:], nil
		}
	}

	return "", fmt.Errorf("not a recognised R2 public url")
}
