package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"torilynq/config"
	"torilynq/infrastructure"
)

// Upload categories decide the size limit and the key prefix.
const (
	CategoryAvatar = "avatar"
	CategoryPost   = "post"
	CategoryStory  = "story"
	CategoryChat   = "chat"
)

const (
	maxAvatarSize = 2 << 20
	maxImageSize  = 5 << 20
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Discard stands in for the store when object storage is not configured;
// uploads are disabled and deletes are no-ops.
type Discard struct{}

func (Discard) DeleteAsync(string) {}

// Store uploads images to an S3-compatible bucket and serves back public
// URLs. Deletion is asynchronous and best-effort.
type Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewStore(cfg *config.Config) (*Store, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is not set")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading S3 configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := cfg.S3PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}

	return &Store{
		client:    client,
		bucket:    cfg.S3Bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

// MaxSize returns the byte limit for a category, or an error for an
// unknown category.
func MaxSize(category string) (int64, error) {
	switch category {
	case CategoryAvatar:
		return maxAvatarSize, nil
	case CategoryPost, CategoryStory, CategoryChat:
		return maxImageSize, nil
	default:
		return 0, fmt.Errorf("%w: unknown upload category %q", infrastructure.ErrValidation, category)
	}
}

// Upload stores the file under a random key and returns its public URL.
// The reader must already be limited to the category's size.
func (s *Store) Upload(ctx context.Context, category, filename string, body io.Reader, size int64) (string, error) {
	limit, err := MaxSize(category)
	if err != nil {
		return "", err
	}
	if size > limit {
		return "", fmt.Errorf("%w: file exceeds the %dMB limit", infrastructure.ErrValidation, limit>>20)
	}

	ext := strings.ToLower(path.Ext(filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: only jpg, jpeg, png, gif and webp files are allowed", infrastructure.ErrValidation)
	}

	key := fmt.Sprintf("torilynq/%s/%s%s", category, uuid.New(), ext)
	contentType := mime.TypeByExtension(ext)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("%w: uploading media: %v", infrastructure.ErrUpstream, err)
	}

	return s.publicURL + "/" + key, nil
}

// DeleteAsync removes a previously uploaded object in the background.
// URLs outside our bucket are ignored.
func (s *Store) DeleteAsync(url string) {
	key, ok := strings.CutPrefix(url, s.publicURL+"/")
	if !ok {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			slog.Warn("media delete failed", "key", key, "error", err)
		}
	}()
}
