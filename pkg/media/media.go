package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	appconfig "market-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// allowed content types for catalog media uploads
var allowedContentTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Service issues presigned S3 upload URLs for catalog media (icons and
// screenshots) and resolves the public CDN URL for stored objects.
type Service struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucket     string
	cdnBaseURL string
	presignTTL time.Duration
}

// Upload describes an issued presigned upload.
type Upload struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"uploadUrl"`
	PublicURL string    `json:"publicUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func NewService(ctx context.Context, cfg appconfig.MediaConfig) (*Service, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("media bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)

	return &Service{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		cdnBaseURL: strings.TrimRight(cfg.CDNBaseURL, "/"),
		presignTTL: cfg.PresignTTL,
	}, nil
}

// PresignUpload returns a presigned PUT URL for a new media object. The key
// is namespaced under the given kind (icon, screenshot, preview).
func (s *Service) PresignUpload(ctx context.Context, kind, contentType string) (*Upload, error) {
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}

	switch kind {
	case "icon", "screenshot", "preview":
	default:
		return nil, fmt.Errorf("unsupported media kind %q", kind)
	}

	key := path.Join("media", kind, uuid.NewString()+ext)

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	return &Upload{
		Key:       key,
		UploadURL: req.URL,
		PublicURL: s.PublicURL(key),
		ExpiresAt: time.Now().Add(s.presignTTL),
	}, nil
}

// DeleteObject removes a stored media object.
func (s *Service) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// PublicURL resolves the CDN URL a stored object is served from.
func (s *Service) PublicURL(key string) string {
	if s.cdnBaseURL == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
	}
	return s.cdnBaseURL + "/" + key
}
