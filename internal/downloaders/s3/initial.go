package s3

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Source serves byte ranges of a single S3 object.
type Source struct {
	client *s3.Client
	bucket string
	key    string
}

// NewSource builds an S3 client from the shared AWS configuration and
// points it at an s3://bucket/key location.
func NewSource(ctx context.Context, link, profile string) (*Source, error) {
	client, err := getS3Client(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("error creating S3 client: %v", err)
	}
	return NewSourceWithClient(client, link)
}

func NewSourceWithClient(client *s3.Client, link string) (*Source, error) {
	bucket, key, err := parseS3URL(link)
	if err != nil {
		return nil, err
	}
	if key == "" || strings.HasSuffix(key, "/") {
		return nil, fmt.Errorf("S3 URL must name an object, got prefix %q", link)
	}
	log.Debug().Str("op", "s3/initial").Msgf("source set to s3://%s/%s", bucket, key)
	return &Source{client: client, bucket: bucket, key: key}, nil
}

func (s *Source) Location() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

func parseS3URL(url string) (string, string, error) {
	if !strings.HasPrefix(url, "s3://") {
		return "", "", fmt.Errorf("invalid S3 URL format")
	}
	url = strings.TrimPrefix(url, "s3://")
	parts := strings.SplitN(url, "/", 2)
	if len(parts) < 1 || parts[0] == "" {
		return "", "", fmt.Errorf("invalid S3 URL format")
	}
	bucket := parts[0]
	key := ""
	if len(parts) > 1 {
		key = parts[1]
	}
	return bucket, key, nil
}
