// Package r2client stores rendered images in Cloudflare R2 through the
// AWS S3 SDK and returns their public URLs.
package r2client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// Config holds R2 client configuration.
type Config struct {
	Endpoint      string // R2 endpoint URL (e.g., https://account-id.r2.cloudflarestorage.com)
	AccessKeyID   string
	SecretKey     string
	BucketName    string
	PublicBaseURL string // Base URL the bucket is served from
	Prefix        string // Key prefix for stored objects, e.g. "charts/"
}

// Endpoint returns the R2 S3 endpoint of an account.
func Endpoint(accountID string) string {
	return "https://" + accountID + ".r2.cloudflarestorage.com"
}

// Client provides R2 object storage operations.
type Client struct {
	s3      *s3.Client
	bucket  string
	baseURL string
	prefix  string
}

// New creates a new R2 client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.SecretKey == "" || cfg.BucketName == "" || cfg.PublicBaseURL == "" {
		return nil, errors.New("r2client: endpoint, credentials, bucket and public base URL are required")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2client: load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true // Required for R2
	})

	return &Client{
		s3:      s3Client,
		bucket:  cfg.BucketName,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		prefix:  cfg.Prefix,
	}, nil
}

// Key returns the object key for data: the prefix, the first 16 hex
// digits of its SHA-256 and ext. Identical images share one object.
func (c *Client) Key(data []byte, ext string) string {
	sum := sha256.Sum256(data)
	return c.prefix + hex.EncodeToString(sum[:8]) + ext
}

// URL returns the public URL of key.
func (c *Client) URL(key string) string {
	return c.baseURL + "/" + key
}

// PutPNG stores a PNG image and returns its public URL. An image that is
// already stored is not uploaded again.
func (c *Client) PutPNG(ctx context.Context, data []byte) (string, error) {
	key := c.Key(data, ".png")

	exists, err := c.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists {
		if err := c.putIfAbsent(ctx, key, data, "image/png"); err != nil {
			return "", err
		}
	}
	return c.URL(key), nil
}

// Exists reports whether key is stored.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("r2client: head %q: %w", key, err)
	}
	return true, nil
}

// putIfAbsent creates key with If-None-Match: *. Losing the race to a
// concurrent writer of the same content is not an error.
func (c *Client) putIfAbsent(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(c.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
		IfNoneMatch:  aws.String("*"),
	})
	if err != nil && !isPreconditionFailed(err) {
		return fmt.Errorf("r2client: upload %q: %w", key, err)
	}
	return nil
}

// isPreconditionFailed checks if the error is a 412 Precondition Failed response.
func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
		return true
	}
	var respErr *smithyhttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == 412
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "404":
			return true
		}
	}
	var respErr *smithyhttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404
}
