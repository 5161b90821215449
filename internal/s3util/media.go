// Package s3util lets browsers upload room photos straight to S3 and reads
// them back for intake.
package s3util

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"
)

// UploadURLExpiry is how long a presigned upload URL stays valid.
const UploadURLExpiry = 15 * time.Minute

// ErrObjectTooLarge is returned when an object exceeds the caller's limit.
var ErrObjectTooLarge = errors.New("object too large")

// ObjectAPI is the subset of *s3.Client used here.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObjectTagging(ctx context.Context, params *s3.PutObjectTaggingInput, optFns ...func(*s3.Options)) (*s3.PutObjectTaggingOutput, error)
}

// Presigner is the subset of *s3.PresignClient used here.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Media is the photo bucket.
type Media struct {
	client    ObjectAPI
	presigner Presigner
	bucket    string
}

// NewMedia wraps an S3 client and its presigner for one bucket.
func NewMedia(client *s3.Client, bucket string) *Media {
	return &Media{client: client, presigner: s3.NewPresignClient(client), bucket: bucket}
}

// Bucket returns the bucket name.
func (m *Media) Bucket() string { return m.bucket }

// PresignUpload validates the request and returns a presigned PUT URL and the
// object key the browser should then hand back. The content type is part of
// the signature.
func (m *Media) PresignUpload(ctx context.Context, sessionID, filename, contentType string) (url, key string, err error) {
	key, err = ObjectKey(sessionID, filename)
	if err != nil {
		return "", "", err
	}
	if !AllowedContentType(contentType) {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}

	result, err := m.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      &m.bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(UploadURLExpiry))
	if err != nil {
		return "", "", fmt.Errorf("presign PutObject: %w", err)
	}
	log.Debug().Str("key", key).Str("contentType", contentType).Msg("Presigned upload URL issued")
	return result.URL, key, nil
}

// Fetch reads an uploaded object into memory, refusing anything over maxBytes.
func (m *Media) Fetch(ctx context.Context, key string, maxBytes int64) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	log.Debug().Str("bucket", m.bucket).Str("key", key).Msg("Downloading from S3")

	result, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &m.bucket, Key: &key,
	})
	if err != nil {
		return nil, fmt.Errorf("S3 GetObject: %w", err)
	}
	defer result.Body.Close()

	if result.ContentLength != nil && *result.ContentLength > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrObjectTooLarge, *result.ContentLength)
	}
	data, err := io.ReadAll(io.LimitReader(result.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrObjectTooLarge, maxBytes)
	}
	return data, nil
}

// TagObject applies the Project cost-allocation tag to an uploaded object.
// Presigned uploads cannot be tagged at creation time.
func (m *Media) TagObject(ctx context.Context, key string) error {
	_, err := m.client.PutObjectTagging(ctx, &s3.PutObjectTaggingInput{
		Bucket: &m.bucket,
		Key:    &key,
		Tagging: &s3types.Tagging{
			TagSet: []s3types.Tag{
				{Key: aws.String("Project"), Value: aws.String("aura-design")},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("PutObjectTagging: %w", err)
	}
	return nil
}
