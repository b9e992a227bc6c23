package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"
	"github.com/swagftw/gi"

	"recording-oracle/goutils/settings"
)

// Service stores recorded results as publicly readable blobs.
type Service interface {
	Upload(ctx context.Context, content []byte, key string, contentType string) (string, error)
}

type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// InitS3Store builds the S3 client from the results storage settings
// and registers the store in the DI container.
func InitS3Store(settingsObj *settings.SettingsObj) *S3Store {
	storageSettings := settingsObj.ResultsStorage

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(storageSettings.Region)}
	if storageSettings.AccessKeyID != "" && storageSettings.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				storageSettings.AccessKeyID,
				storageSettings.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		log.WithError(err).Fatal("failed to load aws config for results storage")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if storageSettings.Endpoint != "" {
			o.BaseEndpoint = aws.String(storageSettings.Endpoint)
			o.UsePathStyle = true
		}
	})

	store := &S3Store{
		client:        client,
		bucket:        storageSettings.Bucket,
		publicBaseURL: strings.TrimSuffix(storageSettings.PublicBaseURL, "/"),
	}

	if err := gi.Inject(store); err != nil {
		log.WithError(err).Fatal("failed to inject results storage")
	}

	return store
}

var _ Service = (*S3Store)(nil)

// Upload writes the blob and returns its public URL.
func (s *S3Store) Upload(ctx context.Context, content []byte, key string, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return s.publicBaseURL + "/" + key, nil
}
