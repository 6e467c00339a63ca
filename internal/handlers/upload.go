package handlers

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"

	appConfig "github.com/dev-debabrata/devchat-backend/internal/config"
	apperrors "github.com/dev-debabrata/devchat-backend/pkg/errors"
	"github.com/dev-debabrata/devchat-backend/pkg/logger"
	"github.com/dev-debabrata/devchat-backend/pkg/utils"
)

const (
	maxImageSize = 5 << 20  // 5 MB
	maxVideoSize = 50 << 20 // 50 MB
)

func getS3Client() (*s3.Client, error) {
	cfg := appConfig.AppConfig
	r2Resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID),
		}, nil
	})

	awsCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(r2Resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

// UploadMedia stores one image or video and returns its stable public URL.
// The message store only ever keeps this reference, never raw bytes.
func UploadMedia(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		fail(c, apperrors.BadRequest("File is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")

	var kind string
	switch {
	case strings.HasPrefix(contentType, "image/"):
		kind = "image"
		if header.Size > maxImageSize {
			fail(c, apperrors.BadRequest("Image too large (max 5MB)"))
			return
		}
	case strings.HasPrefix(contentType, "video/"):
		kind = "video"
		if header.Size > maxVideoSize {
			fail(c, apperrors.BadRequest("Video too large (max 50MB)"))
			return
		}
	default:
		fail(c, apperrors.BadRequest("Only image and video uploads are allowed"))
		return
	}

	client, err := getS3Client()
	if err != nil {
		logger.Error().Err(err).Msg("s3 client init failed")
		fail(c, apperrors.Internal("Upload unavailable"))
		return
	}

	key := fmt.Sprintf("chat/%ss/%s%s", kind, utils.GenerateID(), filepath.Ext(header.Filename))

	_, err = client.PutObject(c.Request.Context(), &s3.PutObjectInput{
		Bucket:      aws.String(appConfig.AppConfig.R2BucketName),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		logger.Error().Err(err).Str("key", key).Msg("upload failed")
		fail(c, apperrors.Internal("Failed to upload file"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":  fmt.Sprintf("%s/%s", appConfig.AppConfig.R2PublicURL, key),
		"kind": kind,
	})
}
