package storage

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"almanara_go/config"
	"almanara_go/utils"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

type StorageService struct {
	s3Client *s3.S3
	bucket   string
}

// NewStorageService creates a new storage service
func NewStorageService() (*StorageService, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AppConfig.AWSRegion),
		Credentials: credentials.NewStaticCredentials(
			config.AppConfig.AWSAccessKeyID,
			config.AppConfig.AWSSecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %v", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		bucket:   config.AppConfig.S3BucketName,
	}, nil
}

// UploadReceipt stores a payment receipt image under receipts/ and returns
// the S3 key recorded on the payment.
func (s *StorageService) UploadReceipt(file *multipart.FileHeader, email string) (string, error) {
	allowed := strings.Split(config.AppConfig.AllowedExtensions, ",")
	if !utils.IsValidFileExtension(file.Filename, allowed) {
		return "", fmt.Errorf("file type not allowed (%s)", config.AppConfig.AllowedExtensions)
	}
	if file.Size > config.AppConfig.MaxFileSize {
		return "", fmt.Errorf("file too large (max %d bytes)", config.AppConfig.MaxFileSize)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %v", err)
	}
	defer src.Close()

	fileBytes, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %v", err)
	}

	parts := strings.Split(file.Filename, ".")
	ext := strings.ToLower(parts[len(parts)-1])
	key := fmt.Sprintf("receipts/%s/%d_%s.%s",
		utils.SanitizeString(email), time.Now().Unix(), uuid.New().String()[:8], ext)

	_, err = s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(fileBytes),
		ContentType: aws.String(contentTypeFor(ext)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %v", err)
	}

	return key, nil
}

func contentTypeFor(ext string) string {
	switch ext {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
