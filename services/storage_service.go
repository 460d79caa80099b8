package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
)

// StorageService stores generated worker scripts for debug-mode calls.
// GetScript fails with KindNotFound for unknown keys; DeleteScript of an
// unknown key succeeds.
type StorageService interface {
	SaveScript(ctx context.Context, key string, script string) error
	GetScript(ctx context.Context, key string) (string, error)
	DeleteScript(ctx context.Context, key string) error
}

func errScriptNotFound(key string, err error) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("script not found: %s", key), Err: err}
}

// LocalStorageService implements StorageService using local filesystem
type LocalStorageService struct {
	basePath string
}

func NewLocalStorageService(basePath string) (*LocalStorageService, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, err
	}
	return &LocalStorageService{basePath: basePath}, nil
}

func (s *LocalStorageService) path(key string) (string, error) {
	full := filepath.Join(s.basePath, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.basePath, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", newError(KindValidation, "invalid storage key: %q", key)
	}
	return full, nil
}

func (s *LocalStorageService) SaveScript(ctx context.Context, key string, script string) error {
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(fullPath, []byte(script), 0644)
}

func (s *LocalStorageService) GetScript(ctx context.Context, key string) (string, error) {
	fullPath, err := s.path(key)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", errScriptNotFound(key, err)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *LocalStorageService) DeleteScript(ctx context.Context, key string) error {
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// S3StorageService implements StorageService using AWS S3
type S3StorageService struct {
	client *s3.Client
	bucket string
}

func NewS3StorageService(bucket string) (*S3StorageService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, err
	}

	// Instrument AWS SDK v2 with X-Ray for automatic S3 operation tracing
	awsv2.AWSV2Instrumentor(&cfg.APIOptions)

	client := s3.NewFromConfig(cfg)
	return &S3StorageService{client: client, bucket: bucket}, nil
}

func (s *S3StorageService) SaveScript(ctx context.Context, key string, script string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(script),
		ContentType: aws.String("text/plain"),
	})
	return err
}

func (s *S3StorageService) GetScript(ctx context.Context, key string) (string, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	var missing *types.NoSuchKey
	if errors.As(err, &missing) {
		return "", errScriptNotFound(key, err)
	}
	if err != nil {
		return "", err
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *S3StorageService) DeleteScript(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// NewStorageService creates the storage backend named by storageType
func NewStorageService(storageType, pathOrBucket string) (StorageService, error) {
	switch storageType {
	case "s3":
		return NewS3StorageService(pathOrBucket)
	case "local":
		return NewLocalStorageService(pathOrBucket)
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", storageType)
	}
}

// GenerateScriptKey builds the archive key of a generated worker script
func GenerateScriptKey(workspaceID, callID, language string, at time.Time) string {
	if workspaceID == "" {
		workspaceID = "default"
	}
	var ext string
	switch strings.ToLower(language) {
	case "r":
		ext = ".R"
	case "julia":
		ext = ".jl"
	case "python":
		ext = ".py"
	default:
		ext = ".txt"
	}
	return fmt.Sprintf("scripts/%s/%s/%s%s", safeName(workspaceID), at.UTC().Format("2006-01-02"), safeName(callID), ext)
}
