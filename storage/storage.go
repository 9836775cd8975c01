package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ObjectStore is a key-value store with prefix listing. Raw documents,
// junk records and run summaries all live behind this interface.
type ObjectStore interface {
	// Put stores an object under key. Metadata is attached where the
	// backend supports it (S3 user metadata); backends without metadata
	// support ignore it.
	Put(ctx context.Context, key string, body []byte, metadata map[string]string) error

	// Get retrieves an object by key.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns all keys under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type         StorageType
	LocalPath    string // For local storage
	S3Bucket     string // For S3 storage
	S3Region     string // For S3 storage
	AWSAccessKey string
	AWSSecretKey string
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg StorageConfig) (ObjectStore, error) {
	switch cfg.Type {
	case StorageTypeLocal:
		return NewLocalStore(cfg.LocalPath)
	case StorageTypeS3:
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// NewStorageFromEnv creates a storage instance from environment variables
func NewStorageFromEnv() (ObjectStore, error) {
	storageType := os.Getenv("STORAGE_TYPE")
	if storageType == "" {
		storageType = "s3"
	}

	cfg := StorageConfig{
		Type: StorageType(storageType),
	}

	switch StorageType(storageType) {
	case StorageTypeLocal:
		localPath := os.Getenv("STORAGE_LOCAL_PATH")
		if localPath == "" {
			localPath = "./storage/corpus" // Default local storage path
		}
		cfg.LocalPath = localPath
		return NewLocalStore(cfg.LocalPath)

	case StorageTypeS3:
		cfg.S3Bucket = os.Getenv("S3_BUCKET")
		cfg.S3Region = os.Getenv("AWS_REGION")
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1" // Default region
		}
		cfg.AWSAccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		cfg.AWSSecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

		if cfg.S3Bucket == "" {
			return nil, errors.New("S3_BUCKET environment variable is required for S3 storage")
		}

		return NewS3Store(cfg)

	default:
		return nil, fmt.Errorf("unknown storage type: %s", storageType)
	}
}
