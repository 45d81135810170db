package storage

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"

	"wedding/config"
	"wedding/db"
)

var ErrInvalidPath = errors.New("invalid storage path")

type StorageAPI interface {
	Save(path string, reader io.Reader) (int64, error)
	Load(path string, writer io.Writer) (int64, error)
	Serve(path string, request *http.Request, writer http.ResponseWriter)
	Delete(path string) error
	GetFreeSpace() uint64
	GetBucket() *Bucket
}

var (
	cachedStorage []StorageAPI
	cacheMutex    sync.RWMutex
)

func Init() {
	if err := db.Instance.AutoMigrate(&Bucket{}); err != nil {
		panic(err)
	}
	var buckets []Bucket
	if err := db.Instance.Find(&buckets).Error; err != nil {
		panic(err)
	}
	if len(buckets) == 0 && config.DEFAULT_BUCKET_DIR != "" {
		bucket := Bucket{
			Name:        "default",
			StorageType: StorageTypeFile,
			Path:        config.DEFAULT_BUCKET_DIR,
		}
		if err := bucket.Create(); err != nil {
			panic(err)
		}
		log.Printf("Created default bucket at %s", bucket.Path)
		buckets = append(buckets, bucket)
	}
	log.Printf("Storage Buckets found: %d\n", len(buckets))
	result := []StorageAPI{}
	for i := range buckets {
		storage, err := NewStorage(&buckets[i])
		if err != nil {
			panic(err)
		}
		result = append(result, storage)
	}
	cacheMutex.Lock()
	cachedStorage = result
	cacheMutex.Unlock()
}

func NewStorage(bucket *Bucket) (StorageAPI, error) {
	switch bucket.StorageType {
	case StorageTypeFile:
		return NewDiskStorage(bucket), nil
	case StorageTypeS3:
		return NewS3Storage(bucket), nil
	}
	return nil, fmt.Errorf("storage type unavailable for Bucket %d", bucket.ID)
}

// Register makes storage available to StorageFrom and GetDefaultStorage
func Register(storage StorageAPI) {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	cachedStorage = append(cachedStorage, storage)
}

func StorageFrom(bucketID uint64) StorageAPI {
	cacheMutex.RLock()
	defer cacheMutex.RUnlock()
	for _, s := range cachedStorage {
		if s.GetBucket().ID == bucketID {
			return s
		}
	}
	return nil
}

// GetDefaultStorage prefers local disk over S3
func GetDefaultStorage() StorageAPI {
	cacheMutex.RLock()
	defer cacheMutex.RUnlock()
	for _, s := range cachedStorage {
		if s.GetBucket().StorageType == StorageTypeFile {
			return s
		}
	}
	if len(cachedStorage) > 0 {
		return cachedStorage[0]
	}
	return nil
}

// CleanPath rejects parent references and strips leading/duplicate slashes
func CleanPath(path string) (string, error) {
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return "", ErrInvalidPath
	}
	for _, part := range strings.Split(path, "/") {
		if part == ".." || part == "." {
			return "", ErrInvalidPath
		}
	}
	return path, nil
}
