package storage

import (
	"os"

	"wedding/db"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

type StorageType uint8

const (
	StorageTypeFile StorageType = 0
	StorageTypeS3   StorageType = 1
)

const (
	LocationSelfies   = "selfies"
	LocationPhotos    = "photos"
	LocationMain      = "main"
	LocationSecondary = "secondary"
)

type Bucket struct {
	ID          uint64      `gorm:"primaryKey" json:"id"`
	CreatedAt   int         `json:"created_at"`
	UpdatedAt   int         `json:"updated_at"`
	Name        string      `gorm:"type:varchar(200)" json:"name"` // Name of the S3 bucket in case of StorageTypeS3
	StorageType StorageType `json:"storage_type"`
	Path        string      `gorm:"type:varchar(1000)" json:"path"` // Path on a drive or a prefix in a S3 bucket
	Endpoint    string      `gorm:"type:varchar(300)" json:"endpoint"`
	Region      string      `gorm:"type:varchar(100)" json:"region"`
	S3Key       string      `gorm:"type:varchar(300)" json:"s3key"`
	S3Secret    string      `gorm:"type:varchar(300)" json:"-"`
}

func (b *Bucket) Create() error {
	if b.StorageType == StorageTypeFile {
		// Pre-create locations on disk
		for _, location := range []string{LocationSelfies, LocationPhotos, LocationMain, LocationSecondary} {
			if err := os.MkdirAll(b.Path+"/"+location, 0777); err != nil {
				return err
			}
		}
	}
	return db.Instance.Create(b).Error
}

// GetRemotePath returns the object key for path
func (b *Bucket) GetRemotePath(path string) string {
	if b.Path == "" {
		return path
	}
	return b.Path + "/" + path
}

func (b *Bucket) CreateSVC() *s3.S3 {
	cfg := aws.Config{
		Region:      aws.String(b.Region),
		Credentials: credentials.NewStaticCredentials(b.S3Key, b.S3Secret, ""),
	}
	if b.Endpoint != "" {
		// S3 compatible services (MinIO, etc)
		cfg.Endpoint = aws.String(b.Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess := session.Must(session.NewSession(&cfg))
	return s3.New(sess)
}
