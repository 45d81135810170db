package handlers

import (
	"log"
	"net/http"
	"strings"

	"wedding/db"
	"wedding/models"
	"wedding/storage"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type BucketSaveRequest struct {
	storage.Bucket
	S3Secret string `json:"s3secret"`
}

func hasWriteAccess(bucket *storage.Bucket) error {
	s, err := storage.NewStorage(bucket)
	if err != nil {
		return err
	}
	testPath := "tmp/write-test"
	if _, err = s.Save(testPath, strings.NewReader("some-content")); err != nil {
		log.Printf("Cannot save to bucket: %s", bucket.Name)
		return err
	}
	if err = s.Delete(testPath); err != nil {
		log.Printf("Cannot delete from bucket: %s", bucket.Name)
		return err
	}
	return nil
}

func (h *Handlers) BucketSave(c *gin.Context, user *models.User) {
	r := BucketSaveRequest{}
	err := c.ShouldBindWith(&r, binding.JSON)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	bucket := r.Bucket
	bucket.S3Secret = r.S3Secret
	if bucket.S3Secret == "" && bucket.ID > 0 {
		// Keep the stored secret, it is never sent to clients
		existing := storage.Bucket{}
		db.Instance.Select("s3_secret").First(&existing, bucket.ID)
		bucket.S3Secret = existing.S3Secret
	}
	if bucket.Name == "" {
		c.JSON(http.StatusBadRequest, Response{"Empty bucket name"})
		return
	}
	if bucket.StorageType == storage.StorageTypeFile {
		if bucket.Path == "" || bucket.Path[0] != '/' || strings.Contains(bucket.Path, "..") {
			c.JSON(http.StatusBadRequest, Response{"Path must be absolute and start with / (slash)"})
			return
		}
	} else if bucket.StorageType == storage.StorageTypeS3 {
		bucket.Path = strings.Trim(bucket.Path, "/")
		if bucket.S3Key == "" || bucket.S3Secret == "" {
			c.JSON(http.StatusBadRequest, Response{"'S3 Key' and 'S3 Secret' must be provided"})
			return
		}
		if bucket.Region == "" {
			bucket.Region = "us-east-1"
		}
	} else {
		c.JSON(http.StatusBadRequest, Response{"'storage_type' must be 0 (file) or 1 (s3)"})
		return
	}
	if err = hasWriteAccess(&bucket); err != nil {
		c.JSON(http.StatusForbidden, Response{"No write access to bucket: " + err.Error()})
		return
	}
	if bucket.ID == 0 {
		err = bucket.Create()
	} else {
		err = db.Instance.Save(&bucket).Error
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{err.Error()})
		return
	}
	// Re-initialize storage
	storage.Init()
	c.JSON(http.StatusOK, bucket)
}

func (h *Handlers) BucketList(c *gin.Context, user *models.User) {
	buckets := []storage.Bucket{}
	result := db.Instance.Find(&buckets)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, buckets)
}
