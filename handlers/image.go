package handlers

import (
	"log"
	"net/http"

	"wedding/db"
	"wedding/models"
	"wedding/storage"

	"github.com/gin-gonic/gin"
)

// MainImageUpload stores a new reference picture of the couple, the latest one is used on guest login
func (h *Handlers) MainImageUpload(c *gin.Context, user *models.User) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{"no file uploaded"})
		return
	}
	s, path, _, err := saveUpload(file, storage.LocationMain)
	if err != nil {
		log.Printf("Main image upload error: %v", err)
		c.JSON(uploadErrorStatus(err), Response{err.Error()})
		return
	}
	mainImage := models.MainImage{
		UserID:   user.ID,
		BucketID: s.GetBucket().ID,
		Path:     path,
	}
	if err = db.Instance.Create(&mainImage).Error; err != nil {
		log.Printf("Main image DB error: %v", err)
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": "", "id": mainImage.ID, "path": path})
}
