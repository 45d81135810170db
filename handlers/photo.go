package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"wedding/db"
	"wedding/faces"
	"wedding/models"
	"wedding/processing"
	"wedding/storage"
	"wedding/utils"

	"github.com/gin-gonic/gin"
)

type PhotoFetchRequest struct {
	ID    uint64 `form:"id" binding:"required"`
	Thumb int    `form:"thumb"`
}

type PhotoInfo struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	Width  uint16 `json:"width"`
	Height uint16 `json:"height"`
	URL    string `json:"url"`
}

type PhotoUploadResponse struct {
	Error    string   `json:"error"`
	Uploaded []uint64 `json:"uploaded"`
	Failed   []string `json:"failed"`
}

// PhotoUpload stores wedding photos sent as multipart "files", they are matched on the next processing pass
func (h *Handlers) PhotoUpload(c *gin.Context, user *models.User) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		c.JSON(http.StatusBadRequest, Response{"no files uploaded"})
		return
	}
	result := PhotoUploadResponse{Uploaded: []uint64{}, Failed: []string{}}
	for _, file := range form.File["files"] {
		s, path, size, err := saveUpload(file, storage.LocationPhotos)
		if err != nil {
			log.Printf("Photo upload error for %s: %v", file.Filename, err)
			result.Failed = append(result.Failed, file.Filename)
			continue
		}
		mimeType, _ := imageMimeType(file.Filename)
		photo := models.Photo{
			UploadedByID: user.ID,
			BucketID:     s.GetBucket().ID,
			Name:         file.Filename,
			Path:         path,
			MimeType:     mimeType,
			Size:         size,
		}
		if err = db.Instance.Create(&photo).Error; err != nil {
			log.Printf("Photo DB error for %s: %v", file.Filename, err)
			result.Failed = append(result.Failed, file.Filename)
			continue
		}
		// A photo without thumbnail is still served in full size
		_ = processing.CreateThumb(&photo, s)
		result.Uploaded = append(result.Uploaded, photo.ID)
	}
	if len(result.Uploaded) == 0 {
		result.Error = "no photos were uploaded"
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PhotoProcess runs a face matching pass over the new wedding photos
func (h *Handlers) PhotoProcess(c *gin.Context, user *models.User) {
	summary, err := h.Processor.ProcessPending(c.Request.Context())
	switch {
	case errors.Is(err, processing.ErrNoEnrolledGuests):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no guest selfies processed yet", "summary": summary})
	case errors.Is(err, faces.ErrModelsNotLoaded), errors.Is(err, faces.ErrRecognizerClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "summary": summary})
	case errors.Is(err, context.Canceled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "processing canceled", "summary": summary})
	case err != nil:
		log.Printf("PhotoProcess error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed", "summary": summary})
	case summary.Photos == 0:
		c.JSON(http.StatusOK, gin.H{"error": "", "message": "No new wedding photos to process.", "summary": summary})
	default:
		c.JSON(http.StatusOK, gin.H{"error": "", "summary": summary})
	}
}

// PhotoFetch serves a photo to the couple or to a guest who appears in it
func (h *Handlers) PhotoFetch(c *gin.Context, user *models.User) {
	r := PhotoFetchRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if !user.HasPermission(models.PermissionUploadPhotos) && !userInPhoto(user.ID, r.ID) {
		c.JSON(http.StatusUnauthorized, NopeResponse)
		return
	}
	servePhoto(c, r.ID, r.Thumb == 1)
}

func userInPhoto(userID, photoID uint64) bool {
	var count int64
	db.Instance.Model(&models.DetectedFace{}).Where("photo_id = ? AND matched_user_id = ?", photoID, userID).Count(&count)
	return count > 0
}

func servePhoto(c *gin.Context, photoID uint64, thumb bool) {
	photo := models.Photo{}
	if err := db.Instance.First(&photo, photoID).Error; err != nil {
		c.JSON(http.StatusNotFound, Response{"photo not found"})
		return
	}
	s := photo.Storage()
	if s == nil {
		c.JSON(http.StatusInternalServerError, NoStorageResponse)
		return
	}
	utils.SetCacheHeader(c, utils.CachePhotos)
	s.Serve(photo.GetPath(thumb), c.Request, c.Writer)
}

func photoList(photos []models.Photo, urlPrefix string) []PhotoInfo {
	result := make([]PhotoInfo, 0, len(photos))
	for _, p := range photos {
		result = append(result, PhotoInfo{
			ID:     p.ID,
			Name:   p.Name,
			Width:  p.Width,
			Height: p.Height,
			URL:    urlPrefix + strconv.FormatUint(p.ID, 10),
		})
	}
	return result
}

// PhotoList returns all wedding photos to the couple and the matched ones to a guest
func (h *Handlers) PhotoList(c *gin.Context, user *models.User) {
	var (
		photos []models.Photo
		err    error
	)
	if user.HasPermission(models.PermissionUploadPhotos) {
		err = db.Instance.Order("id ASC").Find(&photos).Error
	} else {
		photos, err = models.PhotosWithUser(user.ID)
	}
	if err != nil {
		log.Printf("PhotoList error: %v", err)
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, photoList(photos, "/photo/fetch?id="))
}
