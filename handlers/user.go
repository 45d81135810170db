package handlers

import (
	"errors"
	"log"
	"math"
	"net/http"

	"wedding/auth"
	"wedding/db"
	"wedding/faces"
	"wedding/models"
	"wedding/storage"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type UserCreateRequest struct {
	Name     string `form:"name" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,min=6"`
}

type UserLoginRequest struct {
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// FaceMatchResult is reported on login of a guest who uploaded a secondary image
type FaceMatchResult struct {
	Matched   bool     `json:"matched"`
	Distance  *float64 `json:"distance"` // null when nothing was compared
	Label     string   `json:"label"`
	MainImage string   `json:"main_image"`
	Error     string   `json:"error,omitempty"`
}

func (h *Handlers) UserCreate(c *gin.Context) {
	postReq := UserCreateRequest{}
	err := c.ShouldBindWith(&postReq, binding.Form)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// The first account belongs to the couple
	role := models.RoleGuest
	if !models.CoupleExists() {
		role = models.RoleCouple
	}
	user, err := models.UserCreate(postReq.Name, postReq.Email, postReq.Password, role)
	if errors.Is(err, models.ErrEmailTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("UserCreate error: %v", err)
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"error": "", "user": user})
}

func (h *Handlers) UserLogin(c *gin.Context) {
	postReq := UserLoginRequest{}
	err := c.ShouldBindWith(&postReq, binding.Form)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := models.UserLogin(postReq.Email, postReq.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	session := auth.LoadSession(c)
	if err = session.LoginUser(&user); err != nil {
		log.Printf("Session save error: %v", err)
		c.JSON(http.StatusInternalServerError, Response{"session error"})
		return
	}
	result := gin.H{"error": "", "user": user, "permissions": user.GetPermissions()}
	if !user.IsCouple() && user.SecondaryImagePath != "" {
		result["face_match"] = h.matchSecondaryImage(&user)
	}
	c.JSON(http.StatusOK, result)
}

// matchSecondaryImage compares the user's secondary image with the latest main image.
// Failures end up in the result, they never fail the login.
func (h *Handlers) matchSecondaryImage(user *models.User) (result FaceMatchResult) {
	mainImage, err := models.LatestMainImage()
	if err != nil {
		log.Printf("LatestMainImage error: %v", err)
	}
	if mainImage.ID == 0 {
		result.Error = "main image not available"
		return
	}
	result.MainImage = mainImage.Path
	mainSrc := storage.StorageFrom(mainImage.BucketID)
	var secondarySrc storage.StorageAPI
	if user.SecondaryBucketID != nil {
		secondarySrc = storage.StorageFrom(*user.SecondaryBucketID)
	}
	if mainSrc == nil || secondarySrc == nil {
		result.Error = "face recognition failed: " + errNoStorage.Error()
		return
	}
	query, err := h.Recognizer.SingleDescriptor(secondarySrc, user.SecondaryImagePath)
	if err != nil {
		result.Error = "face recognition failed: " + err.Error()
		return
	}
	if query == nil {
		result.Error = "secondary image descriptor not found"
		return
	}
	candidates, err := h.Recognizer.AllDescriptors(mainSrc, mainImage.Path)
	if err != nil {
		result.Error = "face recognition failed: " + err.Error()
		return
	}
	if len(candidates) == 0 {
		result.Error = "main image descriptors not found"
		return
	}
	match := faces.FindBestMatch(query, candidates, h.Threshold)
	result.Matched = match.Matched
	result.Label = match.Label
	if !math.IsInf(match.Distance, 0) {
		result.Distance = &match.Distance
	}
	return
}

func (h *Handlers) UserGetStatus(c *gin.Context, user *models.User) {
	c.JSON(http.StatusOK, gin.H{"error": "", "user": user, "permissions": user.GetPermissions(), "enrolled": len(user.FaceDescriptor) > 0})
}

func (h *Handlers) UserLogout(c *gin.Context, user *models.User) {
	auth.LoadSession(c).LogoutUser()
	c.JSON(http.StatusOK, OKResponse)
}

// UserSecondaryImage stores the image compared against the main image on the next login
func (h *Handlers) UserSecondaryImage(c *gin.Context, user *models.User) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{"no file uploaded"})
		return
	}
	s, path, _, err := saveUpload(file, storage.LocationSecondary)
	if err != nil {
		log.Printf("Secondary image upload error for user %d: %v", user.ID, err)
		c.JSON(uploadErrorStatus(err), Response{err.Error()})
		return
	}
	bucketID := s.GetBucket().ID
	err = db.Instance.Model(user).Updates(map[string]interface{}{
		"secondary_bucket_id":  bucketID,
		"secondary_image_path": path,
	}).Error
	if err != nil {
		log.Printf("Secondary image DB error for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": "", "path": path})
}

func uploadErrorStatus(err error) int {
	if errors.Is(err, errUnsupportedImage) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
