package handlers

import (
	"log"
	"net/http"

	"wedding/db"
	"wedding/models"
	"wedding/storage"

	"github.com/gin-gonic/gin"
)

// InviteSelfie enrolls the invited guest's face. Face recognition problems do not fail the upload.
func (h *Handlers) InviteSelfie(c *gin.Context, contact *models.Contact) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["file"]) == 0 {
		c.JSON(http.StatusBadRequest, Response{"no selfie file uploaded"})
		return
	}
	if len(form.File["file"]) > 1 {
		c.JSON(http.StatusBadRequest, Response{"only a single selfie can be uploaded"})
		return
	}
	s, path, _, err := saveUpload(form.File["file"][0], storage.LocationSelfies)
	if err != nil {
		log.Printf("Selfie upload error for contact %d: %v", contact.ID, err)
		c.JSON(uploadErrorStatus(err), Response{err.Error()})
		return
	}

	message := "Selfie processed and face descriptor stored."
	descriptor, faceErr := h.Processor.EnrollSelfie(s, path)
	if faceErr != nil {
		log.Printf("Selfie face processing error for contact %d: %v", contact.ID, faceErr)
		message = "Selfie uploaded, but face recognition failed: " + faceErr.Error()
	} else if descriptor == nil {
		message = "Selfie uploaded, but no face could be clearly detected. Please try a different photo."
	}

	guest, err := guestForContact(contact)
	if err != nil {
		log.Printf("Guest lookup error for contact %d: %v", contact.ID, err)
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	bucketID := s.GetBucket().ID
	guest.SelfieBucketID = &bucketID
	guest.SelfiePath = path
	if faceErr == nil {
		// A selfie without a face clears the enrollment, a failed recognition keeps the previous one
		guest.SetDescriptor(descriptor)
	}
	if descriptor != nil {
		guest.Verified = true
	}
	if guest.Name == "" {
		guest.Name = contact.Name
	}
	err = db.Instance.Model(&guest).Select("selfie_bucket_id", "selfie_path", "face_descriptor", "verified", "name").Updates(&guest).Error
	if err != nil {
		log.Printf("Guest %d update error: %v", guest.ID, err)
		c.JSON(http.StatusInternalServerError, DBError2Response)
		return
	}
	if contact.GuestUserID == nil || *contact.GuestUserID != guest.ID {
		if err = db.Instance.Model(contact).Update("guest_user_id", guest.ID).Error; err != nil {
			log.Printf("Contact %d link error: %v", contact.ID, err)
			c.JSON(http.StatusInternalServerError, DBError3Response)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"error":         "",
		"message":       message,
		"guest_id":      guest.ID,
		"face_detected": descriptor != nil,
	})
}

// guestForContact returns the guest account linked to the contact, one with the same phone, or a new one
func guestForContact(contact *models.Contact) (guest models.User, err error) {
	if contact.GuestUser != nil && contact.GuestUser.ID > 0 {
		return *contact.GuestUser, nil
	}
	err = db.Instance.Where("phone = ? AND role = ?", contact.Phone, models.RoleGuest).Limit(1).Find(&guest).Error
	if err != nil || guest.ID > 0 {
		return
	}
	guest = models.User{
		Name:  contact.Name,
		Email: contact.Phone + "@guest.invalid",
		Phone: contact.Phone,
		Role:  models.RoleGuest,
	}
	err = db.Instance.Create(&guest).Error
	return
}

// InvitePhotos lists the wedding photos the invited guest was matched in
func (h *Handlers) InvitePhotos(c *gin.Context, contact *models.Contact) {
	if contact.GuestUserID == nil {
		c.JSON(http.StatusOK, []PhotoInfo{})
		return
	}
	photos, err := models.PhotosWithUser(*contact.GuestUserID)
	if err != nil {
		log.Printf("InvitePhotos error: %v", err)
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, photoList(photos, "/w/invite/"+c.Param("token")+"/photo?id="))
}

// InvitePhoto serves a single photo the invited guest appears in
func (h *Handlers) InvitePhoto(c *gin.Context, contact *models.Contact) {
	r := PhotoFetchRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if contact.GuestUserID == nil || !userInPhoto(*contact.GuestUserID, r.ID) {
		c.JSON(http.StatusUnauthorized, NopeResponse)
		return
	}
	servePhoto(c, r.ID, r.Thumb == 1)
}
