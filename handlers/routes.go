package handlers

import (
	"net/http"

	"wedding/auth"
	"wedding/models"
)

// Register wires all API end-points to the router
func (h *Handlers) Register(authRouter *auth.Router) {
	router := authRouter.Base
	// User handlers
	router.POST("/user/register", h.UserCreate)
	router.POST("/user/login", h.UserLogin)
	authRouter.GET("/user/status", h.UserGetStatus)
	authRouter.POST("/user/logout", h.UserLogout)
	authRouter.POST("/user/secondary-image", h.UserSecondaryImage)
	// Couple reference image
	authRouter.POST("/image/main", h.MainImageUpload, models.PermissionUploadPhotos)
	// Guest management
	authRouter.GET("/contact/list", h.ContactList, models.PermissionManageGuests)
	authRouter.POST("/contact/save", h.ContactSave, models.PermissionManageGuests)
	authRouter.POST("/contact/invite", h.ContactInvite, models.PermissionManageGuests)
	router.POST("/rsvp/register", h.RSVPRegister)
	authRouter.GET("/rsvp/list", h.RSVPList, models.PermissionManageGuests)
	// Wedding photos
	authRouter.POST("/photo/upload", h.PhotoUpload, models.PermissionUploadPhotos)
	authRouter.POST("/photo/process", h.PhotoProcess, models.PermissionProcessPhotos)
	authRouter.GET("/photo/list", h.PhotoList)
	authRouter.GET("/photo/fetch", h.PhotoFetch) // Guests only get photos they are in (checked in handler)
	// Bucket handlers
	authRouter.GET("/bucket/list", h.BucketList, models.PermissionUploadPhotos)
	authRouter.POST("/bucket/save", h.BucketSave, models.PermissionUploadPhotos)
	// Invitation links
	authRouter.Invite(http.MethodPost, "/w/invite/:token/selfie", h.InviteSelfie)
	authRouter.Invite(http.MethodGet, "/w/invite/:token/photos", h.InvitePhotos)
	authRouter.Invite(http.MethodGet, "/w/invite/:token/photo", h.InvitePhoto)
}
