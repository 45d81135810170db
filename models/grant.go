package models

type Permission uint8

const (
	PermissionNone          Permission = 0
	PermissionManageGuests  Permission = 1 // contacts, invitations and RSVPs
	PermissionUploadPhotos  Permission = 2 // wedding photos and main image
	PermissionProcessPhotos Permission = 3 // trigger face matching over wedding photos
)

// CouplePermissions are granted to the bride/groom account
var CouplePermissions = []Permission{PermissionManageGuests, PermissionUploadPhotos, PermissionProcessPhotos}

type Grant struct {
	ID         uint64     `gorm:"primaryKey"`
	CreatedAt  int64
	UserID     uint64     `gorm:"index:user_permission,unique"`
	Permission Permission `gorm:"index:user_permission,unique"`
}
