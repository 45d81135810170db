package models

import "wedding/db"

// MainImage is a reference picture of the couple uploaded for face matching on guest login
type MainImage struct {
	ID        uint64 `gorm:"primaryKey"`
	CreatedAt int64
	UserID    uint64 `gorm:"not null"`
	User      User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	BucketID  uint64
	Path      string `gorm:"type:varchar(300)"`
}

// LatestMainImage returns the most recently uploaded main image, ID is 0 if there is none
func LatestMainImage() (m MainImage, err error) {
	err = db.Instance.Order("created_at DESC, id DESC").Limit(1).Find(&m).Error
	return
}
