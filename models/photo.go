package models

import (
	"unicode/utf8"

	"wedding/db"
	"wedding/storage"
)

// maxProcessingErrorLength is the size of the processing_error column
const maxProcessingErrorLength = 1000

// Photo is a wedding photo uploaded by the couple
type Photo struct {
	ID              uint64         `gorm:"primaryKey" json:"id"`
	CreatedAt       int64          `gorm:"index" json:"created_at"`
	UploadedByID    uint64         `gorm:"not null" json:"-"`
	UploadedBy      User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	BucketID        uint64         `json:"-"`
	Bucket          storage.Bucket `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Name            string         `gorm:"type:varchar(300)" json:"name"`
	Path            string         `gorm:"type:varchar(300)" json:"-"`
	ThumbPath       string         `gorm:"type:varchar(300)" json:"-"`
	MimeType        string         `gorm:"type:varchar(50)" json:"mime_type"`
	Size            int64          `json:"size"`
	Width           uint16         `json:"width"`
	Height          uint16         `json:"height"`
	Processed       bool           `gorm:"index;not null;default:false" json:"processed"`
	ProcessingError string         `gorm:"type:varchar(1000)" json:"processing_error,omitempty"`
	Faces           []DetectedFace `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// GetPath returns the thumbnail path if asked for and available
func (p *Photo) GetPath(thumb bool) string {
	if thumb && p.ThumbPath != "" {
		return p.ThumbPath
	}
	return p.Path
}

func (p *Photo) Storage() storage.StorageAPI {
	return storage.StorageFrom(p.BucketID)
}

// UnprocessedPhotos returns photos not yet passed through face matching, oldest first
func UnprocessedPhotos() (photos []Photo, err error) {
	err = db.Instance.Where("processed = ?", false).Order("id ASC").Find(&photos).Error
	return
}

// PhotosWithUser returns the photos in which a face was matched to userID
func PhotosWithUser(userID uint64) (photos []Photo, err error) {
	err = db.Instance.
		Where("id IN (?)", db.Instance.Model(&DetectedFace{}).Select("photo_id").Where("matched_user_id = ?", userID)).
		Order("id ASC").
		Find(&photos).Error
	return
}

// ReplaceFaces stores the detection results and marks the photo processed
func (p *Photo) ReplaceFaces(detected []DetectedFace) error {
	tx := db.Instance.Begin()
	if err := tx.Where("photo_id = ?", p.ID).Delete(&DetectedFace{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if len(detected) > 0 {
		if err := tx.Create(&detected).Error; err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Model(p).Updates(map[string]interface{}{"processed": true, "processing_error": ""}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}
	p.Processed = true
	p.ProcessingError = ""
	p.Faces = detected
	return nil
}

// MarkFailed marks the photo as processed so it is not retried, keeping the reason
func (p *Photo) MarkFailed(reason string) error {
	if len(reason) > maxProcessingErrorLength {
		n := maxProcessingErrorLength
		for n > 0 && !utf8.RuneStart(reason[n]) {
			n--
		}
		reason = reason[:n]
	}
	p.Processed = true
	p.ProcessingError = reason
	return db.Instance.Model(p).Updates(map[string]interface{}{"processed": true, "processing_error": reason}).Error
}
