package processing

import (
	"bytes"
	"log"
	"path"
	"strings"

	"wedding/db"
	"wedding/models"
	"wedding/storage"
	"wedding/utils"
)

const ThumbSize = 1280

// ThumbPathFor returns photos/abc_thumb.jpg for photos/abc.png
func ThumbPathFor(photoPath string) string {
	return strings.TrimSuffix(photoPath, path.Ext(photoPath)) + "_thumb.jpg"
}

// CreateThumb stores a JPEG thumbnail next to the photo and saves its path and the original dimensions
func CreateThumb(photo *models.Photo, s storage.StorageAPI) error {
	buf := bytes.Buffer{}
	if _, err := s.Load(photo.Path, &buf); err != nil {
		log.Printf("Cannot load photo %d (%s): %v", photo.ID, photo.Path, err)
		return err
	}
	thumb := bytes.Buffer{}
	converted, err := utils.CreateThumb(ThumbSize, &buf, &thumb)
	if err != nil {
		log.Printf("Error creating thumbnail for photo %d (%s): %v", photo.ID, photo.Path, err)
		return err
	}
	thumbPath := ThumbPathFor(photo.Path)
	if _, err = s.Save(thumbPath, &thumb); err != nil {
		log.Printf("Error saving thumbnail for photo %d (%s): %v", photo.ID, thumbPath, err)
		return err
	}
	photo.ThumbPath = thumbPath
	photo.Width = converted.OldX
	photo.Height = converted.OldY
	err = db.Instance.Model(photo).Updates(map[string]interface{}{
		"thumb_path": photo.ThumbPath,
		"width":      photo.Width,
		"height":     photo.Height,
	}).Error
	if err != nil {
		log.Printf("Error saving photo %d to DB: %v", photo.ID, err)
	}
	return err
}
