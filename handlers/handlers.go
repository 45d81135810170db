package handlers

import (
	"errors"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"

	"wedding/faces"
	"wedding/messaging"
	"wedding/processing"
	"wedding/storage"

	"github.com/google/uuid"
)

type Response struct {
	Error string `json:"error"`
}

var (
	// Predefined errors
	OKResponse        = Response{}
	NopeResponse      = Response{"nope"}
	DBError1Response  = Response{"DB Error 1"}
	DBError2Response  = Response{"DB Error 2"}
	DBError3Response  = Response{"DB Error 3"}
	NoStorageResponse = Response{"storage not available"}
)

var (
	errNoStorage        = errors.New("storage not available")
	errUnsupportedImage = errors.New("unsupported image type")
)

var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Handlers holds the services used by the HTTP API
type Handlers struct {
	Recognizer *faces.Recognizer
	Processor  *processing.Processor
	Sender     messaging.Sender
	// Threshold for matching a secondary image against the main image on login
	Threshold float64
}

func New(recognizer *faces.Recognizer, processor *processing.Processor, sender messaging.Sender, threshold float64) *Handlers {
	return &Handlers{
		Recognizer: recognizer,
		Processor:  processor,
		Sender:     sender,
		Threshold:  threshold,
	}
}

func imageMimeType(fileName string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(fileName))
	mimeType, ok := imageExtensions[ext]
	if !ok {
		return mime.TypeByExtension(ext), false
	}
	return mimeType, true
}

// saveUpload stores an uploaded image under location in the default bucket with a random name
func saveUpload(file *multipart.FileHeader, location string) (s storage.StorageAPI, path string, size int64, err error) {
	if _, ok := imageMimeType(file.Filename); !ok {
		return nil, "", 0, errUnsupportedImage
	}
	s = storage.GetDefaultStorage()
	if s == nil {
		return nil, "", 0, errNoStorage
	}
	src, err := file.Open()
	if err != nil {
		return nil, "", 0, err
	}
	defer src.Close()
	path = location + "/" + uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	size, err = s.Save(path, src)
	return
}
