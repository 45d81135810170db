package processing

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"wedding/faces"
	"wedding/models"
	"wedding/storage"
)

// ErrNoEnrolledGuests means there is nobody to match wedding photos against yet
var ErrNoEnrolledGuests = errors.New("no guests with a face descriptor")

type Summary struct {
	Photos    int `json:"photos"`    // unprocessed photos found
	Processed int `json:"processed"` // photos marked processed in this pass
	Faces     int `json:"faces"`
	Matched   int `json:"matched"`
}

// Processor matches the faces in wedding photos against the enrolled guests
type Processor struct {
	Recognizer *faces.Recognizer
	Threshold  float64
	// OnProgress is called after every photo with the number of photos handled so far
	OnProgress func(done, total int)

	running sync.Mutex
}

func NewProcessor(recognizer *faces.Recognizer, threshold float64) *Processor {
	return &Processor{
		Recognizer: recognizer,
		Threshold:  threshold,
	}
}

// ProcessPending runs one pass over all unprocessed wedding photos. Only one pass runs at a time.
func (p *Processor) ProcessPending(ctx context.Context) (summary Summary, err error) {
	p.running.Lock()
	defer p.running.Unlock()

	photos, err := models.UnprocessedPhotos()
	if err != nil {
		return summary, err
	}
	summary.Photos = len(photos)
	if len(photos) == 0 {
		return summary, nil
	}
	guests, err := models.EnrolledGuests()
	if err != nil {
		return summary, err
	}
	if len(guests) == 0 {
		return summary, ErrNoEnrolledGuests
	}
	if err = p.Recognizer.Load(); err != nil {
		return summary, err
	}
	matcher := faces.NewMatcher(guests, p.Threshold)
	start := time.Now()
	for i := range photos {
		if err = ctx.Err(); err != nil {
			break
		}
		found, matched, done := p.processPhoto(&photos[i], matcher)
		if done {
			summary.Processed++
			summary.Faces += found
			summary.Matched += matched
		}
		if p.OnProgress != nil {
			p.OnProgress(i+1, len(photos))
		}
	}
	log.Printf("Face matching pass: %d photos, %d processed, %d faces, %d matched, took %v",
		summary.Photos, summary.Processed, summary.Faces, summary.Matched, time.Since(start))
	return summary, err
}

// processPhoto returns the number of faces found and matched, done is false if the photo is left for a later pass
func (p *Processor) processPhoto(photo *models.Photo, matcher *faces.Matcher) (found, matched int, done bool) {
	s := photo.Storage()
	if s == nil {
		log.Printf("Photo %d: storage bucket %d not available", photo.ID, photo.BucketID)
		p.markFailed(photo, "storage bucket not available")
		return 0, 0, true
	}
	buf := bytes.Buffer{}
	if _, err := s.Load(photo.Path, &buf); err != nil {
		log.Printf("Photo %d: cannot read %s: %v", photo.ID, photo.Path, err)
		p.markFailed(photo, "could not read image: "+err.Error())
		return 0, 0, true
	}
	result, err := p.Recognizer.DetectFaces(buf.Bytes())
	if err != nil {
		log.Printf("Error detecting faces for photo %d, path: %s: %v", photo.ID, photo.Path, err)
		return 0, 0, false
	}
	detected := make([]models.DetectedFace, 0, len(result))
	for i := range result {
		match := matcher.FindBestMatch(&result[i].Descriptor)
		var userID *uint64
		if match.Matched {
			if id, ok := models.UserIDFromLabel(match.Label); ok {
				userID = &id
				matched++
			}
		}
		detected = append(detected, models.NewDetectedFace(photo.ID, i, &result[i], match, userID))
	}
	if err = photo.ReplaceFaces(detected); err != nil {
		log.Printf("Error saving faces for photo %d: %v", photo.ID, err)
		return 0, 0, false
	}
	return len(result), matched, true
}

func (p *Processor) markFailed(photo *models.Photo, reason string) {
	if err := photo.MarkFailed(reason); err != nil {
		log.Printf("Error marking photo %d as failed: %v", photo.ID, err)
	}
}

// EnrollSelfie returns the descriptor of the guest's face in the selfie stored at path, nil if none
func (p *Processor) EnrollSelfie(src storage.StorageAPI, path string) (*faces.Descriptor, error) {
	return p.Recognizer.SingleDescriptor(src, path)
}

// DefaultInterval is used by Start when the configured interval is not positive
const DefaultInterval = 30 * time.Second

// Start runs ProcessPending every interval until ctx is done
func (p *Processor) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		log.Printf("Invalid processing interval %v, using %v", interval, DefaultInterval)
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		_, err := p.ProcessPending(ctx)
		if err != nil && !errors.Is(err, ErrNoEnrolledGuests) && !errors.Is(err, context.Canceled) {
			log.Printf("Face matching pass error: %v", err)
		}
	}
}
