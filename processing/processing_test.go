package processing

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"wedding/db"
	"wedding/faces"
	"wedding/models"
	"wedding/storage"

	"gorm.io/driver/sqlite"
)

type fakeEngine struct {
	mu    sync.Mutex
	faces []faces.Face
	err   error
	calls int
}

func (e *fakeEngine) Recognize(data []byte) ([]faces.Face, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return e.faces, e.err
}

func (e *fakeEngine) Close() {}

var (
	bucketMu     sync.Mutex
	nextBucketID uint64 = 100
)

// setup opens a fresh database and registers a disk bucket with a unique ID
func setup(t *testing.T) storage.StorageAPI {
	t.Helper()
	if err := db.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db"))); err != nil {
		t.Fatal(err)
	}
	if err := models.Migrate(); err != nil {
		t.Fatal(err)
	}
	bucketMu.Lock()
	nextBucketID++
	id := nextBucketID
	bucketMu.Unlock()
	s := storage.NewDiskStorage(&storage.Bucket{ID: id, Path: t.TempDir()})
	storage.Register(s)
	return s
}

func jpegImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{200, 100, 50, 255})
	}
	buf := bytes.Buffer{}
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func descriptorWith(first float32) faces.Descriptor {
	d := faces.Descriptor{}
	d[0] = first
	return d
}

func enrollGuest(t *testing.T, email string, first float32) models.User {
	t.Helper()
	u, err := models.UserCreate("Guest", email, "password", models.RoleGuest)
	if err != nil {
		t.Fatal(err)
	}
	d := descriptorWith(first)
	u.SetDescriptor(&d)
	if err = db.Instance.Model(&u).Update("face_descriptor", u.FaceDescriptor).Error; err != nil {
		t.Fatal(err)
	}
	return u
}

func addPhoto(t *testing.T, s storage.StorageAPI, path string, data []byte) models.Photo {
	t.Helper()
	if data != nil {
		if _, err := s.Save(path, bytes.NewReader(data)); err != nil {
			t.Fatal(err)
		}
	}
	photo := models.Photo{BucketID: s.GetBucket().ID, Name: filepath.Base(path), Path: path, MimeType: "image/jpeg"}
	if err := db.Instance.Create(&photo).Error; err != nil {
		t.Fatal(err)
	}
	return photo
}

func newProcessor(engine *fakeEngine) *Processor {
	return NewProcessor(faces.NewRecognizer("models", func(string) (faces.Engine, error) {
		return engine, nil
	}), 0.6)
}

func TestProcessPending(t *testing.T) {
	s := setup(t)
	guest := enrollGuest(t, "guest@example.com", 0.1)
	other := enrollGuest(t, "other@example.com", 3)
	photo := addPhoto(t, s, "photos/dance.jpg", jpegImage(t, 40, 30))
	addPhoto(t, s, "photos/missing.jpg", nil)

	engine := &fakeEngine{faces: []faces.Face{
		{Rectangle: image.Rect(0, 0, 10, 10), Descriptor: descriptorWith(0.15)},
		{Rectangle: image.Rect(20, 0, 30, 10), Descriptor: descriptorWith(10)},
	}}
	p := newProcessor(engine)
	progress := 0
	p.OnProgress = func(done, total int) {
		progress = done
		if total != 2 {
			t.Errorf("OnProgress total = %d, want 2", total)
		}
	}

	summary, err := p.ProcessPending(context.Background())
	if err != nil {
		t.Fatalf("ProcessPending() error = %v", err)
	}
	want := Summary{Photos: 2, Processed: 2, Faces: 2, Matched: 1}
	if summary != want {
		t.Errorf("summary = %+v, want %+v", summary, want)
	}
	if progress != 2 {
		t.Errorf("progress = %d, want 2", progress)
	}
	if engine.calls != 1 {
		t.Errorf("engine called %d times, want 1", engine.calls)
	}

	withGuest, _ := models.PhotosWithUser(guest.ID)
	if len(withGuest) != 1 || withGuest[0].ID != photo.ID {
		t.Errorf("PhotosWithUser(guest) = %+v", withGuest)
	}
	if withOther, _ := models.PhotosWithUser(other.ID); len(withOther) != 0 {
		t.Errorf("other guest should not be matched, got %d photos", len(withOther))
	}

	var failed models.Photo
	db.Instance.First(&failed, "path = ?", "photos/missing.jpg")
	if !failed.Processed || failed.ProcessingError == "" {
		t.Errorf("unreadable photo = processed %v, error %q", failed.Processed, failed.ProcessingError)
	}

	summary, err = p.ProcessPending(context.Background())
	if err != nil || summary != (Summary{}) {
		t.Errorf("second pass = %+v, %v, want empty summary", summary, err)
	}
}

func TestProcessPending_NoEnrolledGuests(t *testing.T) {
	s := setup(t)
	addPhoto(t, s, "photos/a.jpg", jpegImage(t, 20, 20))
	engine := &fakeEngine{}
	_, err := newProcessor(engine).ProcessPending(context.Background())
	if !errors.Is(err, ErrNoEnrolledGuests) {
		t.Errorf("error = %v, want ErrNoEnrolledGuests", err)
	}
	if engine.calls != 0 {
		t.Error("engine should not be called without enrolled guests")
	}
}

func TestProcessPending_DetectionErrorKeepsPhotoPending(t *testing.T) {
	s := setup(t)
	enrollGuest(t, "guest@example.com", 0.1)
	addPhoto(t, s, "photos/a.jpg", jpegImage(t, 20, 20))

	summary, err := newProcessor(&fakeEngine{err: errors.New("boom")}).ProcessPending(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Photos != 1 || summary.Processed != 0 {
		t.Errorf("summary = %+v", summary)
	}
	pending, _ := models.UnprocessedPhotos()
	if len(pending) != 1 {
		t.Errorf("photo should stay unprocessed, pending = %d", len(pending))
	}
}

func TestProcessPending_ModelsNotLoaded(t *testing.T) {
	s := setup(t)
	enrollGuest(t, "guest@example.com", 0.1)
	addPhoto(t, s, "photos/a.jpg", jpegImage(t, 20, 20))

	p := NewProcessor(faces.NewRecognizer("missing", func(string) (faces.Engine, error) {
		return nil, errors.New("no such file")
	}), 0.6)
	if _, err := p.ProcessPending(context.Background()); !errors.Is(err, faces.ErrModelsNotLoaded) {
		t.Errorf("error = %v, want ErrModelsNotLoaded", err)
	}
}

func TestProcessPending_Canceled(t *testing.T) {
	s := setup(t)
	enrollGuest(t, "guest@example.com", 0.1)
	addPhoto(t, s, "photos/a.jpg", jpegImage(t, 20, 20))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := newProcessor(&fakeEngine{}).ProcessPending(ctx)
	if !errors.Is(err, context.Canceled) || summary.Processed != 0 {
		t.Errorf("ProcessPending() = %+v, %v", summary, err)
	}
}

func TestEnrollSelfie(t *testing.T) {
	s := setup(t)
	if _, err := s.Save("selfies/me.jpg", bytes.NewReader(jpegImage(t, 20, 20))); err != nil {
		t.Fatal(err)
	}
	engine := &fakeEngine{faces: []faces.Face{
		{Rectangle: image.Rect(0, 0, 5, 5), Descriptor: descriptorWith(1)},
		{Rectangle: image.Rect(0, 0, 15, 15), Descriptor: descriptorWith(2)},
	}}
	d, err := newProcessor(engine).EnrollSelfie(s, "selfies/me.jpg")
	if err != nil || d == nil || d[0] != 2 {
		t.Errorf("EnrollSelfie() = %v, %v, want the largest face", d, err)
	}

	d, err = newProcessor(&fakeEngine{}).EnrollSelfie(s, "selfies/me.jpg")
	if err != nil || d != nil {
		t.Errorf("EnrollSelfie() without faces = %v, %v", d, err)
	}
}

func TestThumbPathFor(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"photos/abc.jpg", "photos/abc_thumb.jpg"},
		{"photos/abc.PNG", "photos/abc_thumb.jpg"},
		{"photos/abc", "photos/abc_thumb.jpg"},
	}
	for _, tt := range tests {
		if got := ThumbPathFor(tt.in); got != tt.want {
			t.Errorf("ThumbPathFor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCreateThumb(t *testing.T) {
	s := setup(t)
	photo := addPhoto(t, s, "photos/big.jpg", jpegImage(t, 2000, 1000))
	if err := CreateThumb(&photo, s); err != nil {
		t.Fatal(err)
	}
	if photo.Width != 2000 || photo.Height != 1000 || photo.ThumbPath != "photos/big_thumb.jpg" {
		t.Errorf("photo = %dx%d %q", photo.Width, photo.Height, photo.ThumbPath)
	}
	buf := bytes.Buffer{}
	if _, err := s.Load(photo.ThumbPath, &buf); err != nil {
		t.Fatal(err)
	}
	cfg, _, err := image.DecodeConfig(&buf)
	if err != nil || cfg.Width != ThumbSize || cfg.Height != ThumbSize/2 {
		t.Errorf("thumbnail = %dx%d, %v", cfg.Width, cfg.Height, err)
	}
}

func TestStart_NonPositiveInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		done := make(chan struct{})
		go func() {
			defer close(done)
			NewProcessor(nil, 0.6).Start(ctx, interval)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("Start(%v) did not stop after cancel", interval)
		}
	}
}
