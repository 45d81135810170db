package models

import (
	"errors"
	"image"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"wedding/db"
	"wedding/faces"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
)

func setupDB(t *testing.T) {
	t.Helper()
	passwordCost = bcrypt.MinCost
	if err := db.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db"))); err != nil {
		t.Fatalf("could not open database: %v", err)
	}
	if err := Migrate(); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
}

func descriptorWith(first float32) *faces.Descriptor {
	d := faces.Descriptor{}
	d[0] = first
	return &d
}

func TestUserCreateAndLogin(t *testing.T) {
	setupDB(t)

	couple, err := UserCreate("Ana & Ivo", "couple@example.com", "secret", RoleCouple)
	if err != nil {
		t.Fatalf("UserCreate() error = %v", err)
	}
	if !couple.HasPermissions(CouplePermissions) {
		t.Errorf("couple permissions = %v", couple.GetPermissions())
	}
	if !CoupleExists() {
		t.Error("CoupleExists() = false after creating the couple")
	}

	if _, err = UserCreate("Other", "couple@example.com", "x", RoleGuest); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email error = %v, want ErrEmailTaken", err)
	}

	u, err := UserLogin("couple@example.com", "secret")
	if err != nil || u.ID != couple.ID {
		t.Fatalf("UserLogin() = %d, %v", u.ID, err)
	}
	if !u.HasPermission(PermissionProcessPhotos) {
		t.Error("login should preload grants")
	}
	if _, err = UserLogin("couple@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v", err)
	}
	if _, err = UserLogin("nobody@example.com", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v", err)
	}
}

func TestGuestHasNoPermissions(t *testing.T) {
	setupDB(t)
	guest, err := UserCreate("Guest", "guest@example.com", "pw", RoleGuest)
	if err != nil {
		t.Fatal(err)
	}
	if guest.IsCouple() || len(guest.GetPermissions()) != 0 || CoupleExists() {
		t.Errorf("guest should have no grants, got %v", guest.GetPermissions())
	}
}

func TestUserDescriptor(t *testing.T) {
	u := User{ID: 3}
	if u.GetDescriptor() != nil {
		t.Error("expected no descriptor")
	}
	u.SetDescriptor(descriptorWith(0.25))
	d := u.GetDescriptor()
	if d == nil || d[0] != 0.25 {
		t.Fatalf("GetDescriptor() = %v", d)
	}
	u.FaceDescriptor = []byte{1, 2, 3}
	if u.GetDescriptor() != nil {
		t.Error("broken descriptor should be ignored")
	}
	u.SetDescriptor(nil)
	if u.FaceDescriptor != nil {
		t.Error("SetDescriptor(nil) should clear the enrollment")
	}
}

func TestUserLabel(t *testing.T) {
	u := User{ID: 42}
	id, ok := UserIDFromLabel(u.Label())
	if !ok || id != 42 {
		t.Errorf("UserIDFromLabel(%q) = %d, %v", u.Label(), id, ok)
	}
	for _, label := range []string{"", "0", "face_1", "-3"} {
		if _, ok := UserIDFromLabel(label); ok {
			t.Errorf("UserIDFromLabel(%q) should fail", label)
		}
	}
}

func TestEnrolledGuests(t *testing.T) {
	setupDB(t)
	couple, _ := UserCreate("Couple", "c@example.com", "pw", RoleCouple)
	couple.SetDescriptor(descriptorWith(9))
	db.Instance.Model(&couple).Update("face_descriptor", couple.FaceDescriptor)

	enrolled, _ := UserCreate("Enrolled", "e@example.com", "pw", RoleGuest)
	enrolled.SetDescriptor(descriptorWith(0.5))
	db.Instance.Model(&enrolled).Update("face_descriptor", enrolled.FaceDescriptor)

	_, _ = UserCreate("Pending", "p@example.com", "pw", RoleGuest)

	labeled, err := EnrolledGuests()
	if err != nil {
		t.Fatal(err)
	}
	if len(labeled) != 1 {
		t.Fatalf("EnrolledGuests() returned %d entries, want 1", len(labeled))
	}
	if labeled[0].Label != enrolled.Label() || labeled[0].Descriptors[0][0] != 0.5 {
		t.Errorf("unexpected entry %+v", labeled[0].Label)
	}
}

func TestContactInvitation(t *testing.T) {
	setupDB(t)
	c := Contact{Name: "Maria", Phone: "+359888123456"}
	if err := db.Instance.Create(&c).Error; err != nil {
		t.Fatal(err)
	}
	if c.InvitationURL() != "" {
		t.Error("no URL expected before a token is set")
	}
	if err := c.SetNewInvitationToken(); err != nil {
		t.Fatal(err)
	}
	first := *c.InvitationToken
	if !strings.HasSuffix(c.InvitationURL(), "/w/invite/"+first+"/") {
		t.Errorf("InvitationURL() = %q", c.InvitationURL())
	}

	found, err := ContactByToken(first)
	if err != nil || found.ID != c.ID {
		t.Fatalf("ContactByToken() = %d, %v", found.ID, err)
	}

	if err = c.SetNewInvitationToken(); err != nil {
		t.Fatal(err)
	}
	if _, err = ContactByToken(first); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("old token error = %v, want ErrInvalidToken", err)
	}
	if _, err = ContactByToken(""); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("empty token error = %v, want ErrInvalidToken", err)
	}
}

func TestLatestMainImage(t *testing.T) {
	setupDB(t)
	m, err := LatestMainImage()
	if err != nil || m.ID != 0 {
		t.Fatalf("LatestMainImage() on empty table = %d, %v", m.ID, err)
	}
	couple, _ := UserCreate("Couple", "c@example.com", "pw", RoleCouple)
	db.Instance.Create(&MainImage{UserID: couple.ID, Path: "main/1.jpg", CreatedAt: 100})
	db.Instance.Create(&MainImage{UserID: couple.ID, Path: "main/2.jpg", CreatedAt: 100})
	m, err = LatestMainImage()
	if err != nil || m.Path != "main/2.jpg" {
		t.Errorf("LatestMainImage() = %q, %v", m.Path, err)
	}
}

func TestPhotoFaces(t *testing.T) {
	setupDB(t)
	couple, _ := UserCreate("Couple", "c@example.com", "pw", RoleCouple)
	guest, _ := UserCreate("Guest", "g@example.com", "pw", RoleGuest)

	photo := Photo{UploadedByID: couple.ID, Name: "dance.jpg", Path: "photos/dance.jpg", MimeType: "image/jpeg"}
	other := Photo{UploadedByID: couple.ID, Name: "cake.jpg", Path: "photos/cake.jpg", MimeType: "image/jpeg"}
	db.Instance.Create(&photo)
	db.Instance.Create(&other)

	pending, err := UnprocessedPhotos()
	if err != nil || len(pending) != 2 {
		t.Fatalf("UnprocessedPhotos() = %d, %v", len(pending), err)
	}

	face := faces.Face{Rectangle: image.Rect(10, 20, 110, 120), Descriptor: *descriptorWith(0.1)}
	matched := NewDetectedFace(photo.ID, 0, &face, faces.Match{Matched: true, Distance: 0.3, Label: guest.Label()}, &guest.ID)
	unmatched := NewDetectedFace(photo.ID, 1, &face, faces.Match{Distance: math.Inf(1)}, &guest.ID)
	if unmatched.MatchedUserID != nil || unmatched.Distance != 0 {
		t.Errorf("unmatched face = %+v", unmatched)
	}
	if matched.RectX2 != 110 || matched.RectY1 != 20 {
		t.Errorf("rectangle not copied: %+v", matched)
	}

	if err = photo.ReplaceFaces([]DetectedFace{matched, unmatched}); err != nil {
		t.Fatal(err)
	}
	// processing again must not duplicate faces
	if err = photo.ReplaceFaces([]DetectedFace{matched}); err != nil {
		t.Fatal(err)
	}
	var count int64
	db.Instance.Model(&DetectedFace{}).Where("photo_id = ?", photo.ID).Count(&count)
	if count != 1 {
		t.Errorf("faces stored = %d, want 1", count)
	}

	if err = other.MarkFailed(strings.Repeat("x", 1500)); err != nil {
		t.Fatal(err)
	}
	if len(other.ProcessingError) != 1000 {
		t.Errorf("processing error not truncated: %d", len(other.ProcessingError))
	}

	// "é" is two bytes and would be split at byte 1000
	if err = other.MarkFailed(strings.Repeat("x", 999) + strings.Repeat("é", 10)); err != nil {
		t.Fatal(err)
	}
	if len(other.ProcessingError) != 999 || !utf8.ValidString(other.ProcessingError) {
		t.Errorf("processing error cut inside a character: %d bytes, valid %v",
			len(other.ProcessingError), utf8.ValidString(other.ProcessingError))
	}

	pending, _ = UnprocessedPhotos()
	if len(pending) != 0 {
		t.Errorf("UnprocessedPhotos() = %d after processing", len(pending))
	}

	withGuest, err := PhotosWithUser(guest.ID)
	if err != nil || len(withGuest) != 1 || withGuest[0].ID != photo.ID {
		t.Errorf("PhotosWithUser() = %v, %v", withGuest, err)
	}
	if withCouple, _ := PhotosWithUser(couple.ID); len(withCouple) != 0 {
		t.Errorf("couple was not matched in any photo, got %d", len(withCouple))
	}
}

func TestPhotoGetPath(t *testing.T) {
	p := Photo{Path: "photos/a.jpg", MimeType: "image/jpeg"}
	if p.GetPath(true) != "photos/a.jpg" {
		t.Error("missing thumb should fall back to the original")
	}
	p.ThumbPath = "photos/a_thumb.jpg"
	if p.GetPath(true) != p.ThumbPath || p.GetPath(false) != p.Path {
		t.Error("GetPath() returned the wrong file")
	}
}
