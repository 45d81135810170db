package models

import (
	"errors"
	"log"
	"strconv"

	"wedding/db"
	"wedding/faces"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Role uint8

const (
	RoleGuest  Role = 0
	RoleCouple Role = 1
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("user with this email already exists")
)

// bcrypt cost, lowered in tests
var passwordCost = bcrypt.DefaultCost

type User struct {
	ID                 uint64  `gorm:"primaryKey" json:"id"`
	CreatedAt          int64   `json:"created_at"`
	UpdatedAt          int64   `json:"updated_at"`
	Name               string  `gorm:"type:varchar(100)" json:"name"`
	Email              string  `gorm:"type:varchar(150);index:uniq_email,unique" json:"email"`
	Password           string  `gorm:"type:varchar(128)" json:"-"`
	Role               Role    `gorm:"not null;default:0" json:"role"`
	Phone              string  `gorm:"type:varchar(30);index" json:"phone"`
	Grants             []Grant `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	SelfieBucketID     *uint64 `json:"-"`
	SelfiePath         string  `gorm:"type:varchar(300)" json:"-"`
	SecondaryBucketID  *uint64 `json:"-"`
	SecondaryImagePath string  `gorm:"type:varchar(300)" json:"-"` // Image used for face matching on login
	FaceDescriptor     []byte  `gorm:"type:blob" json:"-"`         // Little-endian float32 x 128, empty if not enrolled
	Verified           bool    `gorm:"not null;default:false" json:"verified"`
}

func UserCreate(name, email, plainTextPassword string, role Role) (u User, err error) {
	var count int64
	if err = db.Instance.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return
	}
	if count > 0 {
		return u, ErrEmailTaken
	}
	u.Name = name
	u.Email = email
	u.Role = role
	if err = u.SetPassword(plainTextPassword); err != nil {
		return
	}
	if role == RoleCouple {
		for _, p := range CouplePermissions {
			u.Grants = append(u.Grants, Grant{Permission: p})
		}
	}
	return u, db.Instance.Create(&u).Error
}

func (u *User) SetPassword(plainTextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), passwordCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

func UserLogin(email, plainTextPassword string) (u User, err error) {
	result := db.Instance.Preload("Grants").First(&u, "email = ?", email)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			log.Printf("UserLogin DB error: %v", result.Error)
		}
		return User{}, ErrInvalidCredentials
	}
	if u.Password == "" || bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plainTextPassword)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// CoupleExists is false until the first (couple) account is registered
func CoupleExists() bool {
	var count int64
	db.Instance.Model(&User{}).Where("role = ?", RoleCouple).Count(&count)
	return count > 0
}

func (u *User) IsCouple() bool {
	return u.Role == RoleCouple
}

// GetDescriptor returns the enrolled face descriptor or nil
func (u *User) GetDescriptor() *faces.Descriptor {
	if len(u.FaceDescriptor) == 0 {
		return nil
	}
	d, err := faces.DescriptorFromBytes(u.FaceDescriptor)
	if err != nil {
		log.Printf("User %d has a broken face descriptor: %v", u.ID, err)
		return nil
	}
	return &d
}

// SetDescriptor stores d, nil clears the enrollment
func (u *User) SetDescriptor(d *faces.Descriptor) {
	if d == nil {
		u.FaceDescriptor = nil
		return
	}
	u.FaceDescriptor = d.Bytes()
}

// Label identifies the user in a faces.Matcher
func (u *User) Label() string {
	return strconv.FormatUint(u.ID, 10)
}

// UserIDFromLabel is the reverse of User.Label
func UserIDFromLabel(label string) (uint64, bool) {
	id, err := strconv.ParseUint(label, 10, 64)
	return id, err == nil && id > 0
}

// EnrolledGuests returns the face descriptors of all guests who uploaded a usable selfie
func EnrolledGuests() ([]faces.Labeled, error) {
	var users []User
	err := db.Instance.
		Select("id, face_descriptor").
		Where("role = ? AND face_descriptor IS NOT NULL", RoleGuest).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	result := []faces.Labeled{}
	for i := range users {
		d := users[i].GetDescriptor()
		if d == nil {
			continue
		}
		result = append(result, faces.Labeled{
			Label:       users[i].Label(),
			Descriptors: []faces.Descriptor{*d},
		})
	}
	return result, nil
}

func (u *User) GetPermissions() []int {
	permissions := []int{}
	for _, grant := range u.Grants {
		permissions = append(permissions, int(grant.Permission))
	}
	return permissions
}

func (u *User) HasPermission(required Permission) bool {
	for _, permission := range u.Grants {
		if permission.Permission == required {
			return true
		}
	}
	return false
}

func (u *User) HasPermissions(required []Permission) bool {
	for _, permission := range required {
		if !u.HasPermission(permission) {
			return false
		}
	}
	return true
}
