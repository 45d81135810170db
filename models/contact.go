package models

import (
	"errors"

	"wedding/config"
	"wedding/db"
	"wedding/utils"

	"gorm.io/gorm"
)

var ErrInvalidToken = errors.New("invalid or expired invitation token")

type Contact struct {
	ID              uint64  `gorm:"primaryKey" json:"id"`
	CreatedAt       int64   `json:"created_at"`
	UpdatedAt       int64   `json:"updated_at"`
	Name            string  `gorm:"type:varchar(100);not null" json:"name"`
	Phone           string  `gorm:"type:varchar(30);index:uniq_phone,unique" json:"phone"` // E.164
	InvitationSent  bool    `gorm:"not null;default:false" json:"invitation_sent"`
	InvitationToken *string `gorm:"type:varchar(100);index:uniq_invitation_token,unique" json:"-"`
	GuestUserID     *uint64 `json:"guest_user_id"`
	GuestUser       *User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
}

func ContactByToken(token string) (c Contact, err error) {
	if token == "" {
		return c, ErrInvalidToken
	}
	err = db.Instance.Preload("GuestUser").First(&c, "invitation_token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrInvalidToken
	}
	return
}

// SetNewInvitationToken replaces (and saves) the token, invalidating previous links
func (c *Contact) SetNewInvitationToken() error {
	token := utils.Rand16BytesToBase62() + utils.Rand16BytesToBase62()
	c.InvitationToken = &token
	return db.Instance.Model(c).Update("invitation_token", token).Error
}

func (c *Contact) InvitationURL() string {
	if c.InvitationToken == nil {
		return ""
	}
	return config.PUBLIC_URL + "/w/invite/" + *c.InvitationToken + "/"
}
