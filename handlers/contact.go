package handlers

import (
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"

	"wedding/db"
	"wedding/messaging"
	"wedding/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var phoneRegexp = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

type ContactSaveRequest struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

type ContactInviteRequest struct {
	ID uint64 `json:"id" binding:"required"`
}

// normalizePhone strips formatting characters, the result must be in E.164 format
func normalizePhone(phone string) (string, bool) {
	phone = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "").Replace(phone)
	if strings.HasPrefix(phone, "00") {
		phone = "+" + phone[2:]
	}
	return phone, phoneRegexp.MatchString(phone)
}

func (h *Handlers) ContactList(c *gin.Context, user *models.User) {
	contacts := []models.Contact{}
	if err := db.Instance.Order("name ASC").Find(&contacts).Error; err != nil {
		log.Printf("ContactList error: %v", err)
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *Handlers) ContactSave(c *gin.Context, user *models.User) {
	r := ContactSaveRequest{}
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	phone, ok := normalizePhone(r.Phone)
	if !ok {
		c.JSON(http.StatusBadRequest, Response{"phone must be in international format, e.g. +359888123456"})
		return
	}
	var count int64
	if err := db.Instance.Model(&models.Contact{}).Where("phone = ? AND id != ?", phone, r.ID).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, Response{"contact with this phone already exists"})
		return
	}
	contact := models.Contact{ID: r.ID}
	if r.ID > 0 {
		if err := db.Instance.First(&contact).Error; err != nil {
			c.JSON(http.StatusNotFound, Response{"contact not found"})
			return
		}
	}
	contact.Name = strings.TrimSpace(r.Name)
	contact.Phone = phone
	if err := db.Instance.Save(&contact).Error; err != nil {
		log.Printf("ContactSave error: %v", err)
		c.JSON(http.StatusInternalServerError, DBError2Response)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// ContactInvite creates a new invitation link for the contact and sends it over WhatsApp
func (h *Handlers) ContactInvite(c *gin.Context, user *models.User) {
	r := ContactInviteRequest{}
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	contact := models.Contact{}
	err := db.Instance.First(&contact, r.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, Response{"contact not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	if err = contact.SetNewInvitationToken(); err != nil {
		log.Printf("Invitation token error for contact %d: %v", contact.ID, err)
		c.JSON(http.StatusInternalServerError, DBError2Response)
		return
	}
	url := contact.InvitationURL()
	body := "Hi " + contact.Name + "! " + user.Name + " invites you to their wedding. " +
		"Upload a selfie here and you will get all the wedding photos you appear in: " + url
	sid, err := h.Sender.Send(contact.Phone, body)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, messaging.ErrNotConfigured) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error(), "url": url})
		return
	}
	if err = db.Instance.Model(&contact).Update("invitation_sent", true).Error; err != nil {
		log.Printf("Invitation sent flag error for contact %d: %v", contact.ID, err)
	}
	c.JSON(http.StatusOK, gin.H{"error": "", "sid": sid, "url": url})
}
