package handlers

import (
	"log"
	"net/http"
	"strings"

	"wedding/db"
	"wedding/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func (h *Handlers) RSVPRegister(c *gin.Context) {
	attendee := models.Attendee{}
	if err := c.ShouldBindWith(&attendee, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	attendee.ID = 0
	attendee.FirstName = strings.TrimSpace(attendee.FirstName)
	attendee.LastName = strings.TrimSpace(attendee.LastName)
	if phone, ok := normalizePhone(attendee.Phone); ok {
		attendee.Phone = phone
	}
	if err := db.Instance.Create(&attendee).Error; err != nil {
		log.Printf("RSVPRegister error: %v", err)
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": "", "id": attendee.ID})
}

func (h *Handlers) RSVPList(c *gin.Context, user *models.User) {
	attendees := []models.Attendee{}
	if err := db.Instance.Order("created_at DESC, id DESC").Find(&attendees).Error; err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, attendees)
}
