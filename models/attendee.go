package models

// Attendee is a single RSVP
type Attendee struct {
	ID           uint64 `gorm:"primaryKey" json:"id"`
	CreatedAt    int64  `json:"created_at"`
	FirstName    string `gorm:"type:varchar(100);not null" json:"first_name" form:"first_name" binding:"required"`
	LastName     string `gorm:"type:varchar(100)" json:"last_name" form:"last_name"`
	Phone        string `gorm:"type:varchar(30)" json:"phone" form:"phone" binding:"required"`
	Arriving     bool   `json:"arriving" form:"arriving"`
	GuestsAmount int    `json:"guests_amount" form:"guests_amount" binding:"gte=0,lte=50"`
	Notes        string `gorm:"type:varchar(2000)" json:"notes" form:"notes"`
}
