package models

import (
	"math"

	"wedding/faces"
)

type DetectedFace struct {
	ID            uint64 `gorm:"primaryKey"`
	PhotoID       uint64 `gorm:"index;not null"`
	Num           int    `gorm:"not null"`
	Descriptor    []byte `gorm:"type:blob"`
	RectX1        int
	RectY1        int
	RectX2        int
	RectY2        int
	MatchedUserID *uint64 `gorm:"index"`
	MatchedUser   *User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Distance      float64 `gorm:"not null;default:0"` // Distance to the nearest enrolled guest
}

func NewDetectedFace(photoID uint64, num int, face *faces.Face, match faces.Match, matchedUserID *uint64) DetectedFace {
	result := DetectedFace{
		PhotoID:    photoID,
		Num:        num,
		Descriptor: face.Descriptor.Bytes(),
		RectX1:     face.Rectangle.Min.X,
		RectY1:     face.Rectangle.Min.Y,
		RectX2:     face.Rectangle.Max.X,
		RectY2:     face.Rectangle.Max.Y,
	}
	if !math.IsInf(match.Distance, 0) {
		result.Distance = match.Distance
	}
	if match.Matched {
		result.MatchedUserID = matchedUserID
	}
	return result
}
