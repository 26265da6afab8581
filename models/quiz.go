package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Quiz struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Title     string    `json:"title" gorm:"not null"`
	Subject   string    `json:"subject" gorm:"not null;default:'general'"`
	Code      string    `json:"code" gorm:"uniqueIndex;not null"`
	CreatorID string    `json:"creator_id" gorm:"not null;index"`
	StartTime time.Time `json:"start_time" gorm:"not null"`
	EndTime   time.Time `json:"end_time" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Creator   User       `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// QuizSummary is the projection returned by creator listings.
type QuizSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Subject   string    `json:"subject"`
	StartTime time.Time `json:"start_time"`
}
