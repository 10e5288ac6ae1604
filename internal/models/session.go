package models

import "time"

type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// InterviewSession is the structured record of one interview attempt.
// EndTime and Score are set if and only if Status is completed; turns and
// the final report live in Mongo keyed by this row's ID.
type InterviewSession struct {
	ID         string  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID     string  `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	TemplateID *string `gorm:"column:template_id;type:uuid;index" json:"template_id,omitempty"`

	Status SessionStatus `gorm:"column:status;type:text" json:"status"`

	// Role/Experience describe the position when no template is bound.
	Role       string `gorm:"column:role;type:text" json:"role,omitempty"`
	Experience string `gorm:"column:experience;type:text" json:"experience,omitempty"`

	UseWhisper bool `gorm:"column:use_whisper" json:"use_whisper"`

	StartTime time.Time  `gorm:"column:start_time;type:timestamptz" json:"start_time"`
	EndTime   *time.Time `gorm:"column:end_time;type:timestamptz" json:"end_time,omitempty"`
	Score     *float64   `gorm:"column:score;type:decimal(5,2)" json:"score,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (InterviewSession) TableName() string { return "interview_sessions" }
