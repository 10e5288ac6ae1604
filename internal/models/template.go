package models

import (
	"time"

	"gorm.io/datatypes"
)

// InterviewTemplate configures a scripted interview: the role being hired
// for, optional rules for the interviewer, and an ordered list of seed
// questions. Questions is a JSON array of strings; the first entry is used
// verbatim as the opening question of a templated session.
type InterviewTemplate struct {
	ID          string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"column:name;type:text" json:"name"`
	Role        string         `gorm:"column:role;type:text" json:"role"`
	Description string         `gorm:"column:description;type:text" json:"description,omitempty"`
	Rules       string         `gorm:"column:rules;type:text" json:"rules,omitempty"`
	Questions   datatypes.JSON `gorm:"column:questions;type:jsonb" json:"questions"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (InterviewTemplate) TableName() string { return "interview_templates" }
