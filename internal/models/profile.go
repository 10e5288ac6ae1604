package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// CandidateProfile carries the resume-derived context that feeds question
// generation: extracted resume text, skills, and a resume embedding.
type CandidateProfile struct {
	UserID     string `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	FullName   string `gorm:"column:full_name;type:text" json:"full_name"`
	ResumeText string `gorm:"column:resume_text;type:text" json:"resume_text"`

	Skills pq.StringArray `gorm:"column:skills;type:text[]" json:"skills"`

	Experience datatypes.JSON `gorm:"column:experience;type:jsonb" json:"experience"`
	Education  datatypes.JSON `gorm:"column:education;type:jsonb" json:"education"`

	ResumeEmbedding pgvector.Vector `gorm:"column:resume_embedding;type:vector(768)" json:"resume_embedding"`

	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (CandidateProfile) TableName() string { return "candidate_profiles" }
