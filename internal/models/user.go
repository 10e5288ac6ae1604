package models

import "time"

type UserType string

const (
	UserTypeCandidate UserType = "candidate"
	UserTypeOrgAdmin  UserType = "org_admin"
)

type User struct {
	ID           string   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email        string   `gorm:"column:email;type:text;uniqueIndex" json:"email"`
	PasswordHash string   `gorm:"column:password_hash;type:text" json:"-"`
	Name         string   `gorm:"column:name;type:text" json:"name"`
	UserType     UserType `gorm:"column:user_type;type:text" json:"user_type"`

	OrganizationID *string `gorm:"column:organization_id;type:uuid;index" json:"organization_id,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (User) TableName() string { return "users" }
