package domain

import "time"

// ProjectType distinguishes personal workspaces from shared ones.
type ProjectType string

const (
	ProjectTypePersonal ProjectType = "PERSONAL"
	ProjectTypeInternal ProjectType = "INTERNAL"
)

// Project represents a workspace. Its ID is the project name.
type Project struct {
	ID          string      `json:"id" db:"id"`
	Type        ProjectType `json:"type" db:"type"`
	OwnerLogin  string      `json:"owner_login" db:"owner_login"`
	Description *string     `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}
