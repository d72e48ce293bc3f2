package domain

import (
	"strings"
	"time"
)

// ProviderType identifies the identity system that owns an account.
type ProviderType string

const (
	ProviderInternal ProviderType = "INTERNAL"
	ProviderGitHub   ProviderType = "GITHUB"
)

// Role is the authorization role of a user.
type Role string

const (
	RoleUser          Role = "USER"
	RoleAdministrator Role = "ADMINISTRATOR"
)

// MetaInfo tracks login and synchronization timestamps.
type MetaInfo struct {
	LastLogin           time.Time `json:"last_login"`
	SynchronizationDate time.Time `json:"synchronization_date"`
}

// User represents an internal account, keyed by its normalized login.
type User struct {
	Login            string       `json:"login"`
	Email            string       `json:"email"`
	FullName         string       `json:"full_name,omitempty"`
	ProviderType     ProviderType `json:"provider_type"`
	Role             Role         `json:"role"`
	MetaInfo         MetaInfo     `json:"meta_info"`
	PhotoID          *string      `json:"photo_id,omitempty"`
	DefaultProjectID string       `json:"default_project_id"`
	IsExpired        bool         `json:"is_expired"`
}

// NewMetaInfo returns meta info with both timestamps set to now.
func NewMetaInfo(now time.Time) MetaInfo {
	return MetaInfo{LastLogin: now, SynchronizationDate: now}
}

// NormalizeID converts a login or email into its internal key form.
func NormalizeID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
