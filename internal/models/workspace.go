package models

import (
	"time"
)

// Workspace is the container for documents and memberships
type Workspace struct {
	WorkspaceID uint64 `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"uniqueIndex;size:255;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Documents   []CollaborativeDocument `gorm:"foreignKey:WorkspaceID"`
	Memberships []WorkspaceMembership   `gorm:"foreignKey:WorkspaceID"`
}

// WorkspaceMembership is the source of truth for permission checks.
// Membership rows are provisioned administratively; the identity provider
// only vouches for who the user is, not what they may touch.
type WorkspaceMembership struct {
	MembershipID uint64 `gorm:"primaryKey;autoIncrement"`
	WorkspaceID  uint64 `gorm:"not null;index:idx_workspace_member,unique"`
	UserID       string `gorm:"type:char(36);not null;index:idx_workspace_member,unique"`
	Role         string `gorm:"size:64;not null;default:'viewer'"`
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Membership roles, most to least privileged
const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// CanEdit reports whether the membership role allows content mutation
func (m *WorkspaceMembership) CanEdit() bool {
	return m.Role == RoleOwner || m.Role == RoleEditor
}

// TableName overrides the table name for Workspace
func (Workspace) TableName() string {
	return "workspaces"
}

// TableName overrides the table name for WorkspaceMembership
func (WorkspaceMembership) TableName() string {
	return "workspace_memberships"
}
