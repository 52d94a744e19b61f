package model

import "time"

// Version is one immutable snapshot in a policy's history. Version numbers
// for a policy form a gap-free ascending sequence starting at 1.
type Version struct {
	VersionID     string    `gorm:"primaryKey;size:64" json:"version_id"`
	PolicyID      string    `gorm:"uniqueIndex:idx_policy_version;size:64;not null" json:"policy_id"`
	VersionNumber int       `gorm:"uniqueIndex:idx_policy_version;not null" json:"version_number"`
	YAMLContent   string    `gorm:"type:text" json:"yaml_content"`
	ChangeSummary string    `gorm:"size:512" json:"change_summary,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
