package model

import "time"

// PolicyStatusDraft is the status every generated policy starts in.
const PolicyStatusDraft = "draft"

// Policy is a named network-policy artifact. YAMLContent always mirrors the
// content of its latest Version; mutations go through the version chain.
type Policy struct {
	PolicyID    string    `gorm:"primaryKey;size:64" json:"policy_id"`
	PolicyName  string    `gorm:"uniqueIndex;size:255;not null" json:"policy_name"`
	Namespace   string    `gorm:"size:255;not null" json:"namespace"`
	YAMLContent string    `gorm:"type:text" json:"yaml_content"`
	Status      string    `gorm:"size:32;default:draft" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
