package models

import "time"

// ChannelType classifies how a channel is discovered and who it is for.
type ChannelType string

const (
	ChannelCampus     ChannelType = "campus"
	ChannelSubject    ChannelType = "subject"
	ChannelGlobal     ChannelType = "global"
	ChannelStudyGroup ChannelType = "study_group"
)

// ChannelScope says whether a channel belongs to one campus or to everyone.
type ChannelScope string

const (
	ScopeCampus ChannelScope = "campus"
	ScopeGlobal ChannelScope = "global"
)

// Channel is a named conversation stream. A campus-scoped channel always
// carries the owning organization id.
type Channel struct {
	ID             int64        `json:"id"`
	Name           string       `json:"name"`
	Description    *string      `json:"description,omitempty"`
	Type           ChannelType  `json:"type"`
	Scope          ChannelScope `json:"scope"`
	SubjectName    *string      `json:"subject_name,omitempty"`
	OrganizationID *int64       `json:"organization_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}
