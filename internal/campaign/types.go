package campaign

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of a campaign.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSending, StatusSent, StatusScheduled, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the campaign can never be dispatched again.
func (s Status) IsTerminal() bool {
	return s == StatusSent || s == StatusCancelled
}

// CanDispatch reports whether a dispatch may begin from this status.
// Only drafts are dispatchable.
func (s Status) CanDispatch() bool {
	return s == StatusDraft
}

// Campaign is one outbound broadcast-email job.
type Campaign struct {
	ID             string
	Title          string
	Subject        string
	Content        string
	Template       string
	TargetAudience json.RawMessage
	Status         Status
	ScheduledAt    *time.Time
	SentAt         *time.Time
	SentCount      int
	OpenCount      int
	ClickCount     int
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Result aggregates one dispatch run. Failed counts recipients whose send
// attempt errored; they are not retried within the same run.
type Result struct {
	Sent   int
	Failed int
}

type SendCampaignReq struct {
	CampaignID string `json:"campaignId" binding:"required"`
}

type SendCampaignResp struct {
	Success    bool `json:"success"`
	SentCount  int  `json:"sent_count"`
	ErrorCount int  `json:"error_count"`
}

type SendWelcomeEmailReq struct {
	Email        string `json:"email"        binding:"required,email"`
	DisplayName  string `json:"displayName"  binding:"required"`
	TempPassword string `json:"tempPassword" binding:"required"`
	Role         string `json:"role"         binding:"required"`
}

// SentEvent is published after a dispatch run reaches a terminal state.
// The open/click tracking side consumes it; nothing in this service does.
type SentEvent struct {
	CampaignID string    `json:"campaign_id"`
	Status     Status    `json:"status"`
	SentCount  int       `json:"sent_count"`
	ErrorCount int       `json:"error_count"`
	FinishedAt time.Time `json:"finished_at"`
}
