package entities

import "time"

// Delivery status values recorded per recipient during a broadcast.
const (
	DeliverySent   = "SENT"
	DeliveryFailed = "FAILED"
)

// Recipient is one broadcast target supplied by the invite backend.
type Recipient struct {
	InternalID  int64  `json:"internalId"`
	To          string `json:"to"` // phone-equivalent address; may be empty
	DisplayName string `json:"displayName"`
}

// RecipientQuery selects which guests a campaign targets.
type RecipientQuery struct {
	FromID              int64  `json:"fromId"`
	ToID                int64  `json:"toId"`
	OnlyActive          bool   `json:"onlyActive"`
	OnlyWithPhone       bool   `json:"onlyWithPhone"`
	OnlyNotConfirmed    bool   `json:"onlyNotConfirmed"`
	MinDaysSinceInitial int    `json:"minDaysSinceInitial"`
	InitialTemplateName string `json:"initialTemplateName"`
}

// BroadcastConfig is the operator's start request, snapshotted into the
// job when accepted.
type BroadcastConfig struct {
	FromID              int64  `json:"fromId"`
	ToID                int64  `json:"toId"`
	TemplateName        string `json:"templateName"`
	LanguageCode        string `json:"languageCode"`
	BatchSize           int    `json:"batchSize"`
	PauseSeconds        int    `json:"pauseSeconds"`
	OnlyNotConfirmed    bool   `json:"onlyNotConfirmed"`
	MinDaysSinceInitial int    `json:"minDaysSinceInitial"`
	InitialTemplateName string `json:"initialTemplateName"`
}

// BroadcastJob is the state of the current (or most recent) campaign.
// At most one job is running at any time.
type BroadcastJob struct {
	Running   bool            `json:"running"`
	Config    BroadcastConfig `json:"config"`
	StartedAt time.Time       `json:"startedAt"`
	EndedAt   time.Time       `json:"endedAt,omitempty"`
	Total     int             `json:"total"`
	Sent      int             `json:"sent"`
	Failed    int             `json:"failed"`
	LastError string          `json:"lastError,omitempty"`
}

// DeliveryEntry is the per-recipient accounting record written after
// every send attempt, both to the remote log sink and locally.
type DeliveryEntry struct {
	InternalID        int64  `json:"internalId"`
	DisplayName       string `json:"displayName"`
	PhoneTo           string `json:"phoneTo"`
	TemplateName      string `json:"templateName"`
	LanguageCode      string `json:"languageCode"`
	Status            string `json:"status"` // SENT or FAILED
	ProviderMessageID string `json:"providerMessageId,omitempty"`
	Error             string `json:"error,omitempty"`
}
