package transfer

// MediaDescriptor names one piece of media by exactly one source: a remote
// URL, inline base64 content (raw payload or a full data: URL) with its
// declared media type, or a file already on local disk.
type MediaDescriptor struct {
	URL        string `json:"url,omitempty"`
	InlineData string `json:"inlineData,omitempty"`
	MediaType  string `json:"mediaType,omitempty"`
	LocalPath  string `json:"localPath,omitempty"`
}

// PublishTarget names one linked account to publish to.
type PublishTarget struct {
	Platform  string `json:"platform"`
	AccountID string `json:"accountId"`
}

// PublishRequest is immutable once handed to the publish service.
type PublishRequest struct {
	Content string            `json:"content"`
	Media   []MediaDescriptor `json:"media"`
	Targets []PublishTarget   `json:"targets"`
}

const (
	PublishStatusSuccess = "success"
	PublishStatusFailed  = "failed"

	// ActionReconnect flags a failure the user can only fix by re-linking
	// the account.
	ActionReconnect = "reconnect"
)

// PublishResult is the outcome for a single target. The publish service
// returns exactly one, in request order, per target.
type PublishResult struct {
	Platform       string `json:"platform"`
	AccountID      string `json:"accountId"`
	Status         string `json:"status"`
	ID             string `json:"id,omitempty"`
	Error          string `json:"error,omitempty"`
	ActionRequired string `json:"action_required,omitempty"`
}

// ScheduleCreation is the payload for creating a scheduled post.
// ScheduledFor is an ISO-8601 timestamp, normalized to UTC on save.
type ScheduleCreation struct {
	Content      string            `json:"content"`
	Media        []MediaDescriptor `json:"media"`
	Targets      []PublishTarget   `json:"targets"`
	ScheduledFor string            `json:"scheduledFor"`
}
