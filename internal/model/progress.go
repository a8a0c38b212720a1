package model

// UploadProgress is an ephemeral snapshot of one upload attempt. It is
// broadcast to observers after every stage boundary and never persisted;
// Percent is monotonically non-decreasing within a single attempt.
type UploadProgress struct {
	RecordID   string `json:"record_id"`
	Stage      string `json:"stage"`
	Percent    int    `json:"percent"`
	Step       string `json:"step"`
	RetryCount int    `json:"retry_count"`
}
