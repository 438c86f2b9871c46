package scanner

import (
	"fmt"

	"github.com/google/uuid"
)

// Source identifies the launcher family a scan result came from.
type Source string

const (
	SourceSteam  Source = "steam"
	SourceEpic   Source = "epic"
	SourceGOG    Source = "gog"
	SourceAmazon Source = "amazon"
	SourceCustom Source = "custom"
)

// Status tracks a scanned game through its discovery lifecycle. It only
// advances forward, except that any state may move to StatusError.
type Status string

const (
	StatusPending   Status = "pending"
	StatusScanning  Status = "scanning"
	StatusMatched   Status = "matched"
	StatusAmbiguous Status = "ambiguous"
	StatusReady     Status = "ready"
	StatusError     Status = "error"
)

var statusRank = map[Status]int{
	StatusPending:   0,
	StatusScanning:  1,
	StatusMatched:   2,
	StatusAmbiguous: 2,
	StatusReady:     3,
	StatusError:     4,
}

// ScannedGameResult is the normalized record a scanner emits for one
// installed title. UUID is generated at discovery time and never reused;
// Source is immutable once created.
type ScannedGameResult struct {
	UUID         string `json:"uuid"`
	Source       Source `json:"source"`
	OriginalName string `json:"original_name"`
	InstallPath  string `json:"install_path"`
	ExePath      string `json:"exe_path,omitempty"`
	AppID        string `json:"app_id,omitempty"`
	Title        string `json:"title"`
	Status       Status `json:"status"`
	Error        string `json:"error,omitempty"`
}

// NewResult creates a scan result with a fresh UUID.
func NewResult(source Source, originalName, title string) *ScannedGameResult {
	return &ScannedGameResult{
		UUID:         uuid.NewString(),
		Source:       source,
		OriginalName: originalName,
		Title:        title,
		Status:       StatusPending,
	}
}

// Advance moves the result to next, enforcing the forward-only lifecycle.
// StatusError is reachable from anywhere and records the supplied message.
func (r *ScannedGameResult) Advance(next Status) error {
	if next == StatusError {
		r.Status = StatusError
		return nil
	}
	current, ok := statusRank[r.Status]
	if !ok {
		return fmt.Errorf("scan result %s: unknown status %q", r.UUID, r.Status)
	}
	target, ok := statusRank[next]
	if !ok {
		return fmt.Errorf("scan result %s: unknown status %q", r.UUID, next)
	}
	if r.Status == StatusError {
		return fmt.Errorf("scan result %s: cannot leave error state", r.UUID)
	}
	if target <= current && next != r.Status {
		return fmt.Errorf("scan result %s: cannot move %s -> %s", r.UUID, r.Status, next)
	}
	r.Status = next
	return nil
}

// Fail marks the result errored with the given message.
func (r *ScannedGameResult) Fail(message string) {
	r.Status = StatusError
	r.Error = message
}
