package editor

import "context"

// Event names emitted by the editor.
const (
	EventPageOpened    = "page:opened"
	EventPageReloaded  = "page:reloaded"
	EventPersistFailed = "block:persist-failed"
	EventPersisted     = "block:persisted"
)

// EventEmitter receives editor notifications. service.EventEmitter satisfies it.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, string, any) {}

// PersistFailure is the payload of EventPersistFailed.
type PersistFailure struct {
	BlockID string `json:"blockId"`
	PageID  string `json:"pageId"`
	Op      string `json:"op"`
	Error   string `json:"error"`
}
