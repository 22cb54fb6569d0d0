package service

// Broadcaster sends real-time events to clients watching a session.
// Implemented by the WebSocket hub.
type Broadcaster interface {
	BroadcastSessionEvent(sessionID string, eventType string, data any)
}

// NoopBroadcaster is a no-op implementation for testing or when WS is disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastSessionEvent(string, string, any) {}

// Event types pushed to session subscribers.
const (
	EventRegionClicked   = "region_clicked"
	EventRegionConquered = "region_conquered"
	EventBatchApplied    = "batch_applied"
	EventSessionReset    = "session_reset"
	EventTurnChanged     = "turn_changed"
	EventScene           = "scene"
	EventSessionClosed   = "session_closed"
)
