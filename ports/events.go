package ports

// EventPublisher fans workflow events out to listeners of a session
type EventPublisher interface {
	Publish(sessionID string, eventType string, payload interface{})
}
