package services

// EventPublisher decouples the services from the websocket hub. The live
// package's Hub satisfies it; tests plug in NopPublisher.
type EventPublisher interface {
	Publish(tournamentID int, eventType string, payload interface{})
}

type NopPublisher struct{}

func (NopPublisher) Publish(int, string, interface{}) {}
