package websocket

import "encoding/json"

const ActionApplicationCreated = "application.created"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewApplicationCreatedMessage encodes the event sent when an application is stored.
func NewApplicationCreatedMessage(app interface{}) ([]byte, error) {
	return json.Marshal(Message{Action: ActionApplicationCreated, Payload: app})
}
