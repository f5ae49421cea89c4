package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// Actions pushed by the server.
const (
	ActionCodesRotated      = "sharing_code.rotated"
	ActionConnectionCreated = "connection.created"
	ActionError             = "error"
)

func encode(action string, payload interface{}) []byte {
	b, _ := json.Marshal(Message{Action: action, Payload: payload})
	return b
}

// NewCodesRotatedMessage tells clients their sharing code changed and should be refetched.
func NewCodesRotatedMessage(rotated int) []byte {
	return encode(ActionCodesRotated, map[string]int{"rotated": rotated})
}

// NewConnectionCreatedMessage tells a code owner who redeemed their code.
func NewConnectionCreatedMessage(viewerID, viewerName string) []byte {
	return encode(ActionConnectionCreated, map[string]string{"viewerId": viewerID, "viewerName": viewerName})
}

// NewErrorMessage wraps an error for the client.
func NewErrorMessage(msg string) []byte {
	return encode(ActionError, map[string]string{"message": msg})
}
