package models

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocket message types
const (
	WSVoteStatus    = "vote_status"
	WSParticipation = "participation"
	WSResults       = "results"
)
