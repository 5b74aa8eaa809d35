// Package queue defines message payloads exchanged over the message broker.
package queue

// TextSubmittedQueue is the durable queue text.submitted events travel on.
const TextSubmittedQueue = "text.submitted"

// TextSubmittedEvent is published after a text is stored.  It carries enough
// for downstream consumers to log or aggregate without querying the database.
type TextSubmittedEvent struct {
	TextID      uint64 `json:"text_id"`
	UserID      uint64 `json:"user_id"`
	IdeaID      uint64 `json:"idea_id"`
	Minutes     uint32 `json:"time"`
	Characters  int    `json:"characters"`
	SubmittedAt string `json:"submitted_at"`
}
