package model

import "time"

// Text is a user's written response to an Idea.  UserID is set from the
// authenticated caller at creation and never changes afterwards.
//
// Fields:
//
//   - ID: primary key identifier.
//   - UserID: owner of the text.
//   - IdeaID: prompt the text answers.
//   - Content: the written response.
//   - Time: effort metric reported by the client, always positive.
//   - CreatedAt: creation timestamp, used for listing order and date filters.
//   - UpdatedAt: last update timestamp.
type Text struct {
	ID        uint64    `json:"id"`        // texts.id
	UserID    uint64    `json:"userId"`    // texts.user_id
	IdeaID    uint64    `json:"ideaId"`    // texts.idea_id
	Content   string    `json:"content"`   // texts.content
	Time      uint32    `json:"time"`      // texts.time
	CreatedAt time.Time `json:"createdAt"` // texts.created_at
	UpdatedAt time.Time `json:"updatedAt"` // texts.updated_at
}
