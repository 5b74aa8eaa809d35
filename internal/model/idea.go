package model

import "time"

// Idea is an admin-curated writing prompt, a row in the `ideas` table.
type Idea struct {
	ID        uint64    `json:"id"`        // ideas.id
	Title     string    `json:"title"`     // ideas.title
	Content   string    `json:"content"`   // ideas.content
	CreatedAt time.Time `json:"createdAt"` // ideas.created_at
	UpdatedAt time.Time `json:"updatedAt"` // ideas.updated_at
}
