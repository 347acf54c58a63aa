package domain

import "time"

// Comment is an immutable entry in a ticket thread. Internal comments are
// only visible to the support team.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Content   string
	Internal  bool
	CreatedAt time.Time
}
