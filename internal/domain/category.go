package domain

import "time"

// CategoryNameMaxLength bounds category names.
const CategoryNameMaxLength = 50

// Category groups tickets by topic. Tickets reference it, they do not own it.
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
