package domain

import "time"

// Org represents a tenant. Every user belongs to exactly one org.
type Org struct {
	ID        int64
	Slug      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
