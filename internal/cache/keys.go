package cache

import "github.com/google/uuid"

// KeyEvent returns the cache key holding an event and its fee configuration.
func KeyEvent(id uuid.UUID) string {
	return "event:" + id.String()
}

// KeyTicketType returns the cache key holding a ticket type configuration.
func KeyTicketType(id uuid.UUID) string {
	return "ticket_type:" + id.String()
}
