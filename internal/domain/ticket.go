package domain

import (
	"fmt"
	"time"
)

// TicketStatus is the coarse lifecycle stage of a ticket.
type TicketStatus string

const (
	TicketStatusNew         TicketStatus = "New"
	TicketStatusUnderReview TicketStatus = "Under Review"
	TicketStatusResolved    TicketStatus = "Resolved"
)

// ValidStatus reports whether the given value is a known status.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusNew, TicketStatusUnderReview, TicketStatusResolved:
		return true
	}
	return false
}

// TicketCategory classifies what a ticket is about.
type TicketCategory string

const (
	CategoryTechnical TicketCategory = "Technical"
	CategoryFinancial TicketCategory = "Financial"
	CategoryProduct   TicketCategory = "Product"
)

// ValidCategory reports whether the given value is a known category.
func ValidCategory(c TicketCategory) bool {
	switch c {
	case CategoryTechnical, CategoryFinancial, CategoryProduct:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	PriorityLow    TicketPriority = "Low"
	PriorityMedium TicketPriority = "Medium"
	PriorityHigh   TicketPriority = "High"
	PriorityUrgent TicketPriority = "Urgent"
)

// ValidPriority reports whether the given value is a known priority.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// AttachmentHandle is the opaque reference to a file stored on the asset
// host. Delivery URLs are derived from it on demand, never stored.
type AttachmentHandle struct {
	PublicID     string
	Format       string
	ResourceType string
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID             string
	Title          string
	Description    string
	Category       TicketCategory
	Status         TicketStatus
	Priority       TicketPriority
	Attachment     *AttachmentHandle
	AttachmentName string
	AttachmentSize int64
	CreatedBy      string
	AssignedTo     *string
	ResolvedBy     *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ResolvedAt     *time.Time
	DueDate        *time.Time
}

// HasAttachment reports whether the ticket carries a stored file.
func (t *Ticket) HasAttachment() bool {
	return t.Attachment != nil && t.Attachment.PublicID != ""
}

// IsOverdue reports whether the due date has passed on an unresolved ticket.
func (t *Ticket) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == TicketStatusResolved {
		return false
	}
	return now.After(*t.DueDate)
}

// TimeElapsed renders the age of the ticket as a coarse human string:
// whole days, else whole hours, else minutes.
func (t *Ticket) TimeElapsed(now time.Time) string {
	delta := now.Sub(t.CreatedAt)
	if delta < 0 {
		delta = 0
	}
	if days := int(delta.Hours()) / 24; days > 0 {
		return fmt.Sprintf("%d days", days)
	}
	if hours := int(delta.Hours()); hours > 0 {
		return fmt.Sprintf("%d hours", hours)
	}
	return fmt.Sprintf("%d minutes", int(delta.Minutes()))
}
