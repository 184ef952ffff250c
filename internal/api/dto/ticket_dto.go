package dto

import (
	"time"

	"github.com/oumaimagaidi/TicketFlow/internal/assethost"
	"github.com/oumaimagaidi/TicketFlow/internal/domain"
)

// CreateTicketRequest payload. Attachments arrive as multipart form files
// alongside these fields, or the payload may be plain JSON without one.
type CreateTicketRequest struct {
	Title       string                `json:"title" form:"title" validate:"required"`
	Description string                `json:"description" form:"description" validate:"required"`
	Category    domain.TicketCategory `json:"category" form:"category" validate:"required"`
	Priority    domain.TicketPriority `json:"priority" form:"priority"`
	DueDate     string                `json:"due_date" form:"due_date"`
}

// UpdateTicketRequest payload; nil fields are untouched.
type UpdateTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Category    *domain.TicketCategory `json:"category"`
	Priority    *domain.TicketPriority `json:"priority"`
	DueDate     *string                `json:"due_date"`
	AssignedTo  *string                `json:"assigned_to"`
}

// UpdateStatusRequest payload for the status transition endpoint.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status" validate:"required"`
	Note   string              `json:"note"`
}

// UserRef is the compact identity block embedded in ticket payloads.
type UserRef struct {
	ID       string      `json:"id"`
	Email    string      `json:"email"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role,omitempty"`
}

// AttachmentResponse is the derived file block.
type AttachmentResponse struct {
	Name        string                 `json:"name"`
	Size        int64                  `json:"size"`
	Type        assethost.FileCategory `json:"type"`
	URL         string                 `json:"url,omitempty"`
	ViewURL     string                 `json:"view_url,omitempty"`
	DownloadURL string                 `json:"download_url,omitempty"`
}

// TicketResponse is the full ticket payload with per-caller derived fields.
type TicketResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    domain.TicketCategory `json:"category"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	Attachment  *AttachmentResponse   `json:"attachment"`
	CreatedBy   *UserRef              `json:"created_by"`
	AssignedTo  *UserRef              `json:"assigned_to,omitempty"`
	ResolvedBy  *UserRef              `json:"resolved_by,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	ResolvedAt  *time.Time            `json:"resolved_at,omitempty"`
	DueDate     *time.Time            `json:"due_date,omitempty"`
	TimeElapsed string                `json:"time_elapsed"`
	IsOverdue   bool                  `json:"is_overdue"`
	CanEdit     bool                  `json:"can_edit"`
	CanDelete   bool                  `json:"can_delete"`
}

// StatusHistoryResponse is one append-only history row.
type StatusHistoryResponse struct {
	ID        string              `json:"id"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	ChangedBy *string             `json:"changed_by"`
	ChangedAt time.Time           `json:"changed_at"`
	Note      string              `json:"note,omitempty"`
}
