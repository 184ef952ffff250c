package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/oumaimagaidi/TicketFlow/internal/assethost"
	"github.com/oumaimagaidi/TicketFlow/internal/domain"
	"github.com/oumaimagaidi/TicketFlow/internal/events"
	"github.com/oumaimagaidi/TicketFlow/internal/repository"
	apperrors "github.com/oumaimagaidi/TicketFlow/pkg/util"
)

// AssetStore is the slice of the asset host adapter the ticket service
// depends on.
type AssetStore interface {
	Upload(ctx context.Context, reader io.Reader, filename string) (*assethost.UploadResult, error)
	RawURL(handle *domain.AttachmentHandle) string
	ViewURL(handle *domain.AttachmentHandle) string
	DownloadURL(handle *domain.AttachmentHandle) string
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	users      repository.UserRepository
	assets     AssetStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	UserRepo    repository.UserRepository
	Assets      AssetStore
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		users:      deps.UserRepo,
		assets:     deps.Assets,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// AttachmentUpload carries an incoming file to be stored on the asset host.
type AttachmentUpload struct {
	Reader   io.Reader
	Filename string
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    domain.TicketCategory
	Priority    domain.TicketPriority
	DueDate     *time.Time
	Attachment  *AttachmentUpload
}

// TicketListQuery describes caller-supplied listing filters. The role
// restriction is not part of the query; it is derived from the actor and
// always applied first.
type TicketListQuery struct {
	Category *domain.TicketCategory
	Status   *domain.TicketStatus
	Search   *string
	OrderBy  string
	Limit    int
	Offset   int
}

// TicketUpdateInput describes a partial update. Nil fields are untouched.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	Category    *domain.TicketCategory
	Priority    *domain.TicketPriority
	DueDate     *time.Time
	AssignedTo  *string
}

// CreateTicket validates input, stores the optional attachment on the
// asset host, and persists the ticket.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	fieldErrors := map[string]any{}
	if strings.TrimSpace(input.Title) == "" {
		fieldErrors["title"] = "title is required"
	}
	if strings.TrimSpace(input.Description) == "" {
		fieldErrors["description"] = "description is required"
	}
	if !domain.ValidCategory(input.Category) {
		fieldErrors["category"] = "category must be one of Technical, Financial, Product"
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !domain.ValidPriority(priority) {
		fieldErrors["priority"] = "priority must be one of Low, Medium, High, Urgent"
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket data", fieldErrors)
	}

	ticket := &domain.Ticket{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    input.Category,
		Status:      domain.TicketStatusNew,
		Priority:    priority,
		CreatedBy:   actor.ID,
		DueDate:     input.DueDate,
	}

	if input.Attachment != nil {
		result, err := s.assets.Upload(ctx, input.Attachment.Reader, input.Attachment.Filename)
		if err != nil {
			s.logger.Warn("attachment upload failed", zap.Error(err))
			return nil, apperrors.NewValidationError("attachment upload failed", nil)
		}
		ticket.Attachment = &result.Handle
		ticket.AttachmentName = input.Attachment.Filename
		ticket.AttachmentSize = result.Size
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTicketCreated,
		TicketID:  ticket.ID,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Payload: events.TicketCreatedPayload{
			Category:      ticket.Category,
			Priority:      ticket.Priority,
			Title:         ticket.Title,
			HasAttachment: ticket.HasAttachment(),
		},
	})
	return ticket, nil
}

// ListTickets returns the visible ticket set for the actor. Non-admin
// callers are pinned to their own tickets before any other filter applies,
// so no later stage can widen the set.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, query TicketListQuery) ([]domain.Ticket, error) {
	filter := scopedFilter(actor, query)
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// scopedFilter translates a caller query into a repository filter with the
// role restriction applied first.
func scopedFilter(actor *domain.User, query TicketListQuery) repository.TicketFilter {
	filter := repository.TicketFilter{
		Category: query.Category,
		Status:   query.Status,
		Search:   query.Search,
		OrderBy:  query.OrderBy,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	if !actor.IsAdmin() {
		createdBy := actor.ID
		filter.CreatedBy = &createdBy
	}
	return filter
}

// GetTicket fetches a single ticket, enforcing the view policy.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if !domain.CanView(ticket, actor) {
		return nil, apperrors.NewForbidden("you do not have permission to access this ticket")
	}
	return ticket, nil
}

// UpdateTicket applies a partial update, gated by the edit policy. Only
// admins may reassign.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if !domain.CanEdit(ticket, actor) {
		return nil, apperrors.NewForbidden("you do not have permission to edit this ticket")
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperrors.NewValidationError("invalid ticket data", map[string]any{"title": "title cannot be empty"})
		}
		ticket.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		ticket.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		if !domain.ValidCategory(*input.Category) {
			return nil, apperrors.NewValidationError("invalid ticket data", map[string]any{"category": "unknown category"})
		}
		ticket.Category = *input.Category
	}
	if input.Priority != nil {
		if !domain.ValidPriority(*input.Priority) {
			return nil, apperrors.NewValidationError("invalid ticket data", map[string]any{"priority": "unknown priority"})
		}
		ticket.Priority = *input.Priority
	}
	if input.DueDate != nil {
		ticket.DueDate = input.DueDate
	}

	assigned := false
	if input.AssignedTo != nil {
		if !actor.IsAdmin() {
			return nil, apperrors.NewForbidden("only admin can assign tickets")
		}
		if _, err := s.users.GetByID(ctx, *input.AssignedTo); err != nil {
			if err == pgx.ErrNoRows {
				return nil, apperrors.NewValidationError("invalid ticket data", map[string]any{"assigned_to": "assignee not found"})
			}
			return nil, apperrors.MapError(err)
		}
		ticket.AssignedTo = input.AssignedTo
		assigned = true
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if assigned {
		s.publish(ctx, events.Event{
			Type:      events.EventTicketAssigned,
			TicketID:  ticket.ID,
			ActorID:   actor.ID,
			ActorRole: actor.Role,
			Payload:   events.TicketAssignedPayload{AssignedTo: ticket.AssignedTo},
		})
	}
	return ticket, nil
}

// DeleteTicket removes a ticket, gated by the delete policy. History rows
// cascade with it.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, ticketID string) error {
	ticket, err := s.GetTicket(ctx, actor, ticketID)
	if err != nil {
		return err
	}
	if !domain.CanDelete(ticket, actor) {
		return apperrors.NewForbidden("you do not have permission to delete this ticket")
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:      events.EventTicketDeleted,
		TicketID:  ticket.ID,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Payload:   events.TicketDeletedPayload{Title: ticket.Title},
	})
	return nil
}

// UpdateStatus transitions a ticket to any valid status value. Admin only.
// Entering Resolved stamps resolved_at and resolved_by; exactly one history
// row is appended per transition. No transition graph is enforced.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.User, ticketID string, newStatus domain.TicketStatus, note string) (*domain.Ticket, error) {
	if !domain.CanTransitionStatus(actor) {
		return nil, apperrors.NewForbidden("only admin can update ticket status")
	}
	if !domain.ValidStatus(newStatus) {
		return nil, apperrors.NewValidationError("invalid ticket data", map[string]any{
			"status": "status must be one of New, Under Review, Resolved",
		})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	if newStatus == domain.TicketStatusResolved && oldStatus != domain.TicketStatusResolved {
		now := time.Now()
		ticket.ResolvedAt = &now
		actorID := actor.ID
		ticket.ResolvedBy = &actorID
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	actorID := actor.ID
	entry := &domain.TicketStatusHistory{
		TicketID:  ticket.ID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ChangedBy: &actorID,
		Note:      note,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTicketStatusChanged,
		TicketID:  ticket.ID,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Note:      note,
		},
	})
	return ticket, nil
}

// ListHistory returns a ticket's status history, newest first, gated by
// the view policy.
func (s *TicketService) ListHistory(ctx context.Context, actor *domain.User, ticketID string) ([]domain.TicketStatusHistory, error) {
	if _, err := s.GetTicket(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// DownloadURL resolves the forced-download URL for a ticket's attachment.
// Adapter failures degrade through the fallback chain; only a truly
// underivable URL surfaces as not found.
func (s *TicketService) DownloadURL(ctx context.Context, actor *domain.User, ticketID string) (string, error) {
	ticket, err := s.GetTicket(ctx, actor, ticketID)
	if err != nil {
		return "", err
	}
	if !ticket.HasAttachment() {
		return "", apperrors.NewNotFound("attachment", nil)
	}
	url := s.assets.DownloadURL(ticket.Attachment)
	if url == "" {
		return "", apperrors.NewNotFound("attachment", nil)
	}
	return url, nil
}

// ViewContent resolves the inline view for a ticket's attachment: a
// redirect URL when the host can serve it, else the raw bytes to stream.
func (s *TicketService) ViewContent(ctx context.Context, actor *domain.User, ticketID string) (redirectURL string, body []byte, contentType string, err error) {
	ticket, err := s.GetTicket(ctx, actor, ticketID)
	if err != nil {
		return "", nil, "", err
	}
	if !ticket.HasAttachment() {
		return "", nil, "", apperrors.NewNotFound("attachment", nil)
	}

	if url := s.assets.ViewURL(ticket.Attachment); url != "" {
		return url, nil, "", nil
	}

	rawURL := s.assets.RawURL(ticket.Attachment)
	if rawURL == "" {
		return "", nil, "", apperrors.NewNotFound("attachment", nil)
	}
	body, contentType, fetchErr := s.assets.Fetch(ctx, rawURL)
	if fetchErr != nil {
		s.logger.Warn("attachment fetch failed", zap.String("ticket_id", ticketID), zap.Error(fetchErr))
		return "", nil, "", apperrors.NewNotFound("attachment", nil)
	}
	return "", body, contentType, nil
}

// AttachmentInfo is the derived file block rendered in ticket payloads.
type AttachmentInfo struct {
	Name        string
	Size        int64
	Type        assethost.FileCategory
	URL         string
	ViewURL     string
	DownloadURL string
}

// AttachmentDetails derives the file block for a ticket, or nil when there
// is no attachment. URL derivation failures yield empty fields, never errors.
func (s *TicketService) AttachmentDetails(ticket *domain.Ticket) *AttachmentInfo {
	if !ticket.HasAttachment() {
		return nil
	}
	return &AttachmentInfo{
		Name:        ticket.AttachmentName,
		Size:        ticket.AttachmentSize,
		Type:        assethost.FileType(ticket.AttachmentName),
		URL:         s.assets.RawURL(ticket.Attachment),
		ViewURL:     s.assets.ViewURL(ticket.Attachment),
		DownloadURL: s.assets.DownloadURL(ticket.Attachment),
	}
}

// TicketRelated bundles the identities referenced by a ticket. Lookups are
// best effort: a removed account leaves its slot nil.
type TicketRelated struct {
	Creator  *domain.User
	Assignee *domain.User
	Resolver *domain.User
}

// RelatedUsers resolves the identities referenced by a ticket.
func (s *TicketService) RelatedUsers(ctx context.Context, ticket *domain.Ticket) TicketRelated {
	related := TicketRelated{}
	if user, err := s.users.GetByID(ctx, ticket.CreatedBy); err == nil {
		related.Creator = user
	}
	if ticket.AssignedTo != nil {
		if user, err := s.users.GetByID(ctx, *ticket.AssignedTo); err == nil {
			related.Assignee = user
		}
	}
	if ticket.ResolvedBy != nil {
		if user, err := s.users.GetByID(ctx, *ticket.ResolvedBy); err == nil {
			related.Resolver = user
		}
	}
	return related
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
