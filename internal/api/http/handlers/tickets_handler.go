package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/oumaimagaidi/TicketFlow/internal/api/dto"
	"github.com/oumaimagaidi/TicketFlow/internal/auth"
	"github.com/oumaimagaidi/TicketFlow/internal/domain"
	"github.com/oumaimagaidi/TicketFlow/internal/service"
	apperrors "github.com/oumaimagaidi/TicketFlow/pkg/util"
)

// TicketsHandler manages the ticket resource endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets. Accepts JSON or multipart; the attachment
// arrives as form file "attachment".
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if fields := dto.Validate(req); fields != nil {
		return apperrors.NewValidationError("invalid ticket data", fields)
	}

	input := service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	}
	if req.DueDate != "" {
		input.DueDate = parseTime(req.DueDate)
		if input.DueDate == nil {
			return apperrors.NewValidationError("invalid ticket data", map[string]any{"due_date": "must be RFC3339"})
		}
	}

	if fileHeader, fileErr := c.FormFile("attachment"); fileErr == nil && fileHeader != nil {
		file, openErr := fileHeader.Open()
		if openErr != nil {
			return apperrors.NewValidationError("attachment could not be read", nil)
		}
		defer file.Close()
		input.Attachment = &service.AttachmentUpload{
			Reader:   file,
			Filename: fileHeader.Filename,
		}
	}

	ticket, err := h.service.CreateTicket(c.Context(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": h.ticketResponse(c, ticket, actor)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	query := parseTicketQuery(c)
	tickets, err := h.service.ListTickets(c.Context(), actor, query)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, h.ticketResponse(c, &tickets[i], actor))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponse(c, ticket, actor)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
	}
	if req.DueDate != nil {
		input.DueDate = parseTime(*req.DueDate)
		if input.DueDate == nil {
			return apperrors.NewValidationError("invalid ticket data", map[string]any{"due_date": "must be RFC3339"})
		}
	}

	ticket, err := h.service.UpdateTicket(c.Context(), actor, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponse(c, ticket, actor)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteTicket(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UpdateStatus PATCH /tickets/:id/update_status. Admin only.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if fields := dto.Validate(req); fields != nil {
		return apperrors.NewValidationError("status required", fields)
	}

	ticket, err := h.service.UpdateStatus(c.Context(), actor, c.Params("id"), req.Status, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponse(c, ticket, actor)})
}

// DownloadAttachment GET /tickets/:id/download.
func (h *TicketsHandler) DownloadAttachment(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	url, err := h.service.DownloadURL(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Redirect(url, http.StatusFound)
}

// ViewAttachment GET /tickets/:id/view. Redirects to the host's inline URL
// or streams the bytes when no host URL can be derived.
func (h *TicketsHandler) ViewAttachment(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	url, body, contentType, err := h.service.ViewContent(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	if url != "" {
		return c.Redirect(url, http.StatusFound)
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(body)
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	entries, err := h.service.ListHistory(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.StatusHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.StatusHistoryResponse{
			ID:        entry.ID,
			OldStatus: entry.OldStatus,
			NewStatus: entry.NewStatus,
			ChangedBy: entry.ChangedBy,
			ChangedAt: entry.ChangedAt,
			Note:      entry.Note,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func requireActor(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.User, nil
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListQuery {
	query := service.TicketListQuery{
		OrderBy: c.Query("ordering", "-created_at"),
	}
	if category := c.Query("category"); category != "" {
		value := domain.TicketCategory(category)
		query.Category = &value
	}
	if status := c.Query("status"); status != "" {
		value := domain.TicketStatus(status)
		query.Status = &value
	}
	if search := c.Query("search"); search != "" {
		query.Search = &search
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	query.Offset = (page - 1) * pageSize
	query.Limit = pageSize
	return query
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func (h *TicketsHandler) ticketResponse(c *fiber.Ctx, ticket *domain.Ticket, actor *domain.User) dto.TicketResponse {
	now := time.Now()
	related := h.service.RelatedUsers(c.Context(), ticket)

	resp := dto.TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Category:    ticket.Category,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
		ResolvedAt:  ticket.ResolvedAt,
		DueDate:     ticket.DueDate,
		TimeElapsed: ticket.TimeElapsed(now),
		IsOverdue:   ticket.IsOverdue(now),
		CanEdit:     domain.CanEdit(ticket, actor),
		CanDelete:   domain.CanDelete(ticket, actor),
	}

	if info := h.service.AttachmentDetails(ticket); info != nil {
		resp.Attachment = &dto.AttachmentResponse{
			Name:        info.Name,
			Size:        info.Size,
			Type:        info.Type,
			URL:         info.URL,
			ViewURL:     info.ViewURL,
			DownloadURL: info.DownloadURL,
		}
	}

	if related.Creator != nil {
		resp.CreatedBy = &dto.UserRef{
			ID:       related.Creator.ID,
			Email:    related.Creator.Email,
			Username: related.Creator.Username,
			Role:     related.Creator.Role,
		}
	}
	if related.Assignee != nil {
		resp.AssignedTo = &dto.UserRef{
			ID:       related.Assignee.ID,
			Email:    related.Assignee.Email,
			Username: related.Assignee.Username,
		}
	}
	if related.Resolver != nil {
		resp.ResolvedBy = &dto.UserRef{
			ID:       related.Resolver.ID,
			Email:    related.Resolver.Email,
			Username: related.Resolver.Username,
		}
	}
	return resp
}
