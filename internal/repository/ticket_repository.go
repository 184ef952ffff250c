package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oumaimagaidi/TicketFlow/internal/domain"
)

// TicketFilter captures listing parameters. CreatedBy is the role
// restriction slot: the service pins it for non-admin callers before any
// caller-supplied filter is considered.
type TicketFilter struct {
	CreatedBy *string
	Category  *domain.TicketCategory
	Status    *domain.TicketStatus
	Search    *string
	OrderBy   string
	Limit     int
	Offset    int
}

// orderColumns is the allow-list for ORDER BY targets. Anything else falls
// back to creation time.
var orderColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"priority":   "priority",
	"status":     "status",
	"due_date":   "due_date",
	"title":      "title",
}

// OrderClause resolves the caller-specified ordering ("-" prefix for
// descending) against the allow-list. Default: creation time, descending.
func (f TicketFilter) OrderClause() string {
	field := f.OrderBy
	direction := "ASC"
	if strings.HasPrefix(field, "-") {
		field = strings.TrimPrefix(field, "-")
		direction = "DESC"
	}
	column, ok := orderColumns[field]
	if !ok {
		return "created_at DESC"
	}
	return column + " " + direction
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, category, status, priority,
               attachment_public_id, attachment_format, attachment_resource_type,
               attachment_name, attachment_size,
               created_by, assigned_to, resolved_by,
               created_at, updated_at, resolved_at, due_date`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, category, status, priority,
            attachment_public_id, attachment_format, attachment_resource_type,
            attachment_name, attachment_size, created_by, assigned_to, due_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at, updated_at`

	publicID, format, resourceType := attachmentColumns(ticket.Attachment)
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Status,
		ticket.Priority,
		publicID,
		format,
		resourceType,
		ticket.AttachmentName,
		ticket.AttachmentSize,
		ticket.CreatedBy,
		ticket.AssignedTo,
		ticket.DueDate,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, category=$3, status=$4, priority=$5,
            attachment_public_id=$6, attachment_format=$7, attachment_resource_type=$8,
            attachment_name=$9, attachment_size=$10,
            assigned_to=$11, resolved_by=$12, resolved_at=$13, due_date=$14, updated_at=NOW()
        WHERE id=$15`

	publicID, format, resourceType := attachmentColumns(ticket.Attachment)
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Status,
		ticket.Priority,
		publicID,
		format,
		resourceType,
		ticket.AttachmentName,
		ticket.AttachmentSize,
		ticket.AssignedTo,
		ticket.ResolvedBy,
		ticket.ResolvedAt,
		ticket.DueDate,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	row := r.pool.QueryRow(ctx, query, id)
	return scanTicket(row)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + escapeLike(strings.ToLower(strings.TrimSpace(*filter.Search))) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), filter.OrderClause(), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE wildcards so a search term matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func attachmentColumns(handle *domain.AttachmentHandle) (publicID, format, resourceType *string) {
	if handle == nil || handle.PublicID == "" {
		return nil, nil, nil
	}
	return &handle.PublicID, &handle.Format, &handle.ResourceType
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var (
		ticket       domain.Ticket
		publicID     *string
		format       *string
		resourceType *string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Status,
		&ticket.Priority,
		&publicID,
		&format,
		&resourceType,
		&ticket.AttachmentName,
		&ticket.AttachmentSize,
		&ticket.CreatedBy,
		&ticket.AssignedTo,
		&ticket.ResolvedBy,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
		&ticket.DueDate,
	); err != nil {
		return nil, err
	}
	if publicID != nil && *publicID != "" {
		handle := domain.AttachmentHandle{PublicID: *publicID}
		if format != nil {
			handle.Format = *format
		}
		if resourceType != nil {
			handle.ResourceType = *resourceType
		}
		ticket.Attachment = &handle
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
