package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/oumaimagaidi/TicketFlow/internal/api/http"
	"github.com/oumaimagaidi/TicketFlow/internal/api/http/handlers"
	"github.com/oumaimagaidi/TicketFlow/internal/auth"
	"github.com/oumaimagaidi/TicketFlow/internal/domain"
	"github.com/oumaimagaidi/TicketFlow/internal/observability"
	"github.com/oumaimagaidi/TicketFlow/internal/repository"
	"github.com/oumaimagaidi/TicketFlow/internal/service"
)

type stubTicketRepo struct {
	tickets map[string]*domain.Ticket
	nextID  int
}

func (r *stubTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.nextID++
	ticket.ID = fmt.Sprintf("ticket-%d", r.nextID)
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *stubTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *stubTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *stubTicketRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *stubTicketRepo) ListWithFilter(_ context.Context, _ repository.TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		out = append(out, *ticket)
	}
	return out, nil
}

type stubHistoryRepo struct{}

func (stubHistoryRepo) Create(context.Context, *domain.TicketStatusHistory) error { return nil }
func (stubHistoryRepo) ListByTicket(context.Context, string) ([]domain.TicketStatusHistory, error) {
	return nil, nil
}

type stubUserRepo struct {
	users map[string]*domain.User
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type ticketAppFixture struct {
	app     *fiber.App
	metrics *observability.Metrics
	bearer  string
}

func newTicketAppFixture(t *testing.T) *ticketAppFixture {
	t.Helper()

	user := &domain.User{ID: "alice-1", Email: "alice@example.com", Username: "alice", Role: domain.RoleUser, Active: true}
	users := &stubUserRepo{users: map[string]*domain.User{user.ID: user}}

	svc := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  &stubTicketRepo{tickets: map[string]*domain.Ticket{}},
		HistoryRepo: stubHistoryRepo{},
		UserRepo:    users,
		Logger:      zap.NewNop(),
	})

	tokens := auth.NewTokenManager("test-secret", 15, 24)
	middleware := auth.NewAuthMiddleware(tokens, users)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	handler := handlers.NewTicketsHandler(svc)
	app.Post("/tickets", middleware.Handle, handler.CreateTicket)

	issued, err := tokens.IssueAccess(user)
	require.NoError(t, err)

	return &ticketAppFixture{app: app, metrics: metrics, bearer: "Bearer " + issued.Token}
}

func (f *ticketAppFixture) postTicket(t *testing.T, payload string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/tickets", strings.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAuthorization, f.bearer)

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestCreateTicketEndpointRejectsMalformedDueDate(t *testing.T) {
	f := newTicketAppFixture(t)

	status, body := f.postTicket(t, `{"title":"Printer broken","description":"sad noise","category":"Technical","due_date":"next tuesday"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	errBlock, ok := body["error"].(map[string]any)
	require.True(t, ok)
	details, ok := errBlock["details"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "due_date")
}

func TestCreateTicketEndpointAcceptsRFC3339DueDate(t *testing.T) {
	f := newTicketAppFixture(t)

	status, body := f.postTicket(t, `{"title":"Printer broken","description":"sad noise","category":"Technical","due_date":"2026-09-15T12:00:00Z"}`)
	assert.Equal(t, fiber.StatusCreated, status)

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, data["id"])
	assert.NotNil(t, data["due_date"])
}

// Failed requests are metered under the status the error middleware wrote,
// never as 200.
func TestFailedRequestsMeteredWithErrorStatus(t *testing.T) {
	f := newTicketAppFixture(t)

	status, _ := f.postTicket(t, `{"title":"","description":"","category":"Nope"}`)
	require.Equal(t, fiber.StatusBadRequest, status)

	assert.Equal(t, int64(1), f.metrics.RequestCount("/tickets", fiber.MethodPost, fiber.StatusBadRequest))
	assert.Zero(t, f.metrics.RequestCount("/tickets", fiber.MethodPost, fiber.StatusOK))
}
