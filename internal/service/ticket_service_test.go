package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oumaimagaidi/TicketFlow/internal/assethost"
	"github.com/oumaimagaidi/TicketFlow/internal/domain"
	"github.com/oumaimagaidi/TicketFlow/internal/events"
	"github.com/oumaimagaidi/TicketFlow/internal/repository"
	apperrors "github.com/oumaimagaidi/TicketFlow/pkg/util"
)

// In-memory collaborators. The ticket fake applies filters the way the SQL
// builder does so listing behavior can be asserted without a database.

type fakeTicketRepo struct {
	tickets    map[string]*domain.Ticket
	nextID     int
	lastFilter repository.TicketFilter
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.nextID++
	ticket.ID = fmt.Sprintf("ticket-%d", r.nextID)
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.lastFilter = filter
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.CreatedBy != nil && ticket.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.Category != nil && ticket.Category != *filter.Category {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Search != nil {
			needle := strings.ToLower(*filter.Search)
			if !strings.Contains(strings.ToLower(ticket.Title), needle) &&
				!strings.Contains(strings.ToLower(ticket.Description), needle) {
				continue
			}
		}
		out = append(out, *ticket)
	}
	return out, nil
}

type fakeHistoryRepo struct {
	entries []domain.TicketStatusHistory
}

func (r *fakeHistoryRepo) Create(_ context.Context, entry *domain.TicketStatusHistory) error {
	entry.ID = fmt.Sprintf("hist-%d", len(r.entries)+1)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketStatusHistory, error) {
	var out []domain.TicketStatusHistory
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].TicketID == ticketID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	byID      map[string]*domain.User
	byEmail   map[string]*domain.User
	createErr error
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}}
	for _, u := range users {
		r.byID[u.ID] = u
		r.byEmail[u.Email] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(r.byID)+1)
	}
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

type fakeAssets struct {
	uploadErr   error
	uploads     int
	viewURL     string
	rawURL      string
	downloadURL string
	fetchBody   []byte
	fetchType   string
	fetchErr    error
}

func (a *fakeAssets) Upload(_ context.Context, reader io.Reader, filename string) (*assethost.UploadResult, error) {
	a.uploads++
	if a.uploadErr != nil {
		return nil, a.uploadErr
	}
	data, _ := io.ReadAll(reader)
	return &assethost.UploadResult{
		Handle: domain.AttachmentHandle{PublicID: "tickets/" + filename, Format: "png", ResourceType: "image"},
		Size:   int64(len(data)),
	}, nil
}

func (a *fakeAssets) RawURL(*domain.AttachmentHandle) string      { return a.rawURL }
func (a *fakeAssets) ViewURL(*domain.AttachmentHandle) string     { return a.viewURL }
func (a *fakeAssets) DownloadURL(*domain.AttachmentHandle) string { return a.downloadURL }

func (a *fakeAssets) Fetch(context.Context, string) ([]byte, string, error) {
	return a.fetchBody, a.fetchType, a.fetchErr
}

type capturedEvents struct {
	events []events.Event
}

func (c *capturedEvents) Publish(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return nil
}

func (c *capturedEvents) Subscribe(events.EventType, events.EventHandler) {}

type ticketFixture struct {
	svc     *TicketService
	tickets *fakeTicketRepo
	history *fakeHistoryRepo
	users   *fakeUserRepo
	assets  *fakeAssets
	bus     *capturedEvents
	admin   *domain.User
	alice   *domain.User
	bob     *domain.User
}

func newTicketFixture() *ticketFixture {
	admin := &domain.User{ID: "admin-1", Email: "admin@example.com", Username: "admin", Role: domain.RoleAdmin, Active: true}
	alice := &domain.User{ID: "alice-1", Email: "alice@example.com", Username: "alice", Role: domain.RoleUser, Active: true}
	bob := &domain.User{ID: "bob-1", Email: "bob@example.com", Username: "bob", Role: domain.RoleUser, Active: true}

	f := &ticketFixture{
		tickets: newFakeTicketRepo(),
		history: &fakeHistoryRepo{},
		users:   newFakeUserRepo(admin, alice, bob),
		assets:  &fakeAssets{},
		bus:     &capturedEvents{},
		admin:   admin,
		alice:   alice,
		bob:     bob,
	}
	f.svc = NewTicketService(TicketDependencies{
		TicketRepo:  f.tickets,
		HistoryRepo: f.history,
		UserRepo:    f.users,
		Assets:      f.assets,
		Dispatcher:  f.bus,
		Logger:      zap.NewNop(),
	})
	return f
}

func (f *ticketFixture) mustCreate(t *testing.T, actor *domain.User, title string) *domain.Ticket {
	t.Helper()
	ticket, err := f.svc.CreateTicket(context.Background(), actor, TicketCreateInput{
		Title:       title,
		Description: "description of " + title,
		Category:    domain.CategoryTechnical,
	})
	require.NoError(t, err)
	return ticket
}

func domainErr(t *testing.T, err error) *apperrors.DomainError {
	t.Helper()
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %v", err)
	return de
}

func TestCreateTicketDefaultsAndEvent(t *testing.T) {
	f := newTicketFixture()

	ticket, err := f.svc.CreateTicket(context.Background(), f.alice, TicketCreateInput{
		Title:       "  Printer broken  ",
		Description: "It makes a sad noise.",
		Category:    domain.CategoryTechnical,
	})
	require.NoError(t, err)

	assert.Equal(t, "Printer broken", ticket.Title)
	assert.Equal(t, domain.TicketStatusNew, ticket.Status)
	assert.Equal(t, domain.PriorityMedium, ticket.Priority)
	assert.Equal(t, f.alice.ID, ticket.CreatedBy)
	assert.NotEmpty(t, ticket.ID)

	require.Len(t, f.bus.events, 1)
	assert.Equal(t, events.EventTicketCreated, f.bus.events[0].Type)
	assert.Equal(t, ticket.ID, f.bus.events[0].TicketID)
	assert.Equal(t, f.alice.ID, f.bus.events[0].ActorID)
}

func TestCreateTicketValidation(t *testing.T) {
	f := newTicketFixture()

	_, err := f.svc.CreateTicket(context.Background(), f.alice, TicketCreateInput{
		Title:    "   ",
		Category: domain.TicketCategory("Legal"),
		Priority: domain.TicketPriority("Critical"),
	})
	de := domainErr(t, err)
	assert.Equal(t, 400, de.HTTPStatus)
	assert.Contains(t, de.Details, "title")
	assert.Contains(t, de.Details, "description")
	assert.Contains(t, de.Details, "category")
	assert.Contains(t, de.Details, "priority")
	assert.Empty(t, f.bus.events)
}

func TestCreateTicketWithAttachment(t *testing.T) {
	f := newTicketFixture()

	ticket, err := f.svc.CreateTicket(context.Background(), f.alice, TicketCreateInput{
		Title:       "Broken invoice",
		Description: "see file",
		Category:    domain.CategoryFinancial,
		Attachment:  &AttachmentUpload{Reader: strings.NewReader("payload"), Filename: "invoice.png"},
	})
	require.NoError(t, err)

	require.True(t, ticket.HasAttachment())
	assert.Equal(t, "tickets/invoice.png", ticket.Attachment.PublicID)
	assert.Equal(t, "invoice.png", ticket.AttachmentName)
	assert.Equal(t, int64(len("payload")), ticket.AttachmentSize)
}

func TestCreateTicketUploadFailure(t *testing.T) {
	f := newTicketFixture()
	f.assets.uploadErr = errors.New("host down")

	_, err := f.svc.CreateTicket(context.Background(), f.alice, TicketCreateInput{
		Title:       "Broken invoice",
		Description: "see file",
		Category:    domain.CategoryFinancial,
		Attachment:  &AttachmentUpload{Reader: strings.NewReader("payload"), Filename: "invoice.png"},
	})
	de := domainErr(t, err)
	assert.Equal(t, 400, de.HTTPStatus)
	assert.Empty(t, f.tickets.tickets, "nothing persisted when upload fails")
}

func TestListTicketsScopesNonAdmins(t *testing.T) {
	f := newTicketFixture()
	f.mustCreate(t, f.alice, "alice one")
	f.mustCreate(t, f.alice, "alice two")
	f.mustCreate(t, f.bob, "bob one")

	mine, err := f.svc.ListTickets(context.Background(), f.alice, TicketListQuery{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, ticket := range mine {
		assert.Equal(t, f.alice.ID, ticket.CreatedBy)
	}
	require.NotNil(t, f.tickets.lastFilter.CreatedBy)
	assert.Equal(t, f.alice.ID, *f.tickets.lastFilter.CreatedBy)

	all, err := f.svc.ListTickets(context.Background(), f.admin, TicketListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Nil(t, f.tickets.lastFilter.CreatedBy)
}

// A caller-supplied filter can only narrow the role-scoped set, never
// widen it back to other users' tickets.
func TestListTicketsFilterCannotWidenScope(t *testing.T) {
	f := newTicketFixture()
	f.mustCreate(t, f.alice, "network outage")
	f.mustCreate(t, f.bob, "network outage")

	search := "network"
	got, err := f.svc.ListTickets(context.Background(), f.alice, TicketListQuery{Search: &search})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, f.alice.ID, got[0].CreatedBy)
}

// Category and status conditions are conjunctive, so the result does not
// depend on which one the caller thinks of first.
func TestListTicketsFiltersAreConjunctive(t *testing.T) {
	f := newTicketFixture()
	match := f.mustCreate(t, f.alice, "vpn down")
	f.mustCreate(t, f.alice, "refund late")

	_, err := f.svc.UpdateStatus(context.Background(), f.admin, match.ID, domain.TicketStatusUnderReview, "")
	require.NoError(t, err)

	category := domain.CategoryTechnical
	status := domain.TicketStatusUnderReview
	got, err := f.svc.ListTickets(context.Background(), f.alice, TicketListQuery{Category: &category, Status: &status})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, match.ID, got[0].ID)
}

func TestGetTicketAccess(t *testing.T) {
	f := newTicketFixture()
	ticket := f.mustCreate(t, f.alice, "only mine")

	_, err := f.svc.GetTicket(context.Background(), f.bob, ticket.ID)
	assert.Equal(t, 403, domainErr(t, err).HTTPStatus)

	_, err = f.svc.GetTicket(context.Background(), f.admin, ticket.ID)
	assert.NoError(t, err)

	_, err = f.svc.GetTicket(context.Background(), f.alice, "missing")
	assert.Equal(t, 404, domainErr(t, err).HTTPStatus)
}

func TestGetTicketAssigneeCanView(t *testing.T) {
	f := newTicketFixture()
	ticket := f.mustCreate(t, f.alice, "assigned away")

	bobID := f.bob.ID
	_, err := f.svc.UpdateTicket(context.Background(), f.admin, ticket.ID, TicketUpdateInput{AssignedTo: &bobID})
	require.NoError(t, err)

	got, err := f.svc.GetTicket(context.Background(), f.bob, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, got.ID)
}

func TestUpdateTicketPartialPatch(t *testing.T) {
	f := newTicketFixture()
	ticket := f.mustCreate(t, f.alice, "old title")

	newTitle := "new title"
	priority := domain.PriorityHigh
	updated, err := f.svc.UpdateTicket(context.Background(), f.alice, ticket.ID, TicketUpdateInput{
		Title:    &newTitle,
		Priority: &priority,
	})
	require.NoError(t, err)
	assert.Equal(t, "new title", updated.Title)
	assert.Equal(t, domain.PriorityHigh, updated.Priority)
	assert.Equal(t, ticket.Description, updated.Description, "untouched fields survive")
}

func TestUpdateTicketEditWindow(t *testing.T) {
	f := newTicketFixture()
	ticket := f.mustCreate(t, f.alice, "soon triaged")

	_, err := f.svc.UpdateStatus(context.Background(), f.admin, ticket.ID, domain.TicketStatusUnderReview, "")
	require.NoError(t, err)

	newTitle := "too late"
	_, err = f.svc.UpdateTicket(context.Background(), f.alice, ticket.ID, TicketUpdateInput{Title: &newTitle})
	assert.Equal(t, 403, domainErr(t, err).HTTPStatus)

	_, err = f.svc.UpdateTicket(context.Background(), f.admin, ticket.ID, TicketUpdateInput{Title: &newTitle})
	assert.NoError(t, err)
}

func TestUpdateTicketAssignmentRules(t *testing.T) {
	f := newTicketFixture()
	ticket := f.mustCreate(t, f.alice, "needs hands")

	bobID := f.bob.ID
	_, err := f.svc.UpdateTicket(context.Background(), f.alice, ticket.ID, TicketUpdateInput{AssignedTo: &bobID})
	assert.Equal(t, 403, domainErr(t, err).HTTPStatus)

	ghost := "nobody"
	_, err = f.svc.UpdateTicket(context.Background(), f.admin, ticket.ID, TicketUpdateInput{AssignedTo: &ghost})
	assert.Equal(t, 400, domainErr(t, err).HTTPStatus)

	updated, err := f.svc.UpdateTicket(context.Background(), f.admin, ticket.ID, TicketUpdateInput{AssignedTo: &bobID})
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, f.bob.ID, *updated.AssignedTo)

	last := f.bus.events[len(f.bus.events)-1]
	assert.Equal(t, events.EventTicketAssigned, last.Type)
}

func TestDeleteTicket(t *testing.T) {
	f := newTicketFixture()
	ticket := f.mustCreate(t, f.alice, "disposable")

	err := f.svc.DeleteTicket(context.Background(), f.bob, ticket.ID)
	assert.Equal(t, 403, domainErr(t, err).HTTPStatus)

	require.NoError(t, f.svc.DeleteTicket(context.Background(), f.alice, ticket.ID))
	_, err = f.svc.GetTicket(context.Background(), f.admin, ticket.ID)
	assert.Equal(t, 404, domainErr(t, err).HTTPStatus)

	last := f.bus.events[len(f.bus.events)-1]
	assert.Equal(t, events.EventTicketDeleted, last.Type)
}

func TestDeleteTicketClosedWindow(t *testing.T) {
	f := newTicketFixture()
	ticket := f.mustCreate(t, f.alice, "kept for audit")

	_, err := f.svc.UpdateStatus(context.Background(), f.admin, ticket.ID, domain.TicketStatusUnderReview, "")
	require.NoError(t, err)

	err = f.svc.DeleteTicket(context.Background(), f.alice, ticket.ID)
	assert.Equal(t, 403, domainErr(t, err).HTTPStatus)
}

func TestUpdateStatusAdminOnly(t *testing.T) {
	f := newTicketFixture()
	ticket := f.mustCreate(t, f.alice, "stuck")

	// Even the creator cannot move their own ticket.
	_, err := f.svc.UpdateStatus(context.Background(), f.alice, ticket.ID, domain.TicketStatusResolved, "")
	assert.Equal(t, 403, domainErr(t, err).HTTPStatus)
	assert.Empty(t, f.history.entries)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	f := newTicketFixture()
	ticket := f.mustCreate(t, f.alice, "stuck")

	_, err := f.svc.UpdateStatus(context.Background(), f.admin, ticket.ID, domain.TicketStatus("Closed"), "")
	assert.Equal(t, 400, domainErr(t, err).HTTPStatus)
	assert.Empty(t, f.history.entries)
}

func TestUpdateStatusResolutionStamps(t *testing.T) {
	f := newTicketFixture()
	ticket := f.mustCreate(t, f.alice, "fixable")

	resolved, err := f.svc.UpdateStatus(context.Background(), f.admin, ticket.ID, domain.TicketStatusResolved, "done")
	require.NoError(t, err)

	require.NotNil(t, resolved.ResolvedAt)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, f.admin.ID, *resolved.ResolvedBy)

	require.Len(t, f.history.entries, 1)
	entry := f.history.entries[0]
	assert.Equal(t, domain.TicketStatusNew, entry.OldStatus)
	assert.Equal(t, domain.TicketStatusResolved, entry.NewStatus)
	assert.Equal(t, "done", entry.Note)
	require.NotNil(t, entry.ChangedBy)
	assert.Equal(t, f.admin.ID, *entry.ChangedBy)

	last := f.bus.events[len(f.bus.events)-1]
	assert.Equal(t, events.EventTicketStatusChanged, last.Type)
}

func TestUpdateStatusResolvedStampedOnce(t *testing.T) {
	f := newTicketFixture()
	ticket := f.mustCreate(t, f.alice, "resolved twice")

	first, err := f.svc.UpdateStatus(context.Background(), f.admin, ticket.ID, domain.TicketStatusResolved, "")
	require.NoError(t, err)
	stamp := *first.ResolvedAt

	again, err := f.svc.UpdateStatus(context.Background(), f.admin, ticket.ID, domain.TicketStatusResolved, "")
	require.NoError(t, err)
	require.NotNil(t, again.ResolvedAt)
	assert.Equal(t, stamp, *again.ResolvedAt, "already-resolved tickets keep their stamp")

	assert.Len(t, f.history.entries, 2, "one history row per transition, even no-op ones")
}

func TestUpdateStatusHasNoTransitionGraph(t *testing.T) {
	f := newTicketFixture()
	ticket := f.mustCreate(t, f.alice, "reopened")

	_, err := f.svc.UpdateStatus(context.Background(), f.admin, ticket.ID, domain.TicketStatusResolved, "")
	require.NoError(t, err)

	reopened, err := f.svc.UpdateStatus(context.Background(), f.admin, ticket.ID, domain.TicketStatusNew, "reopening")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusNew, reopened.Status)
	assert.NotNil(t, reopened.ResolvedAt, "resolution stamp survives reopening")
}

func TestListHistoryNewestFirst(t *testing.T) {
	f := newTicketFixture()
	ticket := f.mustCreate(t, f.alice, "audited")

	_, err := f.svc.UpdateStatus(context.Background(), f.admin, ticket.ID, domain.TicketStatusUnderReview, "first")
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(context.Background(), f.admin, ticket.ID, domain.TicketStatusResolved, "second")
	require.NoError(t, err)

	entries, err := f.svc.ListHistory(context.Background(), f.alice, ticket.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Note)
	assert.Equal(t, "first", entries[1].Note)

	_, err = f.svc.ListHistory(context.Background(), f.bob, ticket.ID)
	assert.Equal(t, 403, domainErr(t, err).HTTPStatus)
}

func TestDownloadURL(t *testing.T) {
	f := newTicketFixture()
	plain := f.mustCreate(t, f.alice, "no file")

	_, err := f.svc.DownloadURL(context.Background(), f.alice, plain.ID)
	assert.Equal(t, 404, domainErr(t, err).HTTPStatus)

	withFile, err := f.svc.CreateTicket(context.Background(), f.alice, TicketCreateInput{
		Title:       "with file",
		Description: "d",
		Category:    domain.CategoryProduct,
		Attachment:  &AttachmentUpload{Reader: strings.NewReader("x"), Filename: "spec.png"},
	})
	require.NoError(t, err)

	f.assets.downloadURL = "https://res.cloudinary.com/demo/image/upload/fl_attachment/tickets/spec.png"
	url, err := f.svc.DownloadURL(context.Background(), f.alice, withFile.ID)
	require.NoError(t, err)
	assert.Equal(t, f.assets.downloadURL, url)

	f.assets.downloadURL = ""
	_, err = f.svc.DownloadURL(context.Background(), f.alice, withFile.ID)
	assert.Equal(t, 404, domainErr(t, err).HTTPStatus)
}

func TestViewContentFallbackChain(t *testing.T) {
	f := newTicketFixture()
	ticket, err := f.svc.CreateTicket(context.Background(), f.alice, TicketCreateInput{
		Title:       "with file",
		Description: "d",
		Category:    domain.CategoryProduct,
		Attachment:  &AttachmentUpload{Reader: strings.NewReader("x"), Filename: "photo.png"},
	})
	require.NoError(t, err)

	f.assets.viewURL = "https://res.cloudinary.com/demo/image/upload/tickets/photo.png"
	redirect, body, _, err := f.svc.ViewContent(context.Background(), f.alice, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, f.assets.viewURL, redirect)
	assert.Nil(t, body)

	// No derivable view URL: stream the bytes instead.
	f.assets.viewURL = ""
	f.assets.rawURL = "https://res.cloudinary.com/demo/image/upload/tickets/photo.png"
	f.assets.fetchBody = []byte("raw-bytes")
	f.assets.fetchType = "image/png"
	redirect, body, contentType, err := f.svc.ViewContent(context.Background(), f.alice, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, redirect)
	assert.Equal(t, []byte("raw-bytes"), body)
	assert.Equal(t, "image/png", contentType)

	// Fetch failure ends the chain as not found.
	f.assets.fetchErr = errors.New("host gone")
	_, _, _, err = f.svc.ViewContent(context.Background(), f.alice, ticket.ID)
	assert.Equal(t, 404, domainErr(t, err).HTTPStatus)
}

func TestAttachmentDetails(t *testing.T) {
	f := newTicketFixture()
	plain := f.mustCreate(t, f.alice, "no file")
	assert.Nil(t, f.svc.AttachmentDetails(plain))

	ticket, err := f.svc.CreateTicket(context.Background(), f.alice, TicketCreateInput{
		Title:       "with file",
		Description: "d",
		Category:    domain.CategoryProduct,
		Attachment:  &AttachmentUpload{Reader: strings.NewReader("abc"), Filename: "report.pdf"},
	})
	require.NoError(t, err)

	f.assets.rawURL = "raw"
	f.assets.viewURL = "view"
	f.assets.downloadURL = "download"
	info := f.svc.AttachmentDetails(ticket)
	require.NotNil(t, info)
	assert.Equal(t, "report.pdf", info.Name)
	assert.Equal(t, int64(3), info.Size)
	assert.Equal(t, assethost.FileTypePDF, info.Type)
	assert.Equal(t, "raw", info.URL)
	assert.Equal(t, "view", info.ViewURL)
	assert.Equal(t, "download", info.DownloadURL)
}

func TestRelatedUsersBestEffort(t *testing.T) {
	f := newTicketFixture()
	ticket := f.mustCreate(t, f.alice, "related")

	ghost := "gone-user"
	ticket.AssignedTo = &ghost
	adminID := f.admin.ID
	ticket.ResolvedBy = &adminID

	related := f.svc.RelatedUsers(context.Background(), ticket)
	require.NotNil(t, related.Creator)
	assert.Equal(t, f.alice.ID, related.Creator.ID)
	assert.Nil(t, related.Assignee, "removed account leaves slot nil")
	require.NotNil(t, related.Resolver)
	assert.Equal(t, f.admin.ID, related.Resolver.ID)
}
