package billrequests

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/comandapos/comanda-backend/pkg/db/models"
	"github.com/comandapos/comanda-backend/pkg/enums"
	pkgerrors "github.com/comandapos/comanda-backend/pkg/errors"
	"github.com/comandapos/comanda-backend/pkg/outbox"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type stubRepo struct {
	requests   map[uuid.UUID]*models.BillRequest
	tables     map[uuid.UUID]*models.DiningTable
	openOrders map[uuid.UUID]int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		requests:   map[uuid.UUID]*models.BillRequest{},
		tables:     map[uuid.UUID]*models.DiningTable{},
		openOrders: map[uuid.UUID]int64{},
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, request *models.BillRequest) (*models.BillRequest, error) {
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	s.requests[request.ID] = request
	return request, nil
}

func (s *stubRepo) Find(ctx context.Context, id uuid.UUID) (*models.BillRequest, error) {
	request, ok := s.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *request
	return &clone, nil
}

func (s *stubRepo) FindActiveByTable(ctx context.Context, tableID uuid.UUID) (*models.BillRequest, error) {
	for _, request := range s.requests {
		if request.TableID == tableID && !request.Status.IsTerminal() {
			clone := *request
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindActiveByWaiter(ctx context.Context, waiterID uuid.UUID) ([]models.BillRequest, error) {
	var rows []models.BillRequest
	for _, request := range s.requests {
		if request.WaiterID == waiterID && !request.Status.IsTerminal() {
			rows = append(rows, *request)
		}
	}
	return rows, nil
}

func (s *stubRepo) ListActive(ctx context.Context) ([]models.BillRequest, error) {
	var rows []models.BillRequest
	for _, request := range s.requests {
		if !request.Status.IsTerminal() {
			rows = append(rows, *request)
		}
	}
	return rows, nil
}

func (s *stubRepo) UpdateGuarded(ctx context.Context, id uuid.UUID, from []enums.BillRequestStatus, updates map[string]any) (int64, error) {
	request, ok := s.requests[id]
	if !ok {
		return 0, nil
	}
	allowed := false
	for _, status := range from {
		if request.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return 0, nil
	}
	if status, ok := updates["status"].(enums.BillRequestStatus); ok {
		request.Status = status
	}
	if resolved, ok := updates["resolved_by"].(uuid.UUID); ok {
		request.ResolvedBy = &resolved
	}
	return 1, nil
}

func (s *stubRepo) FindTable(ctx context.Context, tableID uuid.UUID) (*models.DiningTable, error) {
	table, ok := s.tables[tableID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *table
	return &clone, nil
}

func (s *stubRepo) CountOpenOrders(ctx context.Context, tableID uuid.UUID) (int64, error) {
	return s.openOrders[tableID], nil
}

func newTestService(t *testing.T, repo *stubRepo) (Service, *fakeOutbox) {
	t.Helper()
	ob := &fakeOutbox{}
	svc, err := NewService(repo, fakeTxRunner{}, ob)
	require.NoError(t, err)
	return svc, ob
}

func seedTable(repo *stubRepo, number int) *models.DiningTable {
	table := &models.DiningTable{ID: uuid.New(), Number: number, Status: enums.TableStatusOccupied}
	repo.tables[table.ID] = table
	return table
}

func TestCreateRequiresOpenOrder(t *testing.T) {
	repo := newStubRepo()
	table := seedTable(repo, 3)
	svc, _ := newTestService(t, repo)

	_, err := svc.Create(context.Background(), CreateInput{TableID: table.ID, WaiterID: uuid.New()})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestCreateHappyPath(t *testing.T) {
	repo := newStubRepo()
	table := seedTable(repo, 3)
	repo.openOrders[table.ID] = 1
	svc, ob := newTestService(t, repo)

	request, err := svc.Create(context.Background(), CreateInput{TableID: table.ID, WaiterID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, enums.BillRequestStatusPending, request.Status)

	require.Len(t, ob.events, 1)
	assert.Equal(t, enums.EventBillRequestNew, ob.events[0].EventType)
	assert.Equal(t, []string{outbox.RoomCashier}, ob.events[0].Targets)
}

func TestCreateDuplicateIsConflict(t *testing.T) {
	repo := newStubRepo()
	table := seedTable(repo, 3)
	repo.openOrders[table.ID] = 1
	svc, _ := newTestService(t, repo)

	_, err := svc.Create(context.Background(), CreateInput{TableID: table.ID, WaiterID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateInput{TableID: table.ID, WaiterID: uuid.New()})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}

func TestUpdateTerminalIsFrozen(t *testing.T) {
	repo := newStubRepo()
	table := seedTable(repo, 3)
	svc, _ := newTestService(t, repo)

	request := &models.BillRequest{
		ID:      uuid.New(),
		TableID: table.ID,
		Status:  enums.BillRequestStatusCompleted,
	}
	repo.requests[request.ID] = request

	_, err := svc.Update(context.Background(), request.ID, enums.BillRequestStatusCancelled, Actor{UserID: uuid.New()}, nil)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestUpdateStampsResolvedBy(t *testing.T) {
	repo := newStubRepo()
	table := seedTable(repo, 3)
	svc, ob := newTestService(t, repo)

	waiterID := uuid.New()
	request := &models.BillRequest{
		ID:       uuid.New(),
		TableID:  table.ID,
		WaiterID: waiterID,
		Status:   enums.BillRequestStatusInProgress,
	}
	repo.requests[request.ID] = request

	cashierID := uuid.New()
	updated, err := svc.Update(context.Background(), request.ID, enums.BillRequestStatusCompleted, Actor{UserID: cashierID, Role: "cashier"}, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.BillRequestStatusCompleted, updated.Status)
	require.NotNil(t, updated.ResolvedBy)
	assert.Equal(t, cashierID, *updated.ResolvedBy)

	require.Len(t, ob.events, 1)
	assert.Equal(t, enums.EventBillRequestUpdated, ob.events[0].EventType)
	assert.ElementsMatch(t, []string{outbox.RoomCashier, outbox.UserRoom(waiterID)}, ob.events[0].Targets)
}

func TestUpdatePendingToInProgress(t *testing.T) {
	repo := newStubRepo()
	table := seedTable(repo, 3)
	svc, _ := newTestService(t, repo)

	request := &models.BillRequest{
		ID:      uuid.New(),
		TableID: table.ID,
		Status:  enums.BillRequestStatusPending,
	}
	repo.requests[request.ID] = request

	updated, err := svc.Update(context.Background(), request.ID, enums.BillRequestStatusInProgress, Actor{UserID: uuid.New()}, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.BillRequestStatusInProgress, updated.Status)
	assert.Nil(t, updated.ResolvedBy)
}
