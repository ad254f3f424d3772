package counting

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocktally/internal/core/apperror"
	appctx "stocktally/internal/core/context"
	"stocktally/internal/core/id"
	"stocktally/internal/core/numerator"
	"stocktally/internal/core/types"
	"stocktally/internal/domain"
)

// memoryRepo is an in-memory Repository for service tests.
type memoryRepo struct {
	events  map[id.ID]*CountingEvent
	details map[id.ID][]CountingDetail
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		events:  make(map[id.ID]*CountingEvent),
		details: make(map[id.ID][]CountingDetail),
	}
}

func (r *memoryRepo) clone(e *CountingEvent) *CountingEvent {
	cp := *e
	cp.Details = nil
	return &cp
}

func (r *memoryRepo) Create(_ context.Context, event *CountingEvent) error {
	r.events[event.ID] = r.clone(event)
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, eventID id.ID) (*CountingEvent, error) {
	e, ok := r.events[eventID]
	if !ok {
		return nil, apperror.NewNotFound("counting event", eventID.String())
	}
	return r.clone(e), nil
}

func (r *memoryRepo) Update(_ context.Context, event *CountingEvent) error {
	if _, ok := r.events[event.ID]; !ok {
		return apperror.NewNotFound("counting event", event.ID.String())
	}
	r.events[event.ID] = r.clone(event)
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, eventID id.ID) error {
	e, ok := r.events[eventID]
	if !ok {
		return apperror.NewNotFound("counting event", eventID.String())
	}
	e.DeletionMark = true
	return nil
}

func (r *memoryRepo) GetDetails(_ context.Context, eventID id.ID) ([]CountingDetail, error) {
	return append([]CountingDetail(nil), r.details[eventID]...), nil
}

func (r *memoryRepo) SaveDetails(_ context.Context, eventID id.ID, details []CountingDetail) error {
	r.details[eventID] = append([]CountingDetail(nil), details...)
	return nil
}

func (r *memoryRepo) SaveDetail(_ context.Context, detail *CountingDetail) error {
	list := r.details[detail.EventID]
	for i := range list {
		if list[i].ID == detail.ID {
			list[i] = *detail
			return nil
		}
	}
	return apperror.NewNotFound("counting detail", detail.ID.String())
}

func (r *memoryRepo) List(_ context.Context, filter ListFilter) (domain.ListResult[*CountingEvent], error) {
	items := make([]*CountingEvent, 0, len(r.events))
	for _, e := range r.events {
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		items = append(items, r.clone(e))
	}
	return domain.ListResult[*CountingEvent]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *memoryRepo) GetForUpdate(ctx context.Context, eventID id.ID) (*CountingEvent, error) {
	return r.GetByID(ctx, eventID)
}

// memoryAdjRepo is an in-memory AdjustmentRepository.
type memoryAdjRepo struct {
	adjustments map[id.ID]*CountingAdjustment
}

func newMemoryAdjRepo() *memoryAdjRepo {
	return &memoryAdjRepo{adjustments: make(map[id.ID]*CountingAdjustment)}
}

func (r *memoryAdjRepo) Create(_ context.Context, adj *CountingAdjustment) error {
	cp := *adj
	r.adjustments[adj.ID] = &cp
	return nil
}

func (r *memoryAdjRepo) GetByID(_ context.Context, adjID id.ID) (*CountingAdjustment, error) {
	adj, ok := r.adjustments[adjID]
	if !ok {
		return nil, apperror.NewNotFound("counting adjustment", adjID.String())
	}
	cp := *adj
	return &cp, nil
}

func (r *memoryAdjRepo) GetByDetail(_ context.Context, detailID id.ID) (*CountingAdjustment, error) {
	for _, adj := range r.adjustments {
		if adj.DetailID == detailID {
			cp := *adj
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("counting adjustment", detailID.String())
}

func (r *memoryAdjRepo) ListByEvent(_ context.Context, eventID id.ID) ([]CountingAdjustment, error) {
	out := make([]CountingAdjustment, 0)
	for _, adj := range r.adjustments {
		if adj.EventID == eventID {
			out = append(out, *adj)
		}
	}
	return out, nil
}

func (r *memoryAdjRepo) MarkApplied(_ context.Context, adjID id.ID, appliedAt time.Time) error {
	adj, ok := r.adjustments[adjID]
	if !ok {
		return apperror.NewNotFound("counting adjustment", adjID.String())
	}
	adj.MarkApplied(appliedAt)
	return nil
}

// staticSnapshots serves a fixed catalog.
type staticSnapshots struct {
	items []SnapshotItem
	costs map[string]types.Money
	err   error
}

func (s *staticSnapshots) Snapshot(_ context.Context, group *ABCGroup) ([]SnapshotItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func (s *staticSnapshots) UnitCost(_ context.Context, brand, productCode, colorCode, size string) (types.Money, error) {
	key := brand + "-" + productCode + "-" + colorCode + "-" + size
	if cost, ok := s.costs[key]; ok {
		return cost, nil
	}
	return types.ZeroMoney(), apperror.NewNotFound("unit cost", key)
}

// directTx runs the function without a database.
type directTx struct{}

func (directTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(items []SnapshotItem) (*Service, *memoryRepo, *memoryAdjRepo) {
	repo := newMemoryRepo()
	adjRepo := newMemoryAdjRepo()

	seq := 0
	gen := &numerator.MockGenerator{
		GetNextNumberFunc: func(_ context.Context, cfg numerator.Config, _ *numerator.Options, period time.Time) (string, error) {
			seq++
			return fmt.Sprintf("%s-%d-%05d", cfg.Prefix, period.Year(), seq), nil
		},
	}

	snapshots := &staticSnapshots{
		items: items,
		costs: map[string]types.Money{
			"ACME-SH-001-BLK-M": types.MustMoney("25.50"),
		},
	}

	svc := NewService(repo, adjRepo, snapshots, gen, directTx{})
	return svc, repo, adjRepo
}

func testCtx() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID: "operator1",
		Email:  "operator1@example.com",
	})
}

func createStarted(t *testing.T, svc *Service) *CountingEvent {
	t.Helper()
	ctx := testCtx()

	event := NewCountingEvent(TypeFull, time.Now())
	require.NoError(t, svc.Create(ctx, event))

	started, err := svc.Start(ctx, event.ID)
	require.NoError(t, err)
	return started
}

func TestService_Create_AssignsEventCode(t *testing.T) {
	svc, _, _ := newTestService(testSnapshot())
	ctx := testCtx()

	event := NewCountingEvent(TypeFull, time.Now())
	require.NoError(t, svc.Create(ctx, event))

	year := time.Now().Year()
	assert.Equal(t, fmt.Sprintf("SCE-%d-00001", year), event.EventCode)
	assert.Equal(t, "operator1", event.CreatedBy)

	second := NewCountingEvent(TypeSpot, time.Now())
	require.NoError(t, svc.Create(ctx, second))
	assert.Equal(t, fmt.Sprintf("SCE-%d-00002", year), second.EventCode)
}

func TestService_Create_KeepsExplicitCode(t *testing.T) {
	svc, _, _ := newTestService(testSnapshot())

	event := NewCountingEvent(TypeFull, time.Now())
	event.EventCode = "SCE-2025-99999"
	require.NoError(t, svc.Create(testCtx(), event))

	assert.Equal(t, "SCE-2025-99999", event.EventCode)
}

func TestService_Start(t *testing.T) {
	svc, repo, _ := newTestService(testSnapshot())

	event := createStarted(t, svc)

	assert.Equal(t, StatusInProgress, event.Status)
	assert.Equal(t, 3, event.TotalItemsPlanned)
	assert.Len(t, repo.details[event.ID], 3)

	stored, err := svc.GetByID(testCtx(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, stored.Status)
	assert.Len(t, stored.Details, 3)
}

func TestService_Start_Twice(t *testing.T) {
	svc, _, _ := newTestService(testSnapshot())
	event := createStarted(t, svc)

	_, err := svc.Start(testCtx(), event.ID)

	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))

	stored, err := svc.GetByID(testCtx(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, stored.Status)
	assert.Len(t, stored.Details, 3)
}

func TestService_Start_SnapshotFailureLeavesPlanned(t *testing.T) {
	svc, _, _ := newTestService(testSnapshot())
	ctx := testCtx()

	event := NewCountingEvent(TypeFull, time.Now())
	require.NoError(t, svc.Create(ctx, event))

	src := svc.snapshots.(*staticSnapshots)
	src.err = fmt.Errorf("catalog unavailable")

	_, err := svc.Start(ctx, event.ID)
	require.Error(t, err)

	// The transaction callback failed before persisting anything, but the
	// in-memory repo has no rollback. Assert via a fresh load that no
	// details were written.
	src.err = nil
	stored, err := svc.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Details)
}

func TestService_RecordScan(t *testing.T) {
	svc, _, _ := newTestService(testSnapshot())
	event := createStarted(t, svc)
	ctx := testCtx()

	for i := 1; i <= 3; i++ {
		d, err := svc.RecordScan(ctx, event.ID, "8690000000010")
		require.NoError(t, err)
		assert.Equal(t, i, d.CountedQuantity)
	}

	stored, err := svc.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalItemsCounted)

	for _, d := range stored.Details {
		if d.Barcode == "8690000000010" {
			assert.Equal(t, 3, d.CountedQuantity)
			assert.Equal(t, -7, d.Discrepancy)
		}
	}
}

func TestService_RecordScan_UnknownBarcode(t *testing.T) {
	svc, _, _ := newTestService(testSnapshot())
	event := createStarted(t, svc)
	ctx := testCtx()

	_, err := svc.RecordScan(ctx, event.ID, "not-a-barcode")

	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	stored, err := svc.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.TotalItemsCounted)
	for _, d := range stored.Details {
		assert.Equal(t, 0, d.CountedQuantity)
	}
}

func TestService_RecordManualCount(t *testing.T) {
	svc, _, _ := newTestService(testSnapshot())
	event := createStarted(t, svc)
	ctx := testCtx()

	target := event.Details[0]
	d, err := svc.RecordManualCount(ctx, event.ID, target.ID, 8)
	require.NoError(t, err)

	assert.Equal(t, 8, d.CountedQuantity)
	assert.Equal(t, -2, d.Discrepancy)
	assert.Equal(t, SeverityHigh, d.Severity)
}

func TestService_ApproveDiscrepancy(t *testing.T) {
	svc, _, adjRepo := newTestService(testSnapshot())
	event := createStarted(t, svc)
	ctx := testCtx()

	target := event.Details[0] // ACME SH-001, system 10
	_, err := svc.RecordManualCount(ctx, event.ID, target.ID, 8)
	require.NoError(t, err)

	adj, err := svc.ApproveDiscrepancy(ctx, event.ID, target.ID, ReasonDataError, "shelf recounted")
	require.NoError(t, err)

	assert.Equal(t, AdjustmentDecrease, adj.AdjustmentType)
	assert.Equal(t, 2, adj.QuantityChange)
	assert.Equal(t, "operator1", adj.ApprovedBy)
	assert.False(t, adj.AppliedToInventory)

	// 2 units at 25.50, negative for a decrease.
	assert.True(t, adj.FinancialImpact.Equal(types.MustMoney("-51.00")),
		"financial impact %s", adj.FinancialImpact)

	trail, err := adjRepo.ListByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, adj.ID, trail[0].ID)
}

func TestService_ApproveDiscrepancy_Twice(t *testing.T) {
	svc, _, adjRepo := newTestService(testSnapshot())
	event := createStarted(t, svc)
	ctx := testCtx()

	target := event.Details[0]
	_, err := svc.RecordManualCount(ctx, event.ID, target.ID, 8)
	require.NoError(t, err)

	_, err = svc.ApproveDiscrepancy(ctx, event.ID, target.ID, ReasonDataError, "")
	require.NoError(t, err)

	_, err = svc.ApproveDiscrepancy(ctx, event.ID, target.ID, ReasonDataError, "")
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))

	trail, err := adjRepo.ListByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, trail, 1, "exactly one adjustment per approved detail")
}

func TestService_ApproveDiscrepancy_UnknownCostLeavesUnpriced(t *testing.T) {
	svc, _, _ := newTestService(testSnapshot())
	event := createStarted(t, svc)
	ctx := testCtx()

	// Nordik PA-100 has no configured unit cost.
	target := event.Details[2]
	_, err := svc.RecordManualCount(ctx, event.ID, target.ID, 9)
	require.NoError(t, err)

	adj, err := svc.ApproveDiscrepancy(ctx, event.ID, target.ID, ReasonTransfer, "")
	require.NoError(t, err)

	assert.Equal(t, AdjustmentIncrease, adj.AdjustmentType)
	assert.Equal(t, 4, adj.QuantityChange)
	assert.True(t, adj.FinancialImpact.IsZero())
}

func TestService_RejectDiscrepancy(t *testing.T) {
	svc, _, adjRepo := newTestService(testSnapshot())
	event := createStarted(t, svc)
	ctx := testCtx()

	target := event.Details[0]
	_, err := svc.RecordManualCount(ctx, event.ID, target.ID, 8)
	require.NoError(t, err)

	require.NoError(t, svc.RejectDiscrepancy(ctx, event.ID, target.ID, "scanner glitch"))

	stored, err := svc.GetByID(ctx, event.ID)
	require.NoError(t, err)
	for _, d := range stored.Details {
		if d.ID == target.ID {
			assert.Equal(t, AdjustmentRejected, d.AdjustmentStatus)
		}
	}

	trail, err := adjRepo.ListByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Empty(t, trail, "rejection creates no adjustment")
}

func TestService_ApplyAdjustment(t *testing.T) {
	svc, _, _ := newTestService(testSnapshot())
	event := createStarted(t, svc)
	ctx := testCtx()

	target := event.Details[0]
	_, err := svc.RecordManualCount(ctx, event.ID, target.ID, 8)
	require.NoError(t, err)

	adj, err := svc.ApproveDiscrepancy(ctx, event.ID, target.ID, ReasonDataError, "")
	require.NoError(t, err)

	applied, err := svc.ApplyAdjustment(ctx, adj.ID)
	require.NoError(t, err)
	assert.True(t, applied.AppliedToInventory)
	require.NotNil(t, applied.AppliedAt)

	stored, err := svc.GetByID(ctx, event.ID)
	require.NoError(t, err)
	for _, d := range stored.Details {
		if d.ID == target.ID {
			assert.Equal(t, AdjustmentAdjusted, d.AdjustmentStatus)
		}
	}

	_, err = svc.ApplyAdjustment(ctx, adj.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestService_CompleteAndCancel(t *testing.T) {
	svc, _, _ := newTestService(testSnapshot())
	ctx := testCtx()

	event := createStarted(t, svc)
	done, err := svc.Complete(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)

	_, err = svc.Cancel(ctx, event.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestService_Delete_InProgress(t *testing.T) {
	svc, _, _ := newTestService(testSnapshot())
	event := createStarted(t, svc)

	err := svc.Delete(testCtx(), event.ID)

	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestService_Summary(t *testing.T) {
	svc, _, _ := newTestService(testSnapshot())
	event := createStarted(t, svc)
	ctx := testCtx()

	_, err := svc.RecordManualCount(ctx, event.ID, event.Details[0].ID, 8) // -2
	require.NoError(t, err)
	_, err = svc.RecordManualCount(ctx, event.ID, event.Details[2].ID, 7) // +2
	require.NoError(t, err)

	_, err = svc.ApproveDiscrepancy(ctx, event.ID, event.Details[0].ID, ReasonTheft, "")
	require.NoError(t, err)

	report, err := svc.Summary(ctx, event.ID)
	require.NoError(t, err)

	assert.Equal(t, event.ID, report.EventID)
	assert.Equal(t, 3, report.TotalItemsPlanned)
	assert.Equal(t, 2, report.TotalItemsCounted)
	assert.Equal(t, 2, report.DiscrepancyCount)
	assert.Equal(t, 2, report.TotalShortage)
	assert.Equal(t, 2, report.TotalSurplus)
	assert.Equal(t, 1, report.ByReason[ReasonTheft])
	assert.Len(t, report.TopDiscrepancies, 2)
	assert.True(t, report.TotalFinancialImpact.Equal(types.MustMoney("-51.00")))
}

func TestScheduleService_RunDue(t *testing.T) {
	svc, _, _ := newTestService(testSnapshot())
	schedRepo := newMemorySchedRepo()
	scheds := NewScheduleService(schedRepo, svc, directTx{})
	ctx := testCtx()

	freq := FrequencyWeekly
	due := NewCountingSchedule("weekly spot", ScheduleRecurring, TypeSpot, date(2026, time.August, 24))
	due.Frequency = &freq
	require.NoError(t, scheds.Create(ctx, due))

	future := NewCountingSchedule("next month", ScheduleOneTime, TypeFull, date(2026, time.October, 1))
	require.NoError(t, scheds.Create(ctx, future))

	created, err := scheds.RunDue(ctx, date(2026, time.August, 29))
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, TypeSpot, created[0].EventType)
	assert.Equal(t, StatusPlanned, created[0].Status)
	assert.NotEmpty(t, created[0].EventCode)

	advanced, err := scheds.GetByID(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.August, 31), advanced.NextRun)
	assert.True(t, advanced.Active)
}

// memorySchedRepo is an in-memory ScheduleRepository.
type memorySchedRepo struct {
	schedules map[id.ID]*CountingSchedule
}

func newMemorySchedRepo() *memorySchedRepo {
	return &memorySchedRepo{schedules: make(map[id.ID]*CountingSchedule)}
}

func (r *memorySchedRepo) Create(_ context.Context, sched *CountingSchedule) error {
	cp := *sched
	r.schedules[sched.ID] = &cp
	return nil
}

func (r *memorySchedRepo) GetByID(_ context.Context, schedID id.ID) (*CountingSchedule, error) {
	s, ok := r.schedules[schedID]
	if !ok {
		return nil, apperror.NewNotFound("counting schedule", schedID.String())
	}
	cp := *s
	return &cp, nil
}

func (r *memorySchedRepo) Update(_ context.Context, sched *CountingSchedule) error {
	if _, ok := r.schedules[sched.ID]; !ok {
		return apperror.NewNotFound("counting schedule", sched.ID.String())
	}
	cp := *sched
	r.schedules[sched.ID] = &cp
	return nil
}

func (r *memorySchedRepo) Delete(_ context.Context, schedID id.ID) error {
	s, ok := r.schedules[schedID]
	if !ok {
		return apperror.NewNotFound("counting schedule", schedID.String())
	}
	s.DeletionMark = true
	return nil
}

func (r *memorySchedRepo) List(_ context.Context, _ ScheduleListFilter) (domain.ListResult[*CountingSchedule], error) {
	items := make([]*CountingSchedule, 0, len(r.schedules))
	for _, s := range r.schedules {
		cp := *s
		items = append(items, &cp)
	}
	return domain.ListResult[*CountingSchedule]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *memorySchedRepo) ListDue(_ context.Context, at time.Time) ([]*CountingSchedule, error) {
	out := make([]*CountingSchedule, 0)
	for _, s := range r.schedules {
		if s.Due(at) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}
