package counting

import (
	"context"
	"fmt"
	"time"

	"stocktally/internal/core/apperror"
	appctx "stocktally/internal/core/context"
	"stocktally/internal/core/id"
	"stocktally/internal/core/numerator"
	"stocktally/internal/core/tx"
	"stocktally/internal/core/types"
	"stocktally/internal/domain"
	"stocktally/pkg/logger"
)

// EventCodePrefix is the numerator prefix for counting events (SCE-2026-00001).
const EventCodePrefix = "SCE"

// NumeratorStrategy: event codes are operator-facing and must be gapless
// within a year, so the strict (serialized) strategy is used.
const NumeratorStrategy = numerator.StrategyStrict

// SnapshotSource supplies the stock catalog state an event counts against.
type SnapshotSource interface {
	// Snapshot returns the current catalog. A non-nil group restricts the
	// snapshot to one ABC priority group (cycle counting).
	Snapshot(ctx context.Context, group *ABCGroup) ([]SnapshotItem, error)

	// UnitCost returns the unit cost for a SKU, used to price adjustments.
	UnitCost(ctx context.Context, brand, productCode, colorCode, size string) (types.Money, error)
}

// Service provides business operations for counting events.
type Service struct {
	repo      Repository
	adjRepo   AdjustmentRepository
	snapshots SnapshotSource
	numerator numerator.Generator
	txManager tx.Manager
	hooks     *domain.HookRegistry[*CountingEvent]
}

// NewService creates a new counting service.
func NewService(
	repo Repository,
	adjRepo AdjustmentRepository,
	snapshots SnapshotSource,
	gen numerator.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		adjRepo:   adjRepo,
		snapshots: snapshots,
		numerator: gen,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*CountingEvent](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*CountingEvent] {
	return s.hooks
}

// Create creates a new counting event in PLANNED state.
func (s *Service) Create(ctx context.Context, event *CountingEvent) error {
	if err := s.hooks.RunBeforeCreate(ctx, event); err != nil {
		return err
	}

	if err := event.Validate(ctx); err != nil {
		return err
	}

	if event.EventCode == "" {
		cfg := numerator.DefaultConfig(EventCodePrefix)
		code, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
		if err != nil {
			return fmt.Errorf("generate event code: %w", err)
		}
		event.EventCode = code
	}

	event.CreatedBy = appctx.GetUserID(ctx)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, event)
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterCreate(ctx, event); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "counting event created", "id", event.ID, "code", event.EventCode)
	return nil
}

// GetByID retrieves a counting event with its details.
func (s *Service) GetByID(ctx context.Context, eventID id.ID) (*CountingEvent, error) {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	details, err := s.repo.GetDetails(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get details: %w", err)
	}
	event.Details = details

	return event, nil
}

// Update updates the mutable header fields of a counting event.
func (s *Service) Update(ctx context.Context, event *CountingEvent) error {
	if err := s.hooks.RunBeforeUpdate(ctx, event); err != nil {
		return err
	}

	if err := event.Validate(ctx); err != nil {
		return err
	}

	event.UpdatedBy = appctx.GetUserID(ctx)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, event)
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterUpdate(ctx, event); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}
	return nil
}

// Delete soft-deletes a counting event. Events in progress must be
// cancelled first.
func (s *Service) Delete(ctx context.Context, eventID id.ID) error {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}

	if event.Status == StatusInProgress {
		return apperror.NewInvalidTransition("counting event", "delete", string(event.Status)).
			WithDetail("event_id", eventID.String())
	}

	return s.repo.Delete(ctx, eventID)
}

// List retrieves counting events with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*CountingEvent], error) {
	return s.repo.List(ctx, filter)
}

// Start takes the stock snapshot, materializes the details and moves the
// event to IN_PROGRESS. Snapshot, transition and persistence run in one
// transaction so a failed start leaves the event untouched.
func (s *Service) Start(ctx context.Context, eventID id.ID) (*CountingEvent, error) {
	var event *CountingEvent

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.repo.GetForUpdate(ctx, eventID)
		if err != nil {
			return err
		}

		var group *ABCGroup
		if event.EventType == TypeCycle {
			group = event.ABCGroup
		}

		items, err := s.snapshots.Snapshot(ctx, group)
		if err != nil {
			return fmt.Errorf("stock snapshot: %w", err)
		}

		if err := event.Start(items, appctx.GetUserID(ctx)); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, event); err != nil {
			return err
		}
		return s.repo.SaveDetails(ctx, event.ID, event.Details)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "counting started",
		"id", event.ID, "code", event.EventCode, "items", event.TotalItemsPlanned)
	return event, nil
}

// RecordScan increments the counted quantity for a barcode by one and
// returns the updated detail.
func (s *Service) RecordScan(ctx context.Context, eventID id.ID, barcode string) (*CountingDetail, error) {
	var detail *CountingDetail

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		event, err := s.loadForCounting(ctx, eventID)
		if err != nil {
			return err
		}

		detail, err = event.RecordScan(barcode)
		if err != nil {
			return err
		}

		if err := s.repo.SaveDetail(ctx, detail); err != nil {
			return err
		}
		return s.repo.Update(ctx, event)
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// RecordManualCount overwrites the counted quantity of a detail and
// returns it. Negative quantities clamp to zero.
func (s *Service) RecordManualCount(ctx context.Context, eventID, detailID id.ID, quantity int) (*CountingDetail, error) {
	var detail *CountingDetail

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		event, err := s.loadForCounting(ctx, eventID)
		if err != nil {
			return err
		}

		detail, err = event.RecordManualCount(detailID, quantity)
		if err != nil {
			return err
		}

		if err := s.repo.SaveDetail(ctx, detail); err != nil {
			return err
		}
		return s.repo.Update(ctx, event)
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// Complete finishes the counting phase of an event.
func (s *Service) Complete(ctx context.Context, eventID id.ID) (*CountingEvent, error) {
	return s.transition(ctx, eventID, (*CountingEvent).Complete)
}

// Cancel aborts a planned or running event.
func (s *Service) Cancel(ctx context.Context, eventID id.ID) (*CountingEvent, error) {
	return s.transition(ctx, eventID, (*CountingEvent).Cancel)
}

// ApproveDiscrepancy approves a pending discrepancy and writes the
// adjustment record. The adjustment is priced from the current unit cost
// when the snapshot source knows one.
func (s *Service) ApproveDiscrepancy(ctx context.Context, eventID, detailID id.ID, reason DiscrepancyReason, notes string) (*CountingAdjustment, error) {
	var adjustment *CountingAdjustment

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		event, err := s.loadForCounting(ctx, eventID)
		if err != nil {
			return err
		}

		adjustment, err = event.ApproveDiscrepancy(detailID, reason, notes, appctx.GetUserID(ctx))
		if err != nil {
			return err
		}

		if cost, err := s.snapshots.UnitCost(ctx, adjustment.Brand, adjustment.ProductCode, adjustment.ColorCode, adjustment.Size); err == nil {
			adjustment.SetUnitCost(cost)
		} else {
			logger.Warn(ctx, "unit cost lookup failed, adjustment left unpriced",
				"detail_id", detailID, "error", err)
		}

		detail := event.detailByID(detailID)
		if err := s.repo.SaveDetail(ctx, detail); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, event); err != nil {
			return err
		}
		return s.adjRepo.Create(ctx, adjustment)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "discrepancy approved",
		"event_id", eventID, "detail_id", detailID,
		"type", adjustment.AdjustmentType, "change", adjustment.QuantityChange)
	return adjustment, nil
}

// RejectDiscrepancy rejects a pending discrepancy. Inventory stays as is.
func (s *Service) RejectDiscrepancy(ctx context.Context, eventID, detailID id.ID, notes string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		event, err := s.loadForCounting(ctx, eventID)
		if err != nil {
			return err
		}

		if err := event.RejectDiscrepancy(detailID, notes); err != nil {
			return err
		}

		detail := event.detailByID(detailID)
		if err := s.repo.SaveDetail(ctx, detail); err != nil {
			return err
		}
		return s.repo.Update(ctx, event)
	})
}

// ApplyAdjustment records that an approved adjustment has been applied to
// the inventory ledger and moves its detail to the terminal ADJUSTED state.
func (s *Service) ApplyAdjustment(ctx context.Context, adjID id.ID) (*CountingAdjustment, error) {
	var adjustment *CountingAdjustment

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		adjustment, err = s.adjRepo.GetByID(ctx, adjID)
		if err != nil {
			return err
		}

		if adjustment.AppliedToInventory {
			return apperror.NewInvalidTransition("counting adjustment", "apply", "applied").
				WithDetail("adjustment_id", adjID.String())
		}

		event, err := s.loadForCounting(ctx, adjustment.EventID)
		if err != nil {
			return err
		}

		if err := event.MarkAdjusted(adjustment.DetailID); err != nil {
			return err
		}

		now := time.Now().UTC()
		adjustment.MarkApplied(now)

		detail := event.detailByID(adjustment.DetailID)
		if err := s.repo.SaveDetail(ctx, detail); err != nil {
			return err
		}
		return s.adjRepo.MarkApplied(ctx, adjID, now)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "adjustment applied", "adjustment_id", adjID, "event_id", adjustment.EventID)
	return adjustment, nil
}

// Adjustments returns the adjustment trail of an event.
func (s *Service) Adjustments(ctx context.Context, eventID id.ID) ([]CountingAdjustment, error) {
	return s.adjRepo.ListByEvent(ctx, eventID)
}

// Summary builds the summary report of an event.
func (s *Service) Summary(ctx context.Context, eventID id.ID) (*SummaryReport, error) {
	event, err := s.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	adjustments, err := s.adjRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}

	return BuildSummary(event, adjustments), nil
}

// loadForCounting loads an event with details under a row lock.
func (s *Service) loadForCounting(ctx context.Context, eventID id.ID) (*CountingEvent, error) {
	event, err := s.repo.GetForUpdate(ctx, eventID)
	if err != nil {
		return nil, err
	}

	details, err := s.repo.GetDetails(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get details: %w", err)
	}
	event.Details = details
	return event, nil
}

func (s *Service) transition(ctx context.Context, eventID id.ID, op func(*CountingEvent) error) (*CountingEvent, error) {
	var event *CountingEvent

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.repo.GetForUpdate(ctx, eventID)
		if err != nil {
			return err
		}

		if err := op(event); err != nil {
			return err
		}

		event.UpdatedBy = appctx.GetUserID(ctx)
		return s.repo.Update(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "counting event transitioned", "id", event.ID, "status", event.Status)
	return event, nil
}
