package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/courier-webhooks/internal/domain"
	"github.com/ignite/courier-webhooks/internal/metrics"
	"github.com/ignite/courier-webhooks/internal/pkg/logger"
)

// Endpoint is recorded on audit entries.
const Endpoint = "/tracking/webhook"

// Deps are the Engine's collaborators. Orders is required; every other
// field may be nil, which disables that side effect.
type Deps struct {
	Orders      OrderRepository
	Cache       TrackingCache
	Performance PerformanceStore
	Audit       AuditLog
	Recipients  RecipientResolver
	Notifier    Notifier
	Archive     Archiver
	Locker      Locker
}

// Options tune the Engine. Zero values use the defaults.
type Options struct {
	CacheTTL          time.Duration // default 60m
	SideEffectTimeout time.Duration // default 3s
}

// Engine reconciles canonical events against orders. It is safe for
// concurrent use.
type Engine struct {
	deps Deps
	opts Options
	now  func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(deps Deps, opts Options) *Engine {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 60 * time.Minute
	}
	if opts.SideEffectTimeout <= 0 {
		opts.SideEffectTimeout = 3 * time.Second
	}
	return &Engine{deps: deps, opts: opts, now: func() time.Time { return time.Now().UTC() }}
}

// Reconcile applies ev to its order and returns the summary. The result is
// always populated; the error, when non-nil, is one of ErrOrderNotFound,
// ErrLockTimeout or ErrPersistence (wrapped) and matches result.ErrorCode.
// A replayed event returns success with Duplicate set and a nil error.
func (e *Engine) Reconcile(ctx context.Context, ev domain.CanonicalEvent) (domain.WebhookResult, error) {
	if e.deps.Locker != nil {
		locked, unlock, err := e.deps.Locker.Lock(ctx, "tracking:"+ev.TrackingNumber)
		if err != nil {
			logger.Warn("order lock not acquired", "tracking_number", ev.TrackingNumber, "error", err)
			return failure(ev, domain.ErrCodePersistence, "order is busy, retry later"), fmt.Errorf("%w: %v", ErrLockTimeout, err)
		}
		defer unlock()
		ctx = locked
	}

	// 1. Look up the order.
	order, err := e.deps.Orders.FindByTrackingNumber(ctx, ev.TrackingNumber)
	if errors.Is(err, ErrOrderNotFound) {
		logger.Info("no order for tracking number", "tracking_number", ev.TrackingNumber, "courier", ev.CourierCode)
		return failure(ev, domain.ErrCodeOrderNotFound, "no order matches tracking number"), ErrOrderNotFound
	}
	if err != nil {
		return e.persistenceFailure(ev, "find order", err)
	}

	// 2. Snapshot.
	oldStatus := order.Status
	oldETA := copyTime(order.EstimatedDelivery)

	// 3. Map.
	newStatus := UnifiedStatus(ev.CourierCode, ev.ProviderStatus)

	// 4. Merge.
	now := e.now()
	if err := e.merge(order, ev, newStatus, now); err != nil {
		return e.persistenceFailure(ev, "encode metadata", err)
	}

	// 5. Persist the correctness-critical pair.
	rec := &domain.TrackingEventRecord{
		OrderID:        order.ID,
		TrackingNumber: ev.TrackingNumber,
		CourierCode:    ev.CourierCode,
		EventType:      ev.EventType,
		ProviderStatus: ev.ProviderStatus,
		UnifiedStatus:  newStatus,
		Description:    ev.Description,
		Location:       ev.Location,
		EventTimestamp: ev.EventTimestamp,
		DedupeKey:      DedupeKey(ev),
		RawPayload:     ev.RawPayload,
		CreatedAt:      now,
	}
	if err := e.deps.Orders.ApplyEvent(ctx, order, rec); err != nil {
		if errors.Is(err, ErrDuplicateEvent) {
			logger.Info("duplicate courier event ignored",
				"tracking_number", ev.TrackingNumber, "courier", ev.CourierCode, "provider_status", ev.ProviderStatus)
			return domain.WebhookResult{
				Success:        true,
				OrderID:        order.ID,
				TrackingNumber: ev.TrackingNumber,
				EventType:      ev.EventType,
				OldStatus:      oldStatus,
				NewStatus:      oldStatus,
				Duplicate:      true,
			}, nil
		}
		return e.persistenceFailure(ev, "apply event", err)
	}

	statusChanged := oldStatus != newStatus
	etaChanged := !sameTime(oldETA, order.EstimatedDelivery)

	// 6. Cache.
	e.sideEffect(ctx, metrics.EffectCache, e.deps.Cache != nil, func(ctx context.Context) error {
		return e.deps.Cache.Put(ctx, domain.TrackingSnapshot{
			TrackingNumber:    ev.TrackingNumber,
			OrderID:           order.ID,
			CourierCode:       ev.CourierCode,
			Status:            newStatus,
			EventType:         ev.EventType,
			ProviderStatus:    ev.ProviderStatus,
			Description:       ev.Description,
			Location:          ev.Location,
			EstimatedDelivery: order.EstimatedDelivery,
			LastUpdate:        now,
		}, e.opts.CacheTTL)
	})

	// 7. OTD.
	otd := ClassifyOTD(newStatus, order.EstimatedDelivery, ev.ActualDelivery)

	// 8. Courier performance.
	if newStatus == domain.StatusDelivered && ev.ActualDelivery != nil {
		perf := domain.CourierPerformance{
			OrderID:           order.ID,
			CourierID:         order.CourierID,
			CourierCode:       ev.CourierCode,
			EstimatedDelivery: order.EstimatedDelivery,
			ActualDelivery:    *ev.ActualDelivery,
			OnTime:            otd == domain.OTDOnTime || otd == domain.OTDEarly,
			DeliveryTimeHours: deliveryHours(order.EstimatedDelivery, *ev.ActualDelivery),
			OTDStatus:         otd,
		}
		recorded := e.sideEffect(ctx, metrics.EffectPerformance, e.deps.Performance != nil, func(ctx context.Context) error {
			return e.deps.Performance.Upsert(ctx, perf)
		})
		if recorded {
			e.sideEffect(ctx, metrics.EffectAggregates, true, func(ctx context.Context) error {
				return e.deps.Performance.RecomputeAggregates(ctx, order.CourierID, ev.CourierCode)
			})
		}
	}

	// 9. Audit.
	e.sideEffect(ctx, metrics.EffectAudit, e.deps.Audit != nil, func(ctx context.Context) error {
		return e.deps.Audit.Record(ctx, domain.AuditEntry{
			Endpoint:       Endpoint,
			CourierCode:    ev.CourierCode,
			OrderID:        order.ID,
			TrackingNumber: ev.TrackingNumber,
			EventType:      ev.EventType,
			Success:        true,
			StatusChanged:  statusChanged,
			CreatedAt:      now,
		})
	})

	e.sideEffect(ctx, metrics.EffectArchive, e.deps.Archive != nil, func(ctx context.Context) error {
		return e.deps.Archive.Archive(ctx, rec.DedupeKey, ev)
	})

	// 10. Notify on real change only.
	if statusChanged {
		e.notify(ctx, domain.StatusNotification{
			OrderID:         order.ID,
			TrackingNumber:  ev.TrackingNumber,
			EventType:       ev.EventType,
			OldStatus:       oldStatus,
			NewStatus:       newStatus,
			CourierCode:     ev.CourierCode,
			CourierName:     ev.CourierCode.DisplayName(),
			OldETA:          oldETA,
			NewETA:          copyTime(order.EstimatedDelivery),
			ETAChanged:      etaChanged,
			ActualDelivery:  ev.ActualDelivery,
			ExceptionReason: ev.ExceptionReason,
			OTDStatus:       otd,
		})
	}

	logger.Info("courier event applied",
		"order_id", order.ID,
		"tracking_number", ev.TrackingNumber,
		"courier", ev.CourierCode,
		"old_status", oldStatus,
		"new_status", newStatus,
		"otd_status", otd,
	)

	// 11. Summarize.
	return domain.WebhookResult{
		Success:        true,
		OrderID:        order.ID,
		TrackingNumber: ev.TrackingNumber,
		EventType:      ev.EventType,
		StatusChanged:  statusChanged,
		OldStatus:      oldStatus,
		NewStatus:      newStatus,
		ETAChanged:     etaChanged,
		OldETA:         oldETA,
		NewETA:         copyTime(order.EstimatedDelivery),
		OTDStatus:      otd,
	}, nil
}

// merge folds ev into the order's status, ETA and courier metadata bag.
func (e *Engine) merge(order *domain.Order, ev domain.CanonicalEvent, status domain.OrderStatus, now time.Time) error {
	state, err := order.CourierState(ev.CourierCode)
	if err != nil {
		logger.Warn("courier metadata unreadable, rebuilding",
			"order_id", order.ID, "courier", ev.CourierCode, "events_count", state.EventsCount, "error", err)
	}
	state.LastTrackingUpdate = now
	state.TrackingStatus = ev.ProviderStatus
	state.LatestEvent = &domain.LatestEventSnapshot{
		EventType:   ev.EventType,
		Status:      ev.ProviderStatus,
		Description: ev.Description,
		Location:    ev.Location,
		Timestamp:   ev.EventTimestamp,
	}
	state.EventsCount++

	if !ev.ProofOfDelivery.IsEmpty() {
		deliveredAt := ev.EventTimestamp
		if ev.ActualDelivery != nil {
			deliveredAt = *ev.ActualDelivery
		}
		state.ProofOfDelivery = &domain.ProofOfDeliveryRecord{
			Signature:   ev.ProofOfDelivery.Signature,
			PhotoURL:    ev.ProofOfDelivery.PhotoURL,
			DeliveredAt: deliveredAt,
		}
	}

	if ev.EstimatedDelivery != nil {
		order.EstimatedDelivery = copyTime(ev.EstimatedDelivery)
	}
	order.Status = status
	order.UpdatedAt = now
	return order.SetCourierState(ev.CourierCode, state)
}

func (e *Engine) notify(ctx context.Context, n domain.StatusNotification) {
	if e.deps.Notifier == nil {
		metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
		return
	}
	if e.deps.Recipients != nil {
		var recipients domain.Recipients
		ok := e.sideEffect(ctx, metrics.EffectRecipients, true, func(ctx context.Context) error {
			var err error
			recipients, err = e.deps.Recipients.Resolve(ctx, n.OrderID)
			return err
		})
		if !ok {
			metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
			return
		}
		n.Recipients = recipients
		if recipients.CourierName != "" {
			n.CourierName = recipients.CourierName
		}
	}
	if e.sideEffect(ctx, metrics.EffectNotification, true, func(ctx context.Context) error {
		return e.deps.Notifier.Notify(ctx, n)
	}) {
		metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	} else {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
	}
}

// sideEffect runs fn under its own timeout. Failures are logged and counted
// and reported as false. enabled=false skips fn and reports false.
func (e *Engine) sideEffect(ctx context.Context, name string, enabled bool, fn func(context.Context) error) (ok bool) {
	if !enabled {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, e.opts.SideEffectTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("side effect panicked", "effect", name, "panic", r)
			metrics.SideEffectFailuresTotal.WithLabelValues(name).Inc()
			ok = false
		}
	}()
	if err := fn(ctx); err != nil {
		logger.Warn("side effect failed", "effect", name, "error", err)
		metrics.SideEffectFailuresTotal.WithLabelValues(name).Inc()
		return false
	}
	return true
}

func (e *Engine) persistenceFailure(ev domain.CanonicalEvent, op string, err error) (domain.WebhookResult, error) {
	logger.Error("reconcile persistence failure", "op", op, "tracking_number", ev.TrackingNumber, "error", err)
	return failure(ev, domain.ErrCodePersistence, "failed to persist tracking event"), fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}

func failure(ev domain.CanonicalEvent, code domain.ErrorCode, msg string) domain.WebhookResult {
	r := domain.Failure(code, msg)
	r.TrackingNumber = ev.TrackingNumber
	r.EventType = ev.EventType
	return r
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
