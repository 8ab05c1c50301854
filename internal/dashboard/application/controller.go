package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/doceeser/orders-dashboard/internal/orders/domain"
	"github.com/doceeser/orders-dashboard/internal/orders/stats"
)

// bannerVisibleFor is how long the new-order banner stays up after the
// latest insert. A second insert restarts the window, it never queues a
// second one.
const bannerVisibleFor = 5 * time.Second

type Filter string

const FilterAll Filter = "all"

func (f Filter) valid() bool {
	return f == FilterAll || domain.Status(f).Known()
}

// Snapshot is the read model handed to presentation: a filtered copy of
// the working set plus everything the header widgets need.
type Snapshot struct {
	Orders       []domain.Order `json:"orders"`
	Stats        stats.Stats    `json:"stats"`
	Filter       Filter         `json:"filter"`
	Banner       bool           `json:"banner"`
	SoundEnabled bool           `json:"soundEnabled"`
	AutoDispatch bool           `json:"autoDispatch"`
}

// Controller owns the dashboard state for one service lifetime: the
// working set of orders (newest first), the active filter, the feature
// toggles, the derived stats and the transient banner. Change-feed
// events and HTTP actions both land here; the mutex keeps the state
// consistent, and overlapping reconciliations resolve last-fetch-wins.
type Controller struct {
	log    *slog.Logger
	store  OrderStore
	sender DispatchSender
	loc    *time.Location

	now       func() time.Time
	bannerTTL time.Duration

	fetchGen atomic.Uint64

	mu           sync.Mutex
	appliedGen   uint64
	orders       []domain.Order
	stats        stats.Stats
	filter       Filter
	soundEnabled bool
	autoDispatch bool
	banner       bool
	bannerGen    uint64
	bannerTimer  *time.Timer
	closed       bool
}

func NewController(log *slog.Logger, store OrderStore, sender DispatchSender, loc *time.Location) *Controller {
	if loc == nil {
		loc = time.Local
	}
	c := &Controller{
		log:       log,
		store:     store,
		sender:    sender,
		loc:       loc,
		now:       time.Now,
		bannerTTL: bannerVisibleFor,
		filter:    FilterAll,
	}
	c.stats = stats.Compute(nil, c.now(), loc)
	return c
}

// Start performs the initial fetch. The change-feed consumer is wired
// up separately by main and drives Reconcile from then on.
func (c *Controller) Start(ctx context.Context) error {
	return c.Reconcile(ctx)
}

// Reconcile refetches the entire order set and replaces the working set
// wholesale, then recomputes stats. On fetch failure the previous
// snapshot stays on screen. When reconciliations overlap, the one that
// started last wins regardless of response arrival order.
func (c *Controller) Reconcile(ctx context.Context) error {
	gen := c.fetchGen.Add(1)

	orders, err := c.store.List(ctx)
	if err != nil {
		c.log.Error("reconcile fetch failed, keeping previous snapshot", "err", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen < c.appliedGen {
		// a later-started fetch already landed
		return nil
	}
	c.appliedGen = gen
	c.orders = orders
	c.recomputeLocked()
	return nil
}

// UpdateStatus applies a status change remotely first, then mirrors it
// into the working set. Any status may be set from any other; the
// lifecycle is staff-driven. Stats are recomputed from the mutated set
// inside the same critical section so they can never lag one
// transition behind.
func (c *Controller) UpdateStatus(ctx context.Context, orderID string, status domain.Status) error {
	id := domain.NormalizeID(orderID)
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrOrderNotFound)
	}

	if _, err := c.store.UpdateStatus(ctx, id, status); err != nil {
		c.log.Error("status update failed", "order_id", id, "status", status, "err", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.orders {
		if domain.NormalizeID(c.orders[i].ID) == id {
			c.orders[i].Status = status
			break
		}
	}
	c.recomputeLocked()
	return nil
}

// SendDispatch formats and sends the courier message for an order in
// the working set. Used by the explicit staff action; auto-dispatch on
// insert goes through the alert pipeline instead.
func (c *Controller) SendDispatch(ctx context.Context, orderID string) error {
	id := domain.NormalizeID(orderID)

	c.mu.Lock()
	var order *domain.Order
	for i := range c.orders {
		if domain.NormalizeID(c.orders[i].ID) == id {
			o := c.orders[i]
			order = &o
			break
		}
	}
	c.mu.Unlock()

	if order == nil {
		return fmt.Errorf("%w: %q", ErrOrderNotFound, id)
	}
	return c.sender.Send(ctx, *order)
}

func (c *Controller) SetFilter(f Filter) error {
	if !f.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFilter, f)
	}
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()
	return nil
}

func (c *Controller) ToggleSound() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.soundEnabled = !c.soundEnabled
	return c.soundEnabled
}

func (c *Controller) ToggleAutoDispatch() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoDispatch = !c.autoDispatch
	return c.autoDispatch
}

func (c *Controller) SoundEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.soundEnabled
}

func (c *Controller) AutoDispatchEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoDispatch
}

// RaiseBanner shows the new-order banner and (re)arms the single clear
// timer. The generation check keeps a stale timer from clearing a
// banner raised by a newer insert.
func (c *Controller) RaiseBanner() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.banner = true
	c.bannerGen++
	gen := c.bannerGen
	if c.bannerTimer != nil {
		c.bannerTimer.Stop()
	}
	c.bannerTimer = time.AfterFunc(c.bannerTTL, func() {
		c.mu.Lock()
		if c.bannerGen == gen {
			c.banner = false
		}
		c.mu.Unlock()
	})
}

// Snapshot returns the filtered read model. The slice is a copy; the
// caller can hold it across further events.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	orders := make([]domain.Order, 0, len(c.orders))
	for _, o := range c.orders {
		if c.filter == FilterAll || Filter(o.Status) == c.filter {
			orders = append(orders, o)
		}
	}
	return Snapshot{
		Orders:       orders,
		Stats:        c.stats,
		Filter:       c.filter,
		Banner:       c.banner,
		SoundEnabled: c.soundEnabled,
		AutoDispatch: c.autoDispatch,
	}
}

// Close clears the pending banner timer. Idempotent; called on session
// teardown so no timer fires after logout.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.bannerTimer != nil {
		c.bannerTimer.Stop()
		c.bannerTimer = nil
	}
}

func (c *Controller) recomputeLocked() {
	c.stats = stats.Compute(c.orders, c.now(), c.loc)
}
