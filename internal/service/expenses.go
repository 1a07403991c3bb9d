// Package service coordinates mutations between the remote store and
// the local transaction cache. Nothing here is optimistic: the cache
// changes only after the remote store has confirmed the corresponding
// operation, so local state never runs ahead of the server.
package service

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/store"
)

// Remote is the slice of the API client the coordinator depends on.
type Remote interface {
	List(ctx context.Context) ([]core.Transaction, error)
	Create(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	Update(ctx context.Context, id string, tx core.Transaction) (core.Transaction, error)
	Delete(ctx context.Context, id string) error
	Summary(ctx context.Context) (core.Summary, error)
}

// EventSink receives a notification for every confirmed mutation.
// Implementations must not block the mutation path; failures are
// logged and swallowed.
type EventSink interface {
	TransactionChanged(ctx context.Context, action string, tx core.Transaction) error
}

// SnapshotWriter persists the last successfully loaded transaction set
// for offline use.
type SnapshotWriter interface {
	Save(ctx context.Context, txs []core.Transaction) error
}

// Mutation event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Expenses is the mutation coordinator. The cache and the summary are
// the only state it owns.
type Expenses struct {
	remote    Remote
	cache     *store.Store
	events    EventSink      // optional
	snapshots SnapshotWriter // optional
	logger    *log.Logger

	summaryMu sync.Mutex
	summary   *core.Summary
}

// Option configures the coordinator.
type Option func(*Expenses)

// WithEvents wires an event sink for confirmed mutations.
func WithEvents(sink EventSink) Option {
	return func(e *Expenses) { e.events = sink }
}

// WithSnapshots wires offline snapshot persistence after full loads.
func WithSnapshots(w SnapshotWriter) Option {
	return func(e *Expenses) { e.snapshots = w }
}

func New(remote Remote, cache *store.Store, logger *log.Logger, opts ...Option) *Expenses {
	e := &Expenses{
		remote: remote,
		cache:  cache,
		logger: logger.WithComponent(log.ComponentService),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cache exposes the transaction cache for query consumers.
func (e *Expenses) Cache() *store.Store {
	return e.cache
}

// Load fetches the full transaction set and replaces the cache
// wholesale. On failure the cache is untouched.
func (e *Expenses) Load(ctx context.Context) error {
	txs, err := e.remote.List(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	e.cache.Replace(txs)
	e.logger.InfoContext(ctx, "transactions loaded",
		log.FieldOperation, log.OpLoad, log.FieldCount, len(txs))

	if e.snapshots != nil {
		if err := e.snapshots.Save(ctx, txs); err != nil {
			e.logger.WarnContext(ctx, "offline snapshot not written",
				log.FieldOperation, log.OpSnapshot, log.FieldError, err.Error())
		}
	}
	return nil
}

// LoadSummary fetches the server aggregate. Independent of Load; the
// two may be transiently inconsistent.
func (e *Expenses) LoadSummary(ctx context.Context) error {
	s, err := e.remote.Summary(ctx)
	if err != nil {
		return fmt.Errorf("load summary: %w", err)
	}
	e.summaryMu.Lock()
	e.summary = &s
	e.summaryMu.Unlock()
	return nil
}

// Refresh runs Load and LoadSummary concurrently.
func (e *Expenses) Refresh(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.Load(ctx) })
	g.Go(func() error { return e.LoadSummary(ctx) })
	return g.Wait()
}

// Summary returns the last fetched server aggregate. When none has
// been fetched yet the second return is false; callers can fall back
// to query.ComputeSummary over a cache snapshot.
func (e *Expenses) Summary() (core.Summary, bool) {
	e.summaryMu.Lock()
	defer e.summaryMu.Unlock()
	if e.summary == nil {
		return core.Summary{}, false
	}
	return *e.summary, true
}

// Create validates locally, then sends the transaction to the remote
// store. On confirmation the result is prepended to the cache and the
// summary refreshed. Validation failures never reach the network and
// come back as core.FieldErrors.
func (e *Expenses) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if errs := tx.Validate(); errs != nil {
		return core.Transaction{}, errs
	}
	created, err := e.remote.Create(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	e.cache.Prepend(created)
	e.logger.InfoContext(ctx, "transaction created",
		log.FieldOperation, log.OpCreate,
		log.FieldTxID, created.ID,
		log.FieldAmountCents, created.Amount.Cents,
		log.FieldCategory, created.Category)

	e.publish(ctx, ActionCreated, created)
	e.refreshSummary(ctx)
	return created, nil
}

// Update validates locally, then replaces the remote entry. On
// confirmation the cached entry is replaced in place; if the entry was
// deleted while the call was in flight, the stale response is dropped.
func (e *Expenses) Update(ctx context.Context, id string, tx core.Transaction) (core.Transaction, error) {
	if errs := tx.Validate(); errs != nil {
		return core.Transaction{}, errs
	}
	updated, err := e.remote.Update(ctx, id, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	if !e.cache.Update(id, updated) {
		e.logger.WarnContext(ctx, "entry vanished before update response, dropping",
			log.FieldOperation, log.OpUpdate, log.FieldTxID, id)
		return updated, nil
	}
	e.logger.InfoContext(ctx, "transaction updated",
		log.FieldOperation, log.OpUpdate, log.FieldTxID, id)

	e.publish(ctx, ActionUpdated, updated)
	e.refreshSummary(ctx)
	return updated, nil
}

// Delete removes the transaction remotely, then from the cache. On
// failure the cached entry stays put.
func (e *Expenses) Delete(ctx context.Context, id string) error {
	if err := e.remote.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	removed := e.cache.Remove(id)
	e.logger.InfoContext(ctx, "transaction deleted",
		log.FieldOperation, log.OpDelete, log.FieldTxID, id)

	if removed {
		e.publish(ctx, ActionDeleted, core.Transaction{ID: id})
	}
	e.refreshSummary(ctx)
	return nil
}

// Reset clears the cache and the summary. Wired to session teardown.
func (e *Expenses) Reset() {
	e.cache.Clear()
	e.summaryMu.Lock()
	e.summary = nil
	e.summaryMu.Unlock()
}

// refreshSummary re-fetches the aggregate after a confirmed mutation.
// A failure here does not fail the mutation; the server state already
// changed and the next refresh will converge.
func (e *Expenses) refreshSummary(ctx context.Context) {
	if err := e.LoadSummary(ctx); err != nil {
		e.logger.WarnContext(ctx, "summary refresh failed",
			log.FieldOperation, log.OpSummary, log.FieldError, err.Error())
	}
}

func (e *Expenses) publish(ctx context.Context, action string, tx core.Transaction) {
	if e.events == nil {
		return
	}
	if err := e.events.TransactionChanged(ctx, action, tx); err != nil {
		e.logger.WarnContext(ctx, "mutation event not published",
			log.FieldOperation, action, log.FieldTxID, tx.ID, log.FieldError, err.Error())
	}
}
