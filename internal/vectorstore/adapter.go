package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spigell/jobmatch/internal/logger"
)

const (
	// DefaultTimeout bounds a single store call.
	DefaultTimeout = 5 * time.Second
	// DefaultCooldown is how long the adapter stops calling a store after a
	// failed init or a timed out call.
	DefaultCooldown = 30 * time.Second
)

// ErrUnavailable is returned by Init while the store is cooling down after a failure.
var ErrUnavailable = errors.New("vector store unavailable")

// QueryResult is the typed answer handed to the engine. Available is false
// whenever the store could not answer; in that case the slices are empty.
type QueryResult struct {
	IDs       []string
	Distances []float64
	Metadatas []Metadata
	Available bool
}

// Distance returns the distance of the document with the given id, if present.
func (r *QueryResult) Distance(id string) (float64, bool) {
	if r == nil {
		return 0, false
	}
	for i, got := range r.IDs {
		if got == id && i < len(r.Distances) {
			return r.Distances[i], true
		}
	}
	return 0, false
}

// Adapter guards a Store. It initializes the store lazily and at most once
// per success, applies a per-call timeout and never propagates store errors
// to the engine. After a failed init or a timed out call the store is left
// alone for the cooldown period.
type Adapter struct {
	store    Store
	timeout  time.Duration
	cooldown time.Duration
	logger   *zap.Logger
	now      func() time.Time

	inits singleflight.Group

	mu        sync.Mutex
	ready     bool
	downUntil time.Time
	lastErr   error
}

// NewAdapter wraps store. A nil store yields an adapter that is always
// unavailable.
func NewAdapter(store Store, timeout time.Duration, log *zap.Logger) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	name := "none"
	if store != nil {
		name = store.Name()
	}
	return &Adapter{
		store:    store,
		timeout:  timeout,
		cooldown: DefaultCooldown,
		logger:   logger.ForStore(log, name),
		now:      time.Now,
	}
}

// WithCooldown sets the cooldown period. Zero or negative disables it.
func (a *Adapter) WithCooldown(d time.Duration) *Adapter {
	a.cooldown = d
	return a
}

// Init prepares the backend. It is safe to call repeatedly and concurrently:
// concurrent callers share one store.Init, and each of them stops waiting
// when its own context is done. While cooling down Init fails fast with
// ErrUnavailable.
func (a *Adapter) Init(ctx context.Context) error {
	if a == nil || a.store == nil {
		return ErrNotInitialized
	}

	a.mu.Lock()
	err := a.coolingDown()
	ready := a.ready
	a.mu.Unlock()

	if err != nil {
		return err
	}
	if ready {
		return nil
	}

	ch := a.inits.DoChan("init", func() (any, error) {
		return nil, a.initStore(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Adapter) initStore(ctx context.Context) error {
	a.mu.Lock()
	ready := a.ready
	a.mu.Unlock()
	if ready {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.store.Init(ctx); err != nil {
		err = fmt.Errorf("init %s store: %w", a.store.Name(), err)
		a.trip(err)
		a.logger.Warn("vector store unavailable", zap.String("operation", "init"), zap.Error(err))
		return err
	}

	a.mu.Lock()
	a.ready = true
	a.downUntil = time.Time{}
	a.lastErr = nil
	a.mu.Unlock()

	a.logger.Debug("vector store ready")
	return nil
}

// coolingDown must be called with a.mu held.
func (a *Adapter) coolingDown() error {
	if a.downUntil.IsZero() || !a.now().Before(a.downUntil) {
		return nil
	}
	return fmt.Errorf("%w until %s: %v", ErrUnavailable, a.downUntil.Format(time.RFC3339), a.lastErr)
}

func (a *Adapter) trip(err error) {
	if a.cooldown <= 0 {
		return
	}
	a.mu.Lock()
	a.downUntil = a.now().Add(a.cooldown)
	a.lastErr = err
	a.mu.Unlock()
}

// failed logs a failed store call and starts the cooldown when the store,
// not the caller, ran out of time.
func (a *Adapter) failed(parent context.Context, op string, err error, fields ...zap.Field) {
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		a.trip(err)
	}
	a.unavailable(op, err, fields...)
}

// Ready reports whether Init has succeeded.
func (a *Adapter) Ready() bool {
	if a == nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

// Upsert stores doc, overwriting any document with the same id. It reports
// whether the write succeeded; failures are logged, never returned.
func (a *Adapter) Upsert(ctx context.Context, doc Document) bool {
	if a == nil || a.store == nil {
		return false
	}

	if err := a.Init(ctx); err != nil {
		a.skipped("upsert", err, zap.String("document_id", doc.ID))
		return false
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.store.Upsert(callCtx, doc); err != nil {
		a.failed(ctx, "upsert", err, zap.String("document_id", doc.ID))
		return false
	}

	return true
}

// Query returns up to k nearest documents of docType. Any failure yields an
// empty result with Available set to false.
func (a *Adapter) Query(ctx context.Context, text string, k int, docType DocType) *QueryResult {
	empty := &QueryResult{}
	if a == nil || a.store == nil {
		return empty
	}

	if err := a.Init(ctx); err != nil {
		a.skipped("query", err, zap.String("type", string(docType)))
		return empty
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.store.Query(callCtx, text, k, docType)
	if err != nil {
		a.failed(ctx, "query", err, zap.String("type", string(docType)))
		return empty
	}

	result, err := a.convert(raw)
	if err != nil {
		a.unavailable("query", err, zap.String("type", string(docType)))
		return empty
	}

	return result
}

// Close releases the backend. The adapter may be initialized again later.
func (a *Adapter) Close() error {
	if a == nil || a.store == nil {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.ready = false
	a.downUntil = time.Time{}
	a.lastErr = nil
	return a.store.Close()
}

func (a *Adapter) convert(raw *RawResult) (*QueryResult, error) {
	if raw == nil {
		return nil, errors.New("store returned no result")
	}
	if len(raw.Distances) != len(raw.IDs) {
		return nil, fmt.Errorf("malformed result: %d ids, %d distances", len(raw.IDs), len(raw.Distances))
	}

	result := &QueryResult{
		IDs:       raw.IDs,
		Distances: raw.Distances,
		Metadatas: make([]Metadata, len(raw.IDs)),
		Available: true,
	}

	for i := range raw.IDs {
		if i >= len(raw.Metadatas) {
			break
		}
		md, err := DecodeMetadata(raw.Metadatas[i])
		if err != nil {
			// Metadata is informational; a bad entry does not spoil the distances.
			a.logger.Debug("skipping undecodable metadata", zap.String("document_id", raw.IDs[i]), zap.Error(err))
			continue
		}
		result.Metadatas[i] = md
	}

	return result, nil
}

// skipped is logged when a call never reached the store. The init failure
// itself was already reported.
func (a *Adapter) skipped(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("operation", op), zap.Error(err))
	a.logger.Debug("vector store call skipped", fields...)
}

func (a *Adapter) unavailable(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("operation", op), zap.Error(err))
	a.logger.Warn("vector store unavailable", fields...)
}
