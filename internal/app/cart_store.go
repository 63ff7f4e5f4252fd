package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"storefront/internal/domain"

	"go.uber.org/zap"
)

// CartStorageKey is the LocalStorage key holding the persisted cart lines.
const CartStorageKey = "cart"

// Mirror operation names reported to a SyncObserver.
const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpRemove = "remove"
	OpSync   = "sync"
)

// ErrStaleSession is reported for remote work discarded because the session
// that scheduled it has ended.
var ErrStaleSession = errors.New("session ended before request was sent")

// ErrStoreClosed is reported for remote work scheduled after Close.
var ErrStoreClosed = errors.New("cart store closed")

// SyncObserver receives the outcome of best-effort remote cart work.
// Failures never reach the caller of a cart operation; this is where they go.
type SyncObserver interface {
	MirrorDone(op string, err error)
	SyncDone(pushed int, err error)
	SyncSkipped()
}

type nopObserver struct{}

func (nopObserver) MirrorDone(string, error) {}
func (nopObserver) SyncDone(int, error)      {}
func (nopObserver) SyncSkipped()             {}

// CartOption configures a CartStore.
type CartOption func(*CartStore)

// WithCartLogger sets the logger.
func WithCartLogger(l *zap.Logger) CartOption {
	return func(s *CartStore) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSyncObserver sets the observer notified of remote outcomes.
func WithSyncObserver(o SyncObserver) CartOption {
	return func(s *CartStore) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithRemoteTimeout bounds each remote call. Default: 10 seconds.
func WithRemoteTimeout(d time.Duration) CartOption {
	return func(s *CartStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClearOnLogout empties the local cart when the session ends.
func WithClearOnLogout(clear bool) CartOption {
	return func(s *CartStore) {
		s.clearOnLogout = clear
	}
}

type task struct {
	op  string
	gen uint64
	run func() error
	// after always runs, even when the task is discarded.
	after func()
}

// CartStore owns the local cart. Every mutation is applied and persisted
// before it returns; remote mirroring happens afterwards on a single worker
// so remote calls are issued in mutation order.
type CartStore struct {
	storage       domain.LocalStorage
	remote        domain.RemoteCart
	log           *zap.Logger
	observer      SyncObserver
	timeout       time.Duration
	clearOnLogout bool

	mu            sync.Mutex
	state         domain.CartState
	authenticated bool
	syncing       bool
	syncOwner     uint64
	listeners     map[int]func(domain.CartState)
	nextListener  int

	// generation increments each time the session ends.
	generation atomic.Uint64

	qmu     sync.Mutex
	queue   []task
	closed  bool
	pending sync.WaitGroup
	wake    chan struct{}
	quit    chan struct{}
	stopped chan struct{}
}

// NewCartStore creates an empty CartStore and starts its mirror worker.
// Call Hydrate before serving requests and Close on shutdown.
func NewCartStore(storage domain.LocalStorage, remote domain.RemoteCart, opts ...CartOption) *CartStore {
	s := &CartStore{
		storage:   storage,
		remote:    remote,
		log:       zap.NewNop(),
		observer:  nopObserver{},
		timeout:   10 * time.Second,
		state:     Reduce(domain.CartState{}, ClearItems{}),
		listeners: make(map[int]func(domain.CartState)),
		wake:      make(chan struct{}, 1),
		quit:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.worker()
	return s
}

// Hydrate loads the persisted cart. A corrupt entry is logged and treated
// as an empty cart.
func (s *CartStore) Hydrate(ctx context.Context) {
	raw, ok, err := s.storage.Get(ctx, CartStorageKey)
	if err != nil {
		s.log.Warn("read saved cart", zap.Error(&domain.LocalStorageError{Op: "hydrate", Msg: "read failed", Err: err}))
		return
	}
	if !ok || raw == "" {
		return
	}
	var lines []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		s.log.Warn("discarding saved cart", zap.Error(&domain.LocalStorageError{Op: "hydrate", Msg: "corrupt cart", Err: err}))
		return
	}
	s.LoadCart(ctx, lines)
}

// Snapshot returns a copy of the current cart.
func (s *CartStore) Snapshot() domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

// Subscribe registers fn to be called with the new cart after every change.
// The returned function removes the subscription.
func (s *CartStore) Subscribe(fn func(domain.CartState)) func() {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// AddToCart adds quantity of p. A quantity below one adds a single unit.
func (s *CartStore) AddToCart(ctx context.Context, p domain.Product, quantity int) domain.CartState {
	if quantity < 1 {
		quantity = 1
	}
	return s.apply(ctx, AddItem{Product: p, Quantity: quantity}, func(_ domain.CartState) *task {
		return &task{op: OpAdd, run: func() error {
			return s.call(func(ctx context.Context) error { return s.remote.AddItem(ctx, p.ID, quantity) })
		}}
	})
}

// RemoveFromCart drops the line for productID. Unknown ids are a no-op.
func (s *CartStore) RemoveFromCart(ctx context.Context, productID string) domain.CartState {
	return s.apply(ctx, RemoveItem{ProductID: productID}, func(prev domain.CartState) *task {
		if indexOf(prev.Lines, productID) < 0 {
			return nil
		}
		return s.removeTask(productID)
	})
}

// UpdateQuantity sets the quantity of productID's line. A quantity of zero
// or less is the same as RemoveFromCart.
func (s *CartStore) UpdateQuantity(ctx context.Context, productID string, quantity int) domain.CartState {
	if quantity <= 0 {
		return s.RemoveFromCart(ctx, productID)
	}
	return s.apply(ctx, SetQuantity{ProductID: productID, Quantity: quantity}, func(prev domain.CartState) *task {
		if indexOf(prev.Lines, productID) < 0 {
			return nil
		}
		return &task{op: OpUpdate, run: func() error {
			return s.call(func(ctx context.Context) error { return s.remote.UpdateItem(ctx, productID, quantity) })
		}}
	})
}

// ClearCart empties the local cart. The remote cart is left as is.
func (s *CartStore) ClearCart(ctx context.Context) domain.CartState {
	return s.apply(ctx, ClearItems{}, nil)
}

// LoadCart replaces every line. The remote cart is left as is.
func (s *CartStore) LoadCart(ctx context.Context, lines []domain.CartLine) domain.CartState {
	return s.apply(ctx, LoadItems{Lines: lines}, nil)
}

// OnSessionChange tracks authentication. It starts a sync pass when the
// session becomes authenticated and invalidates queued remote work when
// it stops being authenticated.
func (s *CartStore) OnSessionChange(sess domain.Session) {
	s.mu.Lock()
	was := s.authenticated
	s.authenticated = sess.IsAuthenticated

	switch {
	case !was && sess.IsAuthenticated:
		s.requestSyncLocked()
		s.mu.Unlock()

	case was && !sess.IsAuthenticated:
		s.generation.Add(1)
		s.syncing = false
		if !s.clearOnLogout {
			s.mu.Unlock()
			return
		}
		s.state = Reduce(s.state, ClearItems{})
		s.persistLocked(context.Background())
		state, listeners := copyState(s.state), s.listenersLocked()
		s.mu.Unlock()
		notify(listeners, state)

	default:
		s.mu.Unlock()
	}
}

// RequestSync starts a sync pass if the session is authenticated and no
// pass is already running. It reports whether a pass was scheduled.
func (s *CartStore) RequestSync() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated {
		return false
	}
	return s.requestSyncLocked()
}

// Wait blocks until all scheduled remote work has finished.
func (s *CartStore) Wait() {
	s.pending.Wait()
}

// Close stops accepting remote work, finishes what is queued and stops the
// worker. It returns ctx.Err() if ctx ends first.
func (s *CartStore) Close(ctx context.Context) error {
	s.qmu.Lock()
	if !s.closed {
		s.closed = true
		close(s.quit)
	}
	s.qmu.Unlock()

	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *CartStore) apply(ctx context.Context, cmd Command, mirror func(prev domain.CartState) *task) domain.CartState {
	s.mu.Lock()
	prev := s.state
	s.state = Reduce(prev, cmd)
	// The change is already applied in memory, so it is saved even if the
	// caller gives up.
	s.persistLocked(context.WithoutCancel(ctx))
	if mirror != nil && s.authenticated {
		if t := mirror(prev); t != nil {
			s.enqueue(*t)
		}
	}
	state, listeners := copyState(s.state), s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, state)
	return state
}

func (s *CartStore) persistLocked(ctx context.Context) {
	raw, err := json.Marshal(s.state.Lines)
	if err != nil {
		s.log.Error("encode cart", zap.Error(err))
		return
	}
	if err := s.storage.Set(ctx, CartStorageKey, string(raw)); err != nil {
		s.log.Warn("persist cart", zap.Error(err))
	}
}

func (s *CartStore) removeTask(productID string) *task {
	return &task{op: OpRemove, run: func() error {
		return s.call(func(ctx context.Context) error { return s.remote.RemoveItem(ctx, productID) })
	}}
}

func (s *CartStore) requestSyncLocked() bool {
	if s.syncing {
		s.log.Debug("cart sync already running, request dropped")
		s.observer.SyncSkipped()
		return false
	}
	gen := s.generation.Load()
	lines := copyState(s.state).Lines
	s.syncing, s.syncOwner = true, gen

	release := func() {
		s.mu.Lock()
		if s.syncOwner == gen {
			s.syncing = false
		}
		s.mu.Unlock()
	}
	ok := s.enqueue(task{
		op: OpSync,
		run: func() error {
			_, err := s.syncPass(gen, lines)
			return err
		},
		after: release,
	})
	if !ok {
		s.syncing = false
	}
	return ok
}

// syncPass upserts lines into the remote cart: lines the remote lacks are
// added, lines with a different quantity are updated, equal lines are left
// alone. Remote-only lines are not touched.
func (s *CartStore) syncPass(gen uint64, lines []domain.CartLine) (int, error) {
	var remote []domain.RemoteLine
	err := s.call(func(ctx context.Context) error {
		var err error
		remote, err = s.remote.Items(ctx)
		return err
	})
	if err != nil {
		err = fmt.Errorf("read remote cart: %w", err)
		s.observer.SyncDone(0, err)
		return 0, err
	}

	byProduct := make(map[string]domain.RemoteLine, len(remote))
	for _, r := range remote {
		byProduct[r.ProductID] = r
	}

	pushed := 0
	for _, l := range lines {
		if s.generation.Load() != gen {
			s.observer.SyncDone(pushed, ErrStaleSession)
			return pushed, ErrStaleSession
		}
		r, ok := byProduct[l.Product.ID]
		var err error
		switch {
		case !ok:
			err = s.call(func(ctx context.Context) error { return s.remote.AddItem(ctx, l.Product.ID, l.Quantity) })
		case r.Quantity != l.Quantity:
			err = s.call(func(ctx context.Context) error { return s.remote.UpdateItem(ctx, r.ID, l.Quantity) })
		default:
			continue
		}
		if err != nil {
			s.log.Warn("sync cart line", zap.String("product_id", l.Product.ID), zap.Error(err))
			s.observer.MirrorDone(OpSync, err)
			continue
		}
		pushed++
	}
	s.log.Info("cart synced", zap.Int("lines", len(lines)), zap.Int("pushed", pushed))
	s.observer.SyncDone(pushed, nil)
	return pushed, nil
}

func (s *CartStore) call(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return fn(ctx)
}

func (s *CartStore) enqueue(t task) bool {
	t.gen = s.generation.Load()

	s.qmu.Lock()
	if s.closed {
		s.qmu.Unlock()
		s.log.Warn("remote cart work dropped", zap.String("op", t.op), zap.Error(ErrStoreClosed))
		s.observer.MirrorDone(t.op, ErrStoreClosed)
		return false
	}
	s.pending.Add(1)
	s.queue = append(s.queue, t)
	s.qmu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

func (s *CartStore) next() (task, bool) {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	if len(s.queue) == 0 {
		return task{}, false
	}
	t := s.queue[0]
	s.queue[0] = task{}
	s.queue = s.queue[1:]
	return t, true
}

func (s *CartStore) worker() {
	defer close(s.stopped)
	for {
		s.drain()
		select {
		case <-s.wake:
		case <-s.quit:
			s.drain()
			return
		}
	}
}

func (s *CartStore) drain() {
	for t, ok := s.next(); ok; t, ok = s.next() {
		s.exec(t)
	}
}

func (s *CartStore) exec(t task) {
	defer s.pending.Done()
	if t.after != nil {
		defer t.after()
	}

	if t.gen != s.generation.Load() {
		s.log.Debug("remote cart work discarded", zap.String("op", t.op))
		if t.op == OpSync {
			s.observer.SyncDone(0, ErrStaleSession)
		} else {
			s.observer.MirrorDone(t.op, ErrStaleSession)
		}
		return
	}

	err := t.run()
	if t.op == OpSync {
		// syncPass reports its own outcome.
		return
	}
	if err != nil {
		s.log.Warn("remote cart update failed", zap.String("op", t.op), zap.Error(err))
	}
	s.observer.MirrorDone(t.op, err)
}

func (s *CartStore) listenersLocked() []func(domain.CartState) {
	out := make([]func(domain.CartState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func(domain.CartState), state domain.CartState) {
	for _, fn := range listeners {
		fn(copyState(state))
	}
}

func copyState(s domain.CartState) domain.CartState {
	s.Lines = cloneLines(s.Lines)
	return s
}
