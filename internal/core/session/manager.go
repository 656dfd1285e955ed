package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/yndnr/kvsession/internal/core/domain"
	"github.com/yndnr/kvsession/internal/storage"
	"github.com/yndnr/kvsession/internal/telemetry/logger"
	"github.com/yndnr/kvsession/pkg/token"
)

// Operation names reported to the Recorder.
const (
	OpLookup     = "lookup"
	OpCreate     = "create"
	OpRenew      = "renew"
	OpRegenerate = "regenerate"
	OpDelete     = "delete"
)

const (
	resultOK    = "ok"
	resultNoop  = "noop"
	resultMiss  = "miss"
	resultError = "error"
)

// Recorder receives operation outcomes, typically for metrics.
type Recorder interface {
	SessionOp(op, result string)
	RenewalStarted()
	RenewalFinished(err error)
}

type nopRecorder struct{}

func (nopRecorder) SessionOp(string, string) {}
func (nopRecorder) RenewalStarted()          {}
func (nopRecorder) RenewalFinished(error)    {}

// ErrorHandler writes the response for a request the middleware cannot
// serve.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Manager owns the session lifecycle.
type Manager struct {
	cfg      Config
	newID    IDGenerator
	logger   logger.Logger
	recorder Recorder
	onError  ErrorHandler

	mu       sync.Mutex
	draining bool
	pending  map[string]*renewal // latest detached renewal per flat key
	renewals sync.WaitGroup
}

// renewal tracks one detached write. done is closed once the write, and
// every earlier renewal of the same key, has returned.
type renewal struct {
	done chan struct{}
}

func (p *renewal) wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRecorder sets the operation recorder.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithIDGenerator overrides the generator chosen by Config.IDFormat.
func WithIDGenerator(g IDGenerator) Option {
	return func(m *Manager) {
		if g != nil {
			m.newID = g
		}
	}
}

// WithErrorHandler replaces WriteError.
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *Manager) {
		if h != nil {
			m.onError = h
		}
	}
}

// NewManager validates cfg and returns a Manager. Zero fields of cfg take
// their defaults, except the booleans: start from DefaultConfig to get
// auto-renewal.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	m := &Manager{
		cfg:      cfg,
		newID:    generatorFor(cfg.IDFormat),
		logger:   logger.Default(),
		recorder: nopRecorder{},
		onError:  WriteError,
		pending:  make(map[string]*renewal),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Middleware resolves the request's session and attaches it to the
// context. It must run after storage.Middleware.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		store := storage.FromContext(ctx)
		if store == nil {
			m.fail(w, r, domain.ErrStoreNotAttached)
			return
		}

		st, err := m.lookup(ctx, r, store)
		if err != nil {
			m.fail(w, r, err)
			return
		}

		if st.Status() {
			switch {
			case m.cfg.Regenerate:
				id, err := m.regenerate(ctx, w, store, st)
				if err != nil {
					m.fail(w, r, err)
					return
				}
				st = st.withID(id)
			case m.cfg.Renew:
				m.renewDetached(ctx, w, store, st)
			}
			ctx = logger.WithSession(ctx, token.Fingerprint(st.ID()))
		}

		next.ServeHTTP(w, r.WithContext(NewContext(ctx, st)))
	})
}

func (m *Manager) lookup(ctx context.Context, r *http.Request, store storage.Store) (*State, error) {
	st := &State{
		name: m.cfg.Name,
		ttl:  clampTTL(m.cfg.TTL),
		host: requestHost(r),
		id:   readID(r, m.cfg.Name, m.cfg.Secret),
	}
	if st.id == "" || st.host == "" {
		m.recorder.SessionOp(OpLookup, resultMiss)
		return st, nil
	}

	value, found, err := store.Get(ctx, st.Key())
	switch {
	case errors.Is(err, domain.ErrInvalidKey):
		m.recorder.SessionOp(OpLookup, resultMiss)
		return st, nil
	case err != nil:
		m.recorder.SessionOp(OpLookup, resultError)
		return nil, err
	case !found:
		m.recorder.SessionOp(OpLookup, resultMiss)
		return st, nil
	}

	st.value = value
	st.status = true
	m.recorder.SessionOp(OpLookup, resultOK)
	return st, nil
}

// CreateOption customises one Create call.
type CreateOption func(*createOptions)

type createOptions struct {
	id     string
	secret string
	ttl    time.Duration
}

// WithSessionID stores the session under id instead of a fresh one.
func WithSessionID(id string) CreateOption {
	return func(o *createOptions) { o.id = id }
}

// WithSecret signs the cookie with secret instead of Config.Secret.
// Middleware verifies incoming cookies against Config.Secret only, so a
// cookie signed with a different secret never resolves to an active
// session, and Renew and Regenerate re-sign with Config.Secret. Use it
// for cookies another service verifies.
func WithSecret(secret string) CreateOption {
	return func(o *createOptions) { o.secret = secret }
}

// WithTTL overrides the session lifetime for this call.
func WithTTL(ttl time.Duration) CreateOption {
	return func(o *createOptions) { o.ttl = ttl }
}

// Create stores value under a new session and issues its cookie. It
// returns the identifier used. The State of the current request is not
// changed; the session becomes visible from the next request.
func (m *Manager) Create(w http.ResponseWriter, r *http.Request, value []byte, opts ...CreateOption) (string, error) {
	ctx := r.Context()
	store := storage.FromContext(ctx)
	if store == nil {
		return "", domain.ErrStoreNotAttached
	}

	o := createOptions{secret: m.cfg.Secret, ttl: m.cfg.TTL}
	if st := FromContext(ctx); st != nil {
		o.ttl = st.TTL()
	}
	for _, opt := range opts {
		opt(&o)
	}

	id := o.id
	if id == "" {
		var err error
		if id, err = m.newID(); err != nil {
			m.recorder.SessionOp(OpCreate, resultError)
			return "", err
		}
	}

	host := requestHost(r)
	if err := m.settle(ctx, storage.SessionKey(host, id)); err != nil {
		m.recorder.SessionOp(OpCreate, resultError)
		return "", err
	}

	id, err := m.create(ctx, w, store, host, id, value, o.ttl, o.secret)
	m.record(OpCreate, err)
	return id, err
}

// Renew resets the TTL of the active session and re-issues its cookie
// with the same identifier and value. On an inactive session it does
// nothing. It reports true unless an error occurred.
func (m *Manager) Renew(w http.ResponseWriter, r *http.Request) (bool, error) {
	ctx := r.Context()
	st := FromContext(ctx)
	if !st.Status() {
		m.recorder.SessionOp(OpRenew, resultNoop)
		return true, nil
	}
	store := storage.FromContext(ctx)
	if store == nil {
		return false, domain.ErrStoreNotAttached
	}
	if err := m.settle(ctx, st.Key()); err != nil {
		m.recorder.SessionOp(OpRenew, resultError)
		return false, err
	}

	_, err := m.create(ctx, w, store, st.Host(), st.ID(), st.value, st.TTL(), m.cfg.Secret)
	m.record(OpRenew, err)
	return err == nil, err
}

// Regenerate replaces the active session with one under a fresh
// identifier holding the same value and TTL, and returns the new
// identifier. The old record is deleted first. On an inactive session it
// does nothing and returns "".
func (m *Manager) Regenerate(w http.ResponseWriter, r *http.Request) (string, error) {
	ctx := r.Context()
	st := FromContext(ctx)
	if !st.Status() {
		m.recorder.SessionOp(OpRegenerate, resultNoop)
		return "", nil
	}
	store := storage.FromContext(ctx)
	if store == nil {
		return "", domain.ErrStoreNotAttached
	}
	return m.regenerate(ctx, w, store, st)
}

// Delete removes the session record, if any, and clears the cookie.
func (m *Manager) Delete(w http.ResponseWriter, r *http.Request) (bool, error) {
	ctx := r.Context()
	store := storage.FromContext(ctx)
	if store == nil {
		return false, domain.ErrStoreNotAttached
	}

	host, id := requestHost(r), ""
	if st := FromContext(ctx); st != nil {
		host, id = st.Host(), st.ID()
	}
	if err := m.settle(ctx, storage.SessionKey(host, id)); err != nil {
		m.recorder.SessionOp(OpDelete, resultError)
		return false, err
	}

	err := m.delete(ctx, w, store, host, id)
	m.record(OpDelete, err)
	return err == nil, err
}

// Wait blocks until detached renewals finish or ctx is done. Once Wait
// has been called, renewals started by Middleware complete before the
// handler runs instead of in the background.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	m.draining = true
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.renewals.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) regenerate(ctx context.Context, w http.ResponseWriter, store storage.Store, st *State) (string, error) {
	if err := m.settle(ctx, st.Key()); err != nil {
		m.recorder.SessionOp(OpRegenerate, resultError)
		return "", err
	}
	id, err := m.newID()
	if err != nil {
		m.recorder.SessionOp(OpRegenerate, resultError)
		return "", err
	}
	if err := m.delete(ctx, w, store, st.Host(), st.ID()); err != nil {
		m.recorder.SessionOp(OpRegenerate, resultError)
		return "", err
	}
	id, err = m.create(ctx, w, store, st.Host(), id, st.value, st.TTL(), m.cfg.Secret)
	m.record(OpRegenerate, err)
	if err == nil {
		m.log(ctx).Debug("session regenerated",
			"from", token.Fingerprint(st.ID()),
			"to", token.Fingerprint(id))
	}
	return id, err
}

// renewDetached re-issues the cookie now and resets the backend TTL in
// the background. The write survives cancellation of the request.
// Renewals of the same key are applied in the order they started.
func (m *Manager) renewDetached(ctx context.Context, w http.ResponseWriter, store storage.Store, st *State) {
	if !store.Kind().Valid() {
		m.recorder.SessionOp(OpRenew, resultError)
		m.log(ctx).Error("renewal skipped", "error", domain.ErrUnsupportedBackend, "backend", string(store.Kind()))
		return
	}

	ttl := clampTTL(st.TTL())
	setCookie(w, m.cfg.Name, st.ID(), st.Host(), ttl, m.cfg.Secret)

	key, value := st.Key(), st.value
	flat := key.Flat()
	log := m.log(ctx).With("session", token.Fingerprint(st.ID()))
	detached := context.WithoutCancel(ctx)

	write := func(prev *renewal) {
		wctx, cancel := context.WithTimeout(detached, m.cfg.RenewTimeout)
		defer cancel()

		err := prev.wait(wctx)
		if err == nil {
			err = store.Set(wctx, key, value, ttl)
		}
		m.recorder.RenewalFinished(err)
		m.record(OpRenew, err)
		if err != nil {
			log.Warn("detached renewal failed", "error", err)
		}
	}

	m.recorder.RenewalStarted()
	m.mu.Lock()
	prev := m.pending[flat]
	if m.draining {
		m.mu.Unlock()
		write(prev)
		return
	}
	p := &renewal{done: make(chan struct{})}
	m.pending[flat] = p
	m.renewals.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.renewals.Done()
		write(prev)

		m.mu.Lock()
		if m.pending[flat] == p {
			delete(m.pending, flat)
		}
		m.mu.Unlock()
		close(p.done)
	}()
}

// settle blocks until no detached renewal of key is in flight, so an
// operation that rewrites or removes the record is not overtaken by it.
func (m *Manager) settle(ctx context.Context, key storage.Key) error {
	m.mu.Lock()
	p := m.pending[key.Flat()]
	m.mu.Unlock()
	return p.wait(ctx)
}

func (m *Manager) create(ctx context.Context, w http.ResponseWriter, store storage.Store, host, id string, value []byte, ttl time.Duration, secret string) (string, error) {
	if !store.Kind().Valid() {
		return "", domain.ErrUnsupportedBackend.WithDetails(string(store.Kind()))
	}
	ttl = clampTTL(ttl)

	if err := store.Set(ctx, storage.SessionKey(host, id), value, ttl); err != nil {
		return "", err
	}
	setCookie(w, m.cfg.Name, id, host, ttl, secret)

	m.log(ctx).Debug("session written",
		"session", token.Fingerprint(id),
		"host", host,
		"ttl", ttl)
	return id, nil
}

func (m *Manager) delete(ctx context.Context, w http.ResponseWriter, store storage.Store, host, id string) error {
	if !store.Kind().Valid() {
		return domain.ErrUnsupportedBackend.WithDetails(string(store.Kind()))
	}
	if host != "" && id != "" {
		// A key the backend cannot hold has no record to remove.
		err := store.Delete(ctx, storage.SessionKey(host, id))
		if err != nil && !errors.Is(err, domain.ErrInvalidKey) {
			return err
		}
	}
	clearCookie(w, m.cfg.Name, host)
	return nil
}

func (m *Manager) record(op string, err error) {
	if err != nil {
		m.recorder.SessionOp(op, resultError)
		return
	}
	m.recorder.SessionOp(op, resultOK)
}

func (m *Manager) log(ctx context.Context) logger.Logger {
	return m.logger.WithContext(ctx)
}

func (m *Manager) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := domain.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		m.log(r.Context()).Error("session middleware failed", "error", err, "path", r.URL.Path)
	}
	m.onError(w, r, err)
}

// WriteError writes err as a JSON body {"code","message"} with the
// status its code maps to.
func WriteError(w http.ResponseWriter, _ *http.Request, err error) {
	code, message := domain.ErrInternalServer.Code, domain.ErrInternalServer.Message
	var de *domain.DomainError
	if errors.As(err, &de) {
		code, message = de.Code, de.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(domain.HTTPStatus(err))
	json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}
