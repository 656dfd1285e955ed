package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/kvsession/internal/core/domain"
	"github.com/yndnr/kvsession/internal/storage"
	"github.com/yndnr/kvsession/internal/storage/memory"
)

const testHost = "example.com"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// countingObserver counts adapter calls by operation.
type countingObserver struct {
	mu  sync.Mutex
	ops map[string]int
}

func (o *countingObserver) ObserveKV(_, op string, _ time.Duration, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ops == nil {
		o.ops = map[string]int{}
	}
	o.ops[op]++
}

func (o *countingObserver) count(op string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ops[op]
}

type harness struct {
	t     *testing.T
	clock *testClock
	mem   *memory.Store
	store storage.Store
	obs   *countingObserver
	m     *Manager
}

func newHarness(t *testing.T, cfg Config, opts ...Option) *harness {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	mem := memory.New(memory.WithClock(clock.Now), memory.WithSweepInterval(0))
	t.Cleanup(func() { mem.Close() })

	obs := &countingObserver{}
	m, err := NewManager(cfg, opts...)
	require.NoError(t, err)

	return &harness{
		t:     t,
		clock: clock,
		mem:   mem,
		store: storage.Instrument(mem, obs),
		obs:   obs,
		m:     m,
	}
}

// do runs fn behind the storage and session middleware.
func (h *harness) do(cookie *http.Cookie, fn func(w http.ResponseWriter, r *http.Request)) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest(http.MethodGet, "https://"+testHost+"/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	chain := storage.Middleware(h.store)(h.m.Middleware(http.HandlerFunc(fn)))
	chain.ServeHTTP(rec, req)
	return rec
}

// lookup returns the State a request carrying cookie resolves to.
func (h *harness) lookup(cookie *http.Cookie) *State {
	h.t.Helper()
	var st *State
	h.do(cookie, func(w http.ResponseWriter, r *http.Request) {
		st = FromContext(r.Context())
	})
	return st
}

// create issues a session holding value and returns its cookie.
func (h *harness) create(value string, opts ...CreateOption) (string, *http.Cookie) {
	h.t.Helper()
	var id string
	rec := h.do(nil, func(w http.ResponseWriter, r *http.Request) {
		var err error
		id, err = h.m.Create(w, r, []byte(value), opts...)
		require.NoError(h.t, err)
	})
	c := lastCookie(rec, h.m.Config().Name)
	require.NotNil(h.t, c, "Create should set a cookie")
	return id, c
}

func (h *harness) expiresAt(id string) time.Time {
	h.t.Helper()
	var exp time.Time
	require.NoError(h.t, h.mem.Scan(context.Background(), testHost, func(e storage.Entry) bool {
		if e.Key.ID == id {
			exp = e.ExpiresAt
			return false
		}
		return true
	}))
	return exp
}

func lastCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}

func noRenew() Config {
	cfg := DefaultConfig()
	cfg.Renew = false
	cfg.TTL = 120 * time.Second
	return cfg
}

func TestCreate_ThenLookup(t *testing.T) {
	h := newHarness(t, noRenew())

	id, c := h.create("alice")

	assert.Equal(t, "id", c.Name)
	assert.Equal(t, id, c.Value)
	assert.Equal(t, 120, c.MaxAge)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, testHost, c.Domain)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)

	st := h.lookup(c)
	require.NotNil(t, st)
	assert.True(t, st.Status())
	assert.Equal(t, "alice", string(st.Value()))
	assert.Equal(t, id, st.ID())
	assert.Equal(t, "id", st.Name())
	assert.Equal(t, 120*time.Second, st.TTL())
}

func TestCreate_ClampsTTL(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
		want time.Duration
	}{
		{"below floor", 10 * time.Second, 60 * time.Second},
		{"zero", 0, 60 * time.Second},
		{"at floor", 60 * time.Second, 60 * time.Second},
		{"above floor", 300 * time.Second, 300 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, noRenew())
			id, c := h.create("v", WithTTL(tt.ttl))

			assert.Equal(t, int(tt.want/time.Second), c.MaxAge)
			assert.Equal(t, h.clock.Now().Add(tt.want), h.expiresAt(id))
		})
	}
}

func TestConfigTTL_Clamped(t *testing.T) {
	cfg := noRenew()
	cfg.TTL = 5 * time.Second
	h := newHarness(t, cfg)

	_, c := h.create("v")
	assert.Equal(t, 60, c.MaxAge)
	assert.Equal(t, MinTTL, h.lookup(c).TTL())
}

func TestCreate_WithSessionID(t *testing.T) {
	h := newHarness(t, noRenew())
	id, c := h.create("v", WithSessionID("fixed-id"))

	assert.Equal(t, "fixed-id", id)
	assert.Equal(t, "fixed-id", c.Value)
	assert.True(t, h.lookup(c).Status())
}

func TestDelete_AfterCreate(t *testing.T) {
	h := newHarness(t, noRenew())
	_, c := h.create("alice")

	rec := h.do(c, func(w http.ResponseWriter, r *http.Request) {
		ok, err := h.m.Delete(w, r)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	cleared := lastCookie(rec, "id")
	require.NotNil(t, cleared)
	assert.Equal(t, "", cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
	assert.Equal(t, "/", cleared.Path)
	assert.Equal(t, testHost, cleared.Domain)
	assert.True(t, cleared.Secure)

	assert.False(t, h.lookup(c).Status())
}

func TestDelete_AbsentRecordSucceeds(t *testing.T) {
	h := newHarness(t, noRenew())
	stale := &http.Cookie{Name: "id", Value: "never-existed"}

	rec := h.do(stale, func(w http.ResponseWriter, r *http.Request) {
		ok, err := h.m.Delete(w, r)
		require.NoError(t, err)
		assert.True(t, ok)
	})
	assert.NotNil(t, lastCookie(rec, "id"), "cookie should be cleared")

	h.do(nil, func(w http.ResponseWriter, r *http.Request) {
		ok, err := h.m.Delete(w, r)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestRenew_ActiveSession(t *testing.T) {
	h := newHarness(t, noRenew())
	id, c := h.create("alice")

	h.clock.Advance(100 * time.Second)

	rec := h.do(c, func(w http.ResponseWriter, r *http.Request) {
		ok, err := h.m.Renew(w, r)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, FromContext(r.Context()).Status())
	})

	renewed := lastCookie(rec, "id")
	require.NotNil(t, renewed)
	assert.Equal(t, id, renewed.Value, "renew keeps the identifier")
	assert.Equal(t, 120, renewed.MaxAge)
	assert.Equal(t, h.clock.Now().Add(120*time.Second), h.expiresAt(id))

	st := h.lookup(c)
	assert.True(t, st.Status())
	assert.Equal(t, "alice", string(st.Value()))
}

func TestRegenerate_ActiveSession(t *testing.T) {
	h := newHarness(t, noRenew())
	oldID, c := h.create("alice")

	var newID string
	rec := h.do(c, func(w http.ResponseWriter, r *http.Request) {
		var err error
		newID, err = h.m.Regenerate(w, r)
		require.NoError(t, err)
	})

	assert.NotEmpty(t, newID)
	assert.NotEqual(t, oldID, newID)

	// delete-then-create: the clearing cookie precedes the new one
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Less(t, cookies[0].MaxAge, 0)
	assert.Equal(t, newID, cookies[1].Value)

	assert.False(t, h.lookup(c).Status(), "old identifier must be gone")

	st := h.lookup(cookies[1])
	assert.True(t, st.Status())
	assert.Equal(t, "alice", string(st.Value()))
	assert.Equal(t, h.clock.Now().Add(120*time.Second), h.expiresAt(newID))
}

func TestInactiveSession_Noops(t *testing.T) {
	h := newHarness(t, noRenew())
	stale := &http.Cookie{Name: "id", Value: "expired-id"}

	rec := h.do(stale, func(w http.ResponseWriter, r *http.Request) {
		ok, err := h.m.Renew(w, r)
		require.NoError(t, err)
		assert.True(t, ok)

		id, err := h.m.Regenerate(w, r)
		require.NoError(t, err)
		assert.Empty(t, id)
	})

	assert.Equal(t, 0, h.obs.count("set"), "no KV write on inactive session")
	assert.Equal(t, 0, h.obs.count("delete"))
	assert.Nil(t, lastCookie(rec, "id"))
	assert.Equal(t, 0, h.mem.Len())
}

func TestExpiredSession_IsUnset(t *testing.T) {
	h := newHarness(t, noRenew())
	_, c := h.create("alice")

	h.clock.Advance(121 * time.Second)
	assert.False(t, h.lookup(c).Status())
}

func TestSignedCookie(t *testing.T) {
	cfg := noRenew()
	cfg.Secret = "s3cret"
	h := newHarness(t, cfg)

	id, c := h.create("alice")

	raw, err := url.QueryUnescape(c.Value)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, id+"."), "signed value should start with the id")

	st := h.lookup(c)
	assert.True(t, st.Status())
	assert.Equal(t, id, st.ID())

	sig := raw[len(id)+1:]
	tampered := []string{
		id,                       // signature stripped
		"other." + sig,           // id swapped
		id + ".AAAA" + sig[4:],   // signature altered
		id + ".not-base64!",      // garbage
		sign(id, "wrong-secret"), // signed with another key
		"",                       // empty
	}
	for _, v := range tampered {
		t.Run(v, func(t *testing.T) {
			st := h.lookup(&http.Cookie{Name: "id", Value: url.QueryEscape(v)})
			require.NotNil(t, st)
			assert.False(t, st.Status())
			assert.Empty(t, st.ID())
		})
	}
}

func TestCreate_WithSecretOption(t *testing.T) {
	cfg := noRenew()
	cfg.Secret = "s3cret"
	h := newHarness(t, cfg)

	_, c := h.create("alice", WithSecret("other"))
	assert.False(t, h.lookup(c).Status(), "cookie signed with another secret does not verify")
}

func TestEndToEnd_Alice(t *testing.T) {
	h := newHarness(t, noRenew())

	id, c := h.create("alice", WithTTL(120*time.Second))
	assert.Equal(t, "id", c.Name)
	assert.Equal(t, id, c.Value)
	assert.Equal(t, 120, c.MaxAge)

	st := h.lookup(c)
	assert.True(t, st.Status())
	assert.Equal(t, "alice", string(st.Value()))

	rec := h.do(c, func(w http.ResponseWriter, r *http.Request) {
		_, err := h.m.Delete(w, r)
		require.NoError(t, err)
	})
	assert.Less(t, lastCookie(rec, "id").MaxAge, 0)

	assert.False(t, h.lookup(c).Status())
}

func TestMiddleware_AutoRenew(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TTL = 120 * time.Second
	h := newHarness(t, cfg)

	id, c := h.create("alice")
	h.clock.Advance(100 * time.Second)
	setsBefore := h.obs.count("set")

	rec := h.do(c, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, FromContext(r.Context()).Status())
	})
	require.NoError(t, h.m.Wait(context.Background()))

	renewed := lastCookie(rec, "id")
	require.NotNil(t, renewed, "renewed cookie must reach the response")
	assert.Equal(t, id, renewed.Value)
	assert.Equal(t, 120, renewed.MaxAge)

	assert.Equal(t, setsBefore+1, h.obs.count("set"))
	assert.Equal(t, h.clock.Now().Add(120*time.Second), h.expiresAt(id))
}

func TestMiddleware_AutoRenewSurvivesCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TTL = 120 * time.Second
	h := newHarness(t, cfg)
	id, c := h.create("alice")
	h.clock.Advance(30 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "https://"+testHost+"/", nil).WithContext(ctx)
	req.AddCookie(c)
	chain := storage.Middleware(h.store)(h.m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		cancel()
	})))
	chain.ServeHTTP(httptest.NewRecorder(), req)

	require.NoError(t, h.m.Wait(context.Background()))
	assert.Equal(t, h.clock.Now().Add(120*time.Second), h.expiresAt(id))
}

func TestMiddleware_AutoRegenerate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TTL = 120 * time.Second
	cfg.Regenerate = true
	h := newHarness(t, cfg)

	oldID, c := h.create("alice")

	var seen string
	rec := h.do(c, func(w http.ResponseWriter, r *http.Request) {
		st := FromContext(r.Context())
		assert.True(t, st.Status())
		seen = st.ID()
	})

	assert.NotEqual(t, oldID, seen)
	fresh := lastCookie(rec, "id")
	require.NotNil(t, fresh)
	assert.Equal(t, seen, fresh.Value)
	assert.False(t, h.lookup(c).Status())
}

func TestMiddleware_NoStore(t *testing.T) {
	m, err := NewManager(DefaultConfig())
	require.NoError(t, err)

	called := false
	rec := httptest.NewRecorder()
	m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, domain.ErrStoreNotAttached.Code, rec.Header().Get("X-Error-Code"))
}

func TestOperations_NoStore(t *testing.T) {
	m, err := NewManager(DefaultConfig())
	require.NoError(t, err)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err = m.Create(w, r, []byte("v"))
	assert.ErrorIs(t, err, domain.ErrStoreNotAttached)
	_, err = m.Delete(w, r)
	assert.ErrorIs(t, err, domain.ErrStoreNotAttached)
}

// failingStore fails every read.
type failingStore struct{ storage.Store }

func (failingStore) Get(context.Context, storage.Key) ([]byte, bool, error) {
	return nil, false, domain.ErrStoreUnavailable.WithCause(errors.New("connection refused"))
}

func TestMiddleware_StoreFailure(t *testing.T) {
	m, err := NewManager(DefaultConfig())
	require.NoError(t, err)
	mem := memory.New()
	defer mem.Close()

	req := httptest.NewRequest(http.MethodGet, "https://"+testHost+"/", nil)
	req.AddCookie(&http.Cookie{Name: "id", Value: "abc"})
	rec := httptest.NewRecorder()
	storage.Middleware(failingStore{mem})(m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not run")
	}))).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, domain.ErrStoreUnavailable.Code, rec.Header().Get("X-Error-Code"))
}

// unknownStore reports a backend kind the engine does not support.
type unknownStore struct{ storage.Store }

func (unknownStore) Kind() storage.Kind { return "cloudflare" }

func TestUnsupportedBackend(t *testing.T) {
	m, err := NewManager(noRenew())
	require.NoError(t, err)
	mem := memory.New()
	defer mem.Close()
	store := unknownStore{mem}

	var createErr, deleteErr error
	req := httptest.NewRequest(http.MethodGet, "https://"+testHost+"/", nil)
	storage.Middleware(store)(m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, createErr = m.Create(w, r, []byte("v"))
		_, deleteErr = m.Delete(w, r)
	}))).ServeHTTP(httptest.NewRecorder(), req)

	assert.ErrorIs(t, createErr, domain.ErrUnsupportedBackend)
	assert.ErrorIs(t, deleteErr, domain.ErrUnsupportedBackend)
	assert.Equal(t, http.StatusInternalServerError, domain.HTTPStatus(createErr))
}

func TestUUIDFormat(t *testing.T) {
	cfg := noRenew()
	cfg.IDFormat = IDFormatUUID
	h := newHarness(t, cfg)

	id, _ := h.create("v")
	assert.Len(t, id, 36)
	assert.Equal(t, 4, strings.Count(id, "-"))
}

func TestCustomCookieName(t *testing.T) {
	cfg := noRenew()
	cfg.Name = "sid"
	h := newHarness(t, cfg)

	_, c := h.create("v")
	assert.Equal(t, "sid", c.Name)
	assert.True(t, h.lookup(c).Status())
	assert.False(t, h.lookup(&http.Cookie{Name: "id", Value: c.Value}).Status())
}

type recorderStub struct {
	mu  sync.Mutex
	ops []string
}

func (r *recorderStub) SessionOp(op, result string) {
	r.mu.Lock()
	r.ops = append(r.ops, op+"/"+result)
	r.mu.Unlock()
}
func (r *recorderStub) RenewalStarted()       {}
func (r *recorderStub) RenewalFinished(error) {}

func TestRecorder(t *testing.T) {
	rs := &recorderStub{}
	h := newHarness(t, noRenew(), WithRecorder(rs))

	_, c := h.create("v")
	h.lookup(c)

	assert.Contains(t, rs.ops, "lookup/miss")
	assert.Contains(t, rs.ops, "create/ok")
	assert.Contains(t, rs.ops, "lookup/ok")
}

func TestDenyAccess(t *testing.T) {
	h := newHarness(t, noRenew())
	_, c := h.create("alice")

	gate := func(opts ...DenyOption) func(*http.Cookie) *httptest.ResponseRecorder {
		return func(cookie *http.Cookie) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "https://"+testHost+"/me", nil)
			if cookie != nil {
				req.AddCookie(cookie)
			}
			rec := httptest.NewRecorder()
			app := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, "welcome")
			})
			storage.Middleware(h.store)(h.m.Middleware(h.m.DenyAccess(opts...)(app))).ServeHTTP(rec, req)
			return rec
		}
	}

	t.Run("default json", func(t *testing.T) {
		rec := gate()(nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"status":false,"message":"Invalid session"}`, rec.Body.String())
	})

	t.Run("text", func(t *testing.T) {
		rec := gate(DenyType(DenyText), DenyStatus(http.StatusForbidden))(nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Invalid session", rec.Body.String())
	})

	t.Run("custom body", func(t *testing.T) {
		rec := gate(DenyBody(map[string]string{"error": "login required"}))(nil)
		assert.JSONEq(t, `{"error":"login required"}`, rec.Body.String())
	})

	t.Run("active passes", func(t *testing.T) {
		rec := gate()(c)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "welcome", rec.Body.String())
	})
}

func TestDenyAccess_NoMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	DenyAccess()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not run")
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWait_Timeout(t *testing.T) {
	m, err := NewManager(DefaultConfig())
	require.NoError(t, err)
	m.renewals.Add(1)
	defer m.renewals.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Wait(ctx), context.DeadlineExceeded)
}

// slowStore delays every write so a detached renewal is still in flight
// when the handler runs.
type slowStore struct {
	storage.Store
	delay time.Duration
}

func (s slowStore) Set(ctx context.Context, key storage.Key, value []byte, ttl time.Duration) error {
	time.Sleep(s.delay)
	return s.Store.Set(ctx, key, value, ttl)
}

func autoRenew() Config {
	cfg := DefaultConfig()
	cfg.TTL = 120 * time.Second
	return cfg
}

func TestDelete_WithAutoRenew(t *testing.T) {
	for _, delay := range []time.Duration{0, 5 * time.Millisecond} {
		t.Run(delay.String(), func(t *testing.T) {
			h := newHarness(t, autoRenew())
			h.store = slowStore{Store: h.store, delay: delay}

			for i := 0; i < 20; i++ {
				_, c := h.create("alice")
				// an earlier request leaves its renewal in flight
				h.do(c, func(http.ResponseWriter, *http.Request) {})
				h.do(c, func(w http.ResponseWriter, r *http.Request) {
					_, err := h.m.Delete(w, r)
					require.NoError(t, err)
				})
			}
			require.NoError(t, h.m.Wait(context.Background()))

			assert.Equal(t, 0, h.mem.Len(), "deleted sessions must stay deleted")
		})
	}
}

func TestRegenerate_WithAutoRenew(t *testing.T) {
	h := newHarness(t, autoRenew())
	h.store = slowStore{Store: h.store, delay: 5 * time.Millisecond}

	oldID, c := h.create("alice")

	var newID string
	h.do(c, func(w http.ResponseWriter, r *http.Request) {
		var err error
		newID, err = h.m.Regenerate(w, r)
		require.NoError(t, err)
	})
	require.NoError(t, h.m.Wait(context.Background()))

	_, found, err := h.mem.Get(context.Background(), storage.SessionKey(testHost, oldID))
	require.NoError(t, err)
	assert.False(t, found, "old identifier must be gone")

	_, found, err = h.mem.Get(context.Background(), storage.SessionKey(testHost, newID))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, h.mem.Len())
}

func TestRenew_WithAutoRenew(t *testing.T) {
	h := newHarness(t, autoRenew())
	h.store = slowStore{Store: h.store, delay: 5 * time.Millisecond}

	id, c := h.create("alice")
	h.clock.Advance(30 * time.Second)

	h.do(c, func(w http.ResponseWriter, r *http.Request) {
		ok, err := h.m.Renew(w, r)
		require.NoError(t, err)
		assert.True(t, ok)
	})
	require.NoError(t, h.m.Wait(context.Background()))

	assert.Equal(t, h.clock.Now().Add(120*time.Second), h.expiresAt(id))
	assert.Equal(t, 1, h.mem.Len())
}

func TestCreate_SameIDWithAutoRenew(t *testing.T) {
	h := newHarness(t, autoRenew())
	h.store = slowStore{Store: h.store, delay: 5 * time.Millisecond}

	id, c := h.create("alice")
	h.do(c, func(w http.ResponseWriter, r *http.Request) {
		_, err := h.m.Create(w, r, []byte("bob"), WithSessionID(id))
		require.NoError(t, err)
	})
	require.NoError(t, h.m.Wait(context.Background()))

	value, found, err := h.mem.Get(context.Background(), storage.SessionKey(testHost, id))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "bob", string(value), "renewal must not overwrite the new value")
}

func TestWait_RenewsInlineAfterDrain(t *testing.T) {
	h := newHarness(t, autoRenew())
	id, c := h.create("alice")
	require.NoError(t, h.m.Wait(context.Background()))

	h.clock.Advance(100 * time.Second)
	h.do(c, func(http.ResponseWriter, *http.Request) {})

	assert.Equal(t, h.clock.Now().Add(120*time.Second), h.expiresAt(id))
}

func TestCreate_RejectsColonInID(t *testing.T) {
	h := newHarness(t, noRenew())
	h.do(nil, func(w http.ResponseWriter, r *http.Request) {
		_, err := h.m.Create(w, r, []byte("v"), WithSessionID("a:b"))
		assert.ErrorIs(t, err, domain.ErrInvalidKey)
	})
	assert.Equal(t, 0, h.mem.Len())
}

func TestDelete_UnstorableCookieID(t *testing.T) {
	h := newHarness(t, noRenew())
	rec := h.do(&http.Cookie{Name: "id", Value: "a:b"}, func(w http.ResponseWriter, r *http.Request) {
		ok, err := h.m.Delete(w, r)
		require.NoError(t, err)
		assert.True(t, ok)
	})
	assert.NotNil(t, lastCookie(rec, "id"), "cookie should be cleared")
}
