package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"golang.org/x/crypto/bcrypt"

	"github.com/hellavor/careers-api/internal/auth"
	"github.com/hellavor/careers-api/internal/models"
	"github.com/hellavor/careers-api/internal/monitoring"
	"github.com/hellavor/careers-api/internal/services"
	"github.com/hellavor/careers-api/internal/services/memstore"
	"github.com/hellavor/careers-api/internal/websocket"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

type fakeReadiness struct{ status monitoring.Status }

func (p fakeReadiness) Status() monitoring.Status { return p.status }

type brokenRepo struct{}

func (brokenRepo) Insert(context.Context, models.JobApplication) (models.JobApplication, error) {
	return models.JobApplication{}, fmt.Errorf("insert application: %w: disk I/O error", services.ErrUnavailable)
}

func (brokenRepo) ListAll(context.Context) ([]models.JobApplication, error) {
	return nil, fmt.Errorf("list applications: %w: disk I/O error at /var/lib/careers.db", services.ErrUnavailable)
}

type fixture struct {
	router http.Handler
	clock  *testClock
	repo   *memstore.ApplicationRepository
	hub    *websocket.Hub
}

type fixtureOption func(*Deps)

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	hasher, err := auth.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	hash, err := hasher.Hash("password")
	require.NoError(t, err)

	clock := &testClock{t: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
	issuer, err := auth.NewIssuer([]byte("router-test-secret"), auth.DefaultTTL, auth.WithClock(clock.Now))
	require.NoError(t, err)

	store := services.NewStaticCredentialStore([]models.AdminIdentity{{Username: "admin", PasswordHash: hash}})
	repo := memstore.NewApplicationRepository()
	hub := websocket.NewHub()

	d := Deps{
		AuthService:        services.NewAuthService(store, hasher, issuer, time.Second),
		ApplicationService: services.NewApplicationService(repo, hub, time.Second),
		Jobs: services.NewJobCatalog([]models.Job{
			{ID: 2, Title: "Backend Developer", Location: "Remote", Type: "Full-time"},
			{ID: 1, Title: "Frontend Developer", Location: "Remote", Type: "Full-time"},
		}),
		Issuer:             issuer,
		Hub:                hub,
		Readiness:          fakeReadiness{status: monitoring.Status{Healthy: true, CheckedAt: clock.t}},
		AllowedOrigins:     []string{"http://localhost:3000"},
		LoginRatePerMinute: 100,
		StartedAt:          clock.t,
	}
	for _, opt := range opts {
		opt(&d)
	}

	return &fixture{router: NewRouter(d), clock: clock, repo: repo, hub: hub}
}

func (f *fixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) login(t *testing.T) string {
	t.Helper()
	rec := f.do(http.MethodPost, "/api/admin/login", `{"username":"admin","password":"password"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := gjson.Get(rec.Body.String(), "token").String()
	require.NotEmpty(t, token)
	return token
}

func TestLoginThenListWithinAndAfterTTL(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/admin/login", `{"username":"admin","password":"password"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, gjson.Get(body, "success").Bool())
	assert.Equal(t, "Login successful", gjson.Get(body, "message").String())
	token := gjson.Get(body, "token").String()
	require.NotEmpty(t, token)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.TokenCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	rec = f.do(http.MethodGet, "/api/jobs/applications", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gjson.Parse(rec.Body.String()).IsArray())

	f.clock.t = f.clock.t.Add(auth.DefaultTTL)
	rec = f.do(http.MethodGet, "/api/jobs/applications", "", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, gjson.Get(rec.Body.String(), "success").Bool())
}

func TestLoginFailuresLookIdentical(t *testing.T) {
	f := newFixture(t)

	wrongPassword := f.do(http.MethodPost, "/api/admin/login", `{"username":"admin","password":"nope"}`, "")
	unknownUser := f.do(http.MethodPost, "/api/admin/login", `{"username":"ghost","password":"password"}`, "")

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
	assert.Equal(t, "Invalid username or password", gjson.Get(unknownUser.Body.String(), "message").String())
	assert.Empty(t, unknownUser.Result().Cookies())
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/admin/login", `{"username":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, gjson.Get(rec.Body.String(), "success").Bool())
}

func TestLoginRateLimited(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.LoginRatePerMinute = 2 })

	for i := 0; i < 2; i++ {
		rec := f.do(http.MethodPost, "/api/admin/login", `{"username":"admin","password":"nope"}`, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := f.do(http.MethodPost, "/api/admin/login", `{"username":"admin","password":"password"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, gjson.Get(rec.Body.String(), "success").Bool())
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Other routes are not limited.
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/jobs", "", "").Code)
}

func (f *fixture) loginFrom(remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"username":"admin","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec.Code
}

func TestLoginRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.LoginRatePerMinute = 2 })

	limited := 0
	for i := 0; i < 20; i++ {
		if f.loginFrom("203.0.113.9:40000", fmt.Sprintf("198.51.100.%d", i+1)) == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Equal(t, 18, limited)
}

func TestLoginRateLimitBehindTrustedProxy(t *testing.T) {
	f := newFixture(t, func(d *Deps) {
		d.LoginRatePerMinute = 2
		d.TrustedProxies = []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	})
	proxy := "10.1.2.3:5000"

	// Distinct clients behind the proxy each get their own budget.
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusUnauthorized, f.loginFrom(proxy, fmt.Sprintf("198.51.100.%d", i+1)))
	}

	// A client prepending forged hops is still keyed on the hop the proxy saw.
	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusUnauthorized, f.loginFrom(proxy, fmt.Sprintf("1.1.1.%d, 203.0.113.50", i+1)))
	}
	assert.Equal(t, http.StatusTooManyRequests, f.loginFrom(proxy, "9.9.9.9, 203.0.113.50"))
}

func TestSubmitThenList(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/jobs/apply",
		`{"jobId":1,"name":"Ann","email":"ann@x.com","coverLetter":"I would love this role"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, gjson.Get(rec.Body.String(), "success").Bool())
	assert.Equal(t, "Application submitted successfully!", gjson.Get(rec.Body.String(), "message").String())

	rec = f.do(http.MethodGet, "/api/jobs/applications", "", f.login(t))
	require.Equal(t, http.StatusOK, rec.Code)

	list := gjson.Parse(rec.Body.String()).Array()
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].Get("jobId").Int())
	assert.Equal(t, "Ann", list[0].Get("name").String())
	assert.Equal(t, "ann@x.com", list[0].Get("email").String())
	assert.Equal(t, "I would love this role", list[0].Get("coverLetter").String())
	assert.NotEmpty(t, list[0].Get("id").String())
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)

	cases := map[string]string{
		"empty name":       `{"jobId":1,"name":"","email":"ann@x.com","coverLetter":"hi"}`,
		"whitespace name":  `{"jobId":1,"name":"   ","email":"ann@x.com","coverLetter":"hi"}`,
		"missing letter":   `{"jobId":1,"name":"Ann","email":"ann@x.com"}`,
		"bad email":        `{"jobId":1,"name":"Ann","email":"ann-at-x","coverLetter":"hi"}`,
		"missing job":      `{"name":"Ann","email":"ann@x.com","coverLetter":"hi"}`,
		"job id as string": `{"jobId":"one","name":"Ann","email":"ann@x.com","coverLetter":"hi"}`,
		"not json":         `name=Ann`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/jobs/apply", body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, gjson.Get(rec.Body.String(), "success").Bool())
			assert.NotEmpty(t, gjson.Get(rec.Body.String(), "message").String())
		})
	}
	assert.Equal(t, 0, f.repo.Len())

	rec := f.do(http.MethodPost, "/api/jobs/apply", `{"jobId":1,"name":" ","email":"ann@x.com","coverLetter":"hi"}`, "")
	assert.Equal(t, "All fields are required", gjson.Get(rec.Body.String(), "message").String())

	rec = f.do(http.MethodPost, "/api/jobs/apply", `{"jobId":1,"name":"Ann","email":"ann-at-x","coverLetter":"hi"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please enter a valid email address.", gjson.Get(rec.Body.String(), "message").String())
}

func TestListRequiresToken(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/jobs/applications", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/jobs/applications", "", "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/admin/me", "", "").Code)
}

func TestStoreFailureIsOpaque(t *testing.T) {
	f := newFixture(t, func(d *Deps) {
		d.ApplicationService = services.NewApplicationService(brokenRepo{}, nil, time.Second)
	})
	token := f.login(t)

	rec := f.do(http.MethodGet, "/api/jobs/applications", "", token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to fetch applications", gjson.Get(rec.Body.String(), "message").String())
	assert.NotContains(t, rec.Body.String(), "disk")
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))

	rec = f.do(http.MethodPost, "/api/jobs/apply", `{"jobId":1,"name":"Ann","email":"ann@x.com","coverLetter":"hi"}`, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, gjson.Get(rec.Body.String(), "success").Bool())
	assert.NotContains(t, rec.Body.String(), "disk")
}

func TestMe(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/admin/me", "", f.login(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", gjson.Get(rec.Body.String(), "username").String())
}

func TestJobCatalog(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/jobs", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	jobs := gjson.Parse(rec.Body.String()).Array()
	require.Len(t, jobs, 2)
	assert.Equal(t, "Frontend Developer", jobs[0].Get("title").String())

	rec = f.do(http.MethodGet, "/api/jobs/2", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Backend Developer", gjson.Get(rec.Body.String(), "title").String())

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/jobs/9", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/jobs/abc", "", "").Code)
}

func TestHealthReadyAndMetrics(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", gjson.Get(rec.Body.String(), "status").String())

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/ready", "", "").Code)

	rec = f.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "careers_http_requests_total")

	notReady := newFixture(t, func(d *Deps) { d.Readiness = fakeReadiness{} })
	rec = notReady.do(http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, gjson.Get(rec.Body.String(), "ready").Bool())
}

func TestSecurityHeaders(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/jobs", "", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestLiveFeed(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.hub.Run(ctx)

	srv := httptest.NewServer(f.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/admin/ws"

	_, resp, err := gws.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+f.login(t))
	conn, _, err := gws.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	// Registration is asynchronous; submit until the event arrives.
	received := make(chan []byte, 1)
	go func() {
		_, msg, err := conn.ReadMessage()
		if err == nil {
			received <- msg
		}
	}()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case msg := <-received:
			assert.Equal(t, websocket.ActionApplicationCreated, gjson.GetBytes(msg, "action").String())
			assert.Equal(t, "Ann", gjson.GetBytes(msg, "payload.name").String())
			return
		case <-tick.C:
			rec := f.do(http.MethodPost, "/api/jobs/apply",
				`{"jobId":1,"name":"Ann","email":"ann@x.com","coverLetter":"hi"}`, "")
			require.Equal(t, http.StatusOK, rec.Code)
		case <-deadline:
			t.Fatal("no live feed event received")
		}
	}
}
