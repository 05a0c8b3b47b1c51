package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"snapbooth/site/internal/domain"
	"snapbooth/site/internal/notify"
	"snapbooth/site/internal/repository"
	"snapbooth/site/internal/service"
	"snapbooth/site/internal/session"
	"snapbooth/site/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const testMaxFileSize = 4 << 10

// --- fakes ---

type memJournal struct {
	mu      sync.Mutex
	entries []domain.NotificationEntry
}

func (j *memJournal) Record(_ context.Context, e domain.NotificationEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

func (j *memJournal) ListRecent(context.Context, int) ([]domain.NotificationEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]domain.NotificationEntry(nil), j.entries...), nil
}

type memIntakeRepo struct {
	mu   sync.Mutex
	subs []domain.IntakeSubmission
}

func (r *memIntakeRepo) Create(_ context.Context, s *domain.IntakeSubmission) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, *s)
	return s.ID, nil
}

func (r *memIntakeRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.IntakeSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memIntakeRepo) ListRecent(context.Context, int) ([]domain.IntakeSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.IntakeSubmission(nil), r.subs...), nil
}

type memLeadRepo struct {
	mu    sync.Mutex
	leads []domain.Lead
}

func (r *memLeadRepo) Create(_ context.Context, l *domain.Lead) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads = append(r.leads, *l)
	return l.ID, nil
}

func (r *memLeadRepo) ListRecent(context.Context, int) ([]domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Lead(nil), r.leads...), nil
}

// --- fixture ---

type testServer struct {
	router  *gin.Engine
	store   *storage.LocalStore
	journal *memJournal
	intakes *memIntakeRepo
	leads   *memLeadRepo
	bg      *service.Background
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewLocalStore(filepath.Join(t.TempDir(), "uploads"), "/api/uploads/intake", "")
	require.NoError(t, err)
	renderer, err := notify.NewRenderer()
	require.NoError(t, err)

	s := &testServer{
		store:   store,
		journal: &memJournal{},
		intakes: &memIntakeRepo{},
		leads:   &memLeadRepo{},
		bg:      service.NewBackground(time.Second),
	}
	// No relay and no sheet: both sinks run unconfigured.
	dispatcher := notify.NewDispatcher(nil, s.journal)

	intakeSvc := service.NewIntakeService(service.IntakeDeps{
		Store:      store,
		Repo:       s.intakes,
		Notifier:   dispatcher,
		Renderer:   renderer,
		Background: s.bg,
	}, service.IntakeOptions{MaxFileSize: testMaxFileSize, MaxInspiration: 3})
	leadSvc := service.NewLeadService(service.LeadDeps{
		Repo:       s.leads,
		Notifier:   dispatcher,
		Renderer:   renderer,
		Background: s.bg,
	}, "")

	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	require.NoError(t, err)
	authSvc, err := service.NewAuthService(string(hash), "test-secret", time.Hour)
	require.NoError(t, err)

	s.router = gin.New()
	SetupRoutes(s.router, RouterDeps{
		IntakeService:  intakeSvc,
		LeadService:    leadSvc,
		AuthService:    authSvc,
		Uploads:        store,
		Sessions:       session.NewMemoryStore(time.Hour),
		Cookie:         SessionCookie{Name: "booth_sid", TTL: time.Hour},
		Site:           SiteConfig{GTMID: "GTM-TEST", MetaPixelID: "123"},
		IntakeRepo:     s.intakes,
		LeadRepo:       s.leads,
		Notifications:  s.journal,
		MaxFileSize:    testMaxFileSize,
		MaxInspiration: 3,
	})
	return s
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// browser replays the session cookie the way a browser would.
type browser struct {
	s      *testServer
	cookie *http.Cookie
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	w := b.s.do(req)
	for _, c := range w.Result().Cookies() {
		if c.Name == "booth_sid" {
			b.cookie = c
		}
	}
	return w
}

func (b *browser) postJSON(path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return b.do(req)
}

type part struct {
	field, filename string
	data            []byte
}

func multipartRequest(t *testing.T, fields map[string]string, files ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.filename))
		h.Set("Content-Type", "image/png")
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/intake", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func intakeFields() map[string]string {
	return map[string]string{
		"contactName":  "Grace Hopper",
		"contactEmail": "grace@example.com",
		"contactPhone": "555-0199",
		"filterCopy":   "Grace & Co",
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func storedFiles(t *testing.T, root string) []string {
	t.Helper()
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// --- intake ---

func TestIntake_AcceptsSubmissionWithoutSheet(t *testing.T) {
	s := newTestServer(t)

	w := s.do(multipartRequest(t, intakeFields(),
		part{"companyLogo", "logo.png", []byte("logo-bytes")},
		part{"inspirationImage_1", "second.png", []byte("2")},
		part{"inspirationImage_0", "first.png", []byte("1")},
	))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp IntakeResponse
	decode(t, w, &resp)
	assert.True(t, resp.Success)
	require.Len(t, resp.Files, 3)
	assert.True(t, strings.HasSuffix(resp.Files[1], "-first.png"))
	assert.True(t, strings.HasSuffix(resp.Files[2], "-second.png"))

	require.NoError(t, s.bg.Wait(context.Background()))
	require.Len(t, s.intakes.subs, 1)
	assert.Equal(t, "Grace Hopper", s.intakes.subs[0].ContactName)
	// The relay is not configured, so the notification lands in the journal.
	require.Len(t, s.journal.entries, 1)
	assert.Equal(t, notify.ReasonUnconfigured, s.journal.entries[0].Reason)
}

func TestIntake_OversizeLogoRejected(t *testing.T) {
	s := newTestServer(t)

	w := s.do(multipartRequest(t, intakeFields(),
		part{"companyLogo", "huge.png", bytes.Repeat([]byte("x"), testMaxFileSize+1)},
	))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Empty(t, storedFiles(t, s.store.Root()))
	assert.Empty(t, s.intakes.subs)
}

func TestIntake_MissingFieldsListed(t *testing.T) {
	s := newTestServer(t)

	w := s.do(multipartRequest(t, map[string]string{"filterCopy": "x"}))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Details []service.ValidationError `json:"details"`
	}
	decode(t, w, &resp)
	var fields []string
	for _, d := range resp.Details {
		fields = append(fields, d.Field)
	}
	assert.Contains(t, fields, "contactName")
	assert.Contains(t, fields, "contactEmail")
	assert.Empty(t, storedFiles(t, s.store.Root()))
}

func TestIntake_RejectsMalformedRequests(t *testing.T) {
	s := newTestServer(t)

	t.Run("two logos", func(t *testing.T) {
		w := s.do(multipartRequest(t, intakeFields(),
			part{"companyLogo", "a.png", []byte("a")},
			part{"companyLogo", "b.png", []byte("b")},
		))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad inspiration index", func(t *testing.T) {
		w := s.do(multipartRequest(t, intakeFields(), part{"inspirationImage_x", "a.png", []byte("a")}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/intake", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		assert.Equal(t, http.StatusBadRequest, s.do(req).Code)
	})

	assert.Empty(t, storedFiles(t, s.store.Root()))
}

func TestIntake_ConcurrentSameFileName(t *testing.T) {
	s := newTestServer(t)

	reqs := make([]*http.Request, 2)
	for i := range reqs {
		reqs[i] = multipartRequest(t, intakeFields(), part{"companyLogo", "logo.png", []byte(fmt.Sprintf("logo-%d", i))})
	}

	var wg sync.WaitGroup
	links := make([]string, len(reqs))
	for i := range reqs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := s.do(reqs[i])
			if w.Code != http.StatusOK {
				return
			}
			var resp IntakeResponse
			if json.Unmarshal(w.Body.Bytes(), &resp) == nil && len(resp.Files) == 1 {
				links[i] = resp.Files[0]
			}
		}(i)
	}
	wg.Wait()

	require.NotEmpty(t, links[0])
	require.NotEmpty(t, links[1])
	assert.NotEqual(t, links[0], links[1])
	assert.Len(t, storedFiles(t, s.store.Root()), 2)

	bodies := map[string]bool{}
	for _, link := range links {
		w := s.do(httptest.NewRequest(http.MethodGet, link, nil))
		require.Equal(t, http.StatusOK, w.Code)
		bodies[w.Body.String()] = true
	}
	assert.Equal(t, map[string]bool{"logo-0": true, "logo-1": true}, bodies)
}

func TestIntake_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w := s.do(httptest.NewRequest(method, "/api/intake", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
	}
}

// --- uploads ---

func TestUploads_Serve(t *testing.T) {
	s := newTestServer(t)
	f, err := s.store.Save(context.Background(), "photo.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)

	w := s.do(httptest.NewRequest(http.MethodGet, f.PublicPath, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg-bytes", w.Body.String())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, storage.CacheControl, w.Header().Get("Cache-Control"))
	assert.Equal(t, "10", w.Header().Get("Content-Length"))
}

func TestUploads_Errors(t *testing.T) {
	s := newTestServer(t)
	secret := filepath.Join(filepath.Dir(s.store.Root()), "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("nope"), 0o600))

	tests := []struct {
		name string
		path string
		code int
	}{
		{"missing", "/api/uploads/intake/nothing-here.png", http.StatusNotFound},
		{"traversal", "/api/uploads/intake/..%2Fsecret.txt", http.StatusForbidden},
		{"nested", "/api/uploads/intake/a/b.png", http.StatusBadRequest},
		{"empty", "/api/uploads/intake/", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.NotContains(t, w.Body.String(), "nope")
		})
	}
}

// --- leads and attribution ---

func TestAttribution_RetainedAcrossRequests(t *testing.T) {
	s := newTestServer(t)
	b := &browser{s: s}

	w := b.do(httptest.NewRequest(http.MethodGet, "/api/attribution?utm_source=instagram&utm_campaign=spring&ignored=1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, b.cookie)

	w = b.do(httptest.NewRequest(http.MethodGet, "/api/attribution", nil))
	var resp struct {
		Attribution domain.AttributionSnapshot `json:"attribution"`
	}
	decode(t, w, &resp)
	assert.Equal(t, domain.AttributionSnapshot{"utm_source": "instagram", "utm_campaign": "spring"}, resp.Attribution)

	w = b.postJSON("/api/leads", map[string]any{"source": "contact", "name": "Sam", "email": "sam@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, s.leads.leads, 1)
	assert.Equal(t, "instagram", s.leads.leads[0].Attribution["utm_source"])

	// A fresh visitor has nothing stored.
	w = s.do(httptest.NewRequest(http.MethodGet, "/api/attribution", nil))
	var fresh struct {
		Attribution domain.AttributionSnapshot `json:"attribution"`
	}
	decode(t, w, &fresh)
	assert.Empty(t, fresh.Attribution)
}

func TestLeads_FormEncodedAndValidation(t *testing.T) {
	s := newTestServer(t)

	form := "source=packages&full-name=Lee+Chan&phone-number=555-0111&packageName=Gold&eventType=Corporate"
	req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, s.leads.leads, 1)
	assert.Equal(t, "Lee Chan", s.leads.leads[0].Name)
	assert.Equal(t, domain.EventCorporate, s.leads.leads[0].EventType)

	w = (&browser{s: s}).postJSON("/api/leads", map[string]any{"source": "contact", "name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = (&browser{s: s}).postJSON("/api/leads", map[string]any{"name": "x", "email": "x@example.com", "nested": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, s.leads.leads, 1)
}

func TestLeads_Multipart(t *testing.T) {
	s := newTestServer(t)

	build := func(fields [][2]string) *http.Request {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		for _, f := range fields {
			require.NoError(t, mw.WriteField(f[0], f[1]))
		}
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/leads", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req
	}

	w := s.do(build([][2]string{
		{"source", "wedding"},
		{"full-name", "Jane Doe"},
		{"_replyto", "jane@example.com"},
		{"phone", "4165551234"},
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, s.leads.leads, 1)
	lead := s.leads.leads[0]
	assert.Equal(t, domain.SourceWedding, lead.Source)
	assert.Equal(t, "Jane Doe", lead.Name)
	assert.Equal(t, "jane@example.com", lead.Email)
	assert.Equal(t, "4165551234", lead.Phone)

	w = s.do(build([][2]string{{"full-name", "Jane Doe"}, {"phone", "1"}, {"phone", "2"}}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, s.leads.leads, 1)
}

func TestLeads_JSONNumbersKeepTheirDigits(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/leads",
		strings.NewReader(`{"name":"Jane Doe","phone":4165551234,"guests":120.5,"newsletter":true}`))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Len(t, s.leads.leads, 1)
	assert.Equal(t, "4165551234", s.leads.leads[0].Phone)
	assert.Equal(t, map[string]string{"guests": "120.5", "newsletter": "true"}, s.leads.leads[0].Extra)
}

// --- wizard ---

func TestWizard_EndToEnd(t *testing.T) {
	s := newTestServer(t)
	b := &browser{s: s}

	w := b.do(httptest.NewRequest(http.MethodGet, "/api/wizard?utm_source=google", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var view WizardView
	decode(t, w, &view)
	require.NotNil(t, view.Current)
	assert.Equal(t, "name", view.Current.Key)

	// Empty answers do not advance.
	w = b.postJSON("/api/wizard/answer", map[string]string{"value": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, answer := range []string{"Jane Doe", "4165551234", "wedding"} {
		w = b.postJSON("/api/wizard/answer", map[string]string{"value": answer})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w = b.postJSON("/api/wizard/date", map[string]string{"date": "2025-06-01"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Sending before review is a conflict.
	w = b.postJSON("/api/wizard/send", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = b.postJSON("/api/wizard/answer", map[string]string{"value": "$1500 - $2000"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &view)
	assert.True(t, view.Review)
	assert.Len(t, view.Answers, 5)
	assert.Equal(t, "2025-06-01", view.Answers["eventDate"])

	w = b.postJSON("/api/wizard/send", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &view)
	assert.True(t, view.Sent)

	require.Len(t, s.leads.leads, 1)
	lead := s.leads.leads[0]
	assert.Equal(t, domain.SourceWizard, lead.Source)
	assert.Equal(t, "Jane Doe", lead.Name)
	assert.Equal(t, "4165551234", lead.Phone)
	assert.Equal(t, "2025-06-01", lead.EventDate)
	assert.Equal(t, "wedding", lead.EventType)
	assert.Equal(t, "$1500-$2000", lead.Budget)
	assert.Equal(t, "google", lead.Attribution["utm_source"])

	// A second send is refused and no duplicate lead is written.
	w = b.postJSON("/api/wizard/send", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Len(t, s.leads.leads, 1)

	w = b.postJSON("/api/wizard/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &view)
	assert.False(t, view.Sent)
	assert.Equal(t, 0, view.Index)
}

func TestWizard_ConcurrentSendsSubmitOnce(t *testing.T) {
	s := newTestServer(t)
	b := &browser{s: s}

	for _, answer := range []string{"Jane Doe", "4165551234", "wedding"} {
		require.Equal(t, http.StatusOK, b.postJSON("/api/wizard/answer", map[string]string{"value": answer}).Code)
	}
	require.Equal(t, http.StatusOK, b.postJSON("/api/wizard/date", map[string]string{"date": "2025-06-01"}).Code)
	require.Equal(t, http.StatusOK, b.postJSON("/api/wizard/answer", map[string]string{"value": "$2000+"}).Code)

	const senders = 8
	reqs := make([]*http.Request, senders)
	for i := range reqs {
		reqs[i] = httptest.NewRequest(http.MethodPost, "/api/wizard/send", nil)
		reqs[i].AddCookie(b.cookie)
	}

	codes := make([]int, senders)
	var wg sync.WaitGroup
	for i := range reqs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = s.do(reqs[i]).Code
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, code := range codes {
		if code == http.StatusOK {
			ok++
		} else {
			assert.Equal(t, http.StatusConflict, code)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, s.leads.leads, 1)
}

// --- site config and admin ---

func TestSiteConfig(t *testing.T) {
	s := newTestServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/api/site-config", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"gtmId":"GTM-TEST","metaPixelId":"123"}`, w.Body.String())
}

func TestAdmin_LoginAndList(t *testing.T) {
	s := newTestServer(t)
	b := &browser{s: s}
	require.Equal(t, http.StatusOK, b.postJSON("/api/leads", map[string]any{"name": "Kim", "email": "kim@example.com"}).Code)

	w := b.postJSON("/api/admin/login", map[string]string{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/admin/leads", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = b.postJSON("/api/admin/login", map[string]string{"password": "letmein"})
	require.Equal(t, http.StatusOK, w.Code)
	var login LoginResponse
	decode(t, w, &login)
	require.NotEmpty(t, login.Token)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/leads?limit=10", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w = s.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Items []domain.Lead `json:"items"`
		Count int           `json:"count"`
	}
	decode(t, w, &list)
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, "Kim", list.Items[0].Name)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/intake/not-an-id", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	assert.Equal(t, http.StatusBadRequest, s.do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/intake/"+primitive.NewObjectID().Hex(), nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	assert.Equal(t, http.StatusNotFound, s.do(req).Code)
}
