package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"snapbooth/site/internal/domain"
	"snapbooth/site/internal/notify"
	"snapbooth/site/internal/storage"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// --- fakes ---

type fakeSheet struct {
	mu     sync.Mutex
	ranges []string
	rows   [][]string
	err    error
}

func (f *fakeSheet) Append(_ context.Context, rangeA1 string, row []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.ranges = append(f.ranges, rangeA1)
	f.rows = append(f.rows, row)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (f *fakeNotifier) Notify(_ context.Context, n domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return nil
}

type fakeTelemetry struct {
	mu     sync.Mutex
	events []string
	attrs  []map[string]string
}

func (f *fakeTelemetry) Init(context.Context) error { return nil }

func (f *fakeTelemetry) Track(_ context.Context, event string, attrs map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	f.attrs = append(f.attrs, attrs)
}

type fakeIntakeRepo struct {
	mu      sync.Mutex
	created []*domain.IntakeSubmission
	err     error
}

func (f *fakeIntakeRepo) Create(_ context.Context, s *domain.IntakeSubmission) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return primitive.NilObjectID, f.err
	}
	f.created = append(f.created, s)
	return s.ID, nil
}

func (f *fakeIntakeRepo) GetByID(context.Context, primitive.ObjectID) (*domain.IntakeSubmission, error) {
	return nil, nil
}

func (f *fakeIntakeRepo) ListRecent(context.Context, int) ([]domain.IntakeSubmission, error) {
	return nil, nil
}

type fakeLeadRepo struct {
	created []*domain.Lead
	err     error
}

func (f *fakeLeadRepo) Create(_ context.Context, l *domain.Lead) (primitive.ObjectID, error) {
	if f.err != nil {
		return primitive.NilObjectID, f.err
	}
	f.created = append(f.created, l)
	return l.ID, nil
}

func (f *fakeLeadRepo) ListRecent(context.Context, int) ([]domain.Lead, error) { return nil, nil }

type fakeMirror struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (f *fakeMirror) Mirror(_ context.Context, file domain.StoredFile, localPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := os.Stat(localPath); err != nil {
		return err
	}
	f.names = append(f.names, file.StorageName)
	return f.err
}

func memFile(field, name string, body []byte) IntakeFile {
	return IntakeFile{
		Field:       field,
		Name:        name,
		ContentType: "image/png",
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		},
	}
}

type intakeFixture struct {
	svc      IntakeService
	store    *storage.LocalStore
	sheet    *fakeSheet
	repo     *fakeIntakeRepo
	notifier *fakeNotifier
	tele     *fakeTelemetry
	mirror   *fakeMirror
	bg       *Background
}

func newIntakeFixture(t *testing.T) *intakeFixture {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir(), "/api/uploads/intake", "https://booth.example.com")
	require.NoError(t, err)
	renderer, err := notify.NewRenderer()
	require.NoError(t, err)

	f := &intakeFixture{
		store:    store,
		sheet:    &fakeSheet{},
		repo:     &fakeIntakeRepo{},
		notifier: &fakeNotifier{},
		tele:     &fakeTelemetry{},
		mirror:   &fakeMirror{},
		bg:       NewBackground(time.Second),
	}
	f.svc = NewIntakeService(IntakeDeps{
		Store:      store,
		Mirror:     f.mirror,
		Sheet:      f.sheet,
		Repo:       f.repo,
		Notifier:   f.notifier,
		Renderer:   renderer,
		Telemetry:  f.tele,
		Background: f.bg,
	}, IntakeOptions{MaxFileSize: 1 << 10, MaxInspiration: 3})
	return f
}

func (f *intakeFixture) storedNames(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.store.Root())
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func validIntake() IntakeInput {
	return IntakeInput{
		ContactName:  " Ada Lovelace ",
		ContactEmail: "ada@example.com",
		ContactPhone: "555-0100",
		FilterCopy:   "Ada's 30th",
		RobotTheme:   "retro",
		Attribution:  domain.AttributionSnapshot{"utm_source": "ig"},
	}
}

// --- intake ---

func TestIntakeSubmit_FullPipeline(t *testing.T) {
	f := newIntakeFixture(t)
	in := validIntake()
	logo := memFile("companyLogo", "logo.png", []byte("logo"))
	in.Logo = &logo
	in.Inspiration = []IntakeFile{
		memFile("inspirationImage_0", "a.png", []byte("a")),
		memFile("inspirationImage_1", "b.png", []byte("b")),
	}

	sub, err := f.svc.Submit(context.Background(), in)
	require.NoError(t, err)
	require.NoError(t, f.bg.Wait(context.Background()))

	assert.Equal(t, "Ada Lovelace", sub.ContactName)
	require.NotNil(t, sub.Logo)
	assert.True(t, strings.HasSuffix(sub.Logo.StorageName, "-logo.png"))
	assert.Equal(t, "https://booth.example.com/api/uploads/intake/"+sub.Logo.StorageName, sub.Logo.PublicURL)
	require.Len(t, sub.Inspiration, 2)
	assert.Len(t, f.storedNames(t), 3)
	assert.Len(t, f.mirror.names, 3)

	require.Len(t, f.sheet.rows, 1)
	row := f.sheet.rows[0]
	require.Len(t, row, 11)
	assert.Equal(t, "Intake!A:K", f.sheet.ranges[0])
	assert.Equal(t, sub.Logo.PublicURL, row[4])
	assert.True(t, strings.HasPrefix(row[5], "2 image(s): https://booth.example.com/api/uploads/intake/"))
	assert.Equal(t, "Ada's 30th", row[6])
	assert.Equal(t, "utm_source=ig", row[10])

	require.Len(t, f.repo.created, 1)
	assert.Equal(t, sub.ID, f.repo.created[0].ID)

	require.Len(t, f.notifier.sent, 1)
	n := f.notifier.sent[0]
	assert.Equal(t, domain.NotificationIntake, n.Kind)
	assert.Equal(t, sub.ID.Hex(), n.Reference)
	assert.Equal(t, "ada@example.com", n.ReplyTo)
	assert.Contains(t, n.Body, sub.Inspiration[1].PublicURL)

	assert.Equal(t, []string{"SubmitApplication"}, f.tele.events)
	assert.Equal(t, "ig", f.tele.attrs[0]["utm_source"])
}

func TestIntakeSubmit_MissingRequiredWritesNothing(t *testing.T) {
	for _, field := range []string{"name", "email", "phone"} {
		t.Run(field, func(t *testing.T) {
			f := newIntakeFixture(t)
			in := validIntake()
			switch field {
			case "name":
				in.ContactName = "  "
			case "email":
				in.ContactEmail = ""
			case "phone":
				in.ContactPhone = ""
			}
			logo := memFile("companyLogo", "logo.png", []byte("logo"))
			in.Logo = &logo

			_, err := f.svc.Submit(context.Background(), in)
			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.NoError(t, f.bg.Wait(context.Background()))

			assert.Empty(t, f.storedNames(t))
			assert.Empty(t, f.sheet.rows)
			assert.Empty(t, f.repo.created)
			assert.Empty(t, f.notifier.sent)
		})
	}
}

func TestIntakeValidate_Bounds(t *testing.T) {
	f := newIntakeFixture(t)

	in := validIntake()
	in.RobotTheme = strings.Repeat("é", MaxRobotThemeLen)
	in.VoiceActivation = strings.Repeat("x", MaxVoiceActivationLen)
	assert.NoError(t, f.svc.Validate(in))

	in.RobotTheme += "x"
	in.VoiceActivation += "x"
	in.ContactEmail = "not-an-email"
	in.Inspiration = make([]IntakeFile, 4)
	var verrs ValidationErrors
	require.ErrorAs(t, f.svc.Validate(in), &verrs)
	fields := map[string]bool{}
	for _, e := range verrs {
		fields[e.Field] = true
	}
	assert.Equal(t, map[string]bool{"robotTheme": true, "voiceActivation": true, "contactEmail": true, "inspirationImage": true}, fields)
}

func TestIntakeSubmit_OversizeRejectedBeforeStorage(t *testing.T) {
	f := newIntakeFixture(t)
	in := validIntake()
	big := memFile("companyLogo", "logo.png", bytes.Repeat([]byte("x"), 2<<10))
	in.Logo = &big

	_, err := f.svc.Submit(context.Background(), in)
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Empty(t, f.storedNames(t))
	assert.Empty(t, f.sheet.rows)
}

func TestIntakeSubmit_SinkFailuresAreAbsorbed(t *testing.T) {
	f := newIntakeFixture(t)
	f.sheet.err = errors.New("sheets down")
	f.repo.err = errors.New("mongo down")
	f.mirror.err = errors.New("s3 down")

	in := validIntake()
	in.Inspiration = []IntakeFile{
		memFile("inspirationImage_0", "ok.png", []byte("ok")),
		{Field: "inspirationImage_1", Name: "broken.png", Open: func() (io.ReadCloser, error) {
			return nil, errors.New("transient file vanished")
		}},
	}

	sub, err := f.svc.Submit(context.Background(), in)
	require.NoError(t, err)
	require.NoError(t, f.bg.Wait(context.Background()))

	require.Len(t, sub.Inspiration, 1, "a failed relocation omits only that file")
	assert.Equal(t, "ok.png", sub.Inspiration[0].OriginalName)
	assert.Len(t, f.storedNames(t), 1)
	assert.Len(t, f.notifier.sent, 1)
}

func TestIntakeSubmit_UnconfiguredSheetStillStores(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "/api/uploads/intake", "")
	require.NoError(t, err)
	renderer, err := notify.NewRenderer()
	require.NoError(t, err)
	bg := NewBackground(time.Second)
	journal := &memJournal{}

	svc := NewIntakeService(IntakeDeps{
		Store:      store,
		Notifier:   notify.NewDispatcher(nil, journal),
		Renderer:   renderer,
		Background: bg,
	}, IntakeOptions{})

	in := validIntake()
	in.Inspiration = []IntakeFile{memFile("inspirationImage_0", "a.png", []byte("a"))}
	sub, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)
	require.NoError(t, bg.Wait(context.Background()))

	require.Len(t, sub.Inspiration, 1)
	assert.Equal(t, "/api/uploads/intake/"+sub.Inspiration[0].StorageName, sub.Inspiration[0].Link())
	_, statErr := os.Stat(store.Path(sub.Inspiration[0].StorageName))
	assert.NoError(t, statErr)
	require.Len(t, journal.entries, 1)
	assert.Equal(t, notify.ReasonUnconfigured, journal.entries[0].Reason)
}

func TestIntakeSubmit_ConcurrentSameNames(t *testing.T) {
	f := newIntakeFixture(t)

	var wg sync.WaitGroup
	subs := make([]*domain.IntakeSubmission, 2)
	for i := range subs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := validIntake()
			logo := memFile("companyLogo", "logo.png", []byte{byte(i)})
			in.Logo = &logo
			sub, err := f.svc.Submit(context.Background(), in)
			assert.NoError(t, err)
			subs[i] = sub
		}(i)
	}
	wg.Wait()
	require.NoError(t, f.bg.Wait(context.Background()))

	require.NotNil(t, subs[0])
	require.NotNil(t, subs[1])
	assert.NotEqual(t, subs[0].Logo.StorageName, subs[1].Logo.StorageName)
	for i, sub := range subs {
		p, _, err := f.store.Resolve(sub.Logo.StorageName)
		require.NoError(t, err)
		body, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(i)}, body)
	}
}

func TestInspirationSummary(t *testing.T) {
	assert.Equal(t, "none", InspirationSummary(nil))
	assert.Equal(t, "1 image(s): /x/a.png", InspirationSummary([]domain.StoredFile{{PublicPath: "/x/a.png"}}))
}

type memJournal struct {
	mu      sync.Mutex
	entries []domain.NotificationEntry
}

func (m *memJournal) Record(_ context.Context, e domain.NotificationEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// --- leads ---

func newLeadService(t *testing.T, repo *fakeLeadRepo, sheet *fakeSheet, n *fakeNotifier, tele *fakeTelemetry) (LeadService, *Background) {
	t.Helper()
	renderer, err := notify.NewRenderer()
	require.NoError(t, err)
	bg := NewBackground(time.Second)
	deps := LeadDeps{Sheet: sheet, Notifier: n, Renderer: renderer, Telemetry: tele, Background: bg}
	if repo != nil {
		deps.Repo = repo
	}
	return NewLeadService(deps, ""), bg
}

func TestLeadInputFromFields(t *testing.T) {
	in := LeadInputFromFields(map[string]string{
		"firstName":    "Jane",
		"lastName":     "Doe",
		"_replyto":     "jane@example.com",
		"phone-number": "4165551234",
		"eventType":    "Wedding",
		"guestCount":   "120",
		"utm_source":   "ig",
		"empty":        " ",
	})
	assert.Equal(t, "Jane Doe", in.Name)
	assert.Equal(t, "jane@example.com", in.Email)
	assert.Equal(t, "4165551234", in.Phone)
	assert.Equal(t, map[string]string{"guestCount": "120"}, in.Extra)
}

func TestValidateLead(t *testing.T) {
	in := LeadInput{Name: "Jane", Phone: "555", EventType: " Wedding ", Budget: "$1500 - $2000"}
	require.NoError(t, ValidateLead(&in))
	assert.Equal(t, "wedding", in.EventType)
	assert.Equal(t, "$1500-$2000", in.Budget)
	assert.Equal(t, string(domain.SourceContact), in.Source)

	bad := LeadInput{Source: "billboard", EventType: "bar mitzvah", Budget: "$5", Email: "nope"}
	var verrs ValidationErrors
	require.ErrorAs(t, ValidateLead(&bad), &verrs)
	fields := []string{}
	for _, e := range verrs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"name", "email", "source", "eventType", "budget"}, fields)
}

func TestLeadSubmit_WizardAnswers(t *testing.T) {
	repo, sheet, n, tele := &fakeLeadRepo{}, &fakeSheet{}, &fakeNotifier{}, &fakeTelemetry{}
	svc, bg := newLeadService(t, repo, sheet, n, tele)

	in := LeadInputFromFields(map[string]string{
		"name": "Jane Doe", "phone": "4165551234", "eventType": "wedding",
		"eventDate": "2025-06-01", "budget": "$1500-$2000",
	})
	in.Source = string(domain.SourceWizard)
	in.Attribution = domain.AttributionSnapshot{"utm_campaign": "spring"}

	lead, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)
	require.NoError(t, bg.Wait(context.Background()))

	assert.Equal(t, domain.SourceWizard, lead.Source)
	assert.Equal(t, "2025-06-01", lead.EventDate)
	require.Len(t, repo.created, 1)
	require.Len(t, sheet.rows, 1)
	assert.Equal(t, "Leads!A:L", sheet.ranges[0])
	assert.Len(t, sheet.rows[0], 12)
	assert.Equal(t, "utm_campaign=spring", sheet.rows[0][11])
	require.Len(t, n.sent, 1)
	assert.Equal(t, "New wizard lead from Jane Doe", n.sent[0].Subject)
	assert.Equal(t, []string{"Lead"}, tele.events)
}

func TestLeadSubmit_RecordFailureFails(t *testing.T) {
	repo, sheet, n := &fakeLeadRepo{err: errors.New("mongo down")}, &fakeSheet{}, &fakeNotifier{}
	svc, bg := newLeadService(t, repo, sheet, n, &fakeTelemetry{})

	_, err := svc.Submit(context.Background(), LeadInput{Name: "Jo", Email: "jo@example.com"})
	assert.ErrorIs(t, err, ErrRecordFailed)
	require.NoError(t, bg.Wait(context.Background()))
	assert.Empty(t, sheet.rows)
	assert.Empty(t, n.sent)
}

func TestLeadSubmit_WithoutDatabase(t *testing.T) {
	sheet := &fakeSheet{err: errors.New("sheets down")}
	svc, bg := newLeadService(t, nil, sheet, &fakeNotifier{}, &fakeTelemetry{})

	lead, err := svc.Submit(context.Background(), LeadInput{Name: "Jo", Email: "jo@example.com", Source: "promo"})
	require.NoError(t, err)
	require.NoError(t, bg.Wait(context.Background()))
	assert.Equal(t, domain.SourcePromo, lead.Source)
}

// --- background ---

func TestBackground_RecoversAndDetaches(t *testing.T) {
	bg := NewBackground(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran bool
	bg.Go(ctx, "panics", func(context.Context) { panic("boom") })
	bg.Go(ctx, "detached", func(ctx context.Context) { ran = ctx.Err() == nil })
	require.NoError(t, bg.Wait(context.Background()))
	assert.True(t, ran)
}

func TestBackground_WaitHonorsContext(t *testing.T) {
	bg := NewBackground(time.Second)
	release := make(chan struct{})
	bg.Go(context.Background(), "slow", func(context.Context) { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bg.Wait(ctx), context.DeadlineExceeded)
	close(release)
	assert.NoError(t, bg.Wait(context.Background()))
}

// --- admin auth ---

func TestAuthService(t *testing.T) {
	_, err := NewAuthService("", "secret", time.Hour)
	assert.ErrorIs(t, err, ErrAdminDisabled)
	_, err = NewAuthService("plain", "secret", time.Hour)
	assert.Error(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	svc, err := NewAuthService(string(hash), "secret", time.Hour)
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "wrong")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	token, exp, err := svc.Login(context.Background(), "hunter22")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims := &AdminClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(svc.GetJWTSecret()), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, AdminRole, claims.Role)
	assert.Equal(t, AdminSubject, claims.Subject)
}
