package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"snapbooth/site/internal/domain"
	"snapbooth/site/internal/logging"
	"snapbooth/site/internal/notify"
	"snapbooth/site/internal/repository"
	"snapbooth/site/internal/sheets"
	"snapbooth/site/internal/storage"
	"snapbooth/site/internal/telemetry"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field bounds for intake text.
const (
	MaxRobotThemeLen      = 200
	MaxVoiceActivationLen = 100
	MaxFreeTextLen        = 5000
)

// IntakeFile is one uploaded file as the transport layer received it.
type IntakeFile struct {
	Field       string // Form field it arrived under
	Name        string // Client-side filename
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// IntakeInput is the typed intake request, already mapped from whatever field names the form used.
type IntakeInput struct {
	ContactName         string
	ContactEmail        string
	ContactPhone        string
	Logo                *IntakeFile
	Inspiration         []IntakeFile // Index order
	FilterCopy          string
	RobotTheme          string
	VoiceActivation     string
	LoadingInstructions string
	ClientSubmittedAt   string
	Attribution         domain.AttributionSnapshot
}

// IntakeOptions bounds and routes intake submissions.
type IntakeOptions struct {
	MaxFileSize    int64
	MaxInspiration int
	SheetRange     string
}

type IntakeService interface {
	// Validate checks required fields and size bounds. It performs no IO.
	Validate(in IntakeInput) error
	// Submit validates, relocates files and fans the record out to the sinks.
	Submit(ctx context.Context, in IntakeInput) (*domain.IntakeSubmission, error)
}

// intakeService implements the IntakeService interface.
type intakeService struct {
	store     storage.FileStore
	mirror    storage.Mirror // Optional
	sheet     sheets.Appender
	repo      repository.IntakeRepository // Optional
	notifier  notify.Notifier
	renderer  *notify.Renderer
	telemetry telemetry.Sink
	bg        *Background
	opts      IntakeOptions
	now       func() time.Time
}

// IntakeDeps groups the collaborators of the intake pipeline. Nil optional sinks are skipped.
type IntakeDeps struct {
	Store      storage.FileStore
	Mirror     storage.Mirror
	Sheet      sheets.Appender
	Repo       repository.IntakeRepository
	Notifier   notify.Notifier
	Renderer   *notify.Renderer
	Telemetry  telemetry.Sink
	Background *Background
}

// NewIntakeService creates a new instance of intakeService.
func NewIntakeService(deps IntakeDeps, opts IntakeOptions) IntakeService {
	if deps.Store == nil || deps.Renderer == nil || deps.Background == nil {
		panic("intake service requires a file store, a renderer and a background runner")
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = 10 << 20
	}
	if opts.MaxInspiration <= 0 {
		opts.MaxInspiration = 20
	}
	if opts.SheetRange == "" {
		opts.SheetRange = "Intake!A:K"
	}
	if deps.Telemetry == nil {
		deps.Telemetry = telemetry.Nop{}
	}
	if deps.Sheet == nil {
		deps.Sheet = (*sheets.Client)(nil)
	}
	return &intakeService{
		store:     deps.Store,
		mirror:    deps.Mirror,
		sheet:     deps.Sheet,
		repo:      deps.Repo,
		notifier:  deps.Notifier,
		renderer:  deps.Renderer,
		telemetry: deps.Telemetry,
		bg:        deps.Background,
		opts:      opts,
		now:       time.Now,
	}
}

func (s *intakeService) Validate(in IntakeInput) error {
	files := in.Inspiration
	if in.Logo != nil {
		files = append([]IntakeFile{*in.Logo}, files...)
	}
	for _, f := range files {
		if f.Size > s.opts.MaxFileSize {
			return fmt.Errorf("%w: %s is %d bytes, the limit is %d", ErrFileTooLarge, f.Name, f.Size, s.opts.MaxFileSize)
		}
	}

	var errs ValidationErrors
	requireField(&errs, "contactName", in.ContactName)
	requireField(&errs, "contactEmail", in.ContactEmail)
	requireField(&errs, "contactPhone", in.ContactPhone)
	if e := strings.TrimSpace(in.ContactEmail); e != "" && !looksLikeEmail(e) {
		errs.add("contactEmail", "must be a valid email address")
	}
	maxRunes(&errs, "robotTheme", in.RobotTheme, MaxRobotThemeLen)
	maxRunes(&errs, "voiceActivation", in.VoiceActivation, MaxVoiceActivationLen)
	maxRunes(&errs, "filterCopy", in.FilterCopy, MaxFreeTextLen)
	maxRunes(&errs, "loadingInstructions", in.LoadingInstructions, MaxFreeTextLen)
	if len(in.Inspiration) > s.opts.MaxInspiration {
		errs.add("inspirationImage", fmt.Sprintf("at most %d inspiration images are accepted", s.opts.MaxInspiration))
	}
	return errs.orNil()
}

func (s *intakeService) Submit(ctx context.Context, in IntakeInput) (*domain.IntakeSubmission, error) {
	if err := s.Validate(in); err != nil {
		return nil, err
	}

	sub := &domain.IntakeSubmission{
		ID:                  primitive.NewObjectID(),
		ContactName:         strings.TrimSpace(in.ContactName),
		ContactEmail:        strings.TrimSpace(in.ContactEmail),
		ContactPhone:        strings.TrimSpace(in.ContactPhone),
		Inspiration:         []domain.StoredFile{},
		FilterCopy:          strings.TrimSpace(in.FilterCopy),
		RobotTheme:          strings.TrimSpace(in.RobotTheme),
		VoiceActivation:     strings.TrimSpace(in.VoiceActivation),
		LoadingInstructions: strings.TrimSpace(in.LoadingInstructions),
		ClientSubmittedAt:   in.ClientSubmittedAt,
		SubmittedAt:         s.now().UTC(),
		Attribution:         in.Attribution.Clone(),
	}
	logger := log.With().Str("submission_id", sub.ID.Hex()).Logger()

	if in.Logo != nil {
		if f, ok := s.relocate(ctx, *in.Logo); ok {
			sub.Logo = &f
		}
	}
	for _, img := range in.Inspiration {
		if f, ok := s.relocate(ctx, img); ok {
			sub.Inspiration = append(sub.Inspiration, f)
		}
	}

	if err := s.sheet.Append(ctx, s.opts.SheetRange, IntakeRow(sub)); err != nil {
		logSinkFailure(logger, "sheets", err)
	}
	if s.repo != nil {
		if _, err := s.repo.Create(ctx, sub); err != nil {
			logger.Error().Err(err).Str("sink", "mongo").Msg("failed to record intake submission")
		}
	}

	n, renderErr := s.notification(sub)
	if renderErr != nil {
		logger.Error().Err(renderErr).Msg("failed to render intake notification")
	}
	attrs := trackAttrs(sub.Attribution, map[string]string{
		telemetry.AttrEmail: sub.ContactEmail,
		telemetry.AttrPhone: sub.ContactPhone,
		"inspiration_count": fmt.Sprint(len(sub.Inspiration)),
	})
	s.bg.Go(ctx, "intake-notify", func(ctx context.Context) {
		if renderErr == nil && s.notifier != nil {
			if nerr := s.notifier.Notify(ctx, n); nerr != nil {
				logSinkFailure(logger, "notify", nerr)
			}
		}
		s.telemetry.Track(ctx, telemetry.EventSubmitApplication, attrs)
	})

	logger.Info().
		Str("email", logging.RedactEmail(sub.ContactEmail)).
		Bool("logo", sub.Logo != nil).
		Int("inspiration", len(sub.Inspiration)).
		Msg("intake submission accepted")
	return sub, nil
}

// relocate copies one upload into durable storage. Failures are logged and the file is dropped.
func (s *intakeService) relocate(ctx context.Context, f IntakeFile) (domain.StoredFile, bool) {
	logger := log.With().Str("file", f.Name).Str("field", f.Field).Logger()

	rc, err := f.Open()
	if err != nil {
		logger.Warn().Err(err).Msg("failed to open upload, omitting file")
		return domain.StoredFile{}, false
	}
	defer rc.Close()

	stored, err := s.store.Save(ctx, f.Name, f.ContentType, rc)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to relocate upload, omitting file")
		return domain.StoredFile{}, false
	}

	if s.mirror != nil {
		if err := s.mirror.Mirror(ctx, stored, s.store.Path(stored.StorageName)); err != nil {
			logger.Warn().Err(err).Str("sink", "s3").Msg("failed to mirror upload")
		}
	}
	return stored, true
}

func (s *intakeService) notification(sub *domain.IntakeSubmission) (domain.Notification, error) {
	logo := "none"
	if sub.Logo != nil {
		logo = sub.Logo.Link()
	}
	links := make([]string, len(sub.Inspiration))
	for i, f := range sub.Inspiration {
		links[i] = f.Link()
	}

	body, err := s.renderer.Render(domain.NotificationIntake, map[string]any{
		"name":                 sub.ContactName,
		"email":                sub.ContactEmail,
		"phone":                sub.ContactPhone,
		"logo":                 logo,
		"inspiration":          links,
		"inspiration_count":    len(links),
		"filter_copy":          sub.FilterCopy,
		"robot_theme":          sub.RobotTheme,
		"voice_activation":     sub.VoiceActivation,
		"loading_instructions": sub.LoadingInstructions,
		"submitted_at":         sub.SubmittedAt.Format(time.RFC3339),
		"attribution":          sub.Attribution.Summary(),
	})
	if err != nil {
		return domain.Notification{}, err
	}
	return domain.Notification{
		Kind:      domain.NotificationIntake,
		Reference: sub.ID.Hex(),
		Subject:   "New client intake from " + sub.ContactName,
		Body:      body,
		ReplyTo:   sub.ContactEmail,
		Fields: map[string]string{
			"name":  sub.ContactName,
			"email": sub.ContactEmail,
			"phone": sub.ContactPhone,
		},
	}, nil
}

// IntakeRow is the spreadsheet row for a submission, in column order.
func IntakeRow(sub *domain.IntakeSubmission) []string {
	logo := "none"
	if sub.Logo != nil {
		logo = sub.Logo.Link()
	}
	return []string{
		sub.SubmittedAt.Format(time.RFC3339),
		sub.ContactName,
		sub.ContactEmail,
		sub.ContactPhone,
		logo,
		InspirationSummary(sub.Inspiration),
		sub.FilterCopy,
		sub.RobotTheme,
		sub.VoiceActivation,
		sub.LoadingInstructions,
		sub.Attribution.Summary(),
	}
}

// InspirationSummary renders "K image(s): link1, link2" or "none".
func InspirationSummary(files []domain.StoredFile) string {
	if len(files) == 0 {
		return "none"
	}
	links := make([]string, len(files))
	for i, f := range files {
		links[i] = f.Link()
	}
	return fmt.Sprintf("%d image(s): %s", len(files), strings.Join(links, ", "))
}

func requireField(errs *ValidationErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs.add(field, "is required")
	}
}

func maxRunes(errs *ValidationErrors, field, value string, limit int) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) > limit {
		errs.add(field, fmt.Sprintf("must be at most %d characters", limit))
	}
}

func looksLikeEmail(v string) bool {
	at := strings.LastIndex(v, "@")
	return at > 0 && at < len(v)-1 && !strings.ContainsAny(v, " \t\r\n")
}

func logSinkFailure(logger zerolog.Logger, sink string, err error) {
	if errors.Is(err, sheets.ErrNotConfigured) {
		logger.Warn().Str("sink", sink).Msg("sink not configured, skipping")
		return
	}
	logger.Error().Err(err).Str("sink", sink).Msg("sink write failed")
}

func trackAttrs(attribution domain.AttributionSnapshot, extra map[string]string) map[string]string {
	out := make(map[string]string, len(attribution)+len(extra))
	for k, v := range attribution {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
