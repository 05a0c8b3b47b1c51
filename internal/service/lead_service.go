package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"snapbooth/site/internal/domain"
	"snapbooth/site/internal/logging"
	"snapbooth/site/internal/notify"
	"snapbooth/site/internal/repository"
	"snapbooth/site/internal/sheets"
	"snapbooth/site/internal/telemetry"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LeadInput is a lead-form submission after field roles were resolved.
type LeadInput struct {
	Source      string
	Name        string
	Email       string
	Phone       string
	EventType   string
	EventDate   string
	Budget      string
	PackageName string
	Message     string
	Extra       map[string]string
	Attribution domain.AttributionSnapshot
}

// Field roles accepted by every lead form. The first non-empty alias wins.
var (
	nameAliases  = []string{"name", "contactName", "full-name", "fullName", "firstName"}
	emailAliases = []string{"email", "contactEmail", "_replyto"}
	phoneAliases = []string{"phone", "contactPhone", "phone-number", "phoneNumber"}
	knownKeys    = map[string]bool{
		"source": true, "eventType": true, "eventDate": true, "budget": true, "packageName": true, "message": true,
		"lastName": true, "_subject": true, "_gotcha": true,
	}
)

// LeadInputFromFields maps a flat field set (JSON body, form post or wizard answers) onto LeadInput.
// Unrecognized keys are kept in Extra.
func LeadInputFromFields(fields map[string]string) LeadInput {
	in := LeadInput{
		Source:      fields["source"],
		Name:        firstOf(fields, nameAliases),
		Email:       firstOf(fields, emailAliases),
		Phone:       firstOf(fields, phoneAliases),
		EventType:   fields["eventType"],
		EventDate:   fields["eventDate"],
		Budget:      fields["budget"],
		PackageName: fields["packageName"],
		Message:     fields["message"],
	}
	if last := strings.TrimSpace(fields["lastName"]); last != "" && in.Name != "" && in.Name == strings.TrimSpace(fields["firstName"]) {
		in.Name += " " + last
	}

	for k, v := range fields {
		if knownKeys[k] || contains(nameAliases, k) || contains(emailAliases, k) || contains(phoneAliases, k) {
			continue
		}
		if domain.IsAttributionKey(k) || strings.TrimSpace(v) == "" {
			continue
		}
		if in.Extra == nil {
			in.Extra = map[string]string{}
		}
		in.Extra[k] = v
	}
	return in
}

type LeadService interface {
	Submit(ctx context.Context, in LeadInput) (*domain.Lead, error)
}

// LeadDeps groups the collaborators of lead submission. Nil optional sinks are skipped.
type LeadDeps struct {
	Repo       repository.LeadRepository
	Sheet      sheets.Appender
	Notifier   notify.Notifier
	Renderer   *notify.Renderer
	Telemetry  telemetry.Sink
	Background *Background
}

type leadService struct {
	repo       repository.LeadRepository // Optional; when set it is the primary record
	sheet      sheets.Appender
	notifier   notify.Notifier
	renderer   *notify.Renderer
	telemetry  telemetry.Sink
	bg         *Background
	sheetRange string
	now        func() time.Time
}

func NewLeadService(deps LeadDeps, sheetRange string) LeadService {
	if deps.Renderer == nil || deps.Background == nil {
		panic("lead service requires a renderer and a background runner")
	}
	if deps.Telemetry == nil {
		deps.Telemetry = telemetry.Nop{}
	}
	if deps.Sheet == nil {
		deps.Sheet = (*sheets.Client)(nil)
	}
	if sheetRange == "" {
		sheetRange = "Leads!A:L"
	}
	return &leadService{
		repo:       deps.Repo,
		sheet:      deps.Sheet,
		notifier:   deps.Notifier,
		renderer:   deps.Renderer,
		telemetry:  deps.Telemetry,
		bg:         deps.Background,
		sheetRange: sheetRange,
		now:        time.Now,
	}
}

// ValidateLead normalizes enumerations in place and reports every invalid field.
func ValidateLead(in *LeadInput) error {
	var errs ValidationErrors

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	requireField(&errs, "name", in.Name)
	if in.Email == "" && in.Phone == "" {
		errs.add("email", "an email address or phone number is required")
	}
	if in.Email != "" && !looksLikeEmail(in.Email) {
		errs.add("email", "must be a valid email address")
	}

	src := domain.LeadSource(strings.ToLower(strings.TrimSpace(in.Source)))
	switch src {
	case "":
		src = domain.SourceContact
	case domain.SourceContact, domain.SourcePackages, domain.SourceWedding,
		domain.SourceCorporate, domain.SourcePromo, domain.SourceWizard:
	default:
		errs.add("source", "is not a known form")
	}
	in.Source = string(src)

	if strings.TrimSpace(in.EventType) != "" {
		if v, ok := domain.NormalizeEventType(in.EventType); ok {
			in.EventType = v
		} else {
			errs.add("eventType", "must be one of "+strings.Join(domain.EventTypes, ", "))
		}
	} else {
		in.EventType = ""
	}
	if strings.TrimSpace(in.Budget) != "" {
		if v, ok := domain.NormalizeBudget(in.Budget); ok {
			in.Budget = v
		} else {
			errs.add("budget", "must be one of "+strings.Join(domain.Budgets, ", "))
		}
	} else {
		in.Budget = ""
	}
	maxRunes(&errs, "message", in.Message, MaxFreeTextLen)
	return errs.orNil()
}

func (s *leadService) Submit(ctx context.Context, in LeadInput) (*domain.Lead, error) {
	if err := ValidateLead(&in); err != nil {
		return nil, err
	}

	lead := &domain.Lead{
		ID:          primitive.NewObjectID(),
		Source:      domain.LeadSource(in.Source),
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		EventType:   in.EventType,
		EventDate:   strings.TrimSpace(in.EventDate),
		Budget:      in.Budget,
		PackageName: strings.TrimSpace(in.PackageName),
		Message:     strings.TrimSpace(in.Message),
		Extra:       in.Extra,
		Attribution: in.Attribution.Clone(),
		SubmittedAt: s.now().UTC(),
	}
	logger := log.With().Str("lead_id", lead.ID.Hex()).Str("source", string(lead.Source)).Logger()

	// With a database configured the lead record is the primary record, so losing it fails the request.
	if s.repo != nil {
		if _, err := s.repo.Create(ctx, lead); err != nil {
			logger.Error().Err(err).Str("sink", "mongo").Msg("failed to record lead")
			return nil, fmt.Errorf("%w: %v", ErrRecordFailed, err)
		}
	}

	if err := s.sheet.Append(ctx, s.sheetRange, LeadRow(lead)); err != nil {
		logSinkFailure(logger, "sheets", err)
	}

	n, renderErr := s.notification(lead)
	if renderErr != nil {
		logger.Error().Err(renderErr).Msg("failed to render lead notification")
	}
	attrs := trackAttrs(lead.Attribution, map[string]string{
		telemetry.AttrEmail: lead.Email,
		telemetry.AttrPhone: lead.Phone,
		"source":            string(lead.Source),
		"event_type":        lead.EventType,
	})
	s.bg.Go(ctx, "lead-notify", func(ctx context.Context) {
		if renderErr == nil && s.notifier != nil {
			if nerr := s.notifier.Notify(ctx, n); nerr != nil {
				logSinkFailure(logger, "notify", nerr)
			}
		}
		s.telemetry.Track(ctx, telemetry.EventLead, attrs)
	})

	logger.Info().
		Str("email", logging.RedactEmail(lead.Email)).
		Str("phone", logging.RedactPhone(lead.Phone)).
		Msg("lead accepted")
	return lead, nil
}

func (s *leadService) notification(lead *domain.Lead) (domain.Notification, error) {
	body, err := s.renderer.Render(domain.NotificationLead, map[string]any{
		"source":       string(lead.Source),
		"name":         lead.Name,
		"email":        lead.Email,
		"phone":        lead.Phone,
		"event_type":   lead.EventType,
		"event_date":   lead.EventDate,
		"budget":       lead.Budget,
		"package_name": lead.PackageName,
		"message":      lead.Message,
		"submitted_at": lead.SubmittedAt.Format(time.RFC3339),
		"attribution":  lead.Attribution.Summary(),
	})
	if err != nil {
		return domain.Notification{}, err
	}

	fields := map[string]string{"name": lead.Name, "source": string(lead.Source)}
	for k, v := range map[string]string{"email": lead.Email, "phone": lead.Phone, "eventType": lead.EventType,
		"eventDate": lead.EventDate, "budget": lead.Budget} {
		if v != "" {
			fields[k] = v
		}
	}
	return domain.Notification{
		Kind:      domain.NotificationLead,
		Reference: lead.ID.Hex(),
		Subject:   fmt.Sprintf("New %s lead from %s", lead.Source, lead.Name),
		Body:      body,
		ReplyTo:   lead.Email,
		Fields:    fields,
	}, nil
}

// LeadRow is the spreadsheet row for a lead, in column order.
func LeadRow(lead *domain.Lead) []string {
	return []string{
		lead.SubmittedAt.Format(time.RFC3339),
		string(lead.Source),
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.EventType,
		lead.EventDate,
		lead.Budget,
		lead.PackageName,
		lead.Message,
		extraSummary(lead.Extra),
		lead.Attribution.Summary(),
	}
}

func extraSummary(extra map[string]string) string {
	if len(extra) == 0 {
		return ""
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + extra[k]
	}
	return strings.Join(parts, ", ")
}

func firstOf(fields map[string]string, keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(fields[k]); v != "" {
			return v
		}
	}
	return ""
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
