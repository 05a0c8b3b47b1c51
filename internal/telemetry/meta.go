package telemetry

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"snapbooth/site/internal/httpretry"
)

const DefaultGraphURL = "https://graph.facebook.com/v19.0"

var ErrMetaNotConfigured = errors.New("telemetry: meta pixel id and access token are required")

// MetaSink forwards events to the Meta Conversions API. Email and phone are hashed before sending.
type MetaSink struct {
	doer        httpretry.HTTPDoer
	baseURL     string
	pixelID     string
	accessToken string
	now         func() time.Time
}

func NewMetaSink(doer httpretry.HTTPDoer, baseURL, pixelID, accessToken string) *MetaSink {
	if doer == nil {
		doer = httpretry.NewRetryClient(nil, 2)
	}
	if baseURL == "" {
		baseURL = DefaultGraphURL
	}
	return &MetaSink{
		doer:        doer,
		baseURL:     strings.TrimRight(baseURL, "/"),
		pixelID:     pixelID,
		accessToken: accessToken,
		now:         time.Now,
	}
}

func (m *MetaSink) Init(context.Context) error {
	if m.pixelID == "" || m.accessToken == "" {
		return ErrMetaNotConfigured
	}
	return nil
}

type metaEvent struct {
	EventName    string              `json:"event_name"`
	EventTime    int64               `json:"event_time"`
	ActionSource string              `json:"action_source"`
	UserData     map[string][]string `json:"user_data,omitempty"`
	CustomData   map[string]string   `json:"custom_data,omitempty"`
}

func (m *MetaSink) Track(ctx context.Context, event string, attrs map[string]string) {
	if err := m.send(ctx, event, attrs); err != nil {
		log.Warn().Err(err).Str("sink", "meta").Str("event", event).Msg("telemetry event not delivered")
	}
}

func (m *MetaSink) send(ctx context.Context, event string, attrs map[string]string) error {
	if err := m.Init(ctx); err != nil {
		return err
	}

	ev := metaEvent{
		EventName:    event,
		EventTime:    m.now().Unix(),
		ActionSource: "website",
		CustomData:   map[string]string{},
	}
	user := map[string][]string{}
	for k, v := range attrs {
		switch k {
		case AttrEmail:
			if h := hashNormalized(strings.ToLower(strings.TrimSpace(v))); h != "" {
				user["em"] = []string{h}
			}
		case AttrPhone:
			if h := hashNormalized(digitsOnly(v)); h != "" {
				user["ph"] = []string{h}
			}
		default:
			ev.CustomData[k] = v
		}
	}
	if len(user) > 0 {
		ev.UserData = user
	}

	body, err := json.Marshal(map[string]any{"data": []metaEvent{ev}})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/events?access_token=%s", m.baseURL, url.PathEscape(m.pixelID), url.QueryEscape(m.accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := m.doer.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1<<12))
		return fmt.Errorf("conversions api status=%d body=%s", res.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func hashNormalized(v string) string {
	if v == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
