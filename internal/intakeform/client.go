package intakeform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"snapbooth/site/internal/httpretry"
)

// ToastDuration is how long a confirmation or error toast stays visible.
const ToastDuration = 5 * time.Second

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// Toast is the single user-visible outcome of a submit attempt.
type Toast struct {
	Kind     ToastKind
	Message  string
	Duration time.Duration
}

const (
	successMessage = "Thanks! Your intake form was submitted. We'll be in touch soon."
	failureMessage = "Something went wrong submitting your form. Please try again."
)

// Response is the intake endpoint's success body.
type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	ID      string   `json:"id"`
	Files   []string `json:"files"`
}

var ErrRejected = errors.New("intakeform: submission rejected")

// Client submits forms to the intake endpoint.
type Client struct {
	doer     httpretry.HTTPDoer
	endpoint string
	now      func() time.Time
}

// NewClient posts to endpoint (for example https://example.com/api/intake). Submissions are not retried
// automatically; a failed submit leaves the form intact for the user to retry.
func NewClient(doer httpretry.HTTPDoer, endpoint string) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{doer: doer, endpoint: endpoint, now: time.Now}
}

// Submit validates and sends the form. On success the form is cleared; on any failure it is preserved.
func (c *Client) Submit(ctx context.Context, f *Form) (Response, Toast, error) {
	if err := f.Validate(); err != nil {
		return Response{}, errorToast(err.Error()), err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := f.WriteMultipart(mw, c.now()); err != nil {
		return Response{}, errorToast(failureMessage), fmt.Errorf("intakeform: encode: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Response{}, errorToast(failureMessage), fmt.Errorf("intakeform: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return Response{}, errorToast(failureMessage), fmt.Errorf("intakeform: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	res, err := c.doer.Do(req)
	if err != nil {
		return Response{}, errorToast(failureMessage), fmt.Errorf("intakeform: send: %w", err)
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
	if res.StatusCode != http.StatusOK {
		return Response{}, errorToast(failureMessage),
			fmt.Errorf("%w: status=%d body=%s", ErrRejected, res.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil || !out.Success {
		return Response{}, errorToast(failureMessage), fmt.Errorf("%w: unexpected response %s", ErrRejected, strings.TrimSpace(string(raw)))
	}

	f.Clear()
	return out, Toast{Kind: ToastSuccess, Message: successMessage, Duration: ToastDuration}, nil
}

func errorToast(msg string) Toast {
	return Toast{Kind: ToastError, Message: msg, Duration: ToastDuration}
}
