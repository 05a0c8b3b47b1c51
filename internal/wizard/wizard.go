// Package wizard models the one-question-at-a-time lead form: a fixed sequence of questions, a review
// step once all are answered, and a send action that hands the flat answers to a submitter.
package wizard

import (
	"context"
	"errors"
	"strings"
	"time"

	"snapbooth/site/internal/domain"
)

// Kind decides how a line of input is validated.
type Kind string

const (
	KindText   Kind = "text"
	KindChoice Kind = "choice"
	KindDate   Kind = "date"
)

// DateLayout is the format date answers are stored in.
const DateLayout = "2006-01-02"

var (
	ErrEmptyAnswer   = errors.New("answer must not be empty")
	ErrInvalidOption = errors.New("answer is not one of the offered options")
	ErrInReview      = errors.New("all questions are answered")
	ErrNotInReview   = errors.New("questions remain unanswered")
	ErrNotDateStep   = errors.New("current question does not take a date")
	ErrAlreadySent   = errors.New("answers were already sent")
	ErrSendPending   = errors.New("a send is already in progress")
)

// Question is one step of the wizard.
type Question struct {
	Key      string   `json:"key"`
	Prompt   string   `json:"prompt"`
	Kind     Kind     `json:"kind"`
	Options  []string `json:"options,omitempty"`
	Complete bool     `json:"complete"`
	Value    string   `json:"value"`
}

// SendFunc delivers the flat answer mapping to the submission pipeline.
type SendFunc func(ctx context.Context, answers map[string]string) error

// Wizard is serializable so it can live in session storage between requests.
// The current question is always the first incomplete one.
type Wizard struct {
	Questions  []Question `json:"questions"`
	PickedDate string     `json:"pickedDate,omitempty"`
	Pending    bool       `json:"pending"`
	Sent       bool       `json:"sent"`
	LastError  string     `json:"lastError,omitempty"`
}

// DefaultQuestions is the lead wizard used on the site.
func DefaultQuestions() []Question {
	return []Question{
		{Key: "name", Prompt: "What's your name?", Kind: KindText},
		{Key: "phone", Prompt: "What's the best number to reach you?", Kind: KindText},
		{Key: "eventType", Prompt: "What kind of event are you planning?", Kind: KindChoice, Options: domain.EventTypes},
		{Key: "eventDate", Prompt: "When is the event?", Kind: KindDate},
		{Key: "budget", Prompt: "What budget do you have in mind?", Kind: KindChoice, Options: domain.Budgets},
	}
}

// New returns a wizard positioned on the first question. The questions are copied and cleared.
func New(questions ...Question) *Wizard {
	if len(questions) == 0 {
		questions = DefaultQuestions()
	}
	w := &Wizard{Questions: make([]Question, len(questions))}
	copy(w.Questions, questions)
	w.Reset()
	return w
}

// Current returns the question awaiting an answer and its index. ok is false in review.
func (w *Wizard) Current() (q Question, index int, ok bool) {
	for i, q := range w.Questions {
		if !q.Complete {
			return q, i, true
		}
	}
	return Question{}, -1, false
}

// InReview reports whether every question is complete.
func (w *Wizard) InReview() bool {
	_, _, ok := w.Current()
	return !ok
}

// SelectDate records a date-picker choice for the current date question. The choice satisfies the
// question on the next SubmitLine even when the typed line is empty.
func (w *Wizard) SelectDate(t time.Time) error {
	q, _, ok := w.Current()
	if !ok {
		return ErrInReview
	}
	if q.Kind != KindDate {
		return ErrNotDateStep
	}
	w.PickedDate = t.Format(DateLayout)
	return nil
}

// SubmitDate selects a date and completes the date question in one step.
func (w *Wizard) SubmitDate(t time.Time) error {
	if err := w.SelectDate(t); err != nil {
		return err
	}
	return w.SubmitLine("")
}

// SubmitLine answers the current question. Exactly one question is completed on success; on error the
// state is unchanged.
func (w *Wizard) SubmitLine(input string) error {
	q, i, ok := w.Current()
	if !ok {
		return ErrInReview
	}

	value := strings.TrimSpace(input)
	switch {
	case value == "" && q.Kind == KindDate && w.PickedDate != "":
		value = w.PickedDate
	case value == "":
		return ErrEmptyAnswer
	case q.Kind == KindChoice:
		canonical, found := matchOption(q.Options, value)
		if !found {
			return ErrInvalidOption
		}
		value = canonical
	}

	w.Questions[i].Value = value
	w.Questions[i].Complete = true
	if q.Kind == KindDate {
		w.PickedDate = ""
	}
	return nil
}

func matchOption(options []string, value string) (string, bool) {
	squash := func(s string) string { return strings.ToLower(strings.ReplaceAll(s, " ", "")) }
	for _, o := range options {
		if squash(o) == squash(value) {
			return o, true
		}
	}
	return "", false
}

// Answers returns the flat key/value mapping of completed questions, in no particular order.
func (w *Wizard) Answers() map[string]string {
	out := make(map[string]string, len(w.Questions))
	for _, q := range w.Questions {
		if q.Complete {
			out[q.Key] = q.Value
		}
	}
	return out
}

// Reset returns every question to incomplete with an empty value.
func (w *Wizard) Reset() {
	for i := range w.Questions {
		w.Questions[i].Complete = false
		w.Questions[i].Value = ""
	}
	w.PickedDate = ""
	w.Pending = false
	w.Sent = false
	w.LastError = ""
}

// Send submits the answers from review. The wizard stays in review whatever the outcome: on failure
// LastError is set so the user can retry, on success Sent is set.
func (w *Wizard) Send(ctx context.Context, send SendFunc) error {
	if !w.InReview() {
		return ErrNotInReview
	}
	if w.Sent {
		return ErrAlreadySent
	}
	if w.Pending {
		return ErrSendPending
	}

	w.Pending = true
	err := send(ctx, w.Answers())
	w.Pending = false
	if err != nil {
		w.LastError = "Something went wrong sending your details. Please try again."
		return err
	}
	w.LastError = ""
	w.Sent = true
	return nil
}
