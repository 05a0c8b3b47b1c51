// Package intakeform models the client intake form: in-memory field state, local previews kept
// index-aligned with the selected files, validation before any network call, and multipart assembly.
package intakeform

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxFileSize mirrors the server's per-file ceiling.
const DefaultMaxFileSize = 10 << 20

// Multipart field names understood by the intake endpoint.
const (
	FieldLogo                = "companyLogo"
	FieldInspirationPrefix   = "inspirationImage_"
	FieldContactName         = "contactName"
	FieldContactEmail        = "contactEmail"
	FieldContactPhone        = "contactPhone"
	FieldFilterCopy          = "filterCopy"
	FieldRobotTheme          = "robotTheme"
	FieldVoiceActivation     = "voiceActivation"
	FieldLoadingInstructions = "loadingInstructions"
	FieldSubmissionTime      = "submissionTime"
)

var ErrIndexOutOfRange = errors.New("intakeform: image index out of range")

// Image is a selected file held in memory.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

func (i Image) Size() int64 { return int64(len(i.Data)) }

// FieldError is one client-side validation failure.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists everything wrong with the form. The form is left untouched.
type ValidationError []FieldError

func (v ValidationError) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Field + " " + e.Message
	}
	return "intakeform: " + strings.Join(parts, "; ")
}

// Form is the intake form state. It is never persisted.
type Form struct {
	ContactName         string
	ContactEmail        string
	ContactPhone        string
	FilterCopy          string
	RobotTheme          string
	VoiceActivation     string
	LoadingInstructions string

	// MaxFileSize is the per-file ceiling; zero means DefaultMaxFileSize.
	MaxFileSize int64

	logo        *Image
	logoPreview *Preview
	inspiration []Image
	previews    []Preview
}

// SetLogo selects (or with nil, clears) the logo and builds its preview.
func (f *Form) SetLogo(img *Image) error {
	if img == nil {
		f.logo, f.logoPreview = nil, nil
		return nil
	}
	p, err := NewPreview(*img)
	if err != nil {
		return err
	}
	logo := *img
	f.logo, f.logoPreview = &logo, &p
	return nil
}

// Logo returns the selected logo and its preview.
func (f *Form) Logo() (*Image, *Preview) { return f.logo, f.logoPreview }

// AddInspiration generates previews concurrently and appends files and previews in selection order.
// Nothing is appended when any preview fails.
func (f *Form) AddInspiration(ctx context.Context, imgs ...Image) error {
	previews := make([]Preview, len(imgs))
	g, ctx := errgroup.WithContext(ctx)
	for i := range imgs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := NewPreview(imgs[i])
			if err != nil {
				return err
			}
			previews[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	f.inspiration = append(f.inspiration, imgs...)
	f.previews = append(f.previews, previews...)
	return nil
}

// RemoveInspiration drops the file and the preview at index i.
func (f *Form) RemoveInspiration(i int) error {
	if i < 0 || i >= len(f.inspiration) {
		return ErrIndexOutOfRange
	}
	f.inspiration = append(f.inspiration[:i], f.inspiration[i+1:]...)
	f.previews = append(f.previews[:i], f.previews[i+1:]...)
	return nil
}

// Inspiration returns copies of the selected inspiration files and their previews.
func (f *Form) Inspiration() ([]Image, []Preview) {
	return append([]Image(nil), f.inspiration...), append([]Preview(nil), f.previews...)
}

// Validate checks required fields and file sizes.
func (f *Form) Validate() error {
	var errs ValidationError
	for _, req := range []struct{ field, value string }{
		{FieldContactName, f.ContactName},
		{FieldContactEmail, f.ContactEmail},
		{FieldContactPhone, f.ContactPhone},
	} {
		if strings.TrimSpace(req.value) == "" {
			errs = append(errs, FieldError{Field: req.field, Message: "is required"})
		}
	}

	limit := f.maxFileSize()
	if f.logo != nil && f.logo.Size() > limit {
		errs = append(errs, FieldError{Field: FieldLogo, Message: tooLarge(f.logo.Name, limit)})
	}
	for i, img := range f.inspiration {
		if img.Size() > limit {
			errs = append(errs, FieldError{Field: fmt.Sprintf("%s%d", FieldInspirationPrefix, i), Message: tooLarge(img.Name, limit)})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// WriteMultipart writes every field and file into w. The caller closes w.
func (f *Form) WriteMultipart(w *multipart.Writer, submittedAt time.Time) error {
	fields := [][2]string{
		{FieldContactName, f.ContactName},
		{FieldContactEmail, f.ContactEmail},
		{FieldContactPhone, f.ContactPhone},
		{FieldFilterCopy, f.FilterCopy},
		{FieldRobotTheme, f.RobotTheme},
		{FieldVoiceActivation, f.VoiceActivation},
		{FieldLoadingInstructions, f.LoadingInstructions},
		{FieldSubmissionTime, submittedAt.UTC().Format(time.RFC3339)},
	}
	for _, kv := range fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return err
		}
	}

	if f.logo != nil {
		if err := writeFile(w, FieldLogo, *f.logo); err != nil {
			return err
		}
	}
	for i, img := range f.inspiration {
		if err := writeFile(w, fmt.Sprintf("%s%d", FieldInspirationPrefix, i), img); err != nil {
			return err
		}
	}
	return nil
}

// Clear resets every field, file and preview.
func (f *Form) Clear() {
	limit := f.MaxFileSize
	*f = Form{MaxFileSize: limit}
}

func (f *Form) maxFileSize() int64 {
	if f.MaxFileSize > 0 {
		return f.MaxFileSize
	}
	return DefaultMaxFileSize
}

func tooLarge(name string, limit int64) string {
	if limit >= 1<<20 {
		return fmt.Sprintf("file %s is larger than %d MB", name, limit>>20)
	}
	return fmt.Sprintf("file %s is larger than %d bytes", name, limit)
}

func writeFile(w *multipart.Writer, field string, img Image) error {
	ct := img.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(field), escapeQuotes(filepath.Base(img.Name))))
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(img.Data)
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }
