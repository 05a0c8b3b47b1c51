package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"snapbooth/site/internal/domain"
	"snapbooth/site/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// multipartMemory is how much of a multipart body is buffered in memory before spilling to temp files.
const multipartMemory = 8 << 20

// Field roles: each role accepts several field names depending on which form posted.
var (
	contactNameFields  = []string{"contactName", "full-name", "firstName"}
	contactEmailFields = []string{"contactEmail", "_replyto", "email"}
	contactPhoneFields = []string{"contactPhone", "phone", "phone-number"}
)

const (
	logoField              = "companyLogo"
	inspirationFieldPrefix = "inspirationImage_"
)

// IntakeHandler serves the intake form endpoint.
type IntakeHandler struct {
	intakeService  service.IntakeService
	maxFileSize    int64
	maxInspiration int
}

func NewIntakeHandler(intakeService service.IntakeService, maxFileSize int64, maxInspiration int) *IntakeHandler {
	return &IntakeHandler{intakeService: intakeService, maxFileSize: maxFileSize, maxInspiration: maxInspiration}
}

// intakeRequest is the typed schema of the multipart body. Every text field is single-valued, the logo
// is at most one file and inspiration images are one file per index.
type intakeRequest struct {
	ContactName         string
	ContactEmail        string
	ContactPhone        string
	FilterCopy          string
	RobotTheme          string
	VoiceActivation     string
	LoadingInstructions string
	SubmissionTime      string
	Logo                *multipart.FileHeader
	Inspiration         []*multipart.FileHeader
}

// IntakeResponse is the success body.
type IntakeResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	ID      string   `json:"id"`
	Files   []string `json:"files"`
}

// Submit handles POST /api/intake.
func (h *IntakeHandler) Submit(c *gin.Context) {
	// Whole-body ceiling: every file at its limit plus room for the text fields.
	maxBody := h.maxFileSize*int64(h.maxInspiration+1) + 1<<20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithDetails(c, http.StatusRequestEntityTooLarge, "Upload too large",
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		abortWithDetails(c, http.StatusBadRequest, "Malformed multipart body", err.Error())
		return
	}
	form := c.Request.MultipartForm
	defer removeTransient(form)

	req, err := bindIntakeRequest(form)
	if err != nil {
		abortWithDetails(c, http.StatusBadRequest, "Invalid intake request", err.Error())
		return
	}

	in := req.toInput(attributionFromContext(c))

	// Durable writes must finish even if the client goes away.
	sub, err := h.intakeService.Submit(context.WithoutCancel(c.Request.Context()), in)
	if err != nil {
		var verrs service.ValidationErrors
		switch {
		case errors.Is(err, service.ErrFileTooLarge):
			abortWithDetails(c, http.StatusRequestEntityTooLarge, "File too large", err.Error())
		case errors.As(err, &verrs):
			abortWithDetails(c, http.StatusBadRequest, "Validation failed", verrs)
		default:
			log.Error().Err(err).Msg("intake submission failed")
			abortWithDetails(c, http.StatusInternalServerError, "Failed to process submission", "internal error")
		}
		return
	}

	c.JSON(http.StatusOK, IntakeResponse{
		Success: true,
		Message: "Intake form submitted successfully",
		ID:      sub.ID.Hex(),
		Files:   storedLinks(sub),
	})
}

func bindIntakeRequest(form *multipart.Form) (*intakeRequest, error) {
	var req intakeRequest
	var err error

	single := func(names ...string) string {
		if err != nil {
			return ""
		}
		var v string
		v, err = singleValue(form.Value, names...)
		return v
	}
	req.ContactName = single(contactNameFields...)
	req.ContactEmail = single(contactEmailFields...)
	req.ContactPhone = single(contactPhoneFields...)
	req.FilterCopy = single("filterCopy")
	req.RobotTheme = single("robotTheme")
	req.VoiceActivation = single("voiceActivation")
	req.LoadingInstructions = single("loadingInstructions")
	req.SubmissionTime = single("submissionTime")
	if err != nil {
		return nil, err
	}

	type indexed struct {
		index int
		file  *multipart.FileHeader
	}
	var inspiration []indexed
	for field, files := range form.File {
		switch {
		case field == logoField:
			if len(files) != 1 {
				return nil, fmt.Errorf("%s accepts exactly one file", logoField)
			}
			req.Logo = files[0]
		case strings.HasPrefix(field, inspirationFieldPrefix):
			idx, convErr := strconv.Atoi(strings.TrimPrefix(field, inspirationFieldPrefix))
			if convErr != nil || idx < 0 {
				return nil, fmt.Errorf("%s has an invalid index", field)
			}
			if len(files) != 1 {
				return nil, fmt.Errorf("%s accepts exactly one file", field)
			}
			inspiration = append(inspiration, indexed{idx, files[0]})
		default:
			log.Debug().Str("field", field).Msg("ignoring unknown file field")
		}
	}
	sort.Slice(inspiration, func(i, j int) bool { return inspiration[i].index < inspiration[j].index })
	for _, f := range inspiration {
		req.Inspiration = append(req.Inspiration, f.file)
	}
	return &req, nil
}

// singleValue returns the first non-empty value among the aliases of one role. A name carrying more
// than one value is rejected.
func singleValue(values map[string][]string, names ...string) (string, error) {
	var out string
	for _, name := range names {
		vs := values[name]
		if len(vs) > 1 {
			return "", fmt.Errorf("%s must appear once", name)
		}
		if out == "" && len(vs) == 1 {
			out = strings.TrimSpace(vs[0])
		}
	}
	return out, nil
}

func (r *intakeRequest) toInput(attr domain.AttributionSnapshot) service.IntakeInput {
	in := service.IntakeInput{
		ContactName:         r.ContactName,
		ContactEmail:        r.ContactEmail,
		ContactPhone:        r.ContactPhone,
		FilterCopy:          r.FilterCopy,
		RobotTheme:          r.RobotTheme,
		VoiceActivation:     r.VoiceActivation,
		LoadingInstructions: r.LoadingInstructions,
		ClientSubmittedAt:   r.SubmissionTime,
		Attribution:         attr,
	}
	if r.Logo != nil {
		f := intakeFile(logoField, r.Logo)
		in.Logo = &f
	}
	for i, fh := range r.Inspiration {
		in.Inspiration = append(in.Inspiration, intakeFile(fmt.Sprintf("%s%d", inspirationFieldPrefix, i), fh))
	}
	return in
}

func intakeFile(field string, fh *multipart.FileHeader) service.IntakeFile {
	return service.IntakeFile{
		Field:       field,
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func storedLinks(sub *domain.IntakeSubmission) []string {
	links := []string{}
	if sub.Logo != nil {
		links = append(links, sub.Logo.Link())
	}
	for _, f := range sub.Inspiration {
		links = append(links, f.Link())
	}
	return links
}

// removeTransient deletes the temp files the multipart parser spilled to disk.
func removeTransient(form *multipart.Form) {
	if form == nil {
		return
	}
	if err := form.RemoveAll(); err != nil {
		log.Warn().Err(err).Msg("failed to remove transient upload files")
	}
}
