package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"snapbooth/site/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// maxLeadBody bounds lead-form bodies; they carry only short text fields.
const maxLeadBody = 64 << 10

// LeadHandler serves the lead-capture forms.
type LeadHandler struct {
	leadService service.LeadService
}

func NewLeadHandler(leadService service.LeadService) *LeadHandler {
	return &LeadHandler{leadService: leadService}
}

// LeadResponse is the success body.
type LeadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

// Submit handles POST /api/leads. Bodies may be JSON or url-encoded.
func (h *LeadHandler) Submit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxLeadBody)

	fields, err := leadFields(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		abortWithDetails(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	in := service.LeadInputFromFields(fields)
	in.Attribution = attributionFromContext(c)

	// The primary record must be written even if the client goes away.
	lead, err := h.leadService.Submit(context.WithoutCancel(c.Request.Context()), in)
	if err != nil {
		var verrs service.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			abortWithDetails(c, http.StatusBadRequest, "Validation failed", verrs)
		default:
			log.Error().Err(err).Msg("lead submission failed")
			abortWithError(c, http.StatusInternalServerError, "Failed to record your request")
		}
		return
	}

	c.JSON(http.StatusOK, LeadResponse{
		Success: true,
		Message: "Thanks! We'll be in touch shortly.",
		ID:      lead.ID.Hex(),
	})
}

// leadFields flattens the request body into string fields. JSON, multipart and url-encoded bodies are
// accepted; every field must be single-valued.
func leadFields(c *gin.Context) (map[string]string, error) {
	switch ct := c.ContentType(); {
	case strings.HasPrefix(ct, "application/json"):
		return jsonLeadFields(c)
	case ct == "multipart/form-data":
		if err := c.Request.ParseMultipartForm(maxLeadBody); err != nil {
			return nil, err
		}
		defer removeTransient(c.Request.MultipartForm)
		if len(c.Request.MultipartForm.File) > 0 {
			return nil, errors.New("lead forms do not accept files")
		}
		return singleValued(c.Request.MultipartForm.Value)
	default:
		if err := c.Request.ParseForm(); err != nil {
			return nil, err
		}
		return singleValued(c.Request.PostForm)
	}
}

func jsonLeadFields(c *gin.Context) (map[string]string, error) {
	dec := json.NewDecoder(c.Request.Body)
	// Numbers keep their literal text, so a numeric phone is not reformatted.
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
		case string:
			fields[k] = val
		case json.Number:
			fields[k] = val.String()
		case bool:
			fields[k] = strconv.FormatBool(val)
		default:
			return nil, fmt.Errorf("field %q must be a scalar", k)
		}
	}
	return fields, nil
}

func singleValued(values map[string][]string) (map[string]string, error) {
	fields := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) > 1 {
			return nil, fmt.Errorf("field %q must appear once", k)
		}
		if len(vs) == 1 {
			fields[k] = vs[0]
		}
	}
	return fields, nil
}
