package notify

import (
	"fmt"
	"os"
	"sync"

	"github.com/osteele/liquid"

	"snapbooth/site/internal/domain"
)

const defaultIntakeTemplate = `New client intake from {{ name }}

Contact
- Name: {{ name }}
- Email: {{ email }}
- Phone: {{ phone }}

Logo: {{ logo }}
Inspiration images ({{ inspiration_count }}):
{% for link in inspiration %}- {{ link }}
{% endfor %}
Filter copy: {{ filter_copy | default: "none" }}
Robot theme: {{ robot_theme | default: "none" }}
Voice activation: {{ voice_activation | default: "none" }}
Loading instructions: {{ loading_instructions | default: "none" }}

Submitted: {{ submitted_at }}
Attribution: {{ attribution }}
`

const defaultLeadTemplate = `New {{ source }} lead from {{ name }}

- Name: {{ name }}
- Email: {{ email | default: "not given" }}
- Phone: {{ phone | default: "not given" }}
- Event type: {{ event_type | default: "not given" }}
- Event date: {{ event_date | default: "not given" }}
- Budget: {{ budget | default: "not given" }}
{% if package_name != "" %}- Package: {{ package_name }}
{% endif %}{% if message != "" %}
Message:
{{ message }}
{% endif %}
Submitted: {{ submitted_at }}
Attribution: {{ attribution }}
`

// Renderer turns submission fields into the human-readable notification body.
type Renderer struct {
	engine    *liquid.Engine
	mu        sync.RWMutex
	templates map[domain.NotificationKind]*liquid.Template
}

// NewRenderer parses the built-in templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{engine: liquid.NewEngine(), templates: map[domain.NotificationKind]*liquid.Template{}}
	if err := r.SetTemplate(domain.NotificationIntake, defaultIntakeTemplate); err != nil {
		return nil, err
	}
	if err := r.SetTemplate(domain.NotificationLead, defaultLeadTemplate); err != nil {
		return nil, err
	}
	return r, nil
}

// SetTemplate replaces the template for kind after checking it parses.
func (r *Renderer) SetTemplate(kind domain.NotificationKind, src string) error {
	tpl, err := r.engine.ParseString(src)
	if err != nil {
		return fmt.Errorf("notify: parse %s template: %w", kind, err)
	}
	r.mu.Lock()
	r.templates[kind] = tpl
	r.mu.Unlock()
	return nil
}

// LoadTemplateFile overrides the template for kind from a file. An empty path is a no-op.
func (r *Renderer) LoadTemplateFile(kind domain.NotificationKind, path string) error {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("notify: read %s template: %w", kind, err)
	}
	return r.SetTemplate(kind, string(b))
}

// Render executes the template for kind with vars.
func (r *Renderer) Render(kind domain.NotificationKind, vars map[string]any) (string, error) {
	r.mu.RLock()
	tpl, ok := r.templates[kind]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("notify: no template for %s", kind)
	}
	out, err := tpl.RenderString(vars)
	if err != nil {
		return "", fmt.Errorf("notify: render %s: %w", kind, err)
	}
	return out, nil
}
