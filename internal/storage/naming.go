package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxSanitizedLen = 80

// StorageName derives the durable name from the submission time, a random token and the original name.
func StorageName(at time.Time, token, originalName string) string {
	return fmt.Sprintf("%d-%s-%s", at.UnixMilli(), token, SanitizeName(originalName))
}

// NewToken returns 32 hex characters of randomness.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SanitizeName keeps the base name's letters, digits, dots, dashes and underscores. Everything else
// becomes a dash. Leading dots are dropped so a stored file can never be hidden or relative.
func SanitizeName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	lastDash := false
	for _, r := range name {
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '_' || r == '-'
		if !ok {
			r = '-'
		}
		if r == '-' && lastDash {
			continue
		}
		lastDash = r == '-'
		b.WriteRune(r)
	}

	out := strings.TrimLeft(b.String(), ".-")
	for strings.Contains(out, "..") {
		out = strings.ReplaceAll(out, "..", ".")
	}
	if len(out) > maxSanitizedLen {
		ext := ""
		if i := strings.LastIndex(out, "."); i > 0 && len(out)-i <= 10 {
			ext = out[i:]
		}
		out = out[:maxSanitizedLen-len(ext)] + ext
	}
	if out == "" || out == "." {
		return "file"
	}
	return out
}
