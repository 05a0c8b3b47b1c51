package domain

import "strings"

// AttributionKeys is the allow-list of query parameters recognized as marketing attribution.
// Order matters: it is the column order used when attribution is flattened into a sheet row.
var AttributionKeys = []string{
	"utm_source",
	"utm_medium",
	"utm_campaign",
	"utm_content",
	"utm_term",
	"hsa_acc",
	"hsa_cam",
	"hsa_grp",
	"hsa_ad",
	"hsa_src",
	"hsa_net",
	"hsa_ver",
}

// AttributionSnapshot maps recognized attribution keys to the values captured on first load.
type AttributionSnapshot map[string]string

// IsAttributionKey reports whether key is one of AttributionKeys.
func IsAttributionKey(key string) bool {
	for _, k := range AttributionKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Empty reports whether nothing was captured.
func (s AttributionSnapshot) Empty() bool {
	return len(s) == 0
}

// Clone returns a copy so callers can never mutate a persisted snapshot.
func (s AttributionSnapshot) Clone() AttributionSnapshot {
	if s == nil {
		return AttributionSnapshot{}
	}
	out := make(AttributionSnapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Summary renders "key=value" pairs in AttributionKeys order, or "none".
func (s AttributionSnapshot) Summary() string {
	parts := make([]string, 0, len(s))
	for _, k := range AttributionKeys {
		if v := s[k]; v != "" {
			parts = append(parts, k+"="+v)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
