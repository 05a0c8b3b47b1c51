package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEventType(t *testing.T) {
	got, ok := NormalizeEventType("  Wedding ")
	assert.True(t, ok)
	assert.Equal(t, EventWedding, got)

	_, ok = NormalizeEventType("bar mitzvah")
	assert.False(t, ok)
}

func TestNormalizeBudget(t *testing.T) {
	got, ok := NormalizeBudget("$1500 - $2000")
	assert.True(t, ok)
	assert.Equal(t, "$1500-$2000", got)

	_, ok = NormalizeBudget("$500")
	assert.False(t, ok)
}

func TestAttributionSnapshot_SummaryAndClone(t *testing.T) {
	s := AttributionSnapshot{"utm_medium": "cpc", "utm_source": "google"}
	assert.Equal(t, "utm_source=google, utm_medium=cpc", s.Summary())
	assert.Equal(t, "none", AttributionSnapshot{}.Summary())

	c := s.Clone()
	c["utm_source"] = "bing"
	assert.Equal(t, "google", s["utm_source"])
	assert.True(t, IsAttributionKey("hsa_ver"))
	assert.False(t, IsAttributionKey("gclid"))
}
