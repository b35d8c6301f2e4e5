package stripeapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "none"},
		{"active", "active"},
		{"trialing", "trialing"},
		{"unpaid", "past_due"},
		{"past_due", "past_due"},
		{"incomplete_expired", "canceled"},
		{"paused", "paused"},
	}
	for _, tt := range tests {
		in := tt.in
		assert.Equal(t, tt.want, NormalizeStatus(&in), tt.in)
	}
	assert.Equal(t, "none", NormalizeStatus(nil))
}

func TestHasActivePeriod(t *testing.T) {
	assert.True(t, HasActivePeriod("active"))
	assert.True(t, HasActivePeriod("past_due"))
	assert.False(t, HasActivePeriod("canceled"))
	assert.False(t, HasActivePeriod("incomplete_expired"))
}
