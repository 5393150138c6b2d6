package crm_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/jobkit/pkg/crm"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status    int
		category  crm.Category
		retryable bool
		alert     bool
	}{
		{400, crm.CategoryValidation, false, false},
		{401, crm.CategoryAuthentication, false, true},
		{403, crm.CategoryAuthentication, false, true},
		{404, crm.CategoryClientError, false, false},
		{409, crm.CategoryClientError, false, false},
		{422, crm.CategoryClientError, false, false},
		{429, crm.CategoryRateLimit, true, false},
		{500, crm.CategoryServerError, true, true},
		{502, crm.CategoryServerError, true, false},
		{503, crm.CategoryServerError, true, false},
		{504, crm.CategoryServerError, true, false},
		{520, crm.CategoryServerError, true, true},
		{599, crm.CategoryServerError, true, true},
		{302, crm.CategoryClientError, false, false},
	}

	for _, tt := range tests {
		c := crm.Classify(tt.status)
		assert.Equal(t, tt.status, c.StatusCode)
		assert.Equal(t, tt.category, c.Category, "status %d", tt.status)
		assert.Equal(t, tt.retryable, c.Retryable, "status %d", tt.status)
		assert.Equal(t, tt.alert, c.ShouldAlert, "status %d", tt.status)
		assert.NotEmpty(t, c.Message)
	}
}

func TestClassifyNetworkError(t *testing.T) {
	t.Parallel()

	c := crm.ClassifyNetworkError(errors.New("connection reset"))
	assert.Equal(t, crm.CategoryNetworkError, c.Category)
	assert.True(t, c.Retryable)
	assert.False(t, c.ShouldAlert)
	assert.Zero(t, c.StatusCode)
	assert.Contains(t, c.Message, "connection reset")
}

func TestBackoff_Delay(t *testing.T) {
	t.Parallel()

	b := crm.Backoff{BaseDelay: time.Second, MaxDelay: 30 * time.Second}
	want := []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
	}
	for i, d := range want {
		assert.Equal(t, d, b.Delay(i+1), "attempt %d", i+1)
	}
	assert.Equal(t, 30*time.Second, b.Delay(60))
	assert.Zero(t, b.Delay(0))
	assert.Equal(t, crm.DefaultBackoff(), b)
}
