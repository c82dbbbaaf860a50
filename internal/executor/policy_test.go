package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()

	assert.Equal(t, 2, p.MaxRetries)
	assert.Equal(t, 3, p.MaxAttempts())
	assert.Equal(t, 10*time.Second, p.AttemptTimeout)
	assert.Equal(t, 300*time.Millisecond, p.BackoffBase)
	assert.NoError(t, p.Validate())
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{BackoffBase: 300 * time.Millisecond, BackoffMultiplier: 2, MaxBackoff: time.Second}

	assert.Equal(t, 300*time.Millisecond, p.Delay(0))
	assert.Equal(t, 600*time.Millisecond, p.Delay(1))
	assert.Equal(t, time.Second, p.Delay(2), "capped by MaxBackoff")
}

func TestRetryPolicy_WorstCaseLatency(t *testing.T) {
	p := RetryPolicy{
		MaxRetries:        2,
		AttemptTimeout:    time.Second,
		BackoffBase:       100 * time.Millisecond,
		BackoffMultiplier: 2,
	}

	assert.Equal(t, 3*time.Second+300*time.Millisecond, p.WorstCaseLatency())
}

func TestRetryPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  RetryPolicy
		wantErr bool
	}{
		{"default", DefaultRetryPolicy(), false},
		{"negative retries", RetryPolicy{MaxRetries: -1, AttemptTimeout: time.Second, BackoffMultiplier: 2}, true},
		{"zero timeout", RetryPolicy{MaxRetries: 1, BackoffMultiplier: 2}, true},
		{"negative base", RetryPolicy{AttemptTimeout: time.Second, BackoffBase: -time.Second, BackoffMultiplier: 2}, true},
		{"shrinking multiplier", RetryPolicy{AttemptTimeout: time.Second, BackoffMultiplier: 0.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetryPolicy_ApplyDefaults(t *testing.T) {
	p := RetryPolicy{MaxRetries: 1, BackoffBase: 50 * time.Millisecond}
	p.ApplyDefaults()

	assert.Equal(t, 1, p.MaxRetries)
	assert.Equal(t, 50*time.Millisecond, p.BackoffBase)
	assert.Equal(t, 10*time.Second, p.AttemptTimeout)
	assert.Equal(t, float64(2), p.BackoffMultiplier)
	assert.Equal(t, 5*time.Second, p.MaxBackoff)
}
