package executor

import (
	"fmt"
	"time"
)

// RetryPolicy bounds the latency and the number of attempts of one logical fetch
type RetryPolicy struct {
	MaxRetries        int           `yaml:"max_retries" validate:"gte=0,lte=10"`
	AttemptTimeout    time.Duration `yaml:"attempt_timeout" validate:"gte=0"`
	BackoffBase       time.Duration `yaml:"backoff_base" validate:"gte=0"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" validate:"gte=0"`
	MaxBackoff        time.Duration `yaml:"max_backoff" validate:"gte=0"`
}

// DefaultRetryPolicy returns two retries after the first attempt, 300ms base backoff
// doubling per retry and a 10s budget per attempt
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		AttemptTimeout:    10 * time.Second,
		BackoffBase:       300 * time.Millisecond,
		BackoffMultiplier: 2,
		MaxBackoff:        5 * time.Second,
	}
}

// MaxAttempts is the total number of attempts including the first one
func (p RetryPolicy) MaxAttempts() int {
	return p.MaxRetries + 1
}

// Delay returns the sleep before retry number retry (0-based)
func (p RetryPolicy) Delay(retry int) time.Duration {
	d := float64(p.BackoffBase)
	for i := 0; i < retry; i++ {
		d *= p.BackoffMultiplier
	}
	delay := time.Duration(d)
	if p.MaxBackoff > 0 && delay > p.MaxBackoff {
		return p.MaxBackoff
	}
	return delay
}

// Validate checks the policy bounds
func (p RetryPolicy) Validate() error {
	if p.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", p.MaxRetries)
	}
	if p.AttemptTimeout <= 0 {
		return fmt.Errorf("attempt_timeout must be positive, got %s", p.AttemptTimeout)
	}
	if p.BackoffBase < 0 {
		return fmt.Errorf("backoff_base must not be negative, got %s", p.BackoffBase)
	}
	if p.BackoffMultiplier < 1 {
		return fmt.Errorf("backoff_multiplier must be at least 1, got %v", p.BackoffMultiplier)
	}
	return nil
}

// ApplyDefaults fills zero fields from DefaultRetryPolicy
func (p *RetryPolicy) ApplyDefaults() {
	def := DefaultRetryPolicy()
	if p.AttemptTimeout == 0 {
		p.AttemptTimeout = def.AttemptTimeout
	}
	if p.BackoffMultiplier == 0 {
		p.BackoffMultiplier = def.BackoffMultiplier
	}
	if p.MaxBackoff == 0 {
		p.MaxBackoff = def.MaxBackoff
	}
}

// WorstCaseLatency is the longest a fetch can take when every attempt times out
func (p RetryPolicy) WorstCaseLatency() time.Duration {
	total := time.Duration(p.MaxAttempts()) * p.AttemptTimeout
	for i := 0; i < p.MaxRetries; i++ {
		total += p.Delay(i)
	}
	return total
}
