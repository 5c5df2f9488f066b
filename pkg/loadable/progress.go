package loadable

import (
	"fmt"
	"strings"
)

// Progress is an optional payload attached to a loading state. All
// fields are optional; accessors report presence. Progress values are
// immutable and comparable with ==.
type Progress struct {
	message     string
	hasMessage  bool
	percent     int
	hasPercent  bool
	canceled    bool
	hasCanceled bool
}

// ProgressOption configures a Progress under construction.
type ProgressOption func(*Progress)

// WithMessage attaches a human-readable status message.
func WithMessage(message string) ProgressOption {
	return func(p *Progress) {
		p.message = message
		p.hasMessage = true
	}
}

// WithPercent attaches a completion percentage. Out-of-range values
// are clamped to [0, 100], never rejected.
func WithPercent(percent int) ProgressOption {
	return func(p *Progress) {
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		p.percent = percent
		p.hasPercent = true
	}
}

// WithCanceled attaches a cancellation hint. The hint is advisory;
// authoritative cancellation lives on the Loadable itself.
func WithCanceled(canceled bool) ProgressOption {
	return func(p *Progress) {
		p.canceled = canceled
		p.hasCanceled = true
	}
}

// NewProgress builds a Progress from the given options.
func NewProgress(opts ...ProgressOption) *Progress {
	p := &Progress{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Message returns the status message and whether one was set.
func (p *Progress) Message() (string, bool) {
	return p.message, p.hasMessage
}

// Percent returns the completion percentage and whether one was set.
func (p *Progress) Percent() (int, bool) {
	return p.percent, p.hasPercent
}

// Canceled returns the cancellation hint and whether one was set.
func (p *Progress) Canceled() (bool, bool) {
	return p.canceled, p.hasCanceled
}

// String formats the set fields for logs and test failures.
func (p *Progress) String() string {
	var parts []string
	if p.hasMessage {
		parts = append(parts, fmt.Sprintf("message=%q", p.message))
	}
	if p.hasPercent {
		parts = append(parts, fmt.Sprintf("percent=%d", p.percent))
	}
	if p.hasCanceled {
		parts = append(parts, fmt.Sprintf("canceled=%t", p.canceled))
	}
	return "progress{" + strings.Join(parts, " ") + "}"
}
