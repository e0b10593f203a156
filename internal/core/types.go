package core

import "time"

// Scope identifies a named quota bucket for one category of external call.
type Scope string

const (
	ScopeSearch     Scope = "search"
	ScopeScrape     Scope = "scrape"
	ScopeSocial     Scope = "social"
	ScopeCandidates Scope = "candidates"
)

// Scopes lists every quota scope the service knows about. The set is fixed at
// startup; handing an unknown scope to the limiter is a programming error.
var Scopes = []Scope{ScopeSearch, ScopeScrape, ScopeSocial, ScopeCandidates}

// KnownScope reports whether the scope is part of the fixed set.
func KnownScope(scope Scope) bool {
	for _, s := range Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Decision is the outcome of a quota check. A denied decision is a normal,
// retryable condition, not a fault.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	Remaining  int
}

// TargetStatus classifies the terminal state of one scrape target.
type TargetStatus string

const (
	TargetOK          TargetStatus = "ok"
	TargetRateLimited TargetStatus = "rate_limited"
	TargetFailed      TargetStatus = "failed"
	TargetTimeout     TargetStatus = "timeout"
)

// TargetResult reports the outcome for a single target in a batch. Failures
// are scoped to the one target; a batch never fails as a whole.
type TargetResult struct {
	Target     string
	Status     TargetStatus
	Payload    []byte
	FromCache  bool
	RetryAfter time.Duration
	Err        error
}

// ErrorMessage returns the target's error text, or "" on success.
func (r TargetResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
