// Package people resolves free-text participant names to directory identities.
package people

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by directory gateways when an identity lookup misses.
var ErrNotFound = errors.New("identity not found")

// Identity is one person in the directory. Value object; read-only once fetched.
type Identity struct {
	ID          string   `json:"id,omitempty"`
	DisplayName string   `json:"display_name"`
	Mail        string   `json:"mail,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
	GivenName   string   `json:"given_name,omitempty"`
	FamilyName  string   `json:"family_name,omitempty"`
}

// Email returns the primary mail address, falling back to the first non-empty alias.
func (i Identity) Email() string {
	if mail := strings.TrimSpace(i.Mail); mail != "" {
		return mail
	}
	for _, alias := range i.Aliases {
		if trimmed := strings.TrimSpace(alias); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// Label returns the display name, falling back to the email address.
func (i Identity) Label() string {
	if name := strings.TrimSpace(i.DisplayName); name != "" {
		return name
	}
	if email := i.Email(); email != "" {
		return email
	}
	return "Unknown"
}

// OutcomeStatus tags the branch of an Outcome.
type OutcomeStatus string

const (
	StatusResolved  OutcomeStatus = "resolved"
	StatusAmbiguous OutcomeStatus = "ambiguous"
	StatusFailed    OutcomeStatus = "failed"
)

// Outcome is the result of resolving one name. Exactly one branch is populated
// according to Status: Identity for resolved, Term+Candidates for ambiguous,
// Reason for failed.
type Outcome struct {
	Status     OutcomeStatus `json:"status"`
	Identity   Identity      `json:"identity,omitzero"`
	Term       string        `json:"term,omitempty"`
	Candidates []Identity    `json:"candidates,omitempty"`
	Reason     string        `json:"reason,omitempty"`
}

// Resolved builds a resolved outcome for the given identity.
func Resolved(identity Identity) Outcome {
	return Outcome{Status: StatusResolved, Identity: identity}
}

// Failed builds a failed outcome with a user-facing reason.
func Failed(reason string) Outcome {
	return Outcome{Status: StatusFailed, Reason: reason}
}

// NotFound builds the standard failed outcome for a term with no directory hits.
func NotFound(term string) Outcome {
	return Failed("Користувача '" + term + "' не знайдено")
}

// Ambiguous builds an ambiguous outcome for the given term. Zero candidates
// collapse to a failed outcome and a single candidate collapses to resolved,
// so an ambiguous outcome always carries at least two candidates.
func Ambiguous(term string, candidates []Identity) Outcome {
	switch len(candidates) {
	case 0:
		return NotFound(term)
	case 1:
		return Resolved(candidates[0])
	}
	return Outcome{Status: StatusAmbiguous, Term: term, Candidates: candidates}
}

// NameRef is one requested participant: a free-text name, optionally marked as
// referring to the requester.
type NameRef struct {
	Name string `json:"name"`
	Self bool   `json:"self,omitempty"`
}

// Refs wraps plain names into NameRefs.
func Refs(names ...string) []NameRef {
	refs := make([]NameRef, len(names))
	for i, name := range names {
		refs[i] = NameRef{Name: name}
	}
	return refs
}

// AmbiguousName is one unresolved name with its disambiguation candidates.
type AmbiguousName struct {
	Term       string     `json:"term"`
	Candidates []Identity `json:"candidates"`
}

// BatchResult aggregates resolving a list of names. Resolved holds all
// identities found so far (the requester first when a self-reference was
// requested). Ambiguous holds one entry per name that needs caller-driven
// disambiguation. Err carries the first name-level failure message; it is a
// semantic outcome, not a transport error.
type BatchResult struct {
	Resolved  []Identity      `json:"resolved"`
	Ambiguous []AmbiguousName `json:"ambiguous,omitempty"`
	Err       string          `json:"error,omitempty"`
}

// OK reports whether every name resolved to exactly one identity.
func (r BatchResult) OK() bool {
	return r.Err == "" && len(r.Ambiguous) == 0
}

// DirectorySearcher performs identity searches against a directory backend.
type DirectorySearcher interface {
	// SearchByName runs the primary starts-with search on display name and
	// mail fields for the full search term.
	SearchByName(ctx context.Context, term string, limit int) ([]Identity, error)
	// SearchByPrefix runs the advanced starts-with search for a single token
	// across display name, given name, family name, and mail.
	SearchByPrefix(ctx context.Context, token string, limit int) ([]Identity, error)
	// SearchBySurnameInitial matches identities whose family name starts with
	// the given initial. Last-resort fallback.
	SearchBySurnameInitial(ctx context.Context, initial string, limit int) ([]Identity, error)
	// GetByID fetches one identity by its stable id.
	GetByID(ctx context.Context, id string) (Identity, error)
}

// Confidence is the oracle's self-reported certainty in a pick.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// OracleChoice is the oracle's pick from a candidate list.
type OracleChoice struct {
	Identity   Identity
	Confidence Confidence
	Reason     string
}

// Oracle picks the best candidate for a search term when similarity scoring is
// inconclusive.
type Oracle interface {
	SelectBestMatch(ctx context.Context, term string, candidates []Identity) (OracleChoice, error)
}
