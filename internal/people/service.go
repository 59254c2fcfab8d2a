package people

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"
)

const (
	// DefaultExactLimit caps candidates from the primary name search.
	DefaultExactLimit = 5
	// DefaultPrefixLimit caps candidates from the fallback searches.
	DefaultPrefixLimit = 20
	// DefaultAmbiguousLimit caps candidates surfaced for manual disambiguation.
	DefaultAmbiguousLimit = 10
	// DefaultOracleLimit caps candidates handed to the oracle.
	DefaultOracleLimit = 20
	// DefaultMinFallbackToken is the minimum token length for the prefix
	// fallback; shorter tokens go straight to the surname-initial search.
	DefaultMinFallbackToken = 3
)

// Options tune the resolution ladder. Zero fields take the defaults.
type Options struct {
	ScoreThreshold   int
	ScoreMargin      int
	ExactLimit       int
	PrefixLimit      int
	AmbiguousLimit   int
	OracleLimit      int
	MinFallbackToken int
}

func (o Options) withDefaults() Options {
	if o.ScoreThreshold <= 0 {
		o.ScoreThreshold = DefaultScoreThreshold
	}
	if o.ScoreMargin <= 0 {
		o.ScoreMargin = DefaultScoreMargin
	}
	if o.ExactLimit <= 0 {
		o.ExactLimit = DefaultExactLimit
	}
	if o.PrefixLimit <= 0 {
		o.PrefixLimit = DefaultPrefixLimit
	}
	if o.AmbiguousLimit <= 0 {
		o.AmbiguousLimit = DefaultAmbiguousLimit
	}
	if o.OracleLimit <= 0 {
		o.OracleLimit = DefaultOracleLimit
	}
	if o.MinFallbackToken <= 0 {
		o.MinFallbackToken = DefaultMinFallbackToken
	}
	return o
}

// Resolver turns free-text participant names into directory identities using
// a layered strategy: cached outcomes, an exact directory search, prefix and
// surname-initial fallbacks, fuzzy scoring, and finally the oracle.
type Resolver struct {
	directory DirectorySearcher
	oracle    Oracle
	scorer    Scorer
	cache     *SearchCache
	opts      Options
	logger    *slog.Logger
}

// NewResolver builds a resolver. The oracle may be nil, which disables the
// oracle rung of the ladder. A nil scorer falls back to FuzzyScorer and a nil
// cache gets default bounds.
func NewResolver(log *slog.Logger, directory DirectorySearcher, oracle Oracle, scorer Scorer, cache *SearchCache, opts Options) (*Resolver, error) {
	if directory == nil {
		return nil, fmt.Errorf("resolver: directory searcher is required")
	}
	if log == nil {
		log = slog.Default()
	}
	if scorer == nil {
		scorer = FuzzyScorer{}
	}
	if cache == nil {
		cache = NewSearchCache(0, 0)
	}
	return &Resolver{
		directory: directory,
		oracle:    oracle,
		scorer:    scorer,
		cache:     cache,
		opts:      opts.withDefaults(),
		logger:    log.With(slog.String("service", "people")),
	}, nil
}

var selfWords = map[string]struct{}{
	"me":   {},
	"я":    {},
	"мене": {},
	"мною": {},
}

// IsSelfWord reports whether name is one of the words users write to mean
// themselves ("me", "я", ...).
func IsSelfWord(name string) bool {
	_, ok := selfWords[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// ResolveOne resolves a single free-text name. Every outcome, including
// ambiguity and failure, is cached so repeated input does not hammer the
// directory. A term that looks like an email address and resolves nowhere is
// accepted as-is instead of failing.
func (r *Resolver) ResolveOne(ctx context.Context, name string) Outcome {
	term := strings.TrimSpace(name)
	if term == "" {
		return NotFound(name)
	}
	if out, ok := r.cache.Get(term); ok {
		r.logger.Debug("cache hit", slog.String("term", term))
		return out
	}

	out := r.resolve(ctx, term)
	if out.Status == StatusFailed && strings.Contains(term, "@") {
		r.logger.Info("using raw email fallback", slog.String("term", term))
		out = Resolved(Identity{DisplayName: term, Mail: term})
	}
	r.cache.Set(term, out)
	return out
}

func (r *Resolver) resolve(ctx context.Context, term string) Outcome {
	candidates, err := r.directory.SearchByName(ctx, term, r.opts.ExactLimit)
	if err != nil {
		r.logger.Warn("name search failed", slog.String("term", term), slog.Any("error", err))
		candidates = nil
	}

	if len(candidates) == 1 && isFullNameMatch(term, candidates[0]) {
		r.logger.Info("exact match found", slog.String("term", term), slog.String("display_name", candidates[0].DisplayName))
		return Resolved(candidates[0])
	}

	if len(candidates) == 0 {
		candidates, err = r.fallbackSearch(ctx, term)
		if err != nil {
			return Failed(err.Error())
		}
		if len(candidates) == 0 {
			return NotFound(term)
		}
	}

	return r.decide(ctx, term, candidates)
}

// fallbackSearch runs the prefix search on the longest token of the term, or
// the surname-initial search when the token is too short or the prefix query
// errors.
func (r *Resolver) fallbackSearch(ctx context.Context, term string) ([]Identity, error) {
	token := longestToken(term)
	if utf8.RuneCountInString(token) >= r.opts.MinFallbackToken {
		candidates, err := r.directory.SearchByPrefix(ctx, token, r.opts.PrefixLimit)
		if err == nil {
			return candidates, nil
		}
		r.logger.Warn("prefix search failed, trying surname initial", slog.String("token", token), slog.Any("error", err))
	}
	return r.directory.SearchBySurnameInitial(ctx, surnameInitial(term), r.opts.PrefixLimit)
}

// decide applies the shared decision ladder to a non-empty candidate set.
func (r *Resolver) decide(ctx context.Context, term string, candidates []Identity) Outcome {
	if len(candidates) == 1 {
		return Resolved(candidates[0])
	}
	if match, ok := FindBestMatch(r.scorer, term, candidates, r.opts.ScoreThreshold, r.opts.ScoreMargin); ok {
		return Resolved(match)
	}
	if len(candidates) > r.opts.AmbiguousLimit {
		if picked, ok := r.askOracle(ctx, term, candidates); ok {
			return Resolved(picked)
		}
		return Ambiguous(term, candidates[:r.opts.AmbiguousLimit])
	}
	return Ambiguous(term, candidates)
}

// askOracle reports a pick only when the oracle is configured, answers
// without error, and is highly confident. Anything less keeps the outcome
// ambiguous so a person makes the call.
func (r *Resolver) askOracle(ctx context.Context, term string, candidates []Identity) (Identity, bool) {
	if r.oracle == nil {
		return Identity{}, false
	}
	limited := candidates
	if len(limited) > r.opts.OracleLimit {
		limited = limited[:r.opts.OracleLimit]
	}
	choice, err := r.oracle.SelectBestMatch(ctx, term, limited)
	if err != nil {
		r.logger.Warn("oracle selection failed", slog.String("term", term), slog.Any("error", err))
		return Identity{}, false
	}
	if choice.Confidence != ConfidenceHigh {
		r.logger.Debug("oracle not confident enough", slog.String("term", term), slog.String("confidence", string(choice.Confidence)))
		return Identity{}, false
	}
	r.logger.Info("oracle selected", slog.String("term", term), slog.String("display_name", choice.Identity.DisplayName))
	return choice.Identity, true
}

type pendingOutcome struct {
	term string
	out  Outcome
}

// ResolveMany resolves a batch of participant references. Self references
// resolve through a single requester lookup before the fan-out; a failed
// requester lookup drops the self reference instead of failing the batch.
// Distinct names resolve concurrently, duplicates share one lookup, and
// results are reassembled in input order. The first failed name aborts the
// walk and becomes the batch error, keeping what already resolved. The
// returned error is reserved for context cancellation.
func (r *Resolver) ResolveMany(ctx context.Context, refs []NameRef, requesterID string) (BatchResult, error) {
	var result BatchResult

	selfRequested := false
	order := make([]string, 0, len(refs))
	pendingByKey := make(map[string]*pendingOutcome, len(refs))
	for _, ref := range refs {
		name := strings.TrimSpace(ref.Name)
		if ref.Self || IsSelfWord(name) {
			selfRequested = true
			continue
		}
		key := normalizeTerm(name)
		if _, ok := pendingByKey[key]; ok {
			continue
		}
		pendingByKey[key] = &pendingOutcome{term: name}
		order = append(order, key)
	}

	if selfRequested && requesterID != "" {
		identity, err := r.directory.GetByID(ctx, requesterID)
		if err != nil {
			r.logger.Warn("requester lookup failed", slog.String("requester_id", requesterID), slog.Any("error", err))
		} else {
			result.Resolved = append(result.Resolved, identity)
		}
	}

	var wg sync.WaitGroup
	for _, key := range order {
		wg.Add(1)
		go func(p *pendingOutcome) {
			defer wg.Done()
			p.out = r.ResolveOne(ctx, p.term)
		}(pendingByKey[key])
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return BatchResult{}, err
	}

	for _, ref := range refs {
		name := strings.TrimSpace(ref.Name)
		if ref.Self || IsSelfWord(name) {
			continue
		}
		out := pendingByKey[normalizeTerm(name)].out
		switch out.Status {
		case StatusResolved:
			result.Resolved = append(result.Resolved, out.Identity)
		case StatusAmbiguous:
			result.Ambiguous = append(result.Ambiguous, AmbiguousName{Term: name, Candidates: out.Candidates})
		case StatusFailed:
			result.Err = out.Reason
			return result, nil
		}
	}
	return result, nil
}

func isFullNameMatch(term string, cand Identity) bool {
	parts := strings.Fields(strings.ToLower(term))
	if len(parts) < 2 {
		return false
	}
	display := strings.ToLower(cand.DisplayName)
	for _, part := range parts {
		if !strings.Contains(display, part) {
			return false
		}
	}
	return true
}

func longestToken(term string) string {
	longest := ""
	for _, token := range strings.Fields(term) {
		if utf8.RuneCountInString(token) > utf8.RuneCountInString(longest) {
			longest = token
		}
	}
	return longest
}

func surnameInitial(term string) string {
	fields := strings.Fields(term)
	if len(fields) == 0 {
		return ""
	}
	first, _ := utf8.DecodeRuneInString(fields[len(fields)-1])
	if first == utf8.RuneError {
		return ""
	}
	return string(first)
}
