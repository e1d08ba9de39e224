// Package intent turns inbound chat text into a structured request.
//
// Deterministic rules are evaluated first, in order; the first match wins.
// Only when no rule matches is the optional Classifier consulted, and any
// failure on that path degrades to KindUnknown.
package intent

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// Kind is the category of a user's request.
type Kind string

// Supported intent kinds.
const (
	KindFlightStatus Kind = "flight_status"
	KindDepartures   Kind = "departures"
	KindArrivals     Kind = "arrivals"
	KindGreeting     Kind = "greeting"
	KindUnknown      Kind = "unknown"
)

// Source records which path produced an Intent.
type Source string

// Resolution sources.
const (
	SourceRule       Source = "rule"
	SourceClassifier Source = "classifier"
	SourceDefault    Source = "default"
)

// Intent is the classification of one inbound message.
// FlightCode is set only when Kind is KindFlightStatus.
type Intent struct {
	Kind       Kind
	FlightCode string
	Source     Source
}

// Unknown returns the intent used whenever nothing could be determined.
func Unknown() Intent {
	return Intent{Kind: KindUnknown, Source: SourceDefault}
}

// Classification is the raw, untrusted output of a Classifier.
type Classification struct {
	Intent     string
	FlightCode string
}

// Classifier is a best-effort natural-language intent guesser.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

var (
	flightCodeRe      = regexp.MustCompile(`(?i)\b([a-z]{2}\d{3,5})\b`)
	exactFlightCodeRe = regexp.MustCompile(`^[A-Z]{2}\d{3,5}$`)
)

// NormalizeFlightCode strips non-alphanumerics and uppercases s.
// It returns "" if the result is not two letters followed by 3-5 digits.
func NormalizeFlightCode(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	code := b.String()
	if !exactFlightCodeRe.MatchString(code) {
		return ""
	}
	return code
}

// FindFlightCode returns the first flight-code token in text, uppercased.
func FindFlightCode(text string) (string, bool) {
	m := flightCodeRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

// Words splits text into lowercase alphanumeric tokens.
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Coerce maps a raw Classification onto the Intent shape. Unrecognized
// kinds become KindUnknown, and a flight_status without a valid flight
// code is not trusted.
func Coerce(c Classification) Intent {
	kind := Kind(strings.ToLower(strings.TrimSpace(c.Intent)))
	switch kind {
	case KindFlightStatus:
		code := NormalizeFlightCode(c.FlightCode)
		if code == "" {
			return Intent{Kind: KindUnknown, Source: SourceClassifier}
		}
		return Intent{Kind: KindFlightStatus, FlightCode: code, Source: SourceClassifier}
	case KindDepartures, KindArrivals, KindGreeting:
		return Intent{Kind: kind, Source: SourceClassifier}
	default:
		return Intent{Kind: KindUnknown, Source: SourceClassifier}
	}
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRules replaces the default rule table.
func WithRules(rules []Rule) Option {
	return func(r *Resolver) {
		r.rules = rules
	}
}

// WithTimeout bounds each Classifier call.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = d
	}
}

// Resolver classifies inbound text.
type Resolver struct {
	rules      []Rule
	classifier Classifier
	timeout    time.Duration
	log        *slog.Logger
}

// NewResolver creates a Resolver using DefaultRules. classifier may be nil,
// in which case unmatched text resolves to KindUnknown.
func NewResolver(classifier Classifier, log *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		rules:      DefaultRules(),
		classifier: classifier,
		timeout:    5 * time.Second,
		log:        log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve classifies text. It never fails; every error path yields KindUnknown.
func (r *Resolver) Resolve(ctx context.Context, text string) Intent {
	words := Words(text)
	for _, rule := range r.rules {
		if in, ok := rule.Match(text, words); ok {
			in.Source = SourceRule
			r.log.Debug("intent matched rule", "rule", rule.Name, "kind", in.Kind)
			return in
		}
	}
	return r.fallback(ctx, text)
}

type classifyResult struct {
	c   Classification
	err error
}

func (r *Resolver) fallback(ctx context.Context, text string) Intent {
	if r.classifier == nil {
		return Unknown()
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ch := make(chan classifyResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- classifyResult{err: fmt.Errorf("classifier panic: %v", p)}
			}
		}()
		c, err := r.classifier.Classify(ctx, text)
		ch <- classifyResult{c: c, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			r.log.Warn("fallback classifier failed", "error", res.err)
			return Unknown()
		}
		in := Coerce(res.c)
		r.log.Debug("intent from classifier", "kind", in.Kind, "raw_intent", res.c.Intent)
		return in
	case <-ctx.Done():
		r.log.Warn("fallback classifier timed out", "error", ctx.Err())
		return Unknown()
	}
}
