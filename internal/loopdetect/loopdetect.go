// Package loopdetect implements the Loop Detector (spec.md §4.6): a
// bounded map of LoopSignature to recent-outcome history, classifying
// exact-repeat, alternating, and degradation-by-score patterns, with an
// interactive collaborator response when the threshold is crossed.
package loopdetect

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Signature identifies a recurring (tool, normalized-args) pair by a
// stable 64-bit hash, matching spec.md §3's LoopSignature.
type Signature uint64

// HashSignature computes a stable signature for a tool invocation. args
// must already be normalized (sorted keys, canonical value formatting)
// by the caller so that equivalent calls hash identically.
func HashSignature(toolName, normalizedArgs string) Signature {
	h := xxhash.New()
	_, _ = h.WriteString(toolName)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(normalizedArgs)
	return Signature(h.Sum64())
}

// Pattern classifies why a signature's recent history crossed the
// threshold (resolves spec.md §9 Open Question 2: the spec requires
// richer classification than the teacher's plain hit-counter).
type Pattern string

const (
	PatternNone        Pattern = "none"
	PatternExactRepeat Pattern = "exact_repeat"
	PatternAlternating Pattern = "alternating"
	PatternDegrading   Pattern = "degrading"
)

// Response is the interactive collaborator's decision once a loop is
// flagged (spec.md §4.6).
type Response string

const (
	ResponseResetSignature Response = "reset_this_signature"
	ResponseDisableSession Response = "disable_for_session"
	ResponseCancel         Response = "cancel"
)

type entry struct {
	history []float64 // recent outcome "scores" (e.g. output similarity / success signal)
	alt     Signature  // previous signature, to detect A/B alternation
	hits    int
}

const historyWindow = 5

// Detector tracks signatures in a bounded map, evicting the least
// recently observed entries once MaxSignatures is exceeded (every
// Observe moves its signature to the most-recent end) — the
// prune-then-evict shape adapted from the teacher's
// channels/ratelimit.go WebhookRateLimiter.
type Detector struct {
	mu            sync.Mutex
	entries       map[Signature]*entry
	order         []Signature
	MaxSignatures int
	Threshold     int
	lastSignature Signature
	disabled      bool
}

// NewDetector constructs a Detector bounded at maxSignatures entries,
// flagging a loop once a signature recurs threshold times.
func NewDetector(maxSignatures, threshold int) *Detector {
	return &Detector{
		entries:       make(map[Signature]*entry),
		MaxSignatures: maxSignatures,
		Threshold:     threshold,
	}
}

// Observe records one occurrence of sig with an outcome score (e.g. a
// similarity score against the previous output; callers may pass 0 when
// they have no score to contribute) and returns the classified pattern
// once the threshold is crossed, or PatternNone otherwise.
func (d *Detector) Observe(sig Signature, score float64) Pattern {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.disabled {
		return PatternNone
	}

	e, ok := d.entries[sig]
	if !ok {
		e = &entry{}
		d.entries[sig] = e
	}
	d.touchLocked(sig)
	d.evictLocked()
	e.hits++
	e.history = append(e.history, score)
	if len(e.history) > historyWindow {
		e.history = e.history[len(e.history)-historyWindow:]
	}

	prevSig := d.lastSignature
	d.lastSignature = sig

	if e.hits < d.Threshold {
		return PatternNone
	}

	if prevSig != 0 && prevSig != sig {
		if prevEntry, ok := d.entries[prevSig]; ok && prevEntry.alt == sig {
			return PatternAlternating
		}
		e.alt = prevSig
	}

	if isDegrading(e.history) {
		return PatternDegrading
	}

	return PatternExactRepeat
}

// isDegrading reports whether scores rise strictly across the whole
// retained window (e.g. similarity to the previous output creeping
// toward 1.0 — the model repeating itself). Flat or falling scores are
// not classified as degrading.
func isDegrading(history []float64) bool {
	if len(history) < 3 {
		return false
	}
	worsening := 0
	for i := 1; i < len(history); i++ {
		if history[i] > history[i-1] {
			worsening++
		}
	}
	return worsening == len(history)-1
}

// touchLocked moves sig to the most-recently-used end of order.
func (d *Detector) touchLocked(sig Signature) {
	for i, s := range d.order {
		if s == sig {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	d.order = append(d.order, sig)
}

func (d *Detector) evictLocked() {
	for len(d.order) > d.MaxSignatures {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.entries, oldest)
	}
}

// Apply processes the interactive collaborator's chosen Response.
func (d *Detector) Apply(sig Signature, resp Response) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch resp {
	case ResponseResetSignature:
		delete(d.entries, sig)
	case ResponseDisableSession:
		d.disabled = true
	case ResponseCancel:
		// Caller is responsible for propagating cancellation; the
		// detector itself has no cancellation token to act on.
	}
}
