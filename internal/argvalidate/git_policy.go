package argvalidate

import "fmt"

// GitTier names one of the three risk tiers git subcommands are
// partitioned into (spec.md §9 Open Question 1: a three-tier git policy
// that overlaps with a separate top-level allowlist).
type GitTier string

const (
	TierReadOnly    GitTier = "read-only"    // status, log, diff, show, ...
	TierMutating    GitTier = "mutating"     // add, commit, checkout, merge, ...
	TierDestructive GitTier = "destructive"  // reset --hard, clean -fdx, push --force, ...
)

// GitTierPolicy classifies git subcommands into tiers and decides which
// tiers are allowed. Overlap with a separate top-level tool allowlist is
// resolved by always taking the stricter (more denying) of the two: a
// subcommand is allowed only if both the tier policy AND the top-level
// allowlist (if any) admit it.
type GitTierPolicy struct {
	AllowedTiers map[GitTier]bool
	// TopLevelAllow, when non-empty, is an independent allowlist of
	// exact "git <subcommand>" strings. A subcommand must clear both
	// this list and AllowedTiers to be permitted.
	TopLevelAllow map[string]bool
}

// DefaultGitTierPolicy allows read-only and ordinary mutating commands
// but requires explicit escalation for destructive ones (reset --hard,
// force push, clean -fdx), matching spec.md's example scenario
// ("git reset --hard vs --soft").
func DefaultGitTierPolicy() GitTierPolicy {
	return GitTierPolicy{
		AllowedTiers: map[GitTier]bool{
			TierReadOnly: true,
			TierMutating: true,
			TierDestructive: false,
		},
	}
}

var readOnlySubcommands = map[string]bool{
	"status": true, "log": true, "diff": true, "show": true,
	"branch": true, "remote": true, "blame": true, "rev-parse": true,
}

var destructiveSignatures = []struct {
	subcommand string
	flags      []string
}{
	{"reset", []string{"--hard"}},
	{"clean", []string{"-f", "-fd", "-fdx", "-fx"}},
	{"push", []string{"--force", "-f", "--force-with-lease"}},
	{"branch", []string{"-D"}},
	{"checkout", []string{"-f", "--force"}},
}

func classifyGitTier(args []string) GitTier {
	if len(args) == 0 {
		return TierReadOnly
	}
	sub := args[0]

	for _, sig := range destructiveSignatures {
		if sig.subcommand != sub {
			continue
		}
		for _, flag := range sig.flags {
			for _, a := range args[1:] {
				if a == flag {
					return TierDestructive
				}
			}
		}
	}

	if readOnlySubcommands[sub] {
		return TierReadOnly
	}
	return TierMutating
}

// Validate applies the tier policy, then (if configured) the top-level
// allowlist, returning Deny on the first check that rejects.
func (p GitTierPolicy) Validate(args []string) (Verdict, string) {
	if len(args) == 0 {
		return VerdictDeny, "git invoked with no subcommand"
	}
	sub := args[0]
	tier := classifyGitTier(args)

	if !p.AllowedTiers[tier] {
		return VerdictDeny, fmt.Sprintf("git %s classified as %s, which is not permitted", sub, tier)
	}

	if len(p.TopLevelAllow) > 0 {
		key := "git " + sub
		if !p.TopLevelAllow[key] {
			return VerdictDeny, fmt.Sprintf("%s is not in the top-level git allowlist (stricter of tier/allowlist wins)", key)
		}
	}

	return VerdictAllow, ""
}
