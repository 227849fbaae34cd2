// Package argvalidate implements the Argument Validator (spec.md §4.2):
// a per-program allowlist table with deny-list-first ordering, shell
// metacharacter rejection, and a three-tier git subcommand policy.
package argvalidate

import (
	"fmt"
	"regexp"
)

// Verdict is the outcome of validating a single argv.
type Verdict string

const (
	VerdictAllow Verdict = "allow"
	VerdictDeny  Verdict = "deny"
)

// Rule is one entry in a per-program allowlist table.
type Rule struct {
	Program string
	// AllowedSubcommands, when non-empty, restricts Program to these
	// first arguments (e.g. git's tiered subcommand policy).
	AllowedSubcommands []string
	DeniedSubcommands  []string
	// DeniedFlags rejects the invocation if any argument matches one of
	// these exactly, regardless of position — e.g. ripgrep's --pre,
	// which can execute an arbitrary preprocessor command.
	DeniedFlags []string
}

// defaultRules seeds DeniedFlags for programs with a flag that changes
// their trust model entirely, adapted from the teacher's per-tool deny
// awareness in shell.go.
var defaultRules = map[string]Rule{
	"rg": {DeniedFlags: []string{"--pre", "--pre-glob"}},
}

// defaultDenyPatterns is a categorized regex blocklist applied to the
// full command line ahead of any allowlist walk, adapted from the
// teacher's defaultDenyPatterns in internal/tools/shell.go. Deny
// always wins regardless of what an allowlist would otherwise permit.
var defaultDenyPatterns = compilePatterns([]string{
	// Destructive filesystem operations
	`\brm\s+-rf\s+/(\s|$)`,
	`\bmkfs\.\w+`,
	`\bdd\s+.*of=/dev/`,
	`:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;\s*:`, // fork bomb

	// Data exfiltration / reverse shells
	`\bnc\s+-e\b`,
	`/dev/tcp/`,
	`\bcurl\b.*\|\s*sh\b`,
	`\bwget\b.*\|\s*sh\b`,

	// Eval / injection primitives
	`\beval\s*\(`,
	`\bexec\s*\(`,
	`\$\(\s*curl\b`,

	// Privilege escalation
	`\bsudo\s+su\b`,
	`\bchmod\s+[0-7]*777\b`,

	// Environment dumping / credential exfiltration
	`\benv\s*\|\s*curl\b`,
	`\bcat\s+.*\.ssh/id_`,
	`\bcat\s+.*\.aws/credentials`,
})

func compilePatterns(raw []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(raw))
	for _, p := range raw {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// shellMetacharacters is a deny-list of raw shell metacharacters that,
// when present in a structured (non-shell) argument, indicate an
// attempted injection into a command assembled by the caller.
var shellMetacharacters = regexp.MustCompile("[;&|`$(){}<>]")

// Validator walks a per-program rule table.
type Validator struct {
	Rules          map[string]Rule
	DenyPatterns   []*regexp.Regexp
	GitTierPolicy  GitTierPolicy
}

// New builds a Validator with the default deny patterns plus any
// caller-supplied per-program rules.
func New(rules map[string]Rule) *Validator {
	merged := make(map[string]Rule, len(defaultRules)+len(rules))
	for k, v := range defaultRules {
		merged[k] = v
	}
	for k, v := range rules {
		// A caller rule for a program with default denied flags keeps
		// those flags: it can add denials, never lift them.
		if def, ok := defaultRules[k]; ok {
			v.DeniedFlags = append(append([]string(nil), def.DeniedFlags...), v.DeniedFlags...)
		}
		merged[k] = v
	}
	return &Validator{
		Rules:        merged,
		DenyPatterns: defaultDenyPatterns,
		GitTierPolicy: DefaultGitTierPolicy(),
	}
}

// ValidateCommandLine checks a full shell command line against the
// deny patterns. Deny is checked before anything else, matching the
// teacher's shell.go ordering (deny patterns, then approval policy).
func (v *Validator) ValidateCommandLine(commandLine string) (Verdict, string) {
	for _, pat := range v.DenyPatterns {
		if pat.MatchString(commandLine) {
			return VerdictDeny, fmt.Sprintf("matched deny pattern: %s", pat.String())
		}
	}
	return VerdictAllow, ""
}

// ValidateArgv checks a structured (program, args) invocation: per-
// program allowlist membership, and a git-specific tiered subcommand
// policy reconciled with any overlapping top-level allowlist by always
// taking the stricter of the two (resolves spec.md §9 Open Question 1).
func (v *Validator) ValidateArgv(program string, args []string) (Verdict, string) {
	if program == "git" {
		return v.GitTierPolicy.Validate(args)
	}

	rule, known := v.Rules[program]
	if !known {
		return VerdictAllow, "" // no program-specific rule: defer to deny patterns only
	}

	for _, a := range args {
		for _, flag := range rule.DeniedFlags {
			if a == flag {
				return VerdictDeny, fmt.Sprintf("%s %s is denied: alters the program's trust model", program, flag)
			}
		}
	}

	if len(args) > 0 {
		sub := args[0]
		for _, d := range rule.DeniedSubcommands {
			if d == sub {
				return VerdictDeny, fmt.Sprintf("%s %s is explicitly denied", program, sub)
			}
		}
		if len(rule.AllowedSubcommands) > 0 {
			allowed := false
			for _, a := range rule.AllowedSubcommands {
				if a == sub {
					allowed = true
					break
				}
			}
			if !allowed {
				return VerdictDeny, fmt.Sprintf("%s %s is not in the allowed subcommand list", program, sub)
			}
		}
	}

	for _, a := range args {
		if shellMetacharacters.MatchString(a) {
			return VerdictDeny, fmt.Sprintf("argument %q contains shell metacharacters in a structured invocation", a)
		}
	}

	return VerdictAllow, ""
}
