package argvalidate

import "testing"

func TestValidateCommandLineDeniesDestructiveRm(t *testing.T) {
	v := New(nil)
	if verdict, _ := v.ValidateCommandLine("rm -rf /"); verdict != VerdictDeny {
		t.Fatal("expected rm -rf / to be denied")
	}
}

func TestValidateCommandLineAllowsOrdinary(t *testing.T) {
	v := New(nil)
	if verdict, _ := v.ValidateCommandLine("ls -la"); verdict != VerdictAllow {
		t.Fatal("expected ls -la to be allowed")
	}
}

func TestGitResetHardVsSoft(t *testing.T) {
	v := New(nil)
	if verdict, _ := v.ValidateArgv("git", []string{"reset", "--hard"}); verdict != VerdictDeny {
		t.Fatal("expected git reset --hard to be denied by default tier policy")
	}
	if verdict, _ := v.ValidateArgv("git", []string{"reset", "--soft", "HEAD~1"}); verdict != VerdictAllow {
		t.Fatal("expected git reset --soft to be allowed")
	}
}

func TestGitTierAndAllowlistStricterWins(t *testing.T) {
	v := New(nil)
	v.GitTierPolicy.TopLevelAllow = map[string]bool{"git status": true}
	if verdict, _ := v.ValidateArgv("git", []string{"commit", "-m", "x"}); verdict != VerdictDeny {
		t.Fatal("expected commit to be denied: tier allows it but top-level allowlist does not")
	}
	if verdict, _ := v.ValidateArgv("git", []string{"status"}); verdict != VerdictAllow {
		t.Fatal("expected status to be allowed: both tier and allowlist admit it")
	}
}

func TestValidateArgvRejectsShellMetacharacters(t *testing.T) {
	v := New(map[string]Rule{"echo": {}})
	if verdict, _ := v.ValidateArgv("echo", []string{"hello; rm -rf /"}); verdict != VerdictDeny {
		t.Fatal("expected shell metacharacters in a structured argument to be denied")
	}
}

func TestValidateArgvCallerRuleKeepsDefaultDeniedFlags(t *testing.T) {
	v := New(map[string]Rule{
		"rg": {AllowedSubcommands: nil, DeniedSubcommands: nil},
	})
	// ripgrep --pre rejection scenario (spec.md §8): model as a denied flag
	// surfaced through the structured argv path.
	if verdict, _ := v.ValidateArgv("rg", []string{"--pre", "/bin/sh", "pattern"}); verdict != VerdictDeny {
		t.Fatal("expected rg --pre to be denied: it can execute arbitrary commands")
	}
}
