// Package config loads and validates the TEC configuration document.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// TimeoutConfig holds the per-category execution timeout policy (spec §3).
type TimeoutConfig struct {
	DefaultSeconds   int     `json:"defaultSeconds"`
	PTYSeconds       int     `json:"ptySeconds"`
	MCPSeconds       int     `json:"mcpSeconds"`
	WarningThreshold float64 `json:"warningThreshold"`
}

func (t TimeoutConfig) Default() time.Duration {
	return time.Duration(t.DefaultSeconds) * time.Second
}

func (t TimeoutConfig) PTY() time.Duration {
	return time.Duration(t.PTYSeconds) * time.Second
}

func (t TimeoutConfig) MCP() time.Duration {
	return time.Duration(t.MCPSeconds) * time.Second
}

func (t TimeoutConfig) WarnAt(d time.Duration) time.Duration {
	return time.Duration(float64(d) * t.WarningThreshold)
}

// ScrollbackConfig holds the dual-bounded circular buffer limits.
type ScrollbackConfig struct {
	MaxLines int `json:"maxLines"`
	MaxBytes int `json:"maxBytes"`
}

// LoopDetectorConfig configures the loop detector's bounded signature map.
type LoopDetectorConfig struct {
	Threshold    int `json:"threshold"`
	MaxSignatures int `json:"maxSignatures"`
}

// URLGuardConfig configures the URL Guard's SSRF/allow/deny behavior.
type URLGuardConfig struct {
	Mode              string   `json:"mode"` // "blocklist" or "whitelist"
	AllowedHosts      []string `json:"allowedHosts,omitempty"`
	SensitiveDomains  []string `json:"sensitiveDomains,omitempty"`
	MaxRedirects      int      `json:"maxRedirects"`
	RequestTimeoutSec int      `json:"requestTimeoutSec"`
}

// PTYConfig configures PTY Runtime shell resolution.
type PTYConfig struct {
	LoginShell           string `json:"loginShell,omitempty"`
	WindowsFallbackShell string `json:"windowsFallbackShell,omitempty"`
}

// SandboxConfig mirrors the teacher's SandboxConfig shape (mode/workspace
// access/resource limits), retained here because TEC's Non-goals say it
// relies on policy validation when no external sandbox runtime is present,
// not that the config shape disappears.
type SandboxConfig struct {
	Mode             string `json:"mode"` // off | non-main | all
	Image            string `json:"image,omitempty"`
	WorkspaceAccess  string `json:"workspaceAccess"` // none | ro | rw
	MemoryMB         int    `json:"memoryMB,omitempty"`
	CPUs             float64 `json:"cpus,omitempty"`
	NetworkEnabled   bool   `json:"networkEnabled"`
	MaxOutputBytes   int    `json:"maxOutputBytes,omitempty"`
	PruneIntervalMin int    `json:"pruneIntervalMin"`
}

// AuditConfig configures the Audit & Telemetry sinks.
type AuditConfig struct {
	LogPath         string `json:"logPath"`
	SQLitePath      string `json:"sqlitePath,omitempty"`
	OTLPEndpoint    string `json:"otlpEndpoint,omitempty"`
	OTLPInsecure    bool   `json:"otlpInsecure,omitempty"`
	ServiceName     string `json:"serviceName"`
}

// SkillsConfig configures the Skill Loader's three-tier search path.
type SkillsConfig struct {
	ProjectDir string `json:"projectDir"`
	WorkspaceDir string `json:"workspaceDir"`
	UserDir    string `json:"userDir"`
	WatchEnabled bool `json:"watchEnabled"`
}

// ToolPolicySpec mirrors the teacher's ToolPolicySpec layered allow/deny
// shape, generalized for TEC's Argument Validator and Policy Engine.
type ToolPolicySpec struct {
	Profile   string              `json:"profile,omitempty"`
	Allow     []string            `json:"allow,omitempty"`
	Deny      []string            `json:"deny,omitempty"`
	AlsoAllow []string            `json:"alsoAllow,omitempty"`
	ByTool    map[string][]string `json:"byTool,omitempty"` // git subcommand tiers, etc.
}

// RateLimitConfig bounds tool calls per session per hour.
type RateLimitConfig struct {
	PerHour int `json:"perHour"`
	Burst   int `json:"burst"`
}

// Config is the root TEC configuration document.
type Config struct {
	Workspace         string              `json:"workspace"`
	RestrictToWorkspace bool              `json:"restrictToWorkspace"`
	Timeouts          TimeoutConfig       `json:"timeouts"`
	Scrollback        ScrollbackConfig    `json:"scrollback"`
	LoopDetector      LoopDetectorConfig  `json:"loopDetector"`
	URLGuard          URLGuardConfig      `json:"urlGuard"`
	PTY               PTYConfig           `json:"pty"`
	Sandbox           SandboxConfig       `json:"sandbox"`
	Audit             AuditConfig         `json:"audit"`
	Skills            SkillsConfig        `json:"skills"`
	Tools             ToolPolicySpec      `json:"tools"`
	RateLimit         RateLimitConfig     `json:"rateLimit"`
	PolicyStorePath   string              `json:"policyStorePath"`

	// ProviderAPIKeyEnv names the environment variable holding a provider
	// credential. The value is never read from this document — only the
	// variable name is, matching the teacher's json:"-" secret convention.
	ProviderAPIKeyEnv string `json:"providerAPIKeyEnv,omitempty"`
}

// Default returns a Config populated with every default named in spec.md.
func Default() *Config {
	shell := "/bin/sh"
	winShell := "cmd.exe"
	if runtime.GOOS != "windows" {
		winShell = "/bin/sh"
	}
	return &Config{
		Workspace:           ".",
		RestrictToWorkspace: true,
		Timeouts: TimeoutConfig{
			DefaultSeconds:   180,
			PTYSeconds:       300,
			MCPSeconds:       120,
			WarningThreshold: 0.8,
		},
		Scrollback: ScrollbackConfig{
			MaxLines: 5000,
			MaxBytes: 50 * 1024 * 1024,
		},
		LoopDetector: LoopDetectorConfig{
			Threshold:     3,
			MaxSignatures: 4096,
		},
		URLGuard: URLGuardConfig{
			Mode:              "blocklist",
			MaxRedirects:      3,
			RequestTimeoutSec: 30,
			SensitiveDomains: []string{
				// Cloud metadata endpoints
				"169.254.169.254",
				"metadata.google.internal",
				// Banking
				"paypal.com", "chase.com", "bankofamerica.com", "wellsfargo.com", "citibank.com",
				// Auth / identity providers
				"accounts.google.com", "login.microsoftonline.com", "okta.com", "auth0.com",
				// Mail
				"gmail.com", "outlook.com", "mail.yahoo.com", "protonmail.com",
				// Health records
				"mychart.com", "healthcare.gov",
				// VPN / remote access
				"login.vpn.com", "globalprotect.paloaltonetworks.com",
				// Electronic signature services
				"docusign.net", "adobesign.com",
				// URL shorteners (bypass hostname-based review entirely)
				"bit.ly", "tinyurl.com", "t.co", "goo.gl", "ow.ly",
			},
		},
		PTY: PTYConfig{
			LoginShell:           shell,
			WindowsFallbackShell: winShell,
		},
		Sandbox: SandboxConfig{
			Mode:            "off",
			WorkspaceAccess: "rw",
			PruneIntervalMin: 60,
		},
		Audit: AuditConfig{
			LogPath:     "audit.jsonl",
			ServiceName: "vtcode-tec",
		},
		Skills: SkillsConfig{
			ProjectDir:   ".vtcode/skills",
			WorkspaceDir: ".vtcode/skills",
			UserDir:      "~/.vtcode/skills",
			WatchEnabled: true,
		},
		RateLimit: RateLimitConfig{
			PerHour: 600,
			Burst:   20,
		},
		PolicyStorePath: ".vtcode/policy.json",
	}
}

// Validate rejects a config with out-of-range values. Unknown top-level
// keys are rejected earlier, at decode time, by Load.
func (c *Config) Validate() error {
	if c.Timeouts.DefaultSeconds <= 0 || c.Timeouts.PTYSeconds <= 0 || c.Timeouts.MCPSeconds <= 0 {
		return fmt.Errorf("config: timeouts must be positive")
	}
	if c.Timeouts.WarningThreshold <= 0 || c.Timeouts.WarningThreshold >= 1 {
		return fmt.Errorf("config: timeouts.warningThreshold must be in (0,1)")
	}
	if c.Scrollback.MaxLines <= 0 || c.Scrollback.MaxBytes <= 0 {
		return fmt.Errorf("config: scrollback bounds must be positive")
	}
	if c.LoopDetector.Threshold <= 0 {
		return fmt.Errorf("config: loopDetector.threshold must be positive")
	}
	switch c.URLGuard.Mode {
	case "blocklist", "whitelist":
	default:
		return fmt.Errorf("config: urlGuard.mode must be blocklist or whitelist, got %q", c.URLGuard.Mode)
	}
	return nil
}
