package urlguard

import (
	"context"
	"net"
	"testing"
)

func withResolver(g *Guard, ips map[string][]net.IP) {
	g.Resolver = func(ctx context.Context, host string) ([]net.IP, error) {
		return ips[host], nil
	}
}

func TestCheckURLRejectsHTTP(t *testing.T) {
	g := New(ModeBlocklist, nil, nil, 3)
	if err := g.CheckURL(context.Background(), "http://example.com"); err == nil {
		t.Fatal("expected plain http to be rejected")
	}
}

func TestCheckURLRejectsLoopback(t *testing.T) {
	g := New(ModeBlocklist, nil, nil, 3)
	withResolver(g, map[string][]net.IP{"internal.example": {net.ParseIP("127.0.0.1")}})
	if err := g.CheckURL(context.Background(), "https://internal.example/"); err == nil {
		t.Fatal("expected loopback-resolving host to be rejected")
	}
}

func TestCheckURLRejectsCloudMetadata(t *testing.T) {
	g := New(ModeBlocklist, nil, []string{"169.254.169.254"}, 3)
	if err := g.CheckURL(context.Background(), "https://169.254.169.254/latest/meta-data/"); err == nil {
		t.Fatal("expected cloud metadata address to be rejected")
	}
}

func TestCheckURLWhitelistMode(t *testing.T) {
	g := New(ModeWhitelist, []string{"api.example.com"}, nil, 3)
	withResolver(g, map[string][]net.IP{
		"api.example.com": {net.ParseIP("93.184.216.34")},
		"other.example.com": {net.ParseIP("93.184.216.34")},
	})
	if err := g.CheckURL(context.Background(), "https://api.example.com/v1"); err != nil {
		t.Fatalf("expected whitelisted host to pass: %v", err)
	}
	if err := g.CheckURL(context.Background(), "https://other.example.com/v1"); err == nil {
		t.Fatal("expected non-whitelisted host to be rejected in whitelist mode")
	}
}

func TestCheckURLAllowsPublicHost(t *testing.T) {
	g := New(ModeBlocklist, nil, nil, 3)
	withResolver(g, map[string][]net.IP{"example.com": {net.ParseIP("93.184.216.34")}})
	if err := g.CheckURL(context.Background(), "https://example.com/"); err != nil {
		t.Fatalf("expected public host to be allowed: %v", err)
	}
}

func TestCheckURLRejectsLocalhostByName(t *testing.T) {
	g := New(ModeBlocklist, nil, nil, 3)
	if err := g.CheckURL(context.Background(), "https://localhost/"); err == nil {
		t.Fatal("expected localhost to be rejected by name, independent of resolution")
	}
}

func TestCheckURLRejectsDotLocalAndDotInternal(t *testing.T) {
	g := New(ModeBlocklist, nil, nil, 3)
	for _, host := range []string{"https://printer.local/", "https://api.internal/"} {
		if err := g.CheckURL(context.Background(), host); err == nil {
			t.Fatalf("expected %s to be rejected by name", host)
		}
	}
}

func TestCheckURLRejectsSensitiveDomainScenario(t *testing.T) {
	g := New(ModeBlocklist, nil, []string{"paypal.com"}, 3)
	err := g.CheckURL(context.Background(), "https://paypal.com/login")
	if err == nil {
		t.Fatal("expected the paypal.com/login scenario to be blocked as a sensitive domain")
	}
}

func TestCheckURLRejectsSensitiveQueryParam(t *testing.T) {
	g := New(ModeBlocklist, nil, nil, 3)
	withResolver(g, map[string][]net.IP{"example.com": {net.ParseIP("93.184.216.34")}})
	if err := g.CheckURL(context.Background(), "https://example.com/reset?token=abc123"); err == nil {
		t.Fatal("expected a URL carrying a token query param to be rejected")
	}
}

func TestCheckURLRejectsAdminPath(t *testing.T) {
	g := New(ModeBlocklist, nil, nil, 3)
	withResolver(g, map[string][]net.IP{"example.com": {net.ParseIP("93.184.216.34")}})
	if err := g.CheckURL(context.Background(), "https://example.com/admin/users"); err == nil {
		t.Fatal("expected an admin path to be rejected")
	}
}

func TestCheckURLRejectsDangerousExtension(t *testing.T) {
	g := New(ModeBlocklist, nil, nil, 3)
	withResolver(g, map[string][]net.IP{"example.com": {net.ParseIP("93.184.216.34")}})
	if err := g.CheckURL(context.Background(), "https://example.com/tool.exe"); err == nil {
		t.Fatal("expected an .exe download to be rejected")
	}
}

func TestCheckURLRejectsHomographHost(t *testing.T) {
	g := New(ModeBlocklist, nil, nil, 3)
	if err := g.CheckURL(context.Background(), "https://xn--pypal-4ve.com/"); err == nil {
		t.Fatal("expected a non-ASCII-derived host to be rejected")
	}
}

func TestCheckURLRejectsTyposquat(t *testing.T) {
	g := New(ModeBlocklist, nil, []string{"paypal.com"}, 3)
	withResolver(g, map[string][]net.IP{"paypaI.com": {net.ParseIP("93.184.216.34")}})
	if err := g.CheckURL(context.Background(), "https://paypaI.com/login"); err == nil {
		t.Fatal("expected a one-edit typosquat of a sensitive domain to be rejected")
	}
}
