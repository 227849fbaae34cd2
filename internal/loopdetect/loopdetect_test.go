package loopdetect

import "testing"

func TestHashSignatureIsStable(t *testing.T) {
	a := HashSignature("exec", `{"command":"ls"}`)
	b := HashSignature("exec", `{"command":"ls"}`)
	if a != b {
		t.Fatal("expected identical inputs to hash identically")
	}
	c := HashSignature("exec", `{"command":"pwd"}`)
	if a == c {
		t.Fatal("expected different args to hash differently")
	}
}

func TestDetectorFlagsExactRepeatAtThreshold(t *testing.T) {
	d := NewDetector(100, 3)
	sig := HashSignature("exec", "ls")
	if p := d.Observe(sig, 0); p != PatternNone {
		t.Fatalf("call 1: expected none, got %s", p)
	}
	if p := d.Observe(sig, 0); p != PatternNone {
		t.Fatalf("call 2: expected none, got %s", p)
	}
	if p := d.Observe(sig, 0); p != PatternExactRepeat {
		t.Fatalf("call 3: expected exact_repeat at threshold, got %s", p)
	}
}

func TestDetectorBoundedMapEvicts(t *testing.T) {
	d := NewDetector(3, 3)
	for i := 0; i < 10; i++ {
		sig := HashSignature("tool", string(rune('a'+i)))
		d.Observe(sig, 0)
	}
	if len(d.entries) > 3 {
		t.Fatalf("expected bounded map to hold at most 3 entries, got %d", len(d.entries))
	}
}

func TestDetectorApplyDisableForSession(t *testing.T) {
	d := NewDetector(100, 3)
	sig := HashSignature("exec", "ls")
	for i := 0; i < 3; i++ {
		d.Observe(sig, 0)
	}
	d.Apply(sig, ResponseDisableSession)
	if p := d.Observe(sig, 0); p != PatternNone {
		t.Fatalf("expected disabled detector to stop flagging, got %s", p)
	}
}

func TestDetectorDegradingPattern(t *testing.T) {
	d := NewDetector(100, 3)
	sig := HashSignature("web_fetch", "url")
	d.Observe(sig, 0.5)
	d.Observe(sig, 0.6)
	if p := d.Observe(sig, 0.7); p != PatternDegrading {
		t.Fatalf("expected degrading pattern for a monotonically worsening score, got %s", p)
	}
}
