package app

import "testing"

func TestParseLockPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    LockPolicy
		wantErr bool
	}{
		{"", LockExplicit, false},
		{"explicit", LockExplicit, false},
		{"keystroke", LockKeystroke, false},
		{"none", LockNone, false},
		{"optimistic", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLockPolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLockPolicy(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestParseScope(t *testing.T) {
	if s, err := ParseScope("", ScopeRoom); err != nil || s != ScopeRoom {
		t.Errorf("default scope = %q, %v", s, err)
	}
	if s, err := ParseScope("sender", ScopeRoom); err != nil || s != ScopeSender {
		t.Errorf("sender scope = %q, %v", s, err)
	}
	if _, err := ParseScope("everyone", ScopeRoom); err == nil {
		t.Error("unknown scope must fail")
	}
}
