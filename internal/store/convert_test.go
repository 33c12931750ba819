package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestToInet(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"203.0.113.9", "203.0.113.9"},
		{"203.0.113.9:51234", "203.0.113.9"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{" 10.0.0.1 ", "10.0.0.1"},
		{"", ""},
		{"not-an-ip", ""},
	}
	for _, tt := range tests {
		got := ""
		if addr := toInet(tt.in); addr != nil {
			got = addr.String()
		}
		if got != tt.want {
			t.Errorf("toInet(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPgTextRoundTrip(t *testing.T) {
	if got := fromPgText(toPgText(nil)); got != nil {
		t.Errorf("nil text came back as %q", *got)
	}
	s := "SOUP"
	got := fromPgText(toPgText(&s))
	if diff := cmp.Diff(&s, got); diff != "" {
		t.Errorf("text mismatch (-want +got):\n%s", diff)
	}
}

func TestToPgUUID(t *testing.T) {
	if u := toPgUUID("9b2e3c1a-4f5d-4c8e-a1b2-c3d4e5f60718"); !u.Valid {
		t.Error("valid uuid reported invalid")
	}
	if u := toPgUUID("run-1"); u.Valid {
		t.Error("invalid uuid reported valid")
	}
	a, b := newVersion(), newVersion()
	if !a.Valid || a.Bytes == b.Bytes {
		t.Error("newVersion should return distinct valid uuids")
	}
}
