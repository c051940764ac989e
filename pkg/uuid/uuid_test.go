package uuid

import "testing"

func TestIsZero(t *testing.T) {
	var zero UUID
	if !zero.IsZero() {
		t.Fatal("zero value should report IsZero")
	}

	id, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if id.IsZero() {
		t.Fatal("generated uuid should not be zero")
	}
}

func TestParse_Roundtrip(t *testing.T) {
	id, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	parsed, err := Parse(id.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != id {
		t.Fatalf("roundtrip mismatch: %s != %s", parsed, id)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"", "not-a-uuid", "00000000000000000000000000000000"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("%q should be rejected", s)
		}
	}
}
