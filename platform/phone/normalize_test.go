package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		input, region, want string
	}{
		{"06 12345678", "NL", "+31612345678"},
		{"+31 6 1234 5678", "US", "+31612345678"},
		{"  ", "NL", ""},
		{"not a number", "NL", "not a number"},
	}
	for _, tc := range cases {
		if got := NormalizeE164(tc.input, tc.region); got != tc.want {
			t.Fatalf("NormalizeE164(%q, %q) = %q, want %q", tc.input, tc.region, got, tc.want)
		}
	}
}

func TestNormalizePtrDropsBlank(t *testing.T) {
	blank := " "
	if NormalizePtr(&blank, "NL") != nil {
		t.Fatal("expected nil for blank input")
	}
	if NormalizePtr(nil, "NL") != nil {
		t.Fatal("expected nil for nil input")
	}
}
