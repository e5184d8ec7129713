package slugs

import "testing"

func TestAnchor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Start with failed sign-ins", "start-with-failed-sign-ins"},
		{"Step 2: Group by source", "step-2-group-by-source"},
		{"A__B", "a-b"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"Why 5+?", "why-5"},
		{"!!!", ""},
		{"Привет мир", "привет-мир"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Anchor(tt.in); got != tt.want {
				t.Fatalf("Anchor(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Password Spray Attack", "password-spray-attack"},
		{"password-spray", "password-spray"},
		{"  S3 Ransomware  ", "s3-ransomware"},
		{"Brute Force!", "brute-force"},
		{"UPPER CASE", "upper-case"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ID(tt.in); got != tt.want {
				t.Fatalf("ID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
