package shellquote

import "testing"

func TestQuoteIfNeeded(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"password-spray", "password-spray"},
		{"queries/spray.kql", "queries/spray.kql"},
		{"my hunts/spray.kql", "'my hunts/spray.kql'"},
		{"it's.kql", `'it'\''s.kql'`},
		{"$HOME/q.kql", "'$HOME/q.kql'"},
		{"", "''"},
	}
	for _, tt := range tests {
		if got := QuoteIfNeeded(tt.in); got != tt.want {
			t.Errorf("QuoteIfNeeded(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCommand(t *testing.T) {
	got := Command("kqlified", "run", "brute-force", "--file", "my hunts/bf.kql", "--watch")
	want := "kqlified run brute-force --file 'my hunts/bf.kql' --watch"
	if got != want {
		t.Fatalf("Command() = %q, want %q", got, want)
	}
}
