package query

import (
	"testing"
)

func TestLexer(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenType
	}{
		{"SigninLogs", []TokenType{TokenIdent, TokenEOF}},
		{"| where ResultType != 0", []TokenType{TokenPipe, TokenIdent, TokenIdent, TokenNeq, TokenNumber, TokenEOF}},
		{"x <> 1", []TokenType{TokenIdent, TokenNeq, TokenNumber, TokenEOF}},
		{"a == 'b'", []TokenType{TokenIdent, TokenEq, TokenString, TokenEOF}},
		{`a =~ "B" and c !~ "d"`, []TokenType{TokenIdent, TokenMatch, TokenString, TokenIdent, TokenIdent, TokenNotMatch, TokenString, TokenEOF}},
		{"n >= 5 or n <= -2", []TokenType{TokenIdent, TokenGte, TokenNumber, TokenIdent, TokenIdent, TokenLte, TokenNumber, TokenEOF}},
		{"ago(24h)", []TokenType{TokenIdent, TokenLParen, TokenTimespan, TokenRParen, TokenEOF}},
		{"n = count(), d = dcount(User)", []TokenType{TokenIdent, TokenAssign, TokenIdent, TokenLParen, TokenRParen, TokenComma, TokenIdent, TokenAssign, TokenIdent, TokenLParen, TokenIdent, TokenRParen, TokenEOF}},
		{"x !contains 'y'", []TokenType{TokenIdent, TokenIdent, TokenString, TokenEOF}},
		{"a // trailing comment\n| take 5", []TokenType{TokenIdent, TokenPipe, TokenIdent, TokenNumber, TokenEOF}},
		{"'unterminated", []TokenType{TokenError, TokenEOF}},
		{"5xyz", []TokenType{TokenError, TokenEOF}},
		{"#", []TokenType{TokenError, TokenEOF}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := NewLexer(tt.input).Tokenize()
			if len(tokens) != len(tt.expected) {
				t.Fatalf("expected %d tokens, got %d: %v", len(tt.expected), len(tokens), tokens)
			}
			for i, tok := range tokens {
				if tok.Type != tt.expected[i] {
					t.Errorf("token %d: expected %v, got %v (%q)", i, tt.expected[i], tok.Type, tok.Value)
				}
			}
		})
	}
}

func TestLexerValues(t *testing.T) {
	tokens := NewLexer(`x !contains 'it\'s' | take 10`).Tokenize()

	if tokens[1].Value != "!contains" {
		t.Errorf("expected negated operator, got %q", tokens[1].Value)
	}
	if tokens[2].Value != "it's" {
		t.Errorf("expected unescaped string, got %q", tokens[2].Value)
	}
	if tokens[5].Value != "10" {
		t.Errorf("expected take count 10, got %q", tokens[5].Value)
	}
}

func TestLexerIPAddressIsOneToken(t *testing.T) {
	tokens := NewLexer("203.0.113.45").Tokenize()
	if len(tokens) != 2 || tokens[0].Type != TokenNumber || tokens[0].Value != "203.0.113.45" {
		t.Fatalf("unexpected tokens: %v", tokens)
	}
}
