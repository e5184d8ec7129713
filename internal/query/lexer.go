package query

import (
	"strings"
	"unicode"
)

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenEOF      TokenType = iota
	TokenIdent              // identifiers and keywords: where, summarize, IPAddress, !contains
	TokenNumber             // 0, 5, 3.5
	TokenTimespan           // 24h, 7d, 30m
	TokenString             // 'text' or "text"
	TokenPipe               // |
	TokenLParen             // (
	TokenRParen             // )
	TokenComma              // ,
	TokenAssign             // =
	TokenEq                 // ==
	TokenNeq                // != or <>
	TokenLt                 // <
	TokenLte                // <=
	TokenGt                 // >
	TokenGte                // >=
	TokenMatch              // =~
	TokenNotMatch           // !~
	TokenError              // error token
)

var tokenNames = map[TokenType]string{
	TokenEOF:      "end of query",
	TokenIdent:    "identifier",
	TokenNumber:   "number",
	TokenTimespan: "timespan",
	TokenString:   "string",
	TokenPipe:     "'|'",
	TokenLParen:   "'('",
	TokenRParen:   "')'",
	TokenComma:    "','",
	TokenAssign:   "'='",
	TokenEq:       "'=='",
	TokenNeq:      "'!='",
	TokenLt:       "'<'",
	TokenLte:      "'<='",
	TokenGt:       "'>'",
	TokenGte:      "'>='",
	TokenMatch:    "'=~'",
	TokenNotMatch: "'!~'",
	TokenError:    "invalid token",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "unknown"
}

// Token represents a lexer token.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// Lexer tokenizes query text. Line comments are skipped.
type Lexer struct {
	input string
	pos   int
	start int
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}
	}

	l.start = l.pos
	ch := l.input[l.pos]

	switch ch {
	case '|':
		return l.single(TokenPipe)
	case '(':
		return l.single(TokenLParen)
	case ')':
		return l.single(TokenRParen)
	case ',':
		return l.single(TokenComma)
	case '=':
		switch l.peekByte() {
		case '=':
			return l.double(TokenEq)
		case '~':
			return l.double(TokenMatch)
		}
		return l.single(TokenAssign)
	case '!':
		switch next := l.peekByte(); {
		case next == '=':
			return l.double(TokenNeq)
		case next == '~':
			return l.double(TokenNotMatch)
		case isIdentStart(next):
			// Negated string operators: !contains, !has, !in.
			l.pos++
			tok := l.scanIdent()
			tok.Value = "!" + tok.Value
			tok.Pos = l.start
			return tok
		}
		return l.single(TokenError)
	case '<':
		switch l.peekByte() {
		case '=':
			return l.double(TokenLte)
		case '>':
			return l.double(TokenNeq)
		}
		return l.single(TokenLt)
	case '>':
		if l.peekByte() == '=' {
			return l.double(TokenGte)
		}
		return l.single(TokenGt)
	case '"', '\'':
		return l.scanString(ch)
	case '-':
		if isDigit(l.peekByte()) {
			return l.scanNumber()
		}
		return l.single(TokenError)
	default:
		if isDigit(ch) || (ch == '.' && isDigit(l.peekByte())) {
			return l.scanNumber()
		}
		if isIdentStart(ch) {
			return l.scanIdent()
		}
		return l.single(TokenError)
	}
}

// Tokenize returns every token up to and including EOF.
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens
		}
	}
}

func (l *Lexer) single(t TokenType) Token {
	l.pos++
	return Token{Type: t, Value: l.input[l.start:l.pos], Pos: l.start}
}

func (l *Lexer) double(t TokenType) Token {
	l.pos += 2
	return Token{Type: t, Value: l.input[l.start:l.pos], Pos: l.start}
}

func (l *Lexer) peekByte() byte {
	if l.pos+1 < len(l.input) {
		return l.input[l.pos+1]
	}
	return 0
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if unicode.IsSpace(rune(ch)) {
			l.pos++
			continue
		}
		if strings.HasPrefix(l.input[l.pos:], lineComment) {
			if nl := strings.IndexByte(l.input[l.pos:], '\n'); nl >= 0 {
				l.pos += nl + 1
			} else {
				l.pos = len(l.input)
			}
			continue
		}
		return
	}
}

func (l *Lexer) scanIdent() Token {
	start := l.pos
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.pos++
	}
	return Token{Type: TokenIdent, Value: l.input[start:l.pos], Pos: start}
}

func (l *Lexer) scanNumber() Token {
	start := l.pos
	if l.input[l.pos] == '-' {
		l.pos++
	}
	for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || l.input[l.pos] == '.') {
		l.pos++
	}

	// A unit suffix turns the number into a timespan literal.
	unitStart := l.pos
	for l.pos < len(l.input) && isLetter(l.input[l.pos]) {
		l.pos++
	}
	if unit := l.input[unitStart:l.pos]; unit != "" {
		if _, ok := timespanUnits[strings.ToLower(unit)]; ok {
			return Token{Type: TokenTimespan, Value: l.input[start:l.pos], Pos: start}
		}
		return Token{Type: TokenError, Value: l.input[start:l.pos], Pos: start}
	}
	return Token{Type: TokenNumber, Value: l.input[start:l.pos], Pos: start}
}

func (l *Lexer) scanString(quote byte) Token {
	start := l.pos
	l.pos++ // opening quote

	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == '\\' && l.pos+1 < len(l.input):
			sb.WriteByte(l.input[l.pos+1])
			l.pos += 2
		case ch == quote:
			l.pos++
			return Token{Type: TokenString, Value: sb.String(), Pos: start}
		default:
			sb.WriteByte(ch)
			l.pos++
		}
	}
	return Token{Type: TokenError, Value: l.input[start:], Pos: start}
}

func isIdentStart(ch byte) bool {
	return isLetter(ch) || ch == '_'
}

func isIdentChar(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
