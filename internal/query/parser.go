package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/realnamesareboring/KQLified/internal/dataset"
)

// Parser parses query text into a Query. It never fails outright: a clause
// it cannot read is reported as a diagnostic and skipped.
type Parser struct {
	lexer *Lexer
	input string
	curr  Token
	peek  Token
	diags diagnostics
}

// clauseKeywords are the pipe operators of the full language. Only some are
// executed; the rest parse as UnsupportedClause.
var clauseKeywords = map[string]bool{
	"where": true, "filter": true, "summarize": true, "order": true, "sort": true,
	"take": true, "limit": true, "project": true, "extend": true, "join": true,
	"union": true, "distinct": true, "top": true, "count": true, "parse": true,
	"render": true, "let": true, "search": true, "find": true, "evaluate": true,
	"as": true, "invoke": true, "sample": true, "getschema": true, "mv": true,
	"make": true, "lookup": true, "serialize": true, "range": true, "print": true,
}

// stringOperators are the word operators accepted between two operands.
var stringOperators = map[string]bool{
	"contains": true, "!contains": true, "contains_cs": true, "!contains_cs": true,
	"has": true, "!has": true, "has_cs": true, "!has_cs": true,
	"startswith": true, "!startswith": true, "endswith": true, "!endswith": true,
	"in": true, "!in": true,
}

const supportedOperatorsHint = "Supported operators: where, summarize ... by, order by, sort by, take, limit"

// Parse parses a query string.
func Parse(input string) *Query {
	p := &Parser{lexer: NewLexer(input), input: input}
	p.advance()
	p.advance()
	return p.parseQuery()
}

func (p *Parser) advance() {
	p.curr = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) expect(t TokenType) error {
	if p.curr.Type != t {
		return fmt.Errorf("expected %v, got %s at pos %d", t, describe(p.curr), p.curr.Pos)
	}
	p.advance()
	return nil
}

func (p *Parser) isWord(word string) bool {
	return p.curr.Type == TokenIdent && strings.EqualFold(p.curr.Value, word)
}

// parseQuery parses `[Table] { | clause }`.
func (p *Parser) parseQuery() *Query {
	q := &Query{}

	if p.curr.Type == TokenIdent && !clauseKeywords[strings.ToLower(p.curr.Value)] {
		q.Table = p.curr.Value
		p.advance()
	}

	for p.curr.Type != TokenEOF {
		if p.curr.Type == TokenPipe {
			p.advance()
			continue
		}

		start := p.curr
		clause, err := p.parseClause()
		if err != nil {
			p.diags.add(Diagnostic{
				Code:       DiagMalformedClause,
				Clause:     strings.ToLower(start.Value),
				Message:    err.Error(),
				Suggestion: "This stage was skipped. Check the clause syntax.",
				Pos:        start.Pos,
			})
			p.skipToPipe()
			continue
		}
		q.Clauses = append(q.Clauses, clause)

		if p.curr.Type != TokenPipe && p.curr.Type != TokenEOF {
			p.diags.add(Diagnostic{
				Code:    DiagMalformedClause,
				Clause:  clause.Keyword(),
				Message: fmt.Sprintf("unexpected %s after clause; text up to the next '|' was ignored", describe(p.curr)),
				Pos:     p.curr.Pos,
			})
			p.skipToPipe()
		}
	}

	q.Diagnostics = p.diags.list()
	return q
}

func (p *Parser) parseClause() (Clause, error) {
	if p.curr.Type != TokenIdent {
		return nil, fmt.Errorf("expected a clause keyword, got %s", describe(p.curr))
	}

	start := p.curr.Pos
	verb := strings.ToLower(p.curr.Value)
	p.advance()

	switch verb {
	case "where", "filter":
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.curr.Type != TokenPipe && p.curr.Type != TokenEOF {
			return nil, fmt.Errorf("unexpected %s in condition", describe(p.curr))
		}
		return &WhereClause{Expr: expr, Text: p.textFrom(start)}, nil

	case "summarize":
		clause, err := p.parseSummarize()
		if err != nil {
			return nil, err
		}
		clause.Text = p.textFrom(start)
		return clause, nil

	case "order", "sort":
		keys, err := p.parseSortKeys(verb)
		if err != nil {
			return nil, err
		}
		return &OrderClause{Verb: verb, Keys: keys, Text: p.textFrom(start)}, nil

	case "take", "limit":
		if p.curr.Type != TokenNumber {
			return nil, fmt.Errorf("expected a row count after '%s', got %s", verb, describe(p.curr))
		}
		n, err := strconv.Atoi(p.curr.Value)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid row count %q", p.curr.Value)
		}
		p.advance()
		return &TakeClause{Verb: verb, N: n, Text: p.textFrom(start)}, nil

	default:
		p.skipToPipe()
		text := p.textFrom(start)
		p.diags.add(Diagnostic{
			Code:       DiagUnsupportedClause,
			Clause:     verb,
			Message:    fmt.Sprintf("'%s' is not supported; rows pass through this stage unchanged", verb),
			Suggestion: supportedOperatorsHint,
			Pos:        start,
		})
		return &UnsupportedClause{Verb: verb, Text: text}, nil
	}
}

// parseOr parses OR expressions (lowest precedence).
func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isWord("or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isWord("and") {
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expr, error) {
	if p.isWord("not") && p.peek.Type == TokenLParen {
		p.advance()
		inner, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &NotExpr{Expr: inner}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	if p.curr.Type == TokenLParen {
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	var op string
	switch p.curr.Type {
	case TokenEq, TokenAssign:
		op = "=="
	case TokenNeq:
		op = "!="
	case TokenLt, TokenLte, TokenGt, TokenGte, TokenMatch, TokenNotMatch:
		op = p.curr.Value
	case TokenIdent:
		word := strings.ToLower(p.curr.Value)
		if stringOperators[word] {
			op = word
		}
	}
	if op == "" {
		return &Comparison{Left: left}, nil
	}
	p.advance()

	if op == "in" || op == "!in" {
		list, err := p.parseOperandList()
		if err != nil {
			return nil, err
		}
		return &Comparison{Left: left, Op: op, List: list}, nil
	}

	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return &Comparison{Left: left, Op: op, Right: right}, nil
}

// parseOperandList parses `( a, b, c )`.
func (p *Parser) parseOperandList() ([]Operand, error) {
	if err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	var list []Operand
	for p.curr.Type != TokenRParen {
		item, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		list = append(list, item)
		if p.curr.Type == TokenComma {
			p.advance()
			continue
		}
		if p.curr.Type != TokenRParen {
			return nil, fmt.Errorf("expected ',' or ')' in list, got %s", describe(p.curr))
		}
	}
	p.advance()
	return list, nil
}

func (p *Parser) parseOperand() (Operand, error) {
	tok := p.curr
	switch tok.Type {
	case TokenIdent:
		if p.peek.Type == TokenLParen {
			p.advance()
			args, err := p.parseOperandList()
			if err != nil {
				return nil, err
			}
			return &FuncCall{Name: strings.ToLower(tok.Value), Args: args}, nil
		}
		p.advance()
		if strings.EqualFold(tok.Value, "true") || strings.EqualFold(tok.Value, "false") {
			return &Literal{Value: dataset.Str(strings.ToLower(tok.Value)), Raw: tok.Value}, nil
		}
		return &ColumnRef{Name: tok.Value}, nil

	case TokenNumber:
		p.advance()
		return &Literal{Value: dataset.ParseCell(tok.Value), Raw: tok.Value}, nil

	case TokenString:
		p.advance()
		return &Literal{Value: dataset.Str(tok.Value), Raw: strconv.Quote(tok.Value)}, nil

	case TokenTimespan:
		p.advance()
		d, err := parseTimespan(tok.Value)
		if err != nil {
			return nil, err
		}
		return &TimespanLit{Raw: tok.Value, Duration: d}, nil
	}
	return nil, fmt.Errorf("expected a column, literal or function, got %s", describe(tok))
}

func (p *Parser) parseSummarize() (*SummarizeClause, error) {
	clause := &SummarizeClause{}

	for !p.isWord("by") && p.curr.Type != TokenPipe && p.curr.Type != TokenEOF {
		agg, err := p.parseAggregation()
		if err != nil {
			return nil, err
		}
		clause.Aggregations = append(clause.Aggregations, agg)
		if p.curr.Type == TokenComma {
			p.advance()
		}
	}

	if p.isWord("by") {
		p.advance()
		for {
			operand, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			key := GroupKey{Text: operand.String()}
			if ref, ok := operand.(*ColumnRef); ok {
				key.Column = ref.Name
			}
			clause.By = append(clause.By, key)
			if p.curr.Type != TokenComma {
				break
			}
			p.advance()
		}
	}

	return clause, nil
}

func (p *Parser) parseAggregation() (Aggregation, error) {
	var agg Aggregation
	if p.curr.Type == TokenIdent && p.peek.Type == TokenAssign {
		agg.Name = p.curr.Value
		p.advance()
		p.advance()
	}

	if p.curr.Type != TokenIdent || p.peek.Type != TokenLParen {
		return Aggregation{}, fmt.Errorf("expected an aggregation such as count() or dcount(Column), got %s", describe(p.curr))
	}
	agg.Func = strings.ToLower(p.curr.Value)
	p.advance()

	args, err := p.parseOperandList()
	if err != nil {
		return Aggregation{}, err
	}
	agg.Args = args
	return agg, nil
}

func (p *Parser) parseSortKeys(verb string) ([]SortKey, error) {
	if !p.isWord("by") {
		return nil, fmt.Errorf("expected 'by' after '%s', got %s", verb, describe(p.curr))
	}
	p.advance()

	var keys []SortKey
	for {
		if p.curr.Type != TokenIdent {
			return nil, fmt.Errorf("expected a field to sort by, got %s", describe(p.curr))
		}
		key := SortKey{Field: p.curr.Value}
		p.advance()

		switch {
		case p.isWord("desc"):
			key.Descending = true
			p.advance()
		case p.isWord("asc"):
			p.advance()
		}
		if p.isWord("nulls") {
			p.advance()
			if p.isWord("first") || p.isWord("last") {
				p.advance()
			}
		}
		keys = append(keys, key)

		if p.curr.Type != TokenComma {
			return keys, nil
		}
		p.advance()
	}
}

func (p *Parser) skipToPipe() {
	for p.curr.Type != TokenPipe && p.curr.Type != TokenEOF {
		p.advance()
	}
}

// textFrom returns the source text between start and the current token.
func (p *Parser) textFrom(start int) string {
	end := p.curr.Pos
	if end > len(p.input) {
		end = len(p.input)
	}
	if start > end {
		return ""
	}
	return strings.Join(strings.Fields(stripComments(p.input[start:end])), " ")
}

func stripComments(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, lineComment); idx >= 0 {
			lines[i] = line[:idx]
		}
	}
	return strings.Join(lines, "\n")
}

func parseTimespan(raw string) (time.Duration, error) {
	i := 0
	for i < len(raw) && (isDigit(raw[i]) || raw[i] == '.' || raw[i] == '-') {
		i++
	}
	n, err := strconv.ParseFloat(raw[:i], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timespan %q", raw)
	}
	unit, ok := timespanUnits[strings.ToLower(raw[i:])]
	if !ok {
		return 0, fmt.Errorf("invalid timespan unit in %q", raw)
	}
	return time.Duration(n * float64(unit)), nil
}

func describe(tok Token) string {
	switch tok.Type {
	case TokenEOF:
		return "end of query"
	case TokenIdent, TokenNumber, TokenTimespan:
		return fmt.Sprintf("%q", tok.Value)
	case TokenString:
		return fmt.Sprintf("string %q", tok.Value)
	}
	return tok.Type.String()
}
