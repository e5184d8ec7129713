package query

import (
	"strings"
	"unicode"

	"github.com/realnamesareboring/KQLified/internal/dataset"
)

// compareValues orders two present values: numerically when both read as
// numbers, otherwise by text. ok is false when either side is Missing.
func compareValues(a, b dataset.Value) (cmp int, ok bool) {
	if a.IsMissing() || b.IsMissing() {
		return 0, false
	}
	if an, aok := a.Number(); aok {
		if bn, bok := b.Number(); bok {
			switch {
			case an < bn:
				return -1, true
			case an > bn:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	return strings.Compare(a.Text(), b.Text()), true
}

// applyOperator evaluates `left op right` for present values. Missing on
// either side never satisfies an operator, so `ResultType != 0` also
// requires ResultType to be present.
func applyOperator(op string, left, right dataset.Value) bool {
	if left.IsMissing() || right.IsMissing() {
		return false
	}

	lt := left.Text()
	rt := right.Text()

	switch op {
	case "==":
		cmp, _ := compareValues(left, right)
		return cmp == 0
	case "!=":
		cmp, _ := compareValues(left, right)
		return cmp != 0
	case "<":
		cmp, _ := compareValues(left, right)
		return cmp < 0
	case "<=":
		cmp, _ := compareValues(left, right)
		return cmp <= 0
	case ">":
		cmp, _ := compareValues(left, right)
		return cmp > 0
	case ">=":
		cmp, _ := compareValues(left, right)
		return cmp >= 0
	case "=~":
		return strings.EqualFold(lt, rt)
	case "!~":
		return !strings.EqualFold(lt, rt)
	case "contains":
		return containsFold(lt, rt)
	case "!contains":
		return !containsFold(lt, rt)
	case "contains_cs":
		return strings.Contains(lt, rt)
	case "!contains_cs":
		return !strings.Contains(lt, rt)
	case "has":
		return hasTerm(lt, rt, true)
	case "!has":
		return !hasTerm(lt, rt, true)
	case "has_cs":
		return hasTerm(lt, rt, false)
	case "!has_cs":
		return !hasTerm(lt, rt, false)
	case "startswith":
		return strings.HasPrefix(strings.ToLower(lt), strings.ToLower(rt))
	case "!startswith":
		return !strings.HasPrefix(strings.ToLower(lt), strings.ToLower(rt))
	case "endswith":
		return strings.HasSuffix(strings.ToLower(lt), strings.ToLower(rt))
	case "!endswith":
		return !strings.HasSuffix(strings.ToLower(lt), strings.ToLower(rt))
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// hasTerm reports whether term appears in s bounded by non-alphanumerics.
func hasTerm(s, term string, fold bool) bool {
	if term == "" {
		return true
	}
	if fold {
		s = strings.ToLower(s)
		term = strings.ToLower(term)
	}
	for offset := 0; offset <= len(s)-len(term); {
		idx := strings.Index(s[offset:], term)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(term)
		if (start == 0 || !isAlnum(s[start-1])) && (end == len(s) || !isAlnum(s[end])) {
			return true
		}
		offset = start + 1
	}
	return false
}

func isAlnum(b byte) bool {
	r := rune(b)
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// orderCompare is the ordering used by sort clauses: numeric, with absent or
// non-numeric values reading as 0, except that two non-numeric strings
// compare by text.
func orderCompare(a, b dataset.Value) int {
	an, aok := a.Number()
	bn, bok := b.Number()
	if !aok && !bok && a.Kind() == dataset.KindString && b.Kind() == dataset.KindString {
		return strings.Compare(a.Text(), b.Text())
	}
	switch {
	case an < bn:
		return -1
	case an > bn:
		return 1
	default:
		return 0
	}
}
