// Package dataset holds the in-memory tables queries run against.
package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindMissing Kind = iota
	KindString
	KindNumber
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindList:
		return "list"
	default:
		return "missing"
	}
}

// Value is a single cell. The zero Value is Missing.
type Value struct {
	kind Kind
	str  string
	num  float64
	list []string
}

// Missing returns the absent value.
func Missing() Value {
	return Value{}
}

// Str returns a string value. Empty strings are treated as Missing so that
// an empty cell and an absent cell behave the same in predicates.
func Str(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: KindString, str: s}
}

// Num returns a numeric value.
func Num(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// List returns a list value. Lists only appear in aggregation output.
func List(items []string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// numericCell matches the cells a dynamically typed CSV parse turns into numbers.
var numericCell = regexp.MustCompile(`^\s*-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?\s*$`)

// ParseCell converts raw CSV text to a Value: empty becomes Missing,
// numeric-looking text becomes Num, everything else stays a string.
func ParseCell(raw string) Value {
	if strings.TrimSpace(raw) == "" {
		return Missing()
	}
	if numericCell.MatchString(raw) {
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && !math.IsInf(f, 0) {
			return Num(f)
		}
	}
	return Str(raw)
}

// FromAny converts a decoded Go value (from Parquet or SQL) into a Value.
func FromAny(x any) Value {
	switch v := x.(type) {
	case nil:
		return Missing()
	case Value:
		return v
	case string:
		return Str(v)
	case []byte:
		return Str(string(v))
	case bool:
		return Str(strconv.FormatBool(v))
	case int:
		return Num(float64(v))
	case int8:
		return Num(float64(v))
	case int16:
		return Num(float64(v))
	case int32:
		return Num(float64(v))
	case int64:
		return Num(float64(v))
	case uint:
		return Num(float64(v))
	case uint8:
		return Num(float64(v))
	case uint16:
		return Num(float64(v))
	case uint32:
		return Num(float64(v))
	case uint64:
		return Num(float64(v))
	case float32:
		return Num(float64(v))
	case float64:
		return Num(v)
	case time.Time:
		return Str(v.UTC().Format(time.RFC3339))
	case []string:
		return List(v)
	default:
		return Str(fmt.Sprint(v))
	}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsMissing reports whether v is absent.
func (v Value) IsMissing() bool {
	return v.kind == KindMissing
}

// Number returns the numeric reading of v. Strings that look numeric are
// converted; Missing, lists and other strings are not numeric.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		if !numericCell.MatchString(v.str) {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Items returns the elements of a list value, or nil.
func (v Value) Items() []string {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

// Text returns the display text of v.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	case KindList:
		return strings.Join(v.list, ", ")
	default:
		return ""
	}
}

func (v Value) String() string {
	return v.Text()
}

// Interface returns v as a plain Go value: nil, string, float64 or []string.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindList:
		return v.list
	default:
		return nil
	}
}

// Equal reports whether v and other hold the same variant and contents.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != other.list[i] {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// MarshalJSON encodes Missing as null, numbers as numbers, lists as arrays.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON accepts null, numbers, strings and string arrays.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case []any:
		items := make([]string, 0, len(x))
		for _, item := range x {
			items = append(items, fmt.Sprint(item))
		}
		*v = List(items)
	default:
		*v = FromAny(x)
	}
	return nil
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
