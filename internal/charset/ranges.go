package charset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ironsheep/captcha-tools-mcp/internal/errors"
)

const (
	digits    = "0123456789"
	lowercase = "abcdefghijklmnopqrstuvwxyz"
	uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Kind selects how a Range produces its symbols.
type Kind int

const (
	Digit Kind = iota
	Lowercase
	Uppercase
	LowercaseUppercase
	LowercaseDigit
	UppercaseDigit
	LowercaseUppercaseDigit
	// DefaultComplement keeps the model symbols that are not plain ASCII
	// letters or digits.
	DefaultComplement
	Custom
	Explicit
)

var kindNames = [...]string{
	"digit",
	"lowercase",
	"uppercase",
	"lowercase_uppercase",
	"lowercase_digit",
	"uppercase_digit",
	"lowercase_uppercase_digit",
	"default_complement",
	"custom",
	"explicit",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Range selects a subset of recognizable symbols.
type Range struct {
	Kind Kind
	// Text holds the characters of a Custom range.
	Text string
	// Symbols holds the list of an Explicit range.
	Symbols []string
}

// RangeFromIndex maps the selectors 0-7 to the built-in ranges, in the order
// Digit, Lowercase, Uppercase, LowercaseUppercase, LowercaseDigit,
// UppercaseDigit, LowercaseUppercaseDigit, DefaultComplement.
func RangeFromIndex(i int) (Range, error) {
	if i < int(Digit) || i > int(DefaultComplement) {
		return Range{}, fmt.Errorf("invalid charset range: %d", i)
	}
	return Range{Kind: Kind(i)}, nil
}

// CustomRange treats every character of s as one symbol.
func CustomRange(s string) Range {
	return Range{Kind: Custom, Text: s}
}

// ExplicitRange uses symbols as given, without deduplication or sentinel.
func ExplicitRange(symbols []string) Range {
	return Range{Kind: Explicit, Symbols: append([]string(nil), symbols...)}
}

// ParseRange applies the text selector rule: a single digit 0-7 picks a
// built-in range, the empty string means no range (ok is false), and anything
// else is a Custom range.
func ParseRange(s string) (r Range, ok bool) {
	if s == "" {
		return Range{}, false
	}
	if len(s) == 1 && s[0] >= '0' && s[0] <= '7' {
		return Range{Kind: Kind(s[0] - '0')}, true
	}
	return CustomRange(s), true
}

// Key identifies the range for caching.
func (r Range) Key() string {
	switch r.Kind {
	case Custom:
		return "custom:" + r.Text
	case Explicit:
		// Length-prefixed so that no two symbol lists share a key.
		var b strings.Builder
		b.WriteString("explicit:")
		for _, sym := range r.Symbols {
			b.WriteString(strconv.Itoa(len(sym)))
			b.WriteByte(':')
			b.WriteString(sym)
		}
		return b.String()
	default:
		return r.Kind.String()
	}
}

// Resolve expands r into an ordered symbol list.
//
// Explicit ranges come back unchanged. Every other range is deduplicated
// keeping first occurrences, stripped of empty strings, and terminated by
// exactly one "" sentinel. DefaultComplement needs cfg's symbol table and
// fails with UNSUPPORTED_OPERATION without one.
func Resolve(r Range, cfg *Config) ([]string, error) {
	var symbols []string

	switch r.Kind {
	case Digit:
		symbols = splitChars(digits)
	case Lowercase:
		symbols = splitChars(lowercase)
	case Uppercase:
		symbols = splitChars(uppercase)
	case LowercaseUppercase:
		symbols = splitChars(lowercase + uppercase)
	case LowercaseDigit:
		symbols = splitChars(lowercase + digits)
	case UppercaseDigit:
		symbols = splitChars(uppercase + digits)
	case LowercaseUppercaseDigit:
		symbols = splitChars(lowercase + uppercase + digits)
	case DefaultComplement:
		if cfg == nil || len(cfg.Charset) == 0 {
			return nil, errors.NewUnsupportedOperationError("default complement range", "model has no symbol list")
		}
		for _, s := range cfg.Charset {
			if !isASCIIAlnum(s) {
				symbols = append(symbols, s)
			}
		}
	case Custom:
		symbols = splitChars(r.Text)
	case Explicit:
		return append([]string(nil), r.Symbols...), nil
	default:
		return nil, fmt.Errorf("invalid charset range kind: %v", r.Kind)
	}

	return withSentinel(symbols), nil
}

// withSentinel dedups symbols in first-seen order and appends "".
func withSentinel(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols)+1)
	for _, s := range symbols {
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return append(out, "")
}

func splitChars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// isASCIIAlnum reports whether s is non-empty and made only of [a-zA-Z0-9].
func isASCIIAlnum(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
