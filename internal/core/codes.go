package core

// codes.go generates and deduplicates food codes.
//
// A candidate code is the two-digit year followed by up to two initials of
// every word of the English description. Collisions are resolved by a
// two-digit numeric suffix (00-99). Codes are made unique twice: first
// against the codes generated earlier in the same run, then against the
// codes already persisted.

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
)

const (
	// MaxCodeLength is the longest food code the schema accepts.
	MaxCodeLength = 8

	// MinCodeLength is the length short codes are padded to with 'X'.
	MinCodeLength = 4

	// MaxCodeAttempts bounds deduplication against codes of the current run.
	MaxCodeAttempts = 100

	// MaxDedupPasses bounds the number of store round trips spent removing
	// collisions with persisted codes.
	MaxDedupPasses = 100
)

// MakeCode derives a candidate food code from an English description.
// The result depends only on the description and the year of now.
func MakeCode(description string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%02d", now.Year()%100)

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, description)

	for _, word := range strings.Fields(cleaned) {
		initials := []rune(word)
		if len(initials) > 2 {
			initials = initials[:2]
		}
		b.WriteString(strings.ToUpper(string(initials)))
	}

	code := []rune(b.String())
	if len(code) > MaxCodeLength {
		code = code[:MaxCodeLength]
	}
	for len(code) < MinCodeLength {
		code = append(code, 'X')
	}
	return string(code)
}

// DeduplicateCode returns the next variant of code. A two-digit numeric
// suffix is incremented; codes without one get a "00" suffix, replacing
// trailing characters so the result stays within MaxCodeLength. Suffix 99 has
// no successor and yields ErrCodeGenerationExhausted.
func DeduplicateCode(code string) (string, error) {
	r := []rune(code)

	if n, ok := numericSuffix(r); ok {
		if n >= 99 {
			return "", fmt.Errorf("ran out of variants for code %s: %w", code, ErrCodeGenerationExhausted)
		}
		return string(r[:len(r)-2]) + fmt.Sprintf("%02d", n+1), nil
	}

	switch len(r) {
	case MaxCodeLength:
		return string(r[:len(r)-2]) + "00", nil
	case MaxCodeLength - 1:
		return string(r[:len(r)-1]) + "00", nil
	default:
		return code + "00", nil
	}
}

func numericSuffix(r []rune) (int, bool) {
	if len(r) < 2 {
		return 0, false
	}
	a, b := r[len(r)-2], r[len(r)-1]
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// deduplicateAvoiding applies DeduplicateCode until the result is not in disallowed.
func deduplicateAvoiding(code string, disallowed map[string]struct{}) (string, error) {
	candidate := code
	for {
		next, err := DeduplicateCode(candidate)
		if err != nil {
			return "", err
		}
		if _, taken := disallowed[next]; !taken {
			return next, nil
		}
		candidate = next
	}
}

// CodeSet tracks the codes handed out during one run.
type CodeSet struct {
	codes map[string]struct{}
	order []string
}

// NewCodeSet creates an empty CodeSet.
func NewCodeSet() *CodeSet {
	return &CodeSet{codes: make(map[string]struct{})}
}

// Contains reports whether code was already handed out.
func (s *CodeSet) Contains(code string) bool {
	_, ok := s.codes[code]
	return ok
}

// Codes returns the handed out codes in allocation order.
func (s *CodeSet) Codes() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of codes handed out.
func (s *CodeSet) Len() int {
	return len(s.order)
}

// MakeUniqueAndRemember derives a code for description that is not yet in
// the set and reserves it.
func (s *CodeSet) MakeUniqueAndRemember(description string, now time.Time) (string, error) {
	candidate := MakeCode(description, now)

	for attempt := 0; attempt < MaxCodeAttempts; attempt++ {
		if !s.Contains(candidate) {
			s.codes[candidate] = struct{}{}
			s.order = append(s.order, candidate)
			return candidate, nil
		}

		next, err := DeduplicateCode(candidate)
		if err != nil {
			return "", fmt.Errorf("unique code for %q: %w", description, err)
		}
		candidate = next
	}

	return "", fmt.Errorf("failed to produce unique code for %q in %d attempts (last attempted code: %s): %w",
		description, MaxCodeAttempts, candidate, ErrCodeGenerationExhausted)
}

// DuplicateCodeLookup reports which of codes already exist in the store.
type DuplicateCodeLookup func(ctx context.Context, codes []string) (map[string]struct{}, error)

// EnsureUniqueInDatabase replaces every candidate that already exists in the
// store and returns the substitutions as original -> replacement. Candidates
// must be pairwise distinct. Replacements never collide with each other, with
// any candidate, or with any code the store reported as taken.
func EnsureUniqueInDatabase(ctx context.Context, lookup DuplicateCodeLookup, candidates []string) (map[string]string, error) {
	current := make(map[string]string, len(candidates))
	for _, c := range candidates {
		current[c] = c
	}

	persisted := make(map[string]struct{})

	for pass := 0; pass < MaxDedupPasses; pass++ {
		codes := make([]string, 0, len(candidates))
		for _, c := range candidates {
			codes = append(codes, current[c])
		}

		dups, err := lookup(ctx, codes)
		if err != nil {
			return nil, fmt.Errorf("check duplicate codes: %w", err)
		}

		if len(dups) == 0 {
			substitutions := make(map[string]string)
			for _, c := range candidates {
				if current[c] != c {
					substitutions[c] = current[c]
				}
			}
			return substitutions, nil
		}

		for code := range dups {
			persisted[code] = struct{}{}
		}

		used := make(map[string]struct{}, len(candidates)*2+len(persisted))
		for code := range persisted {
			used[code] = struct{}{}
		}
		for _, c := range candidates {
			used[c] = struct{}{}
			used[current[c]] = struct{}{}
		}

		for _, c := range candidates {
			if _, dup := dups[current[c]]; !dup {
				continue
			}
			replacement, err := deduplicateAvoiding(current[c], used)
			if err != nil {
				return nil, fmt.Errorf("replace duplicate code %s: %w", current[c], err)
			}
			used[replacement] = struct{}{}
			current[c] = replacement
		}
	}

	return nil, fmt.Errorf("failed to get rid of duplicate codes in %d attempts: %w", MaxDedupPasses, ErrCodeGenerationExhausted)
}
