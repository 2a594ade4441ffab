// Package validator accumulates field-level validation errors so a request
// can report every bad field at once instead of failing on the first.
package validator

import (
	"regexp"
	"sort"
	"strings"
)

var (
	isbn10Rx = regexp.MustCompile(`^[0-9]{9}[0-9X]$`)
	isbn13Rx = regexp.MustCompile(`^97[89][0-9]{10}$`)
	prefixRx = regexp.MustCompile(`^ISBN(-1[03])?:? `)
)

type Validator struct {
	Errors map[string]string
}

func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid reports whether no check has failed so far.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records the first failure for a field; later ones are dropped.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check adds an error for key only when ok is false.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// Summary joins all field errors into one deterministic message.
func (v *Validator) Summary() string {
	keys := make([]string, 0, len(v.Errors))
	for k := range v.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v.Errors[k])
	}
	return strings.Join(parts, "; ")
}

// NotBlank reports whether s contains at least one non-space character.
func NotBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}

// MaxChars reports whether s is at most n characters long.
func MaxChars(s string, n int) bool {
	return len([]rune(s)) <= n
}

// ValidISBN accepts ISBN-10 and ISBN-13, with or without hyphen/space
// separators and an optional "ISBN:" / "ISBN-10:" / "ISBN-13:" prefix.
func ValidISBN(isbn string) bool {
	s := prefixRx.ReplaceAllString(isbn, "")
	s = strings.NewReplacer("-", "", " ", "").Replace(s)
	return isbn10Rx.MatchString(s) || isbn13Rx.MatchString(s)
}
