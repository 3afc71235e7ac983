// Package schema validates single records against declarative field
// specifications: trimming, length bounds, integer coercion with range
// checks, enum label normalisation, pattern matching, and defaults.
//
// A failed check yields a FieldError carrying the offending field, the raw
// validation code, and a German message. Cross-record rules (uniqueness,
// references) are deliberately out of scope here; they live in the importer.
package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Kind is the expected shape of a field value.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindEnum
	KindPattern
	KindBool
)

// Validation codes carried by FieldError. The report layer translates them
// into prose; the codes themselves stay stable for the UI.
const (
	CodeMissing     = "missing"
	CodeInvalidType = "invalid_type"
	CodeInvalidEnum = "invalid_enum"
	CodeTooSmall    = "too_small"
	CodeTooBig      = "too_big"
)

// FieldSpec declares the rules for one field of a record.
//
// For KindInt, Min/Max bound the coerced value; Max == 0 means unbounded
// above. For KindString, MaxLen == 0 means unbounded. Default applies when
// the field is optional and the cell is empty or the column absent.
type FieldSpec struct {
	Name     string
	Kind     Kind
	Required bool
	Default  string

	MinLen int
	MaxLen int

	Min int
	Max int

	Enum    map[string]string
	Pattern *regexp.Regexp

	// PatternHint describes the expected format in error messages.
	PatternHint string
}

// FieldError is one violation of a FieldSpec.
type FieldError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Values holds the coerced results of a validated record.
type Values struct {
	strings map[string]string
	ints    map[string]int
	bools   map[string]bool
}

// String returns the validated (trimmed, defaulted, enum-normalised) value.
func (v Values) String(name string) string { return v.strings[name] }

// Int returns the coerced integer value of a KindInt field.
func (v Values) Int(name string) int { return v.ints[name] }

// Bool returns the coerced value of a KindBool field.
func (v Values) Bool(name string) bool { return v.bools[name] }

// Validate checks one record, fetched field by field through get, against the
// specs. get returns ok == false when the column is absent from the source.
// All violations are collected; Values is only meaningful when the error
// slice is empty.
func Validate(specs []FieldSpec, get func(name string) (string, bool)) (Values, []FieldError) {
	vals := Values{
		strings: make(map[string]string, len(specs)),
		ints:    make(map[string]int),
		bools:   make(map[string]bool),
	}
	var errs []FieldError

	for _, spec := range specs {
		raw, ok := get(spec.Name)
		raw = strings.TrimSpace(raw)

		if !ok || raw == "" {
			if spec.Required {
				errs = append(errs, FieldError{
					Field:   spec.Name,
					Code:    CodeMissing,
					Message: "Pflichtfeld ist leer.",
				})
				continue
			}
			raw = spec.Default
		}

		switch spec.Kind {
		case KindString:
			if err := checkLength(spec, raw); err != nil {
				errs = append(errs, *err)
				continue
			}
			vals.strings[spec.Name] = raw

		case KindInt:
			n, err := coerceInt(raw)
			if err != nil {
				errs = append(errs, FieldError{
					Field:   spec.Name,
					Value:   raw,
					Code:    CodeInvalidType,
					Message: fmt.Sprintf("%q ist keine ganze Zahl.", raw),
				})
				continue
			}
			if n < spec.Min {
				errs = append(errs, FieldError{
					Field:   spec.Name,
					Value:   raw,
					Code:    CodeTooSmall,
					Message: fmt.Sprintf("Wert %d ist zu klein (mindestens %d).", n, spec.Min),
				})
				continue
			}
			if spec.Max > 0 && n > spec.Max {
				errs = append(errs, FieldError{
					Field:   spec.Name,
					Value:   raw,
					Code:    CodeTooBig,
					Message: fmt.Sprintf("Wert %d ist zu groß (höchstens %d).", n, spec.Max),
				})
				continue
			}
			vals.ints[spec.Name] = n

		case KindEnum:
			code, found := spec.Enum[raw]
			if !found {
				errs = append(errs, FieldError{
					Field:   spec.Name,
					Value:   raw,
					Code:    CodeInvalidEnum,
					Message: fmt.Sprintf("%q ist kein zulässiger Wert (erlaubt: %s).", raw, strings.Join(enumLabels(spec.Enum), ", ")),
				})
				continue
			}
			vals.strings[spec.Name] = code

		case KindPattern:
			if !spec.Pattern.MatchString(raw) {
				hint := spec.PatternHint
				if hint == "" {
					hint = spec.Pattern.String()
				}
				errs = append(errs, FieldError{
					Field:   spec.Name,
					Value:   raw,
					Code:    CodeInvalidType,
					Message: fmt.Sprintf("%q entspricht nicht dem erwarteten Format (%s).", raw, hint),
				})
				continue
			}
			vals.strings[spec.Name] = raw

		case KindBool:
			b, err := coerceBool(raw)
			if err != nil {
				errs = append(errs, FieldError{
					Field:   spec.Name,
					Value:   raw,
					Code:    CodeInvalidType,
					Message: fmt.Sprintf("%q ist kein Ja/Nein-Wert.", raw),
				})
				continue
			}
			vals.bools[spec.Name] = b
		}
	}

	return vals, errs
}

func checkLength(spec FieldSpec, raw string) *FieldError {
	n := len([]rune(raw))
	if n < spec.MinLen {
		return &FieldError{
			Field:   spec.Name,
			Value:   raw,
			Code:    CodeTooSmall,
			Message: fmt.Sprintf("Text ist zu kurz (mindestens %d Zeichen).", spec.MinLen),
		}
	}
	if spec.MaxLen > 0 && n > spec.MaxLen {
		return &FieldError{
			Field:   spec.Name,
			Value:   raw,
			Code:    CodeTooBig,
			Message: fmt.Sprintf("Text ist zu lang (höchstens %d Zeichen).", spec.MaxLen),
		}
	}
	return nil
}

// coerceInt accepts digit strings as well as spreadsheet numerics like "3.0".
func coerceInt(raw string) (int, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return 0, err
	}
	n := int(f)
	if float64(n) != f {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	return n, nil
}

func coerceBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "ja", "true", "wahr", "1", "x":
		return true, nil
	case "nein", "false", "falsch", "0", "":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", raw)
}

func enumLabels(enum map[string]string) []string {
	labels := make([]string, 0, len(enum))
	for label := range enum {
		labels = append(labels, label)
	}
	// Stable order for reproducible messages.
	sort.Strings(labels)
	return labels
}
