package businessflow

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/p57/feedback-hub/models"
)

// FieldErrors maps a field id to the first validation failure of that field
type FieldErrors map[string]string

// DedupFields collapses fields sharing an id. The surviving entry keeps the
// position of the first occurrence and the content of the last one.
func DedupFields(fields []models.FieldDefinition) []models.FieldDefinition {
	index := make(map[string]int, len(fields))
	out := make([]models.FieldDefinition, 0, len(fields))
	for _, f := range fields {
		if pos, ok := index[f.ID]; ok {
			out[pos] = f
			continue
		}
		index[f.ID] = len(out)
		out = append(out, f)
	}
	return out
}

// VisibleFields drops hidden fields, preserving order
func VisibleFields(fields []models.FieldDefinition) []models.FieldDefinition {
	out := make([]models.FieldDefinition, 0, len(fields))
	for _, f := range fields {
		if f.IsHidden {
			continue
		}
		out = append(out, f)
	}
	return out
}

// MergeFields builds the effective form: global fields first, then local ones,
// deduplicated by id and stripped of hidden fields. A local field reusing a
// global id replaces the global definition in place.
func MergeFields(global, local []models.FieldDefinition) []models.FieldDefinition {
	combined := make([]models.FieldDefinition, 0, len(global)+len(local))
	combined = append(combined, global...)
	combined = append(combined, local...)
	return VisibleFields(DedupFields(combined))
}

// IsEmptyValue reports whether a submitted answer counts as missing
func IsEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer:
		return rv.IsNil()
	}
	return false
}

// valueLength measures strings in characters and lists in items
func valueLength(v any) int {
	switch val := v.(type) {
	case string:
		return utf8.RuneCountInString(val)
	case []any:
		return len(val)
	case []string:
		return len(val)
	}
	return utf8.RuneCountInString(valueString(v))
}

func valueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func ruleMessage(rule models.ValidationRule, fallback string) string {
	if strings.TrimSpace(rule.Message) != "" {
		return rule.Message
	}
	return fallback
}

// ValidateField checks one answer against its definition and returns the
// error message, or "" when the value passes. Rules only run on non-empty
// values and stop at the first failure.
func ValidateField(field models.FieldDefinition, value any) string {
	if IsEmptyValue(value) {
		if field.IsRequired {
			return fmt.Sprintf("%s is required", field.Label)
		}
		return ""
	}

	for _, rule := range field.Validation {
		if msg := checkRule(field, rule, value); msg != "" {
			return msg
		}
	}
	return ""
}

func checkRule(field models.FieldDefinition, rule models.ValidationRule, value any) string {
	switch rule.Type {
	case models.RuleMinLength:
		bound, ok := rule.NumberValue()
		if ok && float64(valueLength(value)) < bound {
			return ruleMessage(rule, fmt.Sprintf("%s must be at least %v characters", field.Label, bound))
		}
	case models.RuleMaxLength:
		bound, ok := rule.NumberValue()
		if ok && float64(valueLength(value)) > bound {
			return ruleMessage(rule, fmt.Sprintf("%s must be at most %v characters", field.Label, bound))
		}
	case models.RulePattern:
		pattern := rule.StringValue()
		if pattern == "" {
			return ""
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			// A broken stored pattern fails the field instead of the whole pass
			return ruleMessage(rule, fmt.Sprintf("%s is invalid", field.Label))
		}
		if !re.MatchString(valueString(value)) {
			return ruleMessage(rule, fmt.Sprintf("%s is invalid", field.Label))
		}
	case models.RuleMin:
		n, okValue := models.ToFiniteNumber(value)
		bound, okBound := rule.NumberValue()
		if okValue && okBound && n < bound {
			return ruleMessage(rule, fmt.Sprintf("%s must be at least %v", field.Label, bound))
		}
	case models.RuleMax:
		n, okValue := models.ToFiniteNumber(value)
		bound, okBound := rule.NumberValue()
		if okValue && okBound && n > bound {
			return ruleMessage(rule, fmt.Sprintf("%s must be at most %v", field.Label, bound))
		}
	}
	return ""
}

// ValidateForm validates every visible field and aggregates the failures
func ValidateForm(fields []models.FieldDefinition, answers map[string]any) FieldErrors {
	errs := FieldErrors{}
	for _, f := range fields {
		if f.IsHidden {
			continue
		}
		if msg := ValidateField(f, answers[f.ID]); msg != "" {
			errs[f.ID] = msg
		}
	}
	return errs
}
