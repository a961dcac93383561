package businessflow

import (
	"testing"
	"time"

	"github.com/p57/feedback-hub/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func field(id string, opts ...func(*models.FieldDefinition)) models.FieldDefinition {
	f := models.FieldDefinition{ID: id, Label: id, FieldType: models.FieldTypeText}
	for _, o := range opts {
		o(&f)
	}
	return f
}

func required(f *models.FieldDefinition) { f.IsRequired = true }
func hidden(f *models.FieldDefinition)   { f.IsHidden = true }

func withLabel(label string) func(*models.FieldDefinition) {
	return func(f *models.FieldDefinition) { f.Label = label }
}

func withRules(rules ...models.ValidationRule) func(*models.FieldDefinition) {
	return func(f *models.FieldDefinition) { f.Validation = rules }
}

func ids(fields []models.FieldDefinition) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.ID)
	}
	return out
}

func TestMergeFields(t *testing.T) {
	t.Run("global first then local", func(t *testing.T) {
		merged := MergeFields(
			[]models.FieldDefinition{field("client_name"), field("client_email")},
			[]models.FieldDefinition{field("equipment"), field("severity")},
		)
		assert.Equal(t, []string{"client_name", "client_email", "equipment", "severity"}, ids(merged))
	})

	t.Run("local override keeps global position", func(t *testing.T) {
		merged := MergeFields(
			[]models.FieldDefinition{field("a"), field("b", withLabel("Global B")), field("c")},
			[]models.FieldDefinition{field("d"), field("b", withLabel("Local B"))},
		)
		require.Equal(t, []string{"a", "b", "c", "d"}, ids(merged))
		assert.Equal(t, "Local B", merged[1].Label)
	})

	t.Run("hidden fields removed after dedup", func(t *testing.T) {
		merged := MergeFields(
			[]models.FieldDefinition{field("a"), field("b")},
			[]models.FieldDefinition{field("b", hidden), field("c", hidden)},
		)
		assert.Equal(t, []string{"a"}, ids(merged))
	})

	t.Run("local unhides global", func(t *testing.T) {
		merged := MergeFields(
			[]models.FieldDefinition{field("a", hidden)},
			[]models.FieldDefinition{field("a")},
		)
		assert.Equal(t, []string{"a"}, ids(merged))
	})

	t.Run("empty inputs", func(t *testing.T) {
		merged := MergeFields(nil, nil)
		assert.NotNil(t, merged)
		assert.Empty(t, merged)
	})
}

func TestIsEmptyValue(t *testing.T) {
	assert.True(t, IsEmptyValue(nil))
	assert.True(t, IsEmptyValue(""))
	assert.True(t, IsEmptyValue([]any{}))
	assert.True(t, IsEmptyValue([]string{}))
	assert.True(t, IsEmptyValue(map[string]any{}))

	assert.False(t, IsEmptyValue(" "))
	assert.False(t, IsEmptyValue(0.0))
	assert.False(t, IsEmptyValue(false))
	assert.False(t, IsEmptyValue([]any{"x"}))
}

func TestValidateField(t *testing.T) {
	tests := []struct {
		name  string
		field models.FieldDefinition
		value any
		want  string
	}{
		{
			name:  "required missing",
			field: field("name", required, withLabel("Client Name")),
			value: nil,
			want:  "Client Name is required",
		},
		{
			name:  "required empty list",
			field: field("areas", required, withLabel("Areas")),
			value: []any{},
			want:  "Areas is required",
		},
		{
			name:  "optional empty skips rules",
			field: field("code", withRules(models.ValidationRule{Type: models.RuleMinLength, Value: 3.0})),
			value: "",
			want:  "",
		},
		{
			name:  "min length default message",
			field: field("code", withLabel("Code"), withRules(models.ValidationRule{Type: models.RuleMinLength, Value: 3.0})),
			value: "ab",
			want:  "Code must be at least 3 characters",
		},
		{
			name:  "min length counts runes",
			field: field("code", withRules(models.ValidationRule{Type: models.RuleMinLength, Value: 3.0})),
			value: "héé",
			want:  "",
		},
		{
			name:  "max length counts emoji as one character",
			field: field("note", withRules(models.ValidationRule{Type: models.RuleMaxLength, Value: 4.0})),
			value: "💪🏋🔥🙂",
			want:  "",
		},
		{
			name:  "max length custom message",
			field: field("note", withRules(models.ValidationRule{Type: models.RuleMaxLength, Value: 4.0, Message: "Too long"})),
			value: "hello",
			want:  "Too long",
		},
		{
			name:  "pattern mismatch",
			field: field("member", withLabel("Member ID"), withRules(models.ValidationRule{Type: models.RulePattern, Value: "^M[0-9]{4}$"})),
			value: "X1234",
			want:  "Member ID is invalid",
		},
		{
			name:  "pattern match",
			field: field("member", withRules(models.ValidationRule{Type: models.RulePattern, Value: "^M[0-9]{4}$"})),
			value: "M1234",
			want:  "",
		},
		{
			name:  "malformed pattern fails the field",
			field: field("member", withLabel("Member ID"), withRules(models.ValidationRule{Type: models.RulePattern, Value: "([a-z"})),
			value: "abc",
			want:  "Member ID is invalid",
		},
		{
			name:  "number below min",
			field: field("rating", withLabel("Rating"), withRules(models.ValidationRule{Type: models.RuleMin, Value: 1.0})),
			value: 0.0,
			want:  "Rating must be at least 1",
		},
		{
			name:  "numeric string above max",
			field: field("rating", withLabel("Rating"), withRules(models.ValidationRule{Type: models.RuleMax, Value: "5"})),
			value: "7",
			want:  "Rating must be at most 5",
		},
		{
			name:  "non numeric value skips bounds",
			field: field("rating", withRules(models.ValidationRule{Type: models.RuleMax, Value: 5.0})),
			value: "lots",
			want:  "",
		},
		{
			name: "first failing rule wins",
			field: field("code", withRules(
				models.ValidationRule{Type: models.RuleMinLength, Value: 10.0, Message: "first"},
				models.ValidationRule{Type: models.RulePattern, Value: "^z", Message: "second"},
			)),
			value: "abc",
			want:  "first",
		},
		{
			name:  "unknown rule ignored",
			field: field("code", withRules(models.ValidationRule{Type: "luhn", Value: true})),
			value: "abc",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateField(tt.field, tt.value))
		})
	}
}

func TestValidateForm(t *testing.T) {
	fields := []models.FieldDefinition{
		field("client_name", required, withLabel("Client Name")),
		field("internal_code", required, hidden),
		field("rating", withLabel("Rating"), withRules(models.ValidationRule{Type: models.RuleMax, Value: 5.0})),
		field("notes"),
	}

	errs := ValidateForm(fields, map[string]any{"rating": 9.0, "notes": "fine"})
	assert.Equal(t, FieldErrors{
		"client_name": "Client Name is required",
		"rating":      "Rating must be at most 5",
	}, errs)

	errs = ValidateForm(fields, map[string]any{"client_name": "Jane", "rating": 4.0})
	assert.Empty(t, errs)
}

func TestSLAWindows(t *testing.T) {
	now := time.Date(2025, 4, 10, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		priority models.TicketPriority
		want     *time.Time
	}{
		{models.TicketPriorityCritical, ptrTime(now.Add(2 * time.Hour))},
		{models.TicketPriorityHigh, ptrTime(now.Add(24 * time.Hour))},
		{models.TicketPriorityMedium, ptrTime(now.Add(48 * time.Hour))},
		{models.TicketPriorityLow, nil},
		{models.TicketPriority("bogus"), nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeSLADeadline(tt.priority, now))
		})
	}
}

func TestFormatTicketNumber(t *testing.T) {
	now := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "P57-202504-00001", FormatTicketNumber("P57", now, 0))
	assert.Equal(t, "P57-202504-00123", FormatTicketNumber("P57", now, 122))
	assert.Equal(t, "P57-202512-100000", FormatTicketNumber("P57", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), 99999))
}

func ptrTime(t time.Time) *time.Time { return &t }
