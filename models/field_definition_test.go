package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFieldType(t *testing.T) {
	tests := []struct {
		raw  string
		want FieldType
	}{
		{"Dropdown", FieldTypeDropdown},
		{"  select ", FieldTypeDropdown},
		{"textarea", FieldTypeLongText},
		{"Long Text", FieldTypeLongText},
		{"tel", FieldTypePhone},
		{"numeric", FieldTypeNumber},
		{"datetime-local", FieldTypeDateTime},
		{"file upload", FieldTypeFileUpload},
		{"auto", FieldTypeAutoGenerated},
		{"signature-pad", FieldTypeText},
		{"", FieldTypeText},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeFieldType(tt.raw))
		})
	}
}

func TestFieldTypeWidget(t *testing.T) {
	assert.Equal(t, WidgetReadonly, FieldTypeAutoGenerated.Widget())
	assert.Equal(t, WidgetSelect, FieldTypeDropdown.Widget())
	assert.Equal(t, WidgetTextarea, FieldTypeLongText.Widget())
	assert.Equal(t, WidgetTel, FieldTypePhone.Widget())
	assert.Equal(t, WidgetText, FieldType("Mystery").Widget())

	for _, ft := range FieldTypes {
		assert.True(t, ft.IsValid(), ft)
	}
	assert.False(t, FieldType("text").IsValid())
}

func TestToFiniteNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"float", 3.5, 3.5, true},
		{"int", 7, 7, true},
		{"numeric string", " 12.25 ", 12.25, true},
		{"json number", json.Number("4"), 4, true},
		{"empty string", "", 0, false},
		{"word", "ten", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
		{"nan", math.NaN(), 0, false},
		{"inf", math.Inf(1), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFiniteNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFieldDefinitions(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		fields := ParseFieldDefinitions([]byte(`[{"id":"a","label":"A","fieldType":"Text"},{"id":"b","label":"B","fieldType":"Number"}]`))
		require.Len(t, fields, 2)
		assert.Equal(t, "a", fields[0].ID)
		assert.Equal(t, FieldTypeNumber, fields[1].FieldType)
	})

	t.Run("wrapped object", func(t *testing.T) {
		fields := ParseFieldDefinitions([]byte(`{"fields":[{"id":"a","label":"A","isRequired":true}]}`))
		require.Len(t, fields, 1)
		assert.True(t, fields[0].IsRequired)
	})

	t.Run("entries without id are dropped", func(t *testing.T) {
		fields := ParseFieldDefinitions([]byte(`[{"label":"orphan"},{"id":"  "},{"id":"ok"}]`))
		require.Len(t, fields, 1)
		assert.Equal(t, "ok", fields[0].ID)
	})

	for name, raw := range map[string]string{
		"empty":          ``,
		"null":           `null`,
		"scalar":         `42`,
		"object no list": `{"fields":{"id":"a"}}`,
		"garbage":        `[{`,
	} {
		t.Run(name, func(t *testing.T) {
			fields := ParseFieldDefinitions([]byte(raw))
			assert.NotNil(t, fields)
			assert.Empty(t, fields)
		})
	}
}

func TestFormDefinitionRoundTrip(t *testing.T) {
	form, err := NewFormDefinition([]FieldDefinition{{ID: "equipment", Label: "Equipment", FieldType: FieldTypeDropdown, Options: []string{"Treadmill"}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"fields":[{"id":"equipment","label":"Equipment","fieldType":"Dropdown","options":["Treadmill"],"isRequired":false,"isHidden":false}]}`, string(form))

	v, err := form.Value()
	require.NoError(t, err)

	var scanned FormDefinition
	require.NoError(t, scanned.Scan([]byte(v.(string))))
	assert.Equal(t, form.Fields(), scanned.Fields())

	var empty FormDefinition
	v, err = empty.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"fields":[]}`, v)

	assert.Error(t, scanned.Scan(12))
}

func TestValidationRuleValues(t *testing.T) {
	n, ok := ValidationRule{Type: RuleMin, Value: "5"}.NumberValue()
	assert.True(t, ok)
	assert.Equal(t, 5.0, n)

	assert.Equal(t, "^[0-9]+$", ValidationRule{Type: RulePattern, Value: "^[0-9]+$"}.StringValue())
	assert.Equal(t, "3", ValidationRule{Value: 3.0}.StringValue())
	assert.Equal(t, "", ValidationRule{}.StringValue())
}

func TestEnumsValidity(t *testing.T) {
	assert.True(t, TicketStatusEscalated.IsValid())
	assert.False(t, TicketStatus("archived").IsValid())
	assert.True(t, TicketPriorityCritical.IsValid())
	assert.False(t, TicketPriority("urgent").IsValid())
	assert.True(t, DepartmentFrontDesk.IsValid())
	assert.False(t, Department("hr").IsValid())

	assert.True(t, UserRoleAdmin.CanManageSettings())
	assert.True(t, UserRoleManager.CanManageSettings())
	assert.False(t, UserRoleStaff.CanManageSettings())
	assert.Equal(t, TicketPriorityMedium, DefaultTicketPriority)
}
