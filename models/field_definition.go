package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FieldType is the closed set of dynamic form input kinds
type FieldType string

const (
	FieldTypeAutoGenerated FieldType = "Auto-generated"
	FieldTypeDateTime      FieldType = "DateTime"
	FieldTypeDate          FieldType = "Date"
	FieldTypeDropdown      FieldType = "Dropdown"
	FieldTypeText          FieldType = "Text"
	FieldTypeEmail         FieldType = "Email"
	FieldTypePhone         FieldType = "Phone"
	FieldTypeLongText      FieldType = "Long Text"
	FieldTypeCheckbox      FieldType = "Checkbox"
	FieldTypeFileUpload    FieldType = "File Upload"
	FieldTypeNumber        FieldType = "Number"
)

// FieldTypes lists every FieldType in declaration order
var FieldTypes = []FieldType{
	FieldTypeAutoGenerated,
	FieldTypeDateTime,
	FieldTypeDate,
	FieldTypeDropdown,
	FieldTypeText,
	FieldTypeEmail,
	FieldTypePhone,
	FieldTypeLongText,
	FieldTypeCheckbox,
	FieldTypeFileUpload,
	FieldTypeNumber,
}

// Input widgets handed to the client renderer
const (
	WidgetReadonly = "readonly"
	WidgetDateTime = "datetime-local"
	WidgetDate     = "date"
	WidgetSelect   = "select"
	WidgetText     = "text"
	WidgetEmail    = "email"
	WidgetTel      = "tel"
	WidgetTextarea = "textarea"
	WidgetCheckbox = "checkbox"
	WidgetFile     = "file"
	WidgetNumber   = "number"
)

var widgetByFieldType = map[FieldType]string{
	FieldTypeAutoGenerated: WidgetReadonly,
	FieldTypeDateTime:      WidgetDateTime,
	FieldTypeDate:          WidgetDate,
	FieldTypeDropdown:      WidgetSelect,
	FieldTypeText:          WidgetText,
	FieldTypeEmail:         WidgetEmail,
	FieldTypePhone:         WidgetTel,
	FieldTypeLongText:      WidgetTextarea,
	FieldTypeCheckbox:      WidgetCheckbox,
	FieldTypeFileUpload:    WidgetFile,
	FieldTypeNumber:        WidgetNumber,
}

// IsValid reports whether t is one of the known field types
func (t FieldType) IsValid() bool {
	_, ok := widgetByFieldType[t]
	return ok
}

// Widget returns the input widget for t; unknown types render as plain text
func (t FieldType) Widget() string {
	if w, ok := widgetByFieldType[t]; ok {
		return w
	}
	return WidgetText
}

// looseFieldTypes maps lowercase free-text type names used by external data onto FieldType
var looseFieldTypes = map[string]FieldType{
	"auto-generated": FieldTypeAutoGenerated,
	"autogenerated":  FieldTypeAutoGenerated,
	"auto":           FieldTypeAutoGenerated,
	"datetime":       FieldTypeDateTime,
	"date-time":      FieldTypeDateTime,
	"date time":      FieldTypeDateTime,
	"datetime-local": FieldTypeDateTime,
	"timestamp":      FieldTypeDateTime,
	"date":           FieldTypeDate,
	"dropdown":       FieldTypeDropdown,
	"select":         FieldTypeDropdown,
	"radio":          FieldTypeDropdown,
	"text":           FieldTypeText,
	"string":         FieldTypeText,
	"short text":     FieldTypeText,
	"email":          FieldTypeEmail,
	"e-mail":         FieldTypeEmail,
	"phone":          FieldTypePhone,
	"tel":            FieldTypePhone,
	"telephone":      FieldTypePhone,
	"long text":      FieldTypeLongText,
	"longtext":       FieldTypeLongText,
	"long_text":      FieldTypeLongText,
	"textarea":       FieldTypeLongText,
	"checkbox":       FieldTypeCheckbox,
	"checkboxes":     FieldTypeCheckbox,
	"boolean":        FieldTypeCheckbox,
	"multiselect":    FieldTypeCheckbox,
	"file":           FieldTypeFileUpload,
	"file upload":    FieldTypeFileUpload,
	"file_upload":    FieldTypeFileUpload,
	"upload":         FieldTypeFileUpload,
	"number":         FieldTypeNumber,
	"numeric":        FieldTypeNumber,
	"integer":        FieldTypeNumber,
	"int":            FieldTypeNumber,
	"decimal":        FieldTypeNumber,
}

// NormalizeFieldType maps a loosely typed name onto FieldType, defaulting to Text
func NormalizeFieldType(raw string) FieldType {
	key := strings.ToLower(strings.TrimSpace(raw))
	if t, ok := looseFieldTypes[key]; ok {
		return t
	}
	return FieldTypeText
}

// Validation rule kinds
const (
	RuleMinLength = "minLength"
	RuleMaxLength = "maxLength"
	RulePattern   = "pattern"
	RuleMin       = "min"
	RuleMax       = "max"
)

// ValidationRule is a single declarative check applied to a non-empty value
type ValidationRule struct {
	Type    string `json:"type"`
	Value   any    `json:"value"`
	Message string `json:"message,omitempty"`
}

// NumberValue coerces the rule bound to a finite number
func (r ValidationRule) NumberValue() (float64, bool) {
	return ToFiniteNumber(r.Value)
}

// StringValue renders the rule bound as a string (used for patterns)
func (r ValidationRule) StringValue() string {
	switch v := r.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// FieldDefinition describes one dynamic form input
type FieldDefinition struct {
	ID          string           `json:"id"`
	Label       string           `json:"label"`
	FieldType   FieldType        `json:"fieldType"`
	Options     []string         `json:"options,omitempty"`
	Description string           `json:"description,omitempty"`
	IsRequired  bool             `json:"isRequired"`
	IsHidden    bool             `json:"isHidden"`
	Validation  []ValidationRule `json:"validation,omitempty"`
}

// ToFiniteNumber coerces JSON-ish values to a finite float; empty or non-numeric input yields false
func ToFiniteNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseFieldDefinitions normalizes an embedded form blob into a field list.
// Both the bare-array shape and the {"fields": [...]} shape are accepted;
// anything else yields an empty list. Entries that do not decode or carry no
// id are dropped.
func ParseFieldDefinitions(raw []byte) []FieldDefinition {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []FieldDefinition{}
	}

	var elems []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return []FieldDefinition{}
		}
	case '{':
		var wrapped struct {
			Fields json.RawMessage `json:"fields"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return []FieldDefinition{}
		}
		inner := bytes.TrimSpace(wrapped.Fields)
		if len(inner) == 0 || inner[0] != '[' {
			return []FieldDefinition{}
		}
		if err := json.Unmarshal(inner, &elems); err != nil {
			return []FieldDefinition{}
		}
	default:
		return []FieldDefinition{}
	}

	out := make([]FieldDefinition, 0, len(elems))
	for _, e := range elems {
		var fd FieldDefinition
		if err := json.Unmarshal(e, &fd); err != nil {
			continue
		}
		if strings.TrimSpace(fd.ID) == "" {
			continue
		}
		out = append(out, fd)
	}
	return out
}

// FormDefinition is the embedded JSON form blob stored on a subcategory
type FormDefinition json.RawMessage

// NewFormDefinition builds the canonical {"fields": [...]} blob
func NewFormDefinition(fields []FieldDefinition) (FormDefinition, error) {
	if fields == nil {
		fields = []FieldDefinition{}
	}
	bs, err := json.Marshal(struct {
		Fields []FieldDefinition `json:"fields"`
	}{Fields: fields})
	if err != nil {
		return nil, err
	}
	return FormDefinition(bs), nil
}

// Fields returns the normalized field list
func (f FormDefinition) Fields() []FieldDefinition {
	return ParseFieldDefinitions(f)
}

// Value implements driver.Valuer
func (f FormDefinition) Value() (driver.Value, error) {
	if len(f) == 0 {
		return `{"fields":[]}`, nil
	}
	return string(f), nil
}

// Scan implements sql.Scanner
func (f *FormDefinition) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*f = nil
	case []byte:
		*f = append(FormDefinition(nil), v...)
	case string:
		*f = FormDefinition(v)
	default:
		return errors.New("form definition: unsupported scan type")
	}
	return nil
}

// MarshalJSON emits the stored blob verbatim
func (f FormDefinition) MarshalJSON() ([]byte, error) {
	if len(f) == 0 {
		return []byte("null"), nil
	}
	return []byte(f), nil
}

// UnmarshalJSON keeps the raw blob
func (f *FormDefinition) UnmarshalJSON(data []byte) error {
	*f = append(FormDefinition(nil), data...)
	return nil
}
