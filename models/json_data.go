package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONData is an opaque JSON document stored in a jsonb column
type JSONData json.RawMessage

// Value implements driver.Valuer
func (j JSONData) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "{}", nil
	}
	return string(j), nil
}

// Scan implements sql.Scanner
func (j *JSONData) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append(JSONData(nil), v...)
	case string:
		*j = JSONData(v)
	default:
		return errors.New("json data: unsupported scan type")
	}
	return nil
}

// MarshalJSON emits the stored document verbatim
func (j JSONData) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("{}"), nil
	}
	return []byte(j), nil
}

// UnmarshalJSON keeps the raw document
func (j *JSONData) UnmarshalJSON(data []byte) error {
	*j = append(JSONData(nil), data...)
	return nil
}
