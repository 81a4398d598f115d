package model

import (
	"database/sql/driver"
	"fmt"

	"github.com/goccy/go-json"
)

// StringList is a list of strings stored as a JSON array column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return marshalColumn(l)
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	return scanColumn(src, l)
}

// Value implements driver.Valuer.
func (p UserPreferences) Value() (driver.Value, error) {
	return marshalColumn(p)
}

// Scan implements sql.Scanner.
func (p *UserPreferences) Scan(src any) error {
	return scanColumn(src, p)
}

// Value implements driver.Valuer.
func (a PreferenceAnswers) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return marshalColumn(a)
}

// Scan implements sql.Scanner.
func (a *PreferenceAnswers) Scan(src any) error {
	return scanColumn(src, a)
}

// Value implements driver.Valuer.
func (r PreferenceAnalysis) Value() (driver.Value, error) {
	return marshalColumn(r)
}

// Scan implements sql.Scanner.
func (r *PreferenceAnalysis) Scan(src any) error {
	return scanColumn(src, r)
}

// marshalColumn encodes v as a JSON string. Strings are accepted by both
// SQLite TEXT and PostgreSQL JSONB columns.
func marshalColumn(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode json column: %w", err)
	}
	return string(b), nil
}

func scanColumn(src any, dst any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode json column: %w", err)
	}
	return nil
}
