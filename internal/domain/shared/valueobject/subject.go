package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// MaxSubjectLength bounds identity-provider subjects stored on sessions and payments.
const MaxSubjectLength = 255

// subjectPattern accepts the identifier alphabets of common identity providers
// (UUIDs, "auth0|123", "user_2abc", e-mail style subjects).
var subjectPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:|@+\-]*$`)

// Subject is a reference to a principal owned by an external identity provider,
// such as the cashier operating a drawer or the staff member receiving a payment.
// Only the format is validated; whether the principal exists is the provider's concern.
type Subject struct {
	value string
}

// NewSubject validates and wraps an identity-provider subject
func NewSubject(value string) (Subject, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Subject{}, fmt.Errorf("subject cannot be empty")
	}
	if len(value) > MaxSubjectLength {
		return Subject{}, fmt.Errorf("subject cannot exceed %d characters", MaxSubjectLength)
	}
	if !subjectPattern.MatchString(value) {
		return Subject{}, fmt.Errorf("subject %q contains invalid characters", value)
	}
	return Subject{value: value}, nil
}

// MustNewSubject is NewSubject for literals known to be valid; it panics otherwise.
func MustNewSubject(value string) Subject {
	s, err := NewSubject(value)
	if err != nil {
		panic(err)
	}
	return s
}

// String returns the raw subject
func (s Subject) String() string {
	return s.value
}

// IsZero reports whether the subject is unset
func (s Subject) IsZero() bool {
	return s.value == ""
}

// Equals compares two subjects
func (s Subject) Equals(other Subject) bool {
	return s.value == other.value
}

// MarshalJSON implements json.Marshaler
func (s Subject) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (s *Subject) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse subject JSON: %w", err)
	}
	parsed, err := NewSubject(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer for database storage
func (s Subject) Value() (driver.Value, error) {
	return s.value, nil
}

// Scan implements sql.Scanner for database retrieval.
// Stored subjects are trusted and not re-validated.
func (s *Subject) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		s.value = ""
	case string:
		s.value = v
	case []byte:
		s.value = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Subject", value)
	}
	return nil
}
