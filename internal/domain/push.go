package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// RegistrationIDLimit is the maximum number of recipients accepted per multicast.
const RegistrationIDLimit = 1000

// MulticastRequest is a single push to many registration IDs.
type MulticastRequest struct {
	APIKey          string
	RegistrationIDs []string
	Content         any
	DryRun          bool
}

// Validate checks the request fields in order and returns the first violation.
func (r MulticastRequest) Validate() error {
	if strings.TrimSpace(r.APIKey) == "" {
		return fmt.Errorf("%w: api_key is required.", ErrValidation)
	}
	if len(r.RegistrationIDs) == 0 {
		return fmt.Errorf("%w: registration_ids is required.", ErrValidation)
	}
	if count := len(r.RegistrationIDs); count > RegistrationIDLimit {
		return fmt.Errorf(
			"%w: registration_ids is too much. Limit is %d. Count of registration_ids = [%d]",
			ErrValidation, RegistrationIDLimit, count,
		)
	}
	if raw, ok := r.Content.(json.RawMessage); ok && len(bytes.TrimSpace(raw)) > 0 && !json.Valid(raw) {
		return fmt.Errorf("%w: content must be valid JSON.", ErrValidation)
	}
	if IsEmptyContent(r.Content) {
		return fmt.Errorf("%w: content is required.", ErrValidation)
	}

	return nil
}

// JoinedRegistrationIDs renders the recipients for error correlation.
func (r MulticastRequest) JoinedRegistrationIDs() string {
	return strings.Join(r.RegistrationIDs, ",")
}

// IsEmptyContent reports whether content carries nothing worth delivering:
// nil, zero scalars, empty collections, nil pointers, and raw JSON that
// decodes to any of those. Struct values are never empty.
func IsEmptyContent(content any) bool {
	if content == nil {
		return true
	}

	switch c := content.(type) {
	case json.RawMessage:
		return isEmptyRawJSON(c)
	case []byte:
		return len(c) == 0
	}

	v := reflect.ValueOf(content)
	switch v.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return true
		}
		return IsEmptyContent(v.Elem().Interface())
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return v.IsZero()
	}

	return false
}

func isEmptyRawJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return true
	}

	var decoded any
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return false
	}
	return IsEmptyContent(decoded)
}
