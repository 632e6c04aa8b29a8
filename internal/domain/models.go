package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID identifies an option. It is opaque and compared by equality only.
type ID string

// NoID is the null id. Selecting it clears the selection.
const NoID ID = ""

// UnmarshalJSON accepts both JSON strings and JSON numbers.
// Numbers keep their literal form, so 7 and "7" resolve to the same id.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Option is one selectable item
type Option struct {
	ID     ID
	Text   string
	Fields map[string]string // extra searchable properties
}

// Field returns the value used for searching on key.
func (o Option) Field(key string) (string, bool) {
	switch key {
	case "id":
		return string(o.ID), true
	case "text":
		return o.Text, true
	}
	v, ok := o.Fields[key]
	return v, ok
}

// MarshalJSON flattens Fields next to id and text
func (o Option) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(o.Fields)+2)
	for k, v := range o.Fields {
		m[k] = v
	}
	m["id"] = string(o.ID)
	m["text"] = o.Text
	return json.Marshal(m)
}

// UnmarshalJSON decodes a {id, text, ...} record. Scalar properties other than
// id and text end up in Fields; nested objects and arrays are ignored.
func (o *Option) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("%w: option must be an object", ErrValidation)
	}

	idRaw, ok := raw["id"]
	if !ok {
		return fmt.Errorf("%w: option is missing \"id\"", ErrValidation)
	}
	textRaw, ok := raw["text"]
	if !ok {
		return fmt.Errorf("%w: option is missing \"text\"", ErrValidation)
	}

	var opt Option
	if err := json.Unmarshal(idRaw, &opt.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	text, ok := scalarString(textRaw)
	if !ok {
		return fmt.Errorf("%w: option %q has a non-scalar \"text\"", ErrValidation, opt.ID)
	}
	opt.Text = text

	for k, v := range raw {
		if k == "id" || k == "text" {
			continue
		}
		if s, ok := scalarString(v); ok {
			if opt.Fields == nil {
				opt.Fields = make(map[string]string)
			}
			opt.Fields[k] = s
		}
	}

	*o = opt
	return nil
}

// scalarString renders a JSON string, number or bool as text
func scalarString(data json.RawMessage) (string, bool) {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case nil:
		return "", true
	default:
		return "", false
	}
}

// DecodeOptions parses a JSON array of option records.
func DecodeOptions(data []byte) ([]Option, error) {
	var opts []Option
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("%w: data must be an array of {id, text} objects: %v", ErrValidation, err)
	}
	if opts == nil {
		return nil, fmt.Errorf("%w: data must be an array", ErrValidation)
	}
	if err := ValidateOptions(opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// ValidateOptions checks that every option carries an id.
func ValidateOptions(opts []Option) error {
	for i, o := range opts {
		if o.ID == NoID {
			return fmt.Errorf("%w: option at index %d has an empty id", ErrValidation, i)
		}
	}
	return nil
}

// FindOption returns the first option with the given id
func FindOption(opts []Option, id ID) (Option, bool) {
	for _, o := range opts {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}
