package core

import (
	"encoding/json"
	"errors"
	"strings"
)

// Required top-level keys per outline stage.
var (
	BookOutlineFields    = []string{"main_theme", "description", "volumes"}
	VolumeOutlineFields  = []string{"chapters"}
	ChapterOutlineFields = []string{"chapter_title", "scenes"}
)

// StripFences removes every ```json and ``` marker and trims whitespace.
func StripFences(raw string) string {
	s := strings.ReplaceAll(raw, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// Normalize turns model output into a JSON object and checks that every
// required key is present. There is no partial recovery: malformed text is a
// JSONParseError, absent keys a SchemaValidationError.
func Normalize(raw string, required []string) (map[string]any, error) {
	cleaned := StripFences(raw)

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, &JSONParseError{RawText: raw, Err: err}
	}
	if obj == nil {
		return nil, &JSONParseError{RawText: raw, Err: errNotObject}
	}

	var missing []string
	for _, key := range required {
		if _, ok := obj[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaValidationError{MissingFields: missing, RawObject: obj}
	}
	return obj, nil
}

var errNotObject = errors.New("top-level value is not an object")
