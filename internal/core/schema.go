package core

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// stageContract is the required-key set and JSON schema one outline stage must satisfy.
type stageContract struct {
	stage    Stage
	required []string
	schema   *jsonschema.Schema
}

var (
	bookContract    = mustContract(StageBookOutline, BookOutlineFields, "schemas/book_outline.json")
	volumeContract  = mustContract(StageVolumeOutline, VolumeOutlineFields, "schemas/volume_outline.json")
	chapterContract = mustContract(StageChapterOutline, ChapterOutlineFields, "schemas/chapter_outline.json")
)

func mustContract(stage Stage, required []string, path string) stageContract {
	raw, err := schemaFS.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("read %s: %v", path, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(path, bytes.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("load %s: %v", path, err))
	}
	schema, err := compiler.Compile(path)
	if err != nil {
		panic(fmt.Sprintf("compile %s: %v", path, err))
	}
	return stageContract{stage: stage, required: required, schema: schema}
}

// decode normalizes raw model output, validates it against the stage schema
// and decodes it into out. Every failure is a *StructuredOutputError.
func (c stageContract) decode(raw string, out any) error {
	obj, err := Normalize(raw, c.required)
	if err != nil {
		return &StructuredOutputError{Stage: c.stage, RawText: raw, Err: err}
	}

	if err := c.schema.Validate(obj); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return &StructuredOutputError{Stage: c.stage, RawText: raw, Err: err}
		}
		return &StructuredOutputError{
			Stage:   c.stage,
			RawText: raw,
			Err:     &SchemaValidationError{Violations: violations(ve), RawObject: obj},
		}
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return &StructuredOutputError{Stage: c.stage, RawText: raw, Err: err}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &StructuredOutputError{
			Stage:   c.stage,
			RawText: raw,
			Err:     &SchemaValidationError{Violations: []string{err.Error()}, RawObject: obj},
		}
	}
	return nil
}

// violations flattens a validation error tree into "location: message" lines.
func violations(ve *jsonschema.ValidationError) []string {
	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			out = append(out, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	sort.Strings(out)
	return out
}

// DecodeBookOutline parses the book-outline stage output.
func DecodeBookOutline(raw string) (BookOutline, error) {
	var out BookOutline
	err := bookContract.decode(raw, &out)
	return out, err
}

// DecodeVolumeOutline parses the volume-outline stage output.
func DecodeVolumeOutline(raw string) (VolumeOutline, error) {
	var out VolumeOutline
	err := volumeContract.decode(raw, &out)
	return out, err
}

// DecodeChapterOutline parses the chapter-outline stage output.
func DecodeChapterOutline(raw string) (ChapterOutline, error) {
	var out ChapterOutline
	err := chapterContract.decode(raw, &out)
	return out, err
}
