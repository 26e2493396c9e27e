// Package schema validates frontmatter against JSON schemas reflected from the
// Go types that describe it, so the schema can never drift from the structs.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	invopop "github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Issue is a single schema violation.
type Issue struct {
	Field   string // Instance location, e.g. "/targets/0"
	Message string
}

// ValidationError reports that a unit's frontmatter does not match its kind's
// shape.
type ValidationError struct {
	Kind   string
	Path   string
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Field == "" {
			parts = append(parts, issue.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	where := ""
	if e.Path != "" {
		where = " in " + e.Path
	}
	return fmt.Sprintf("invalid %s%s: %s", e.Kind, where, strings.Join(parts, "; "))
}

// Invalid builds a ValidationError from plain messages, for checks a JSON
// schema cannot express.
func Invalid(kind, path string, messages ...string) *ValidationError {
	issues := make([]Issue, 0, len(messages))
	for _, m := range messages {
		issues = append(issues, Issue{Message: m})
	}
	return &ValidationError{Kind: kind, Path: path, Issues: issues}
}

// Validator checks instances against the schema reflected from one Go type.
type Validator struct {
	kind   string
	sample any

	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

// NewValidator returns a validator for frontmatter shaped like sample. The
// schema is reflected and compiled on first use.
func NewValidator(kind string, sample any) *Validator {
	return &Validator{kind: kind, sample: sample}
}

func (v *Validator) schema() (*jsonschema.Schema, error) {
	v.once.Do(func() {
		r := &invopop.Reflector{
			FieldNameTag:               "yaml",
			DoNotReference:             true,
			AllowAdditionalProperties:  true,
			RequiredFromJSONSchemaTags: true,
			Anonymous:                  true,
		}
		reflected, err := json.Marshal(r.Reflect(v.sample))
		if err != nil {
			v.err = errors.Wrapf(err, "failed to reflect %s schema", v.kind)
			return
		}

		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(reflected))
		if err != nil {
			v.err = errors.Wrapf(err, "failed to load %s schema", v.kind)
			return
		}

		resource := v.kind + ".schema.json"
		c := jsonschema.NewCompiler()
		if err := c.AddResource(resource, doc); err != nil {
			v.err = errors.Wrapf(err, "failed to add %s schema", v.kind)
			return
		}
		v.compiled, v.err = c.Compile(resource)
		if v.err != nil {
			v.err = errors.Wrapf(v.err, "failed to compile %s schema", v.kind)
		}
	})
	return v.compiled, v.err
}

// Validate checks a generic frontmatter map. It returns nil, a
// *ValidationError, or an error if the schema itself could not be built.
func (v *Validator) Validate(path string, instance map[string]any) error {
	compiled, err := v.schema()
	if err != nil {
		return err
	}
	if instance == nil {
		instance = map[string]any{}
	}

	data, err := json.Marshal(instance)
	if err != nil {
		return Invalid(v.kind, path, fmt.Sprintf("frontmatter is not representable as JSON: %v", err))
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "failed to prepare instance for validation")
	}

	err = compiled.Validate(inst)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return errors.Wrap(err, "unexpected validation failure")
	}
	return &ValidationError{Kind: v.kind, Path: path, Issues: extractIssues(ve)}
}

func extractIssues(ve *jsonschema.ValidationError) []Issue {
	var issues []Issue
	collectIssues(ve, &issues)
	if len(issues) == 0 {
		return []Issue{{Message: ve.Error()}}
	}

	seen := make(map[string]bool)
	var out []Issue
	for _, issue := range issues {
		key := issue.Field + "|" + issue.Message
		if !seen[key] {
			seen[key] = true
			out = append(out, issue)
		}
	}
	return out
}

// collectIssues walks the error tree down to the leaf errors, which carry the
// specific property information.
func collectIssues(ve *jsonschema.ValidationError, issues *[]Issue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectIssues(cause, issues)
		}
		return
	}

	field := ""
	if len(ve.InstanceLocation) > 0 {
		field = "/" + strings.Join(ve.InstanceLocation, "/")
	}
	msg := ve.Error()
	if ve.ErrorKind != nil {
		msg = ve.ErrorKind.LocalizedString(printer)
	}
	*issues = append(*issues, Issue{Field: field, Message: msg})
}
