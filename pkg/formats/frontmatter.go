// Package formats implements the on-disk encodings used by canonical and
// tool-native files: YAML frontmatter plus markdown body, TOML documents with
// multi-line string fields, JSON maps and newline-delimited pattern lists.
package formats

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"
)

// Document is a parsed file: structured frontmatter (or the whole document
// for pure TOML/JSON formats) and the free-text body.
type Document struct {
	Frontmatter map[string]any
	Body        string
}

// ParseError reports a malformed file.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed %s: %v", e.Format, e.Err)
}

// Unwrap returns the underlying decoder error.
func (e *ParseError) Unwrap() error { return e.Err }

var markdown = goldmark.New(goldmark.WithExtensions(meta.Meta))

// ParseFrontmatter splits a markdown document into its YAML frontmatter and
// body. A document without frontmatter has a nil map and the whole content as
// body.
func ParseFrontmatter(raw string) (Document, error) {
	if !strings.HasPrefix(raw, "---") {
		return Document{Body: raw}, nil
	}

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := markdown.Convert([]byte(raw), &buf, parser.WithContext(pctx)); err != nil {
		return Document{}, &ParseError{Format: "markdown", Err: err}
	}

	metaData, err := meta.TryGet(pctx)
	if err != nil {
		return Document{}, &ParseError{Format: "yaml frontmatter", Err: err}
	}

	return Document{
		Frontmatter: normalizeMap(metaData),
		Body:        extractBody(raw),
	}, nil
}

// extractBody removes YAML frontmatter and returns the body
func extractBody(content string) string {
	lines := strings.Split(content, "\n")
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return content
	}
	return strings.TrimLeft(strings.Join(lines[end+1:], "\n"), "\n")
}

// Stringify renders frontmatter and body back into a markdown document. Empty
// frontmatter produces the body alone.
func Stringify(frontmatter any, body string) (string, error) {
	if isEmpty(frontmatter) {
		return body, nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(frontmatter); err != nil {
		return "", errors.Wrap(err, "failed to encode frontmatter")
	}
	if err := enc.Close(); err != nil {
		return "", errors.Wrap(err, "failed to encode frontmatter")
	}

	encoded := buf.String()
	if strings.TrimSpace(encoded) == "{}" {
		return body, nil
	}
	return "---\n" + encoded + "---\n" + body, nil
}

// Decode maps a generic frontmatter map onto a typed struct using its yaml
// tags. Scalars are converted where the intent is unambiguous (e.g. "true").
func Decode(input map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		Squash:           true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create frontmatter decoder")
	}
	if err := decoder.Decode(input); err != nil {
		return &ParseError{Format: "frontmatter fields", Err: err}
	}
	return nil
}

// ToMap converts a typed value into a generic map through its yaml tags, which
// is the shape schema validation and tool-file frontmatter use.
func ToMap(v any) (map[string]any, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode value")
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "failed to decode value")
	}
	return normalizeMap(out), nil
}

func isEmpty(v any) bool {
	switch m := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(m) == 0
	}
	return false
}

// normalizeMap converts the map[interface{}]interface{} values produced by the
// goldmark-meta YAML decoder into JSON-compatible map[string]any values.
func normalizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeMap(val)
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, v := range val {
			m[fmt.Sprint(k)] = normalizeValue(v)
		}
		return m
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return val
	}
}
