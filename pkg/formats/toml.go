package formats

import (
	"bytes"
	"strings"

	"github.com/BurntSushi/toml"
	tomlv2 "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// PromptFile is the TOML layout of a command file: a short description and a
// prompt rendered as a triple-quoted multi-line string.
type PromptFile struct {
	Description string `toml:"description,omitempty"`
	Prompt      string `toml:"prompt,multiline"`
}

// ParsePromptTOML decodes a TOML command file. The prompt becomes the body and
// the remaining keys the frontmatter.
func ParsePromptTOML(raw string) (Document, error) {
	var fields map[string]any
	if err := tomlv2.Unmarshal([]byte(raw), &fields); err != nil {
		return Document{}, &ParseError{Format: "toml", Err: err}
	}

	prompt, _ := fields["prompt"].(string)
	delete(fields, "prompt")
	return Document{Frontmatter: fields, Body: prompt}, nil
}

// StringifyPromptTOML renders a command file with a multi-line prompt field.
func StringifyPromptTOML(pf PromptFile) (string, error) {
	data, err := tomlv2.Marshal(pf)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode toml prompt file")
	}
	return string(data), nil
}

// ParseTOMLDocument decodes an arbitrary TOML document into a generic map,
// e.g. an existing configuration file that generated content is merged into.
func ParseTOMLDocument(raw string) (map[string]any, error) {
	out := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	if _, err := toml.Decode(raw, &out); err != nil {
		return nil, &ParseError{Format: "toml", Err: err}
	}
	return out, nil
}

// StringifyTOMLDocument encodes a generic map as TOML with sorted keys.
func StringifyTOMLDocument(doc map[string]any) (string, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(doc); err != nil {
		return "", errors.Wrap(err, "failed to encode toml document")
	}
	return buf.String(), nil
}
