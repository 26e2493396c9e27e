package formats

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// ParseJSONObject decodes a JSON object. An empty document is an empty map.
func ParseJSONObject(raw string) (map[string]any, error) {
	out := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &ParseError{Format: "json", Err: err}
	}
	return out, nil
}

// StringifyJSON renders a value as indented JSON terminated by a newline.
func StringifyJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", errors.Wrap(err, "failed to encode json")
	}
	return buf.String(), nil
}

// MergeJSON sets the value at a dotted path inside an existing JSON document
// and leaves every other key untouched. An empty existing document starts
// from an empty object.
func MergeJSON(existing, keyPath string, value any) (string, error) {
	doc := []byte(existing)
	if strings.TrimSpace(existing) == "" {
		doc = []byte("{}")
	} else if !gjson.Valid(existing) {
		return "", &ParseError{Format: "json", Err: errors.New("existing document is not valid JSON")}
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode json value")
	}

	merged, err := sjson.SetRawBytes(doc, keyPath, raw)
	if err != nil {
		return "", errors.Wrapf(err, "failed to set %s", keyPath)
	}
	return string(pretty.PrettyOptions(merged, &pretty.Options{Indent: "  ", Width: 80})), nil
}

// LookupJSON returns the raw JSON at a dotted path, and whether it exists.
func LookupJSON(doc, keyPath string) (string, bool) {
	res := gjson.Get(doc, keyPath)
	if !res.Exists() {
		return "", false
	}
	return res.Raw, true
}

// JSONStrings returns the string elements of the array at a dotted path.
func JSONStrings(doc, keyPath string) []string {
	var out []string
	for _, item := range gjson.Get(doc, keyPath).Array() {
		if item.Type == gjson.String {
			out = append(out, item.String())
		}
	}
	return out
}
