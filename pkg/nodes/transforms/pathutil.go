package transforms

import (
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/wehubfusion/rustflow/pkg/value"
)

// navigate resolves a dotted gjson path against v, converting through JSON
// so router/join/template can reuse the same field-path syntax the
// original implementation's NavigatePath helper used against raw node
// output bytes.
func navigate(v value.Value, path string) (value.Value, bool) {
	if path == "" {
		return v, true
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return value.Null(), false
	}
	result := gjson.GetBytes(raw, path)
	if !result.Exists() {
		return value.Null(), false
	}
	return value.FromAny(result.Value()), true
}

// setPath writes rendered into v at the given dotted path, creating
// intermediate objects as needed, and returns the mutated whole value.
// Used by TemplateNode's "set_path" mode so a rendered substitution can be
// merged back into the input document instead of replacing it outright.
func setPath(v value.Value, path string, rendered value.Value) (value.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return value.Null(), err
	}
	out, err := sjson.SetBytes(raw, path, value.ToAny(rendered))
	if err != nil {
		return value.Null(), err
	}
	var decoded interface{}
	if err := json.Unmarshal(out, &decoded); err != nil {
		return value.Null(), err
	}
	return value.FromAny(decoded), nil
}
