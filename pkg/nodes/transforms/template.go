package transforms

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

var templateTokenPattern = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)

// TemplateNode renders a {{ path }}-style template against each input
// value, matching select_test.rs's handlebars-style templating and
// output_type casting.
type TemplateNode struct {
	node.BaseNode
	template   string
	outputType string
	outputCase string
	setPath    string
}

// NewTemplateFactory returns the factory the compiler registers under
// "template".
func NewTemplateFactory() node.Factory {
	return func(id string) node.Node {
		return &TemplateNode{BaseNode: node.NewBaseNode(id, "template", nil)}
	}
}

func (t *TemplateNode) Arity() node.Arity {
	return node.Arity{
		Inputs:  []node.PortDescriptor{{Name: "0"}},
		Outputs: []node.PortDescriptor{{Name: "0"}},
	}
}

func (t *TemplateNode) Configure(config map[string]interface{}, _ node.CredentialResolver) error {
	t.BaseNode = node.NewBaseNode(t.ID(), "template", config)
	t.template = t.GetConfigString("template", "")
	t.outputType = t.GetConfigString("output_type", "string")
	t.outputCase = t.GetConfigString("output_case", "")
	t.setPath = t.GetConfigString("set_path", "")
	return nil
}

func (t *TemplateNode) Run(inputs []node.Input, outputs []*node.Output, rc node.RunContext) error {
	for {
		select {
		case env, ok := <-inputs[0].Recv():
			if !ok {
				return nil
			}
			v := env.Value.(value.Value)
			rendered, err := t.render(v)
			if err != nil {
				return err
			}
			if !outputs[0].Send(rc.Context, rendered) {
				return nil
			}
		case <-rc.Done():
			return nil
		}
	}
}

func (t *TemplateNode) render(v value.Value) (value.Value, error) {
	rendered := templateTokenPattern.ReplaceAllStringFunc(t.template, func(token string) string {
		path := strings.TrimSpace(templateTokenPattern.FindStringSubmatch(token)[1])
		resolved, ok := navigate(v, path)
		if !ok {
			return ""
		}
		return stringify(resolved)
	})
	out := castOutput(applyCase(rendered, t.outputCase), t.outputType)
	if t.setPath == "" {
		return out, nil
	}
	return setPath(v, t.setPath, out)
}

// applyCase case-folds a rendered template string, grounded on the
// original implementation's select node "text_case" property.
func applyCase(s, textCase string) string {
	switch textCase {
	case "upper":
		return cases.Upper(language.Und).String(s)
	case "lower":
		return cases.Lower(language.Und).String(s)
	case "title":
		return cases.Title(language.Und).String(s)
	default:
		return s
	}
}

func stringify(v value.Value) string {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.String()
		return s
	case value.KindNumber:
		n, _ := v.Number()
		return strconv.FormatFloat(n, 'g', -1, 64)
	case value.KindBool:
		b, _ := v.Bool()
		return strconv.FormatBool(b)
	case value.KindNull:
		return ""
	default:
		return fmt.Sprintf("%v", value.ToAny(v))
	}
}

func castOutput(rendered, outputType string) value.Value {
	switch outputType {
	case "number":
		n, err := strconv.ParseFloat(rendered, 64)
		if err != nil {
			return value.Null()
		}
		return value.Number(n)
	case "boolean":
		b, err := strconv.ParseBool(rendered)
		if err != nil {
			return value.Null()
		}
		return value.Bool(b)
	default:
		return value.String(rendered)
	}
}
