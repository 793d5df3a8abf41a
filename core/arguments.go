package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/mitchellh/mapstructure"
)

// Arguments holds the argument templates of a version
type Arguments struct {
	Game []Argument `json:"game,omitempty"`
	JVM  []Argument `json:"jvm,omitempty"`
}

// Argument is one argument template: either a plain string, or one or more values guarded by rules
type Argument struct {
	Value []string
	Rules []Rule
}

type ruledArgument struct {
	Rules []Rule      `json:"rules,omitempty"`
	Value interface{} `json:"value"`
}

func (a *Argument) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		*a = Argument{Value: []string{v}}
		return nil
	case map[string]interface{}:
		var parsed ruledArgument
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName: "json",
			Result:  &parsed,
		})
		if err != nil {
			return err
		}
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("invalid argument: %w", err)
		}
		values, err := argumentValues(parsed.Value)
		if err != nil {
			return err
		}
		*a = Argument{Value: values, Rules: parsed.Rules}
		return nil
	default:
		return fmt.Errorf("invalid argument: unexpected %T", raw)
	}
}

func argumentValues(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("invalid argument value: unexpected %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, errors.New("invalid argument: missing value")
	}
}

func (a Argument) MarshalJSON() ([]byte, error) {
	if len(a.Rules) == 0 && len(a.Value) == 1 {
		return json.Marshal(a.Value[0])
	}
	var value interface{} = a.Value
	if len(a.Value) == 1 {
		value = a.Value[0]
	}
	return json.Marshal(ruledArgument{Rules: a.Rules, Value: value})
}

func cloneArguments(args []Argument) []Argument {
	if args == nil {
		return nil
	}
	out := make([]Argument, len(args))
	for i, a := range args {
		out[i] = Argument{
			Value: append([]string(nil), a.Value...),
			Rules: cloneRules(a.Rules),
		}
	}
	return out
}

// legacyArguments splits a minecraftArguments string into templates
func legacyArguments(s string) []Argument {
	fields := strings.Fields(s)
	out := make([]Argument, len(fields))
	for i, f := range fields {
		out[i] = Argument{Value: []string{f}}
	}
	return out
}

var placeholderPattern = regexp2.MustCompile(`\$\{([A-Za-z0-9_]+)\}`, regexp2.None)

// expandArguments evaluates the rules of each template and substitutes ${name} placeholders.
// Placeholders without a value are left as they are.
func expandArguments(args []Argument, p Platform, values map[string]string) ([]string, error) {
	var out []string
	for _, a := range args {
		if !EvaluateRules(a.Rules, p) {
			continue
		}
		for _, v := range a.Value {
			expanded, err := expandPlaceholders(v, values)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded)
		}
	}
	return out, nil
}

func expandPlaceholders(s string, values map[string]string) (string, error) {
	if !strings.Contains(s, "${") {
		return s, nil
	}
	return placeholderPattern.ReplaceFunc(s, func(m regexp2.Match) string {
		if v, ok := values[m.GroupByNumber(1).String()]; ok {
			return v
		}
		return m.String()
	}, -1, -1)
}
