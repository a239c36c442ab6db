package engine

import (
	"regexp"

	"github.com/agentnodes/nodeflow/internal/values"
)

// opReplace compiles the pattern input as a regex and substitutes the
// first match in the subject with the replacement string (§4.2 Replace).
func opReplace(inputs []values.DataValue) ([]values.DataValue, error) {
	if len(inputs) != 3 {
		return nil, NewArityError("replace", len(inputs), 3)
	}
	pattern, ok := inputs[0].AsString()
	if !ok {
		return nil, NewTypeError("replace", []values.DataType{inputs[0].Type()}, []values.DataType{values.TypeString})
	}
	replacement, ok := inputs[1].AsString()
	if !ok {
		return nil, NewTypeError("replace", []values.DataType{inputs[1].Type()}, []values.DataType{values.TypeString})
	}
	subject, ok := inputs[2].AsString()
	if !ok {
		return nil, NewTypeError("replace", []values.DataType{inputs[2].Type()}, []values.DataType{values.TypeString})
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, NewRegexError(pattern, err)
	}

	loc := re.FindStringIndex(subject)
	if loc == nil {
		return []values.DataValue{values.String(subject)}, nil
	}
	out := subject[:loc[0]] + replacement + subject[loc[1]:]
	return []values.DataValue{values.String(out)}, nil
}
