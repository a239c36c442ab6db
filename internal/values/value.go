package values

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/google/uuid"
	hex "github.com/tmthrgd/go-hex"
)

// ArithmeticError reports an invalid operand combination or a division
// (or modulo) by zero.
type ArithmeticError struct {
	Op       string
	Left     DataValue
	Right    DataValue
	DivByZero bool
}

func (e *ArithmeticError) Error() string {
	if e.DivByZero {
		return fmt.Sprintf("arithmetic error: %s by zero", e.Op)
	}
	return fmt.Sprintf("arithmetic error: invalid combination for %s: %s and %s", e.Op, e.Left.Type(), e.Right.Type())
}

func invalidCombo(op string, l, r DataValue) error {
	return &ArithmeticError{Op: op, Left: l, Right: r}
}

func divByZero(op string, l, r DataValue) error {
	return &ArithmeticError{Op: op, Left: l, Right: r, DivByZero: true}
}

// CastError reports a failed try_cast between two DataTypes.
type CastError struct {
	From DataType
	To   DataType
}

func (e *CastError) Error() string {
	return fmt.Sprintf("cannot cast %s to %s", e.From, e.To)
}

// DataValue is the tagged-sum value carried on every edge.
//
// It is intentionally a struct with typed fields rather than an `any`,
// so a switch on Type() stays exhaustive and comparable without
// reflection.
type DataValue struct {
	typ   DataType
	str   string
	i     int64
	f     float64
	b     bool
	by    byte
	arr   []DataValue
	h     uuid.UUID
	obj   map[string]DataValue
	agent AgentRef
}

// AgentRef identifies a live agent registered with an evaluator.
type AgentRef struct {
	Kind string
	ID   uuid.UUID
}

func String(s string) DataValue                 { return DataValue{typ: TypeString, str: s} }
func Integer(i int64) DataValue                  { return DataValue{typ: TypeInteger, i: i} }
func Float(f float64) DataValue                  { return DataValue{typ: TypeFloat, f: f} }
func Boolean(b bool) DataValue                   { return DataValue{typ: TypeBoolean, b: b} }
func Byte(b byte) DataValue                      { return DataValue{typ: TypeByte, by: b} }
func Array(vs []DataValue) DataValue             { return DataValue{typ: TypeArray, arr: vs} }
func Handle(id uuid.UUID) DataValue              { return DataValue{typ: TypeHandle, h: id} }
func Object(m map[string]DataValue) DataValue    { return DataValue{typ: TypeObject, obj: m} }
func Agent(kind string, id uuid.UUID) DataValue  { return DataValue{typ: TypeAgent, agent: AgentRef{Kind: kind, ID: id}} }
func None() DataValue                            { return DataValue{typ: TypeNone} }

// Type returns the tag carried by v.
func (v DataValue) Type() DataType { return v.typ }

func (v DataValue) AsString() (string, bool)       { return v.str, v.typ == TypeString }
func (v DataValue) AsInteger() (int64, bool)        { return v.i, v.typ == TypeInteger }
func (v DataValue) AsFloat() (float64, bool)        { return v.f, v.typ == TypeFloat }
func (v DataValue) AsBoolean() (bool, bool)         { return v.b, v.typ == TypeBoolean }
func (v DataValue) AsByte() (byte, bool)            { return v.by, v.typ == TypeByte }
func (v DataValue) AsArray() ([]DataValue, bool)    { return v.arr, v.typ == TypeArray }
func (v DataValue) AsHandle() (uuid.UUID, bool)     { return v.h, v.typ == TypeHandle }
func (v DataValue) AsObject() (map[string]DataValue, bool) { return v.obj, v.typ == TypeObject }
func (v DataValue) AsAgent() (AgentRef, bool)       { return v.agent, v.typ == TypeAgent }
func (v DataValue) IsNone() bool                    { return v.typ == TypeNone }

// Display renders v in the form the Print op and string concatenation use.
func (v DataValue) Display() string {
	switch v.typ {
	case TypeString:
		return v.str
	case TypeInteger:
		return strconv.FormatInt(v.i, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case TypeBoolean:
		return strconv.FormatBool(v.b)
	case TypeByte:
		return hex.EncodeToString([]byte{v.by})
	case TypeArray:
		b, _ := json.Marshal(jsonableArray(v.arr))
		return string(b)
	case TypeObject:
		b, _ := json.Marshal(jsonableObject(v.obj))
		return string(b)
	case TypeHandle:
		return v.h.String()
	case TypeAgent:
		return fmt.Sprintf("%s:%s", v.agent.Kind, v.agent.ID)
	case TypeNone:
		return ""
	default:
		return ""
	}
}

func jsonableArray(vs []DataValue) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = jsonable(v)
	}
	return out
}

func jsonableObject(m map[string]DataValue) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = jsonable(v)
	}
	return out
}

func jsonable(v DataValue) any {
	switch v.typ {
	case TypeString:
		return v.str
	case TypeInteger:
		return v.i
	case TypeFloat:
		return v.f
	case TypeBoolean:
		return v.b
	case TypeByte:
		return v.by
	case TypeArray:
		return jsonableArray(v.arr)
	case TypeObject:
		return jsonableObject(v.obj)
	case TypeHandle:
		return v.h.String()
	case TypeAgent:
		return fmt.Sprintf("%s:%s", v.agent.Kind, v.agent.ID)
	default:
		return nil
	}
}

// Equal implements structural equality, including None == None.
func (v DataValue) Equal(other DataValue) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeString:
		return v.str == other.str
	case TypeInteger:
		return v.i == other.i
	case TypeFloat:
		return v.f == other.f
	case TypeBoolean:
		return v.b == other.b
	case TypeByte:
		return v.by == other.by
	case TypeHandle:
		return v.h == other.h
	case TypeAgent:
		return v.agent == other.agent
	case TypeNone:
		return true
	case TypeArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case TypeObject:
		if len(v.obj) != len(other.obj) {
			return false
		}
		for k, val := range v.obj {
			ov, ok := other.obj[k]
			if !ok || !val.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// TryCast implements the narrow cast table from §4.1: identity,
// None->Boolean(false), Integer->Float, Float->Integer (truncate toward
// zero). Every other combination fails.
func (v DataValue) TryCast(to DataType) (DataValue, error) {
	if v.typ == to {
		return v, nil
	}
	switch {
	case v.typ == TypeNone && to == TypeBoolean:
		return Boolean(false), nil
	case v.typ == TypeInteger && to == TypeFloat:
		return Float(float64(v.i)), nil
	case v.typ == TypeFloat && to == TypeInteger:
		return Integer(int64(v.f)), nil
	default:
		return DataValue{}, &CastError{From: v.typ, To: to}
	}
}

func numeric(v DataValue) (float64, bool, bool) {
	switch v.typ {
	case TypeInteger:
		return float64(v.i), true, true
	case TypeFloat:
		return v.f, false, true
	default:
		return 0, false, false
	}
}

// Add implements the add operator, including string concatenation and
// stringification when either side is a string.
func (v DataValue) Add(rhs DataValue) (DataValue, error) {
	switch {
	case v.typ == TypeFloat && rhs.typ == TypeFloat:
		return Float(v.f + rhs.f), nil
	case v.typ == TypeInteger && rhs.typ == TypeInteger:
		return Integer(v.i + rhs.i), nil
	case v.typ == TypeString && rhs.typ == TypeString:
		return String(v.str + rhs.str), nil
	case v.typ == TypeFloat && rhs.typ == TypeInteger:
		return Float(v.f + float64(rhs.i)), nil
	case v.typ == TypeInteger && rhs.typ == TypeFloat:
		return Float(float64(v.i) + rhs.f), nil
	case v.typ == TypeString:
		return String(v.str + rhs.Display()), nil
	case rhs.typ == TypeString:
		return String(v.Display() + rhs.str), nil
	default:
		return DataValue{}, invalidCombo("add", v, rhs)
	}
}

func (v DataValue) arith(op string, rhs DataValue, fi func(a, b int64) int64, ff func(a, b float64) float64) (DataValue, error) {
	if v.typ == TypeInteger && rhs.typ == TypeInteger {
		return Integer(fi(v.i, rhs.i)), nil
	}
	lf, _, lok := numeric(v)
	rf, _, rok := numeric(rhs)
	if lok && rok {
		return Float(ff(lf, rf)), nil
	}
	return DataValue{}, invalidCombo(op, v, rhs)
}

func (v DataValue) Sub(rhs DataValue) (DataValue, error) {
	return v.arith("sub", rhs, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
}

func (v DataValue) Mul(rhs DataValue) (DataValue, error) {
	return v.arith("mul", rhs, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })
}

func (v DataValue) Div(rhs DataValue) (DataValue, error) {
	if v.typ == TypeInteger && rhs.typ == TypeInteger {
		if rhs.i == 0 {
			return DataValue{}, divByZero("div", v, rhs)
		}
		return Integer(v.i / rhs.i), nil
	}
	lf, _, lok := numeric(v)
	rf, _, rok := numeric(rhs)
	if lok && rok {
		if rf == 0 {
			return DataValue{}, divByZero("div", v, rhs)
		}
		return Float(lf / rf), nil
	}
	return DataValue{}, invalidCombo("div", v, rhs)
}

func (v DataValue) Mod(rhs DataValue) (DataValue, error) {
	if v.typ == TypeInteger && rhs.typ == TypeInteger {
		if rhs.i == 0 {
			return DataValue{}, divByZero("mod", v, rhs)
		}
		return Integer(v.i % rhs.i), nil
	}
	lf, _, lok := numeric(v)
	rf, _, rok := numeric(rhs)
	if lok && rok {
		if rf == 0 {
			return DataValue{}, divByZero("mod", v, rhs)
		}
		return Float(mathMod(lf, rf)), nil
	}
	return DataValue{}, invalidCombo("mod", v, rhs)
}

func mathMod(a, b float64) float64 {
	return math.Mod(a, b)
}

// Pow implements §4.1's power table: integer base with a negative
// integer exponent promotes to float; everything else follows numeric
// promotion.
func (v DataValue) Pow(rhs DataValue) (DataValue, error) {
	switch {
	case v.typ == TypeInteger && rhs.typ == TypeInteger:
		if rhs.i < 0 {
			return Float(math.Pow(float64(v.i), float64(rhs.i))), nil
		}
		return Integer(intPowI(v.i, rhs.i)), nil
	default:
		lf, _, lok := numeric(v)
		rf, _, rok := numeric(rhs)
		if lok && rok {
			return Float(math.Pow(lf, rf)), nil
		}
		return DataValue{}, invalidCombo("pow", v, rhs)
	}
}

func intPowI(base, exp int64) int64 {
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		result *= base
	}
	return result
}

// Neg implements UnaryOp(Neg) via multiplication by -1, as §4.2 specifies.
func (v DataValue) Neg() (DataValue, error) {
	return v.Mul(Integer(-1))
}

// MarshalJSON emits the untagged wire form §3/§6 expect: a bare scalar,
// array, or object, not a {"type":...,"value":...} envelope.
func (v DataValue) MarshalJSON() ([]byte, error) {
	switch v.typ {
	case TypeNone:
		return []byte("null"), nil
	case TypeByte:
		return json.Marshal(v.by)
	case TypeHandle:
		return json.Marshal(v.h.String())
	case TypeAgent:
		return json.Marshal(v.Display())
	case TypeArray:
		return json.Marshal(jsonableValueArray(v.arr))
	case TypeObject:
		return json.Marshal(jsonableValueObject(v.obj))
	case TypeString:
		return json.Marshal(v.str)
	case TypeInteger:
		return json.Marshal(v.i)
	case TypeFloat:
		return json.Marshal(v.f)
	case TypeBoolean:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

func jsonableValueArray(vs []DataValue) []DataValue { return vs }
func jsonableValueObject(m map[string]DataValue) map[string]DataValue { return m }

// UnmarshalJSON decodes the untagged wire form, inferring the tag from
// the JSON token: null->None, bool->Boolean, number->Integer or Float,
// string->String, array->Array, object->Object.
func (v *DataValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	dv, err := fromJSONAny(raw)
	if err != nil {
		return err
	}
	*v = dv
	return nil
}

func fromJSONAny(raw any) (DataValue, error) {
	switch x := raw.(type) {
	case nil:
		return None(), nil
	case bool:
		return Boolean(x), nil
	case string:
		return String(x), nil
	case float64:
		if x == float64(int64(x)) {
			return Integer(int64(x)), nil
		}
		return Float(x), nil
	case []any:
		out := make([]DataValue, len(x))
		for i, e := range x {
			dv, err := fromJSONAny(e)
			if err != nil {
				return DataValue{}, err
			}
			out[i] = dv
		}
		return Array(out), nil
	case map[string]any:
		out := make(map[string]DataValue, len(x))
		for k, e := range x {
			dv, err := fromJSONAny(e)
			if err != nil {
				return DataValue{}, err
			}
			out[k] = dv
		}
		return Object(out), nil
	default:
		return DataValue{}, fmt.Errorf("values: cannot decode %T as DataValue", raw)
	}
}

// SortedObjectKeys returns m's keys in sorted order, useful for stable
// iteration (e.g. schema emission, deterministic test output).
func SortedObjectKeys(m map[string]DataValue) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
