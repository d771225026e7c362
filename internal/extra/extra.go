// Package extra encodes typed key/value parameters for the two argument
// encodings understood by the platform launcher tools: intent extras for
// activity starts and "--extra" bindings for content provider calls.
package extra

import "strconv"

// Kind discriminates the Value arms.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is one typed parameter value. It is implemented only by Int, Bool
// and String.
type Value interface {
	Kind() Kind
	// intentFlag is the activity-start flag, e.g. "--ei".
	intentFlag() string
	// typeChar is the content binding type character, e.g. "i".
	typeChar() string
	literal() string
}

// Int is an integer parameter value.
type Int int

func (Int) Kind() Kind         { return KindInt }
func (Int) intentFlag() string { return "--ei" }
func (Int) typeChar() string   { return "i" }
func (v Int) literal() string  { return strconv.Itoa(int(v)) }

// Bool is a boolean parameter value.
type Bool bool

func (Bool) Kind() Kind         { return KindBool }
func (Bool) intentFlag() string { return "--ez" }
func (Bool) typeChar() string   { return "b" }
func (v Bool) literal() string  { return strconv.FormatBool(bool(v)) }

// String is a string parameter value. It is passed through unescaped.
type String string

func (String) Kind() Kind         { return KindString }
func (String) intentFlag() string { return "--es" }
func (String) typeChar() string   { return "s" }
func (v String) literal() string  { return string(v) }

// Param is a single keyed parameter. Build it with NewInt, NewBool or
// NewString; a Param with a nil Value cannot be rendered.
type Param struct {
	Key   string
	Value Value
}

// NewInt returns an integer parameter.
func NewInt(key string, v int) Param { return Param{Key: key, Value: Int(v)} }

// NewBool returns a boolean parameter.
func NewBool(key string, v bool) Param { return Param{Key: key, Value: Bool(v)} }

// NewString returns a string parameter.
func NewString(key, v string) Param { return Param{Key: key, Value: String(v)} }

// IntentArgs returns the activity-start tokens: type flag, key, value.
func (p Param) IntentArgs() []string {
	return []string{p.Value.intentFlag(), p.Key, p.Value.literal()}
}

// ContentBinding returns the provider-call tokens: "--extra" followed by
// "<key>:<typechar>:<value>".
func (p Param) ContentBinding() []string {
	return []string{"--extra", p.Key + ":" + p.Value.typeChar() + ":" + p.Value.literal()}
}

// AppendIntentArgs appends the intent-extra tokens of every param to args.
func AppendIntentArgs(args []string, params []Param) []string {
	for _, p := range params {
		args = append(args, p.IntentArgs()...)
	}
	return args
}

// AppendContentBindings appends the content binding tokens of every param to args.
func AppendContentBindings(args []string, params []Param) []string {
	for _, p := range params {
		args = append(args, p.ContentBinding()...)
	}
	return args
}
