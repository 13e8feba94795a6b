package realm

import (
	"strconv"
	"strings"

	"github.com/robertkrimen/otto"
)

// TypeOf classifies v the way the notebook labels results: function, date,
// regexp, arguments, array, string, error, number, element, null,
// undefined, object or boolean.
func (r *Realm) TypeOf(v otto.Value) string {
	switch {
	case v.IsNull():
		return "null"
	case v.IsUndefined():
		return "undefined"
	case v.IsString():
		return "string"
	case v.IsNumber():
		return "number"
	case v.IsBoolean():
		return "boolean"
	}

	switch v.Class() {
	case "Function", "Date", "RegExp", "Arguments", "Array", "String", "Error", "Number":
		return strings.ToLower(v.Class())
	}

	// DOM-like objects are recognised by a numeric nodeType.
	if nodeType, err := r.Get(v, "nodeType"); err == nil && nodeType.IsNumber() {
		return "element"
	}
	return "object"
}

// Inspect renders v for display. Plain objects and arrays are shown as JSON
// when they serialise; everything else uses its string conversion.
func (r *Realm) Inspect(v otto.Value) string {
	if v.IsString() {
		return strconv.Quote(v.String())
	}
	if v.IsObject() && (v.Class() == "Object" || v.Class() == "Array") {
		if out, err := r.call(r.stringify, v); err == nil && out.IsString() {
			return out.String()
		}
	}
	s, err := v.ToString()
	if err != nil {
		return v.Class()
	}
	return s
}
