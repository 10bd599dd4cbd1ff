package schema

import (
	"math"
	"sort"
	"strconv"

	"github.com/caphub/caphub-go/capability"
)

// checkFunc validates a single decoded JSON value at the given field path.
type checkFunc func(path string, v any) error

// Validator is the runtime form of a declarative schema. It accepts or
// rejects decoded argument payloads. Validators are immutable and safe for
// concurrent use.
type Validator struct {
	required []string
	fields   map[string]checkFunc
}

// Compile translates a declarative schema tree into a Validator. The root
// schema must be an object (or nil, which accepts any arguments). Unknown
// type names and object nodes without properties fail here, never at
// dispatch time.
func Compile(s *capability.Schema) (*Validator, error) {
	if s == nil {
		return &Validator{}, nil
	}
	if s.Type != "object" {
		return nil, schemaErrorf("", "root schema must have type object, got %q", s.Type)
	}
	if s.Properties == nil {
		return nil, schemaErrorf("", "object schema missing properties")
	}
	fields := make(map[string]checkFunc, len(s.Properties))
	for name, prop := range s.Properties {
		chk, err := compileNode(name, prop)
		if err != nil {
			return nil, err
		}
		fields[name] = chk
	}
	for _, req := range s.Required {
		if _, ok := fields[req]; !ok {
			return nil, schemaErrorf(req, "required field not declared in properties")
		}
	}
	required := append([]string(nil), s.Required...)
	return &Validator{required: required, fields: fields}, nil
}

// Validate checks a decoded argument payload against the compiled schema.
// Required fields must be present; optional fields may be absent or null.
// Fields not declared in the schema pass through untouched: the schema
// constrains only what it declares.
func (v *Validator) Validate(args capability.Arguments) error {
	if v.fields == nil {
		return nil
	}
	for _, req := range v.required {
		if _, ok := args[req]; !ok {
			return validationErrorf(req, "required field missing")
		}
	}
	// Deterministic error ordering for stable messages.
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		chk, ok := v.fields[name]
		if !ok {
			continue
		}
		val := args[name]
		if val == nil {
			// null is treated the same as absence for declared fields.
			continue
		}
		if err := chk(name, val); err != nil {
			return err
		}
	}
	return nil
}

func compileNode(path string, s *capability.Schema) (checkFunc, error) {
	if s == nil {
		return nil, schemaErrorf(path, "missing schema node")
	}
	switch s.Type {
	case "string":
		if len(s.Enum) == 0 {
			return checkString, nil
		}
		allowed := append([]string(nil), s.Enum...)
		return func(p string, v any) error {
			str, ok := v.(string)
			if !ok {
				return validationErrorf(p, "expected string, got %T", v)
			}
			for _, a := range allowed {
				if str == a {
					return nil
				}
			}
			return &ValidationError{Field: p, Reason: "value not in enum", Allowed: allowed}
		}, nil
	case "number":
		return checkNumber, nil
	case "integer":
		return checkInteger, nil
	case "boolean":
		return checkBoolean, nil
	case "array":
		if s.Items == nil {
			// No element schema declared: elements pass through untyped.
			return func(p string, v any) error {
				if _, ok := v.([]any); !ok {
					return validationErrorf(p, "expected array, got %T", v)
				}
				return nil
			}, nil
		}
		elem, err := compileNode(path+"[]", s.Items)
		if err != nil {
			return nil, err
		}
		return func(p string, v any) error {
			arr, ok := v.([]any)
			if !ok {
				return validationErrorf(p, "expected array, got %T", v)
			}
			for i, item := range arr {
				if item == nil {
					continue
				}
				if err := elem(indexPath(p, i), item); err != nil {
					return err
				}
			}
			return nil
		}, nil
	case "object":
		if s.Properties == nil {
			return nil, schemaErrorf(path, "object schema missing properties")
		}
		fields := make(map[string]checkFunc, len(s.Properties))
		for name, prop := range s.Properties {
			chk, err := compileNode(path+"."+name, prop)
			if err != nil {
				return nil, err
			}
			fields[name] = chk
		}
		for _, req := range s.Required {
			if _, ok := fields[req]; !ok {
				return nil, schemaErrorf(path+"."+req, "required field not declared in properties")
			}
		}
		required := append([]string(nil), s.Required...)
		return func(p string, v any) error {
			obj, ok := v.(map[string]any)
			if !ok {
				return validationErrorf(p, "expected object, got %T", v)
			}
			for _, req := range required {
				if _, ok := obj[req]; !ok {
					return validationErrorf(p+"."+req, "required field missing")
				}
			}
			names := make([]string, 0, len(obj))
			for name := range obj {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				chk, ok := fields[name]
				if !ok {
					continue
				}
				val := obj[name]
				if val == nil {
					continue
				}
				if err := chk(p+"."+name, val); err != nil {
					return err
				}
			}
			return nil
		}, nil
	default:
		return nil, schemaErrorf(path, "unknown type %q", s.Type)
	}
}

func checkString(p string, v any) error {
	if _, ok := v.(string); !ok {
		return validationErrorf(p, "expected string, got %T", v)
	}
	return nil
}

func checkNumber(p string, v any) error {
	switch v.(type) {
	case float64, int, int64:
		return nil
	default:
		return validationErrorf(p, "expected number, got %T", v)
	}
}

func checkInteger(p string, v any) error {
	switch n := v.(type) {
	case int, int64:
		return nil
	case float64:
		if n == math.Trunc(n) {
			return nil
		}
		return validationErrorf(p, "expected integer, got fractional number")
	default:
		return validationErrorf(p, "expected integer, got %T", v)
	}
}

func checkBoolean(p string, v any) error {
	if _, ok := v.(bool); !ok {
		return validationErrorf(p, "expected boolean, got %T", v)
	}
	return nil
}

func indexPath(p string, i int) string {
	return p + "[" + strconv.Itoa(i) + "]"
}
