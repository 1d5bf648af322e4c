package coercion

import (
	"fmt"
	"strings"

	"github.com/hanpama/gqlengine/internal/errcode"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// ArgumentError attributes a coercion failure to one argument.
type ArgumentError struct {
	Argument string
	Err      error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("Argument %q has invalid value: %v", e.Argument, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// Code returns the kind of the underlying failure, COERCION if untagged.
func (e *ArgumentError) Code() errcode.Code {
	if code := errcode.Of(e.Err); code != "" {
		return code
	}
	return errcode.Coercion
}

// CoerceArgumentValues coerces the arguments of one field or directive
// occurrence. Defaults fill in absent arguments; every provided or defaulted
// value then passes through the definition's Parser and Validator. The
// first failure in definition order is returned as an *ArgumentError.
func CoerceArgumentValues(sch *schema.Schema, defs []*schema.InputValue, args language.ArgumentList, variables map[string]any) (map[string]any, error) {
	coerced := make(map[string]any, len(defs))
	for _, def := range defs {
		node := args.ForName(def.Name)
		present := node != nil
		if present && node.Value != nil && node.Value.Kind == language.Variable {
			_, present = variables[node.Value.Raw]
		}

		var value any
		switch {
		case present:
			v, err := CoerceLiteral(sch, node.Value, def.Type, variables)
			if err != nil {
				return nil, &ArgumentError{Argument: def.Name, Err: err}
			}
			value = v
		case def.HasDefault():
			v, err := CoerceInputValue(sch, def.DefaultValue, def.Type)
			if err != nil {
				return nil, &ArgumentError{Argument: def.Name, Err: err}
			}
			value = v
		case def.Type.IsNonNull():
			err := errcode.Coercionf("required argument of type %q was not provided", def.Type.String())
			if node != nil {
				err = errcode.Coercionf("variable \"$%s\" of required type %q was not provided", node.Value.Raw, def.Type.String())
			}
			return nil, &ArgumentError{Argument: def.Name, Err: err}
		default:
			continue
		}

		value, err := ApplyHooks(def, value)
		if err != nil {
			return nil, &ArgumentError{Argument: def.Name, Err: err}
		}
		coerced[def.Name] = value
	}
	return coerced, nil
}

// CoerceVariableValues coerces the raw variable inputs of an operation. A
// variable that is missing, null for a Non-Null type, or not coercible is
// reported as a DOCUMENT error: execution must not start when any are
// returned.
func CoerceVariableValues(sch *schema.Schema, op *language.OperationDefinition, inputs map[string]any) (map[string]any, []error) {
	coerced := make(map[string]any, len(op.VariableDefinitions))
	var errs []error
	for _, varDef := range op.VariableDefinitions {
		name := varDef.Variable
		typ := TypeRefFromAST(varDef.Type)

		named := sch.Types[typ.GetNamedType()]
		if named == nil || !named.IsInputType() {
			errs = append(errs, errcode.New(errcode.Document,
				"Variable \"$%s\" expected value of type %q which cannot be used as an input type", name, typ.String()))
			continue
		}

		value, ok := inputs[name]
		if !ok {
			value, ok = inputs["$"+strings.TrimPrefix(name, "$")]
		}
		if !ok {
			if varDef.DefaultValue != nil {
				v, err := CoerceLiteral(sch, varDef.DefaultValue, typ, nil)
				if err != nil {
					errs = append(errs, errcode.Wrap(errcode.Document, err, "Variable \"$%s\" has invalid default value", name))
					continue
				}
				coerced[name] = v
			} else if typ.IsNonNull() {
				errs = append(errs, errcode.New(errcode.Document,
					"Variable \"$%s\" of required type %q was not provided", name, typ.String()))
			}
			continue
		}
		if IsNil(value) && typ.IsNonNull() {
			errs = append(errs, errcode.New(errcode.Document,
				"Variable \"$%s\" of non-null type %q must not be null", name, typ.String()))
			continue
		}
		v, err := CoerceInputValue(sch, value, typ)
		if err != nil {
			errs = append(errs, errcode.Wrap(errcode.Document, err, "Variable \"$%s\" got invalid value", name))
			continue
		}
		coerced[name] = v
	}
	return coerced, errs
}
