package executor

import (
	"context"

	"github.com/hanpama/gqlengine/internal/errcode"
	"github.com/hanpama/gqlengine/internal/schema"
)

// resolveAbstractType picks the object type of an interface or union value.
// The abstract type's own ResolveType is consulted first, then the schema's;
// when neither names a type, the possible types' IsTypeOf predicates are
// probed in registration order and the first match wins. A named type must
// be a possible type of abstract and must not be rejected by its own
// IsTypeOf.
func (ex *execution) resolveAbstractType(ctx context.Context, abstract *schema.Type, value any, info *schema.ResolveInfo) (*schema.Type, error) {
	resolve := abstract.ResolveType
	if resolve == nil {
		resolve = ex.schema.ResolveType
	}

	if resolve != nil {
		name, err := resolve(ctx, value)
		if err != nil {
			return nil, errcode.Wrap(errcode.AbstractType, err, "resolve type of %q", abstract.Name)
		}
		if name != "" {
			objectType := ex.schema.Types[name]
			if objectType == nil || objectType.Kind != schema.TypeKindObject {
				return nil, errcode.New(errcode.AbstractType,
					"Abstract type %q must resolve to an Object type at runtime for field %s.%s. Got: %q.",
					abstract.Name, info.ParentType.Name, info.FieldName, name)
			}
			if !ex.schema.IsPossibleType(abstract, objectType) {
				return nil, errcode.New(errcode.AbstractType,
					"Runtime Object type %q is not a possible type for %q.", name, abstract.Name)
			}
			if objectType.IsTypeOf != nil && !objectType.IsTypeOf(ctx, value) {
				return nil, errcode.New(errcode.AbstractType,
					"Type %q was resolved for %q but its IsTypeOf rejects the value %T.", name, abstract.Name, value)
			}
			return objectType, nil
		}
	}

	for _, candidate := range ex.schema.PossibleTypes(abstract) {
		if candidate.IsTypeOf != nil && candidate.IsTypeOf(ctx, value) {
			return candidate, nil
		}
	}
	return nil, errcode.New(errcode.AbstractType,
		"Abstract type %q must resolve to an Object type at runtime for field %s.%s. "+
			"Either the %q type should provide a ResolveType function or each possible type should provide an IsTypeOf function.",
		abstract.Name, info.ParentType.Name, info.FieldName, abstract.Name)
}
