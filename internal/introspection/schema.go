package introspection

import (
	"strings"

	"github.com/hanpama/gqlengine/internal/schema"
)

// Extend returns a copy of sch with the introspection types registered and
// the __schema and __type fields added to its query type. sch itself is not
// modified; types other than the query type are shared.
func Extend(sch *schema.Schema) *schema.Schema {
	ext := schema.NewSchema(sch.Description)
	ext.SetQueryType(sch.QueryType).
		SetMutationType(sch.MutationType).
		SetSubscriptionType(sch.SubscriptionType).
		SetResolveType(sch.ResolveType)
	for _, name := range sch.TypeNames() {
		ext.AddType(sch.Types[name])
	}
	for _, d := range sch.Directives {
		ext.AddDirective(d)
	}

	r := &resolvers{schema: ext}
	for _, t := range r.types() {
		ext.AddType(t)
	}

	if query := sch.GetQueryType(); query != nil {
		q := *query
		q.Fields = append(append([]*schema.Field(nil), query.Fields...),
			schema.NewField("__schema", "Access the current type schema of this server.",
				schema.NonNullType(schema.NamedType("__Schema"))).
				SetResolver(r.schemaRoot),
			schema.NewField("__type", "Request the type information of a single type.",
				schema.NamedType("__Type")).
				AddArgument(schema.NewInputValue("name", "The name of the type to look up.",
					schema.NonNullType(schema.NamedType("String")))).
				SetResolver(r.typeRoot),
		)
		ext.AddType(&q)
	}
	return ext
}

// IsIntrospectionField reports whether name is one of the meta fields that
// are not listed among a type's fields.
func IsIntrospectionField(name string) bool { return strings.HasPrefix(name, "__") }

func (r *resolvers) types() []*schema.Type {
	return []*schema.Type{
		r.schemaType(),
		r.typeType(),
		r.fieldType(),
		r.inputValueType(),
		r.enumValueType(),
		r.directiveType(),
		typeKindEnum(),
		directiveLocationEnum(),
	}
}

func includeDeprecatedArg() *schema.InputValue {
	return schema.NewInputValue("includeDeprecated", "", schema.NamedType("Boolean")).SetDefault(false)
}

func list(name string) *schema.TypeRef {
	return schema.NonNullType(schema.ListType(schema.NonNullType(schema.NamedType(name))))
}

func optionalList(name string) *schema.TypeRef {
	return schema.ListType(schema.NonNullType(schema.NamedType(name)))
}

var (
	stringType     = schema.NamedType("String")
	nonNullString  = schema.NonNullType(schema.NamedType("String"))
	nonNullBoolean = schema.NonNullType(schema.NamedType("Boolean"))
)

func (r *resolvers) schemaType() *schema.Type {
	t := schema.NewObject("__Schema",
		schema.NewField("description", "A description of the schema.", stringType).
			SetResolver(r.schemaDescription),
		schema.NewField("types", "A list of all types supported by this server.", list("__Type")).
			SetResolver(r.schemaTypes),
		schema.NewField("queryType", "The type that query operations will be rooted at.",
			schema.NonNullType(schema.NamedType("__Type"))).
			SetResolver(r.rootType(func(s *schema.Schema) string { return s.QueryType })),
		schema.NewField("mutationType", "If this server supports mutation, the type that mutation operations will be rooted at.",
			schema.NamedType("__Type")).
			SetResolver(r.rootType(func(s *schema.Schema) string { return s.MutationType })),
		schema.NewField("subscriptionType", "If this server support subscription, the type that subscription operations will be rooted at.",
			schema.NamedType("__Type")).
			SetResolver(r.rootType(func(s *schema.Schema) string { return s.SubscriptionType })),
		schema.NewField("directives", "A list of all directives supported by this server.", list("__Directive")).
			SetResolver(r.schemaDirectives),
	)
	t.Description = "A GraphQL Schema defines the capabilities of a GraphQL server."
	return t
}

func (r *resolvers) typeType() *schema.Type {
	t := schema.NewObject("__Type",
		schema.NewField("kind", "", schema.NonNullType(schema.NamedType("__TypeKind"))).SetResolver(r.typeKind),
		schema.NewField("name", "", stringType).SetResolver(r.typeName),
		schema.NewField("description", "", stringType).SetResolver(r.typeDescription),
		schema.NewField("specifiedByURL", "", stringType).SetResolver(r.typeSpecifiedByURL),
		schema.NewField("fields", "", optionalList("__Field")).
			AddArgument(includeDeprecatedArg()).
			SetResolver(r.typeFields),
		schema.NewField("interfaces", "", optionalList("__Type")).SetResolver(r.typeInterfaces),
		schema.NewField("possibleTypes", "", optionalList("__Type")).SetResolver(r.typePossibleTypes),
		schema.NewField("enumValues", "", optionalList("__EnumValue")).
			AddArgument(includeDeprecatedArg()).
			SetResolver(r.typeEnumValues),
		schema.NewField("inputFields", "", optionalList("__InputValue")).
			AddArgument(includeDeprecatedArg()).
			SetResolver(r.typeInputFields),
		schema.NewField("ofType", "", schema.NamedType("__Type")).SetResolver(r.typeOfType),
		schema.NewField("isOneOf", "", schema.NamedType("Boolean")).SetResolver(r.typeIsOneOf),
	)
	t.Description = "The fundamental unit of any GraphQL Schema is the type. There are many kinds of types in GraphQL as represented by the `__TypeKind` enum."
	return t
}

func (r *resolvers) fieldType() *schema.Type {
	t := schema.NewObject("__Field",
		schema.NewField("name", "", nonNullString).SetResolver(r.fieldName),
		schema.NewField("description", "", stringType).SetResolver(r.fieldDescription),
		schema.NewField("args", "", list("__InputValue")).
			AddArgument(includeDeprecatedArg()).
			SetResolver(r.fieldArgs),
		schema.NewField("type", "", schema.NonNullType(schema.NamedType("__Type"))).SetResolver(r.fieldTypeRef),
		schema.NewField("isDeprecated", "", nonNullBoolean).SetResolver(r.isDeprecated),
		schema.NewField("deprecationReason", "", stringType).SetResolver(r.deprecationReason),
	)
	t.Description = "Object and Interface types are described by a list of Fields, each of which has a name, potentially a list of arguments, and a return type."
	return t
}

func (r *resolvers) inputValueType() *schema.Type {
	t := schema.NewObject("__InputValue",
		schema.NewField("name", "", nonNullString).SetResolver(r.inputValueName),
		schema.NewField("description", "", stringType).SetResolver(r.inputValueDescription),
		schema.NewField("type", "", schema.NonNullType(schema.NamedType("__Type"))).SetResolver(r.inputValueTypeRef),
		schema.NewField("defaultValue", "A GraphQL-formatted string representing the default value for this input value.",
			stringType).SetResolver(r.inputValueDefault),
		schema.NewField("isDeprecated", "", nonNullBoolean).SetResolver(r.isDeprecated),
		schema.NewField("deprecationReason", "", stringType).SetResolver(r.deprecationReason),
	)
	t.Description = "Arguments provided to Fields or Directives and the input fields of an InputObject are represented as Input Values which describe their type and optionally a default value."
	return t
}

func (r *resolvers) enumValueType() *schema.Type {
	t := schema.NewObject("__EnumValue",
		schema.NewField("name", "", nonNullString).SetResolver(r.enumValueName),
		schema.NewField("description", "", stringType).SetResolver(r.enumValueDescription),
		schema.NewField("isDeprecated", "", nonNullBoolean).SetResolver(r.isDeprecated),
		schema.NewField("deprecationReason", "", stringType).SetResolver(r.deprecationReason),
	)
	t.Description = "One possible value for a given Enum. Enum values are unique values, not a placeholder for a string or numeric value."
	return t
}

func (r *resolvers) directiveType() *schema.Type {
	t := schema.NewObject("__Directive",
		schema.NewField("name", "", nonNullString).SetResolver(r.directiveName),
		schema.NewField("description", "", stringType).SetResolver(r.directiveDescription),
		schema.NewField("isRepeatable", "", nonNullBoolean).SetResolver(r.directiveIsRepeatable),
		schema.NewField("locations", "", list("__DirectiveLocation")).SetResolver(r.directiveLocations),
		schema.NewField("args", "", list("__InputValue")).
			AddArgument(includeDeprecatedArg()).
			SetResolver(r.directiveArgs),
	)
	t.Description = "A Directive provides a way to describe alternate runtime execution and type validation behavior in a GraphQL document."
	return t
}

func typeKindEnum() *schema.Type {
	t := schema.NewEnumType("__TypeKind", []string{
		"SCALAR", "OBJECT", "INTERFACE", "UNION", "ENUM", "INPUT_OBJECT", "LIST", "NON_NULL",
	})
	t.Description = "An enum describing what kind of type a given `__Type` is."
	return t
}

func directiveLocationEnum() *schema.Type {
	t := schema.NewEnumType("__DirectiveLocation", []string{
		"QUERY", "MUTATION", "SUBSCRIPTION", "FIELD", "FRAGMENT_DEFINITION", "FRAGMENT_SPREAD",
		"INLINE_FRAGMENT", "VARIABLE_DEFINITION", "SCHEMA", "SCALAR", "OBJECT", "FIELD_DEFINITION",
		"ARGUMENT_DEFINITION", "INTERFACE", "UNION", "ENUM", "ENUM_VALUE", "INPUT_OBJECT",
		"INPUT_FIELD_DEFINITION",
	})
	t.Description = "A Directive can be adjacent to many parts of the GraphQL language, a __DirectiveLocation describes one such possible adjacencies."
	return t
}
