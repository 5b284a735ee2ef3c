package catalog

import (
	"github.com/invopop/jsonschema"

	"github.com/xscopehub/mcp-http-server/internal/types"
)

// inputSchema reflects the argument struct A into the simplified tool input
// schema. Fields without omitempty are required.
func inputSchema[A any]() types.InputSchema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(new(A))

	out := types.InputSchema{
		Type:       "object",
		Properties: map[string]types.SchemaProperty{},
	}
	if s == nil || s.Properties == nil {
		return out
	}
	for el := s.Properties.Oldest(); el != nil; el = el.Next() {
		out.Properties[el.Key] = types.SchemaProperty{
			Type:        el.Value.Type,
			Description: el.Value.Description,
		}
	}
	if len(s.Required) > 0 {
		out.Required = append(out.Required, s.Required...)
	}
	return out
}
