package catalog

import "github.com/xscopehub/mcp-http-server/internal/types"

// ResourceText is the fixed payload returned by resources/read.
const ResourceText = "Hello from HTTP server resource!"

// Resources returns the static resource listing.
func Resources() []types.ResourceDescriptor {
	return []types.ResourceDescriptor{
		{
			URI:         "test_resource",
			Name:        "Test resource",
			Description: "Test resource that echoes back the uri as its content",
			MimeType:    "text/plain",
		},
	}
}

// ReadResource ignores what uri names and echoes it with ResourceText.
func ReadResource(uri string) []types.ResourceContents {
	return []types.ResourceContents{{
		URI:      uri,
		MimeType: "text/plain",
		Text:     ResourceText,
	}}
}
