package types

// ContentTypeText tags a plain text content item.
const ContentTypeText = "text"

// Content is a single item of tool or prompt output.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextContent builds a text content item.
func TextContent(text string) Content {
	return Content{Type: ContentTypeText, Text: text}
}

// ResourceDescriptor describes a resource exposed by the MCP server.
type ResourceDescriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mimeType"`
}

// ResourceContents is one entry of a resources/read result.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// SchemaProperty describes a single input field of a tool.
type SchemaProperty struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// InputSchema is the JSON-schema-like description of tool input.
type InputSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]SchemaProperty `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// ToolDescriptor describes a tool callable via the MCP server.
type ToolDescriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// PromptArgument describes a named prompt argument.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// PromptDescriptor describes a prompt template.
type PromptDescriptor struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// PromptMessage is a rendered prompt message.
type PromptMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}
