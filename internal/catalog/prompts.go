package catalog

import (
	"github.com/xscopehub/mcp-http-server/internal/registry"
	"github.com/xscopehub/mcp-http-server/internal/types"
)

// Prompts returns the example prompts.
func Prompts() []registry.Prompt {
	return []registry.Prompt{{
		Descriptor: types.PromptDescriptor{
			Name:        "echo_prompt",
			Description: "A simple example prompt that echoes back its arguments",
			Arguments: []types.PromptArgument{{
				Name:        "message",
				Description: "The message to echo back",
				Required:    true,
			}},
		},
		Render: func(args map[string]string) ([]types.PromptMessage, error) {
			return []types.PromptMessage{{
				Role:    "user",
				Content: types.TextContent(args["message"]),
			}}, nil
		},
	}}
}
