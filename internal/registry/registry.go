package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/xscopehub/mcp-http-server/internal/types"
)

var (
	// ErrUnknownTool is returned when a tool name is not registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrUnknownPrompt is returned when a prompt name is not registered.
	ErrUnknownPrompt = errors.New("unknown prompt")
)

// ToolFunc represents the implementation of an MCP tool call.
type ToolFunc func(ctx context.Context, arguments map[string]any) ([]types.Content, error)

// PromptFunc renders a prompt from its arguments.
type PromptFunc func(arguments map[string]string) ([]types.PromptMessage, error)

// Tool describes a tool registration payload.
type Tool struct {
	Descriptor types.ToolDescriptor
	Func       ToolFunc
}

// Prompt describes a prompt registration payload.
type Prompt struct {
	Descriptor types.PromptDescriptor
	Render     PromptFunc
}

// Registry holds the tools, resources and prompts of a server. It is built
// once by New and never mutated afterwards, so it is safe for concurrent use.
type Registry struct {
	tools     []Tool
	toolIndex map[string]int

	resources []types.ResourceDescriptor

	prompts     []Prompt
	promptIndex map[string]int
}

// New validates the registrations and builds an immutable registry.
// Listing order follows registration order.
func New(tools []Tool, resources []types.ResourceDescriptor, prompts []Prompt) (*Registry, error) {
	r := &Registry{
		tools:       make([]Tool, 0, len(tools)),
		toolIndex:   make(map[string]int, len(tools)),
		resources:   append([]types.ResourceDescriptor(nil), resources...),
		prompts:     make([]Prompt, 0, len(prompts)),
		promptIndex: make(map[string]int, len(prompts)),
	}

	for _, tool := range tools {
		name := tool.Descriptor.Name
		if name == "" {
			return nil, errors.New("tool name is required")
		}
		if tool.Func == nil {
			return nil, fmt.Errorf("tool %s: implementation missing", name)
		}
		if _, dup := r.toolIndex[name]; dup {
			return nil, fmt.Errorf("tool %s registered twice", name)
		}
		r.toolIndex[name] = len(r.tools)
		r.tools = append(r.tools, tool)
	}

	seen := make(map[string]struct{}, len(resources))
	for _, res := range resources {
		if res.URI == "" {
			return nil, fmt.Errorf("resource %q: uri is required", res.Name)
		}
		if _, dup := seen[res.URI]; dup {
			return nil, fmt.Errorf("resource %s registered twice", res.URI)
		}
		seen[res.URI] = struct{}{}
	}

	for _, prompt := range prompts {
		name := prompt.Descriptor.Name
		if name == "" {
			return nil, errors.New("prompt name is required")
		}
		if prompt.Render == nil {
			return nil, fmt.Errorf("prompt %s: renderer missing", name)
		}
		if _, dup := r.promptIndex[name]; dup {
			return nil, fmt.Errorf("prompt %s registered twice", name)
		}
		r.promptIndex[name] = len(r.prompts)
		r.prompts = append(r.prompts, prompt)
	}

	return r, nil
}

// ListTools returns tool descriptors in registration order.
func (r *Registry) ListTools() []types.ToolDescriptor {
	descriptors := make([]types.ToolDescriptor, 0, len(r.tools))
	for _, tool := range r.tools {
		descriptors = append(descriptors, tool.Descriptor)
	}
	return descriptors
}

// Tool returns the registration for name.
func (r *Registry) Tool(name string) (Tool, bool) {
	i, ok := r.toolIndex[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[i], true
}

// InvokeTool executes a tool by name.
func (r *Registry) InvokeTool(ctx context.Context, name string, arguments map[string]any) ([]types.Content, error) {
	tool, ok := r.Tool(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if arguments == nil {
		arguments = map[string]any{}
	}
	return tool.Func(ctx, arguments)
}

// ListResources returns resource descriptors in registration order.
func (r *Registry) ListResources() []types.ResourceDescriptor {
	return append([]types.ResourceDescriptor(nil), r.resources...)
}

// ListPrompts returns prompt descriptors in registration order.
func (r *Registry) ListPrompts() []types.PromptDescriptor {
	descriptors := make([]types.PromptDescriptor, 0, len(r.prompts))
	for _, prompt := range r.prompts {
		descriptors = append(descriptors, prompt.Descriptor)
	}
	return descriptors
}

// RenderPrompt renders the named prompt.
func (r *Registry) RenderPrompt(name string, arguments map[string]string) (types.PromptDescriptor, []types.PromptMessage, error) {
	i, ok := r.promptIndex[name]
	if !ok {
		return types.PromptDescriptor{}, nil, fmt.Errorf("%w: %s", ErrUnknownPrompt, name)
	}
	prompt := r.prompts[i]
	for _, arg := range prompt.Descriptor.Arguments {
		if _, present := arguments[arg.Name]; arg.Required && !present {
			return types.PromptDescriptor{}, nil, fmt.Errorf("prompt %s: missing required argument %s", name, arg.Name)
		}
	}
	messages, err := prompt.Render(arguments)
	if err != nil {
		return types.PromptDescriptor{}, nil, fmt.Errorf("prompt %s: %w", name, err)
	}
	return prompt.Descriptor, messages, nil
}
