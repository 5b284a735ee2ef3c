package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xscopehub/mcp-http-server/internal/types"
)

func echoTool(name string) Tool {
	return Tool{
		Descriptor: types.ToolDescriptor{Name: name, Description: name + " tool"},
		Func: func(_ context.Context, args map[string]any) ([]types.Content, error) {
			msg, _ := args["message"].(string)
			return []types.Content{types.TextContent(name + ":" + msg)}, nil
		},
	}
}

func TestListingsFollowRegistrationOrder(t *testing.T) {
	resources := []types.ResourceDescriptor{
		{URI: "b", Name: "B"},
		{URI: "a", Name: "A"},
	}
	r, err := New([]Tool{echoTool("zeta"), echoTool("alpha"), echoTool("mid")}, resources, nil)
	require.NoError(t, err)

	var names []string
	for _, d := range r.ListTools() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)

	first := r.ListResources()
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, r.ListResources()); diff != "" {
			t.Fatalf("resource listing changed (-first +now):\n%s", diff)
		}
	}
	if diff := cmp.Diff(resources, first); diff != "" {
		t.Fatalf("unexpected resources (-want +got):\n%s", diff)
	}
}

func TestListResourcesReturnsCopy(t *testing.T) {
	r, err := New(nil, []types.ResourceDescriptor{{URI: "test_resource", Name: "Test"}}, nil)
	require.NoError(t, err)

	listed := r.ListResources()
	listed[0].Name = "mutated"
	assert.Equal(t, "Test", r.ListResources()[0].Name)
}

func TestNewRejectsInvalidRegistrations(t *testing.T) {
	cases := []struct {
		name      string
		tools     []Tool
		resources []types.ResourceDescriptor
		prompts   []Prompt
	}{
		{name: "duplicate tool", tools: []Tool{echoTool("echo"), echoTool("echo")}},
		{name: "unnamed tool", tools: []Tool{echoTool("")}},
		{name: "tool without func", tools: []Tool{{Descriptor: types.ToolDescriptor{Name: "x"}}}},
		{name: "resource without uri", resources: []types.ResourceDescriptor{{Name: "x"}}},
		{name: "duplicate resource", resources: []types.ResourceDescriptor{{URI: "x"}, {URI: "x"}}},
		{name: "prompt without renderer", prompts: []Prompt{{Descriptor: types.PromptDescriptor{Name: "p"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.tools, tc.resources, tc.prompts)
			assert.Error(t, err)
		})
	}
}

func TestInvokeTool(t *testing.T) {
	r, err := New([]Tool{echoTool("echo")}, nil, nil)
	require.NoError(t, err)

	out, err := r.InvokeTool(context.Background(), "echo", map[string]any{"message": "hi", "extra": true})
	require.NoError(t, err)
	assert.Equal(t, []types.Content{{Type: "text", Text: "echo:hi"}}, out)

	out, err = r.InvokeTool(context.Background(), "echo", nil)
	require.NoError(t, err)
	assert.Equal(t, "echo:", out[0].Text)

	_, err = r.InvokeTool(context.Background(), "missing", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownTool))
	assert.Contains(t, err.Error(), "missing")
}

func TestRenderPrompt(t *testing.T) {
	prompt := Prompt{
		Descriptor: types.PromptDescriptor{
			Name:      "echo",
			Arguments: []types.PromptArgument{{Name: "message", Required: true}},
		},
		Render: func(args map[string]string) ([]types.PromptMessage, error) {
			return []types.PromptMessage{{Role: "user", Content: types.TextContent(args["message"])}}, nil
		},
	}
	r, err := New(nil, nil, []Prompt{prompt})
	require.NoError(t, err)

	desc, msgs, err := r.RenderPrompt("echo", map[string]string{"message": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "echo", desc.Name)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content.Text)

	_, _, err = r.RenderPrompt("echo", nil)
	assert.ErrorContains(t, err, "missing required argument message")

	_, _, err = r.RenderPrompt("nope", nil)
	assert.ErrorIs(t, err, ErrUnknownPrompt)
}

func TestMarkDegraded(t *testing.T) {
	MarkDegraded(context.Background())

	ctx, info := WithCallInfo(context.Background())
	assert.False(t, info.Degraded)
	MarkDegraded(ctx)
	assert.True(t, info.Degraded)
}
