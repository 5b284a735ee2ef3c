// Package dispatcher routes decoded JSON-RPC requests to MCP method handlers.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xscopehub/mcp-http-server/internal/catalog"
	"github.com/xscopehub/mcp-http-server/internal/jsonrpc"
	"github.com/xscopehub/mcp-http-server/internal/registry"
	"github.com/xscopehub/mcp-http-server/internal/types"
)

// ProtocolVersion is the MCP revision announced by initialize.
const ProtocolVersion = "2024-11-05"

const notificationPrefix = "notifications/"

// Tool call outcomes reported to the Observer.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeError    = "error"
)

// ServerInfo identifies the server in the initialize handshake.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Observer is notified once per tools/call.
type Observer interface {
	ObserveToolCall(tool, outcome string)
}

// Outcome is the result of dispatching one request.
type Outcome struct {
	Response jsonrpc.Response
	// NoReply is set for notifications, which get no envelope.
	NoReply bool
	// Tool and Degraded are filled for tools/call.
	Tool     string
	Degraded bool
}

type handlerFunc func(ctx context.Context, req *jsonrpc.Request, call *registry.CallInfo) (any, error)

// Dispatcher maps method names to handlers. It holds no mutable state
// and is safe for concurrent use.
type Dispatcher struct {
	info     ServerInfo
	registry *registry.Registry
	observer Observer
	logger   *slog.Logger
	handlers map[string]handlerFunc
	methods  []string
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithObserver registers a tool call observer.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

// WithLogger sets the logger used for failed calls.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// New builds a dispatcher over reg.
func New(reg *registry.Registry, info ServerInfo, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		info:     info,
		registry: reg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.register("initialize", d.handleInitialize)
	d.register("ping", d.handlePing)
	d.register("tools/list", d.handleToolsList)
	d.register("tools/call", d.handleToolsCall)
	d.register("resources/list", d.handleResourcesList)
	d.register("resources/read", d.handleResourcesRead)
	d.register("prompts/list", d.handlePromptsList)
	d.register("prompts/get", d.handlePromptsGet)
	return d
}

func (d *Dispatcher) register(method string, h handlerFunc) {
	if d.handlers == nil {
		d.handlers = make(map[string]handlerFunc)
	}
	d.handlers[method] = h
	d.methods = append(d.methods, method)
}

// Methods lists the supported methods in registration order.
func (d *Dispatcher) Methods() []string {
	return append([]string(nil), d.methods...)
}

// Dispatch runs the handler for req. Every failure, including a panic in
// a handler, comes back as an error envelope carrying req.ID.
func (d *Dispatcher) Dispatch(ctx context.Context, req jsonrpc.Request) (out Outcome) {
	ctx, call := registry.WithCallInfo(ctx)

	if req.IsNotification() && strings.HasPrefix(req.Method, notificationPrefix) {
		d.logger.Debug("notification received", "method", req.Method)
		return Outcome{NoReply: true}
	}

	handler, ok := d.handlers[req.Method]
	if !ok {
		return Outcome{Response: jsonrpc.NewError(req.ID, jsonrpc.MethodNotFound(req.Method))}
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panic", "method", req.Method, "id", req.ID.String(), "panic", r)
			d.observeTool(call, OutcomeError)
			out = Outcome{
				Response: jsonrpc.NewError(req.ID, jsonrpc.InternalError(fmt.Errorf("%v", r))),
				Tool:     call.Tool,
				Degraded: call.Degraded,
			}
		}
	}()

	result, err := handler(ctx, &req, call)
	out = Outcome{Tool: call.Tool, Degraded: call.Degraded}
	if err != nil {
		var rpcErr *jsonrpc.Error
		if !errors.As(err, &rpcErr) {
			d.logger.Warn("request failed", "method", req.Method, "id", req.ID.String(), "error", err)
			rpcErr = jsonrpc.InternalError(err)
		}
		out.Response = jsonrpc.NewError(req.ID, rpcErr)
		return out
	}
	out.Response = jsonrpc.NewResult(req.ID, result)
	return out
}

func (d *Dispatcher) observeTool(call *registry.CallInfo, outcome string) {
	if d.observer == nil || call.Tool == "" {
		return
	}
	d.observer.ObserveToolCall(call.Tool, outcome)
}

type initializeResult struct {
	ProtocolVersion string              `json:"protocolVersion"`
	Capabilities    map[string]struct{} `json:"capabilities"`
	ServerInfo      ServerInfo          `json:"serverInfo"`
}

func (d *Dispatcher) handleInitialize(context.Context, *jsonrpc.Request, *registry.CallInfo) (any, error) {
	return initializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: map[string]struct{}{
			"tools":     {},
			"resources": {},
			"prompts":   {},
		},
		ServerInfo: d.info,
	}, nil
}

func (d *Dispatcher) handlePing(context.Context, *jsonrpc.Request, *registry.CallInfo) (any, error) {
	return struct{}{}, nil
}

func (d *Dispatcher) handleToolsList(context.Context, *jsonrpc.Request, *registry.CallInfo) (any, error) {
	return struct {
		Tools []types.ToolDescriptor `json:"tools"`
	}{Tools: d.registry.ListTools()}, nil
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, req *jsonrpc.Request, call *registry.CallInfo) (any, error) {
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := req.DecodeParams(&params); err != nil {
		return nil, jsonrpc.InvalidParams(err)
	}
	call.Tool = params.Name

	content, err := d.registry.InvokeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		d.observeTool(call, OutcomeError)
		return nil, err
	}
	if call.Degraded {
		d.observeTool(call, OutcomeDegraded)
	} else {
		d.observeTool(call, OutcomeOK)
	}
	return struct {
		Content []types.Content `json:"content"`
	}{Content: content}, nil
}

func (d *Dispatcher) handleResourcesList(context.Context, *jsonrpc.Request, *registry.CallInfo) (any, error) {
	return struct {
		Resources []types.ResourceDescriptor `json:"resources"`
	}{Resources: d.registry.ListResources()}, nil
}

func (d *Dispatcher) handleResourcesRead(_ context.Context, req *jsonrpc.Request, _ *registry.CallInfo) (any, error) {
	var params struct {
		URI string `json:"uri"`
	}
	if err := req.DecodeParams(&params); err != nil {
		return nil, jsonrpc.InvalidParams(err)
	}
	return struct {
		Contents []types.ResourceContents `json:"contents"`
	}{Contents: catalog.ReadResource(params.URI)}, nil
}

func (d *Dispatcher) handlePromptsList(context.Context, *jsonrpc.Request, *registry.CallInfo) (any, error) {
	return struct {
		Prompts []types.PromptDescriptor `json:"prompts"`
	}{Prompts: d.registry.ListPrompts()}, nil
}

func (d *Dispatcher) handlePromptsGet(_ context.Context, req *jsonrpc.Request, _ *registry.CallInfo) (any, error) {
	var params struct {
		Name      string            `json:"name"`
		Arguments map[string]string `json:"arguments"`
	}
	if err := req.DecodeParams(&params); err != nil {
		return nil, jsonrpc.InvalidParams(err)
	}
	desc, messages, err := d.registry.RenderPrompt(params.Name, params.Arguments)
	if err != nil {
		return nil, err
	}
	return struct {
		Description string                `json:"description"`
		Messages    []types.PromptMessage `json:"messages"`
	}{Description: desc.Description, Messages: messages}, nil
}
