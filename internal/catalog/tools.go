// Package catalog holds the example tools, resources and prompts the
// server registers at start-up.
package catalog

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/xscopehub/mcp-http-server/internal/registry"
	"github.com/xscopehub/mcp-http-server/internal/types"
	"github.com/xscopehub/mcp-http-server/internal/weather"
)

// Tool names.
const (
	AddNumbersTool = "add_numbers"
	EchoTool       = "echo"
	WeatherTool    = "get_weather"
)

const echoPrefix = "Hello from echo tool! Message: "

// WeatherLookup is the weather provider used by get_weather.
type WeatherLookup interface {
	Lookup(ctx context.Context, city string) weather.Report
}

type addNumbersArgs struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

type echoArgs struct {
	Message string `json:"message"`
}

type weatherArgs struct {
	City string `json:"city" jsonschema:"description=City name such as Tokyo or Osaka or Kyoto"`
}

// Tools returns the example tools in listing order.
func Tools(lookup WeatherLookup) []registry.Tool {
	return []registry.Tool{
		AddNumbers(),
		Echo(),
		Weather(lookup),
	}
}

// AddNumbers adds a and b.
func AddNumbers() registry.Tool {
	return registry.Tool{
		Descriptor: types.ToolDescriptor{
			Name:        AddNumbersTool,
			Description: "A simple example tool that adds two numbers",
			InputSchema: inputSchema[addNumbersArgs](),
		},
		Func: func(_ context.Context, args map[string]any) ([]types.Content, error) {
			a, err := numberArg(args, "a")
			if err != nil {
				return nil, err
			}
			b, err := numberArg(args, "b")
			if err != nil {
				return nil, err
			}
			if ia, ok := integerArg(args, "a"); ok {
				if ib, ok := integerArg(args, "b"); ok {
					sum := new(big.Int).Add(ia, ib)
					return []types.Content{types.TextContent(sumText(ia.String(), ib.String(), sum.String()))}, nil
				}
			}
			text := sumText(formatNumber(a), formatNumber(b), formatNumber(a+b))
			return []types.Content{types.TextContent(text)}, nil
		},
	}
}

// Echo returns its message behind a fixed label.
func Echo() registry.Tool {
	return registry.Tool{
		Descriptor: types.ToolDescriptor{
			Name:        EchoTool,
			Description: "A simple example tool that echoes back its arguments",
			InputSchema: inputSchema[echoArgs](),
		},
		Func: func(_ context.Context, args map[string]any) ([]types.Content, error) {
			msg, err := stringArg(args, "message")
			if err != nil {
				return nil, err
			}
			return []types.Content{types.TextContent(echoPrefix + msg)}, nil
		},
	}
}

// Weather reports the current weather for a city. Provider failures never
// surface as errors; the lookup degrades to synthetic data instead.
func Weather(lookup WeatherLookup) registry.Tool {
	return registry.Tool{
		Descriptor: types.ToolDescriptor{
			Name:        WeatherTool,
			Description: "Get the current weather for the given city",
			InputSchema: inputSchema[weatherArgs](),
		},
		Func: func(ctx context.Context, args map[string]any) ([]types.Content, error) {
			city, err := stringArg(args, "city")
			if err != nil {
				return nil, err
			}
			report := lookup.Lookup(ctx, city)
			if report.Degraded {
				registry.MarkDegraded(ctx)
			}
			return []types.Content{types.TextContent(report.Text)}, nil
		},
	}
}

func sumText(a, b, sum string) string {
	return fmt.Sprintf("The sum of %s and %s is %s", a, b, sum)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
