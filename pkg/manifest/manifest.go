// Package manifest describes the server to clients that inspect it without
// speaking JSON-RPC.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
)

// Default identity of the server.
const (
	DefaultName        = "example_http_server"
	DefaultVersion     = "1.0.0"
	DefaultDescription = "MCP HTTP Server"
)

// Manifest is the server info document served on GET.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	EntryPoint  string   `json:"entry_point,omitempty"`
	Methods     []string `json:"methods,omitempty"`
	Resources   []string `json:"resources,omitempty"`
	Tools       []string `json:"tools,omitempty"`
}

// Default returns the built-in manifest.
func Default() Manifest {
	return Manifest{
		Name:        DefaultName,
		Version:     DefaultVersion,
		Description: DefaultDescription,
		EntryPoint:  "/mcp",
	}
}

// Load reads a manifest from disk. Fields missing from the file keep
// their default values; an empty path yields Default.
func Load(path string) (Manifest, error) {
	mf := Default()
	if path == "" {
		return mf, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(raw, &mf); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	if mf.Name == "" || mf.Version == "" {
		return Manifest{}, fmt.Errorf("manifest %s: name and version are required", path)
	}
	return mf, nil
}

// WithCatalog fills Tools and Resources from the registered catalog. Lists
// already present in the manifest file are kept.
func (m Manifest) WithCatalog(tools, resources []string) Manifest {
	if len(m.Tools) == 0 {
		m.Tools = append([]string(nil), tools...)
	}
	if len(m.Resources) == 0 {
		m.Resources = append([]string(nil), resources...)
	}
	return m
}
