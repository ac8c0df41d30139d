package tools

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"

	"github.com/mwillems/devassist/config"
	"github.com/mwillems/devassist/errors"
	"github.com/mwillems/devassist/tools/mcp"
)

// Tool defines the interface for any action the agent can take.
type Tool interface {
	Name() string
	Description() string
	// ArgSpec declares the tool's required and optional argument keys. A nil
	// spec means arguments are not constrained (external MCP tools).
	ArgSpec() *ArgSpec
	Execute(ctx context.Context, args map[string]string) (string, error)
}

// ArgSpec declares which argument keys a tool accepts. All values are
// strings on the wire.
type ArgSpec struct {
	Required []string
	Optional []string
}

// schemaDocument renders the spec as a JSON Schema document.
func (s *ArgSpec) schemaDocument() map[string]interface{} {
	props := map[string]interface{}{}
	for _, key := range append(append([]string{}, s.Required...), s.Optional...) {
		props[key] = map[string]interface{}{"type": "string"}
	}
	doc := map[string]interface{}{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(s.Required) > 0 {
		doc["required"] = s.Required
	}
	return doc
}

// Registry holds every tool the agent may invoke, with a compiled argument
// schema per tool. It is built once at startup and never mutated afterwards,
// so it is safe to share across concurrent sessions without locking.
type Registry struct {
	tools      map[string]Tool
	schemas    map[string]*gojsonschema.Schema
	mcpClients []*mcp.Client
	frozen     bool
}

// NewRegistry builds the registry from configuration: the builtin tool set
// plus any tools discovered from configured MCP servers. The returned
// registry is frozen.
func NewRegistry(cfg *config.Config) (*Registry, error) {
	r := &Registry{
		tools:   make(map[string]Tool),
		schemas: make(map[string]*gojsonschema.Schema),
	}

	builtins := []Tool{
		&ReadFileTool{},
		&WriteFileTool{},
		&ListFilesTool{fsAccess: &cfg.FilesystemAccess, root: cfg.WorkspaceRoot},
		&SearchFilesTool{fsAccess: &cfg.FilesystemAccess, root: cfg.WorkspaceRoot},
		&ListCodeDefinitionsTool{fsAccess: &cfg.FilesystemAccess, root: cfg.WorkspaceRoot},
		&ExecuteCommandTool{allowedCommands: cfg.AllowedCommands, maxOutput: cfg.MaxCommandOutput},
		&BrowserActionTool{},
	}
	for _, t := range builtins {
		if err := r.register(t); err != nil {
			return nil, err
		}
	}

	for _, srv := range cfg.AdditionalMCPServers {
		client, err := mcp.NewClient(srv.Name, srv.Command, srv.Args)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to initialize MCP server '%s'", srv.Name)
		}
		r.mcpClients = append(r.mcpClients, client)
		for _, t := range client.Tools() {
			if _, exists := r.tools[t.Name()]; exists {
				log.Warn().Str("tool", t.Name()).Str("server", srv.Name).
					Msg("MCP tool shadows an existing tool, skipping")
				continue
			}
			if err := r.register(&mcpTool{t}); err != nil {
				return nil, err
			}
		}
	}

	r.frozen = true
	log.Info().Int("tools", len(r.tools)).Msg("tool registry initialized")
	return r, nil
}

func (r *Registry) register(t Tool) error {
	if r.frozen {
		return errors.New("registry is frozen; tools cannot be registered after startup")
	}
	doc := map[string]interface{}{"type": "object"}
	if spec := t.ArgSpec(); spec != nil {
		doc = spec.schemaDocument()
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return errors.Wrapf(err, "invalid argument schema for tool '%s'", t.Name())
	}
	r.tools[t.Name()] = t
	r.schemas[t.Name()] = schema
	return nil
}

// mcpTool adapts an MCP-discovered tool to the Tool interface. MCP servers
// describe their own schemas, so arguments are left unconstrained here.
type mcpTool struct {
	*mcp.Tool
}

func (m *mcpTool) ArgSpec() *ArgSpec { return nil }

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Has reports whether a tool name is recognized. The plan parser uses this
// to reject unknown identifiers at parse time.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Names returns every registered tool name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks a proposed invocation against the tool's argument schema
// without invoking anything. It returns an error of kind UnknownTool or
// InvalidArguments on rejection.
func (r *Registry) Validate(toolID string, args map[string]string) error {
	schema, ok := r.schemas[toolID]
	if !ok {
		return errors.Kindf(errors.KindUnknownTool, "tool '%s' is not registered", toolID)
	}

	doc := make(map[string]interface{}, len(args))
	for k, v := range args {
		doc[k] = v
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return errors.WithKind(errors.KindInvalidArguments,
			errors.Wrapf(err, "could not validate arguments for '%s'", toolID))
	}
	if !result.Valid() {
		detail := ""
		for _, desc := range result.Errors() {
			if detail != "" {
				detail += "; "
			}
			detail += desc.String()
		}
		return errors.Kindf(errors.KindInvalidArguments, "invalid arguments for '%s': %s", toolID, detail)
	}
	return nil
}

// Close stops any MCP server subprocesses the registry started.
func (r *Registry) Close() {
	for _, client := range r.mcpClients {
		if err := client.Stop(); err != nil {
			log.Warn().Err(err).Str("server", client.Name).Msg("failed to stop MCP server")
		}
	}
}
