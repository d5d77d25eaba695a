package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/seedbed"
	"github.com/aretw0/seedbed/internal/logging"
	"github.com/aretw0/seedbed/internal/validator"
	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/output"
	"github.com/aretw0/seedbed/pkg/runner"
	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GenerateResult aligns with the HTTP GenerateResponse so both adapters
// describe a run the same way.
type GenerateResult struct {
	SessionID string           `json:"session_id" jsonschema_description:"Session the run belonged to"`
	Status    string           `json:"status" jsonschema_description:"completed or failed"`
	Seed      int64            `json:"seed" jsonschema_description:"Seed of the last batch"`
	Batches   int              `json:"batches" jsonschema_description:"Number of recipe executions"`
	Counts    map[string]int   `json:"counts" jsonschema_description:"Records per object type"`
	Records   []map[string]any `json:"records" jsonschema_description:"Generated records in creation order"`
}

// Engine is the part of the seedbed engine exposed as MCP tools.
type Engine interface {
	runner.Generator
	Parse(source []byte) (*domain.Recipe, error)
	Validate(source []byte) (*validator.Report, error)
	Providers() []string
}

// Server wraps the seedbed Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger. Under stdio it must not write to stdout.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("seedbed-mcp", strings.TrimSpace(seedbed.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when
// ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	generateTool := mcp.NewTool("generate_records",
		mcp.WithDescription("Run a seedbed recipe (YAML list of object blocks) and return the generated records."),
		mcp.WithString("recipe", mcp.Required(), mcp.Description("Recipe document in YAML")),
		mcp.WithString("session_id", mcp.Description("Generation session; just_once blocks run once per session")),
		mcp.WithString("vars", mcp.Description("Option overrides as K:V,K2:V2")),
		mcp.WithNumber("num_records", mcp.Description("Repeat the recipe until this many records of num_records_tablename exist")),
		mcp.WithString("num_records_tablename", mcp.Description("Object type counted by num_records")),
		mcp.WithOutputSchema[GenerateResult](),
	)
	s.mcpServer.AddTool(generateTool, mcp.NewStructuredToolHandler(s.handleGenerate))

	s.mcpServer.AddTool(mcp.NewTool("validate_recipe",
		mcp.WithDescription("Lint a recipe without running it: forward references, unknown providers and template names."),
		mcp.WithString("recipe", mcp.Required(), mcp.Description("Recipe document in YAML")),
	), s.handleValidate)

	s.mcpServer.AddTool(mcp.NewTool("list_providers",
		mcp.WithDescription("List the fake data providers usable in 'fake' fields."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(strings.Join(s.engine.Providers(), "\n")), nil
	})
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (GenerateResult, error) {
	source, _ := args["recipe"].(string)
	sessionID, _ := args["session_id"].(string)
	rawVars, _ := args["vars"].(string)

	vars, err := runner.ParseVars(rawVars)
	if err != nil {
		s.logger.Warn("MCP Generate: vars rejected", "err", err)
		return GenerateResult{}, fmt.Errorf("vars rejected: %w", err)
	}

	recipe, err := s.engine.Parse([]byte(source))
	if err != nil {
		return GenerateResult{}, err
	}

	opts := []runner.Option{
		runner.WithLogger(s.logger),
		runner.WithSessionID(sessionID),
		runner.WithVars(vars),
	}
	if n, ok := args["num_records"].(float64); ok {
		table, _ := args["num_records_tablename"].(string)
		if table == "" {
			return GenerateResult{}, errors.New("num_records requires num_records_tablename")
		}
		opts = append(opts, runner.WithTarget(table, int(n)))
	}

	summary, err := runner.New(s.engine, opts...).Run(ctx, recipe)
	if err != nil {
		s.logger.Error("MCP Generate failed", "err", err, "session_id", sessionID)
		return GenerateResult{}, fmt.Errorf("generate failed: %w", err)
	}

	res := GenerateResult{
		Status:  string(domain.StatusCompleted),
		Batches: summary.Batches,
		Counts:  summary.Counts,
		Records: make([]map[string]any, 0, len(summary.Records)),
	}
	if summary.Last != nil {
		res.SessionID = summary.Last.SessionID
		res.Seed = summary.Last.Seed
	}
	for _, rec := range summary.Records {
		data, err := output.MarshalRecord(rec)
		if err != nil {
			return GenerateResult{}, err
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return GenerateResult{}, err
		}
		res.Records = append(res.Records, m)
	}
	return res, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := request.RequireString("recipe")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := s.engine.Validate([]byte(source))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(report.Issues) == 0 {
		return mcp.NewToolResultText("ok"), nil
	}
	lines := make([]string, len(report.Issues))
	for i, issue := range report.Issues {
		lines[i] = issue.String()
	}
	text := strings.Join(lines, "\n")
	if !report.OK() {
		return mcp.NewToolResultError(text), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("seedbed://providers", "Fake data providers",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.engine.Providers())
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "seedbed://providers",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
