// Package mcp exposes a session controller as Model Context Protocol tools, so agents can play a World.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/tapestry"
	"github.com/aretw0/tapestry/internal/logging"
	"github.com/aretw0/tapestry/internal/presentation/graph"
	"github.com/aretw0/tapestry/pkg/bundle"
	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/ports"
	"github.com/aretw0/tapestry/pkg/runner"
)

// WorldArgs selects the World a tool acts on.
type WorldArgs struct {
	World string `json:"world"`
}

// SubmitArgs is the flattened form of a route outcome.
type SubmitArgs struct {
	World      string `json:"world"`
	EntryID    string `json:"entry_id"`
	Kind       string `json:"kind"`
	ChoiceID   string `json:"choice_id,omitempty"`
	InputValue string `json:"input_value,omitempty"`
	PathID     string `json:"path_id,omitempty"`
}

// HistoryArgs selects how many entries to return.
type HistoryArgs struct {
	World string  `json:"world"`
	Limit float64 `json:"limit,omitempty"`
}

// HistoryResponse lists log entries, newest first.
type HistoryResponse struct {
	Entries []*domain.PlaythroughEvent `json:"entries" jsonschema_description:"Entries of the visible session, newest first"`
}

// GraphResponse carries a Mermaid flowchart of a World.
type GraphResponse struct {
	Mermaid string `json:"mermaid" jsonschema_description:"Mermaid flowchart with visited and current events highlighted"`
}

// Server wraps a session controller and exposes it as an MCP Server.
type Server struct {
	engine    ports.SessionController
	graph     ports.GraphReader
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger. Stdio transports must not log to stdout.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGraph enables the graph tool, reading World structure from reader.
func WithGraph(reader ports.GraphReader) Option {
	return func(s *Server) {
		s.graph = reader
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.SessionController, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("tapestry-mcp", strings.TrimSpace(tapestry.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
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
	world := mcp.WithString("world", mcp.Required(), mcp.Description("ID of an installed World"))

	s.mcpServer.AddTool(mcp.NewTool("render_passage",
		mcp.WithDescription("Render the current passage of a World: its text, choices, input prompt or ending."),
		world,
		mcp.WithOutputSchema[runner.RichResponse](),
	), mcp.NewStructuredToolHandler(s.handleRenderPassage))

	s.mcpServer.AddTool(mcp.NewTool("submit_route",
		mcp.WithDescription("Leave the current entry with an outcome and render the passage it leads to."),
		world,
		mcp.WithString("entry_id", mcp.Required(), mcp.Description("ID of the entry being left, from state.entry.id")),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Outcome kind"),
			mcp.Enum(string(domain.OutcomeChoice), string(domain.OutcomeInput), string(domain.OutcomePassthrough),
				string(domain.OutcomeLoopback), string(domain.OutcomeGameOver))),
		mcp.WithString("choice_id", mcp.Description("Choice taken (kind=choice)")),
		mcp.WithString("input_value", mcp.Description("Raw reply (kind=input)")),
		mcp.WithString("path_id", mcp.Description("Path to follow when several are open (optional)")),
		mcp.WithOutputSchema[runner.RichResponse](),
	), mcp.NewStructuredToolHandler(s.handleSubmitRoute))

	s.mcpServer.AddTool(mcp.NewTool("restart",
		mcp.WithDescription("Start the World over from its initial state. Earlier history is kept."),
		world,
		mcp.WithOutputSchema[runner.RichResponse](),
	), mcp.NewStructuredToolHandler(s.handleRestart))

	s.mcpServer.AddTool(mcp.NewTool("history",
		mcp.WithDescription("List entries of the visible session, newest first."),
		world,
		mcp.WithNumber("limit", mcp.Description("Maximum entries to return (default: the World's history limit)")),
		mcp.WithOutputSchema[HistoryResponse](),
	), mcp.NewStructuredToolHandler(s.handleHistory))

	s.mcpServer.AddTool(mcp.NewTool("introspect",
		mcp.WithDescription("Inspect the current entry: destination, variables and session status."),
		world,
		mcp.WithOutputSchema[domain.Introspection](),
	), mcp.NewStructuredToolHandler(s.handleIntrospect))

	if s.graph != nil {
		s.mcpServer.AddTool(mcp.NewTool("graph",
			mcp.WithDescription("Get a Mermaid flowchart of the World with the playthrough so far highlighted."),
			world,
			mcp.WithOutputSchema[GraphResponse](),
		), mcp.NewStructuredToolHandler(s.handleGraph))
	}
}

func (s *Server) handleRenderPassage(ctx context.Context, _ mcp.CallToolRequest, args WorldArgs) (runner.RichResponse, error) {
	rich, err := runner.ResumeAndRender(ctx, s.engine, args.World)
	return s.result("render_passage", rich, err)
}

func (s *Server) handleSubmitRoute(ctx context.Context, _ mcp.CallToolRequest, args SubmitArgs) (runner.RichResponse, error) {
	outcome := domain.RouteOutcome{
		Kind:     domain.OutcomeKind(args.Kind),
		ChoiceID: args.ChoiceID,
		PathID:   args.PathID,
	}
	if args.InputValue != "" {
		clean, err := runner.SanitizeInput(args.InputValue)
		if err != nil {
			s.logger.Warn("submit_route: input rejected", "err", err, "size", len(args.InputValue))
			return runner.RichResponse{}, fmt.Errorf("input rejected: %w", err)
		}
		outcome.InputValue = clean
	}

	rich, err := runner.SubmitAndRender(ctx, s.engine, args.World, args.EntryID, outcome)
	return s.result("submit_route", rich, err)
}

func (s *Server) handleRestart(ctx context.Context, _ mcp.CallToolRequest, args WorldArgs) (runner.RichResponse, error) {
	rich, err := runner.RestartAndRender(ctx, s.engine, args.World)
	return s.result("restart", rich, err)
}

func (s *Server) handleHistory(ctx context.Context, _ mcp.CallToolRequest, args HistoryArgs) (HistoryResponse, error) {
	if args.Limit < 0 {
		return HistoryResponse{}, fmt.Errorf("invalid limit %v", args.Limit)
	}
	entries, err := s.engine.History(ctx, args.World, int(args.Limit))
	if err != nil {
		return HistoryResponse{}, fmt.Errorf("history failed: %w", err)
	}
	if entries == nil {
		entries = []*domain.PlaythroughEvent{}
	}
	return HistoryResponse{Entries: entries}, nil
}

func (s *Server) handleIntrospect(ctx context.Context, _ mcp.CallToolRequest, args WorldArgs) (domain.Introspection, error) {
	info, err := s.engine.Introspect(ctx, args.World)
	if err != nil {
		return domain.Introspection{}, fmt.Errorf("introspect failed: %w", err)
	}
	return info, nil
}

func (s *Server) handleGraph(ctx context.Context, _ mcp.CallToolRequest, args WorldArgs) (GraphResponse, error) {
	b, err := bundle.Snapshot(ctx, s.graph, args.World)
	if err != nil {
		return GraphResponse{}, fmt.Errorf("graph failed: %w", err)
	}

	overlay := &graph.GraphOverlay{}
	entries, err := s.engine.History(ctx, args.World, 0)
	if err != nil && !errors.Is(err, domain.ErrNotInstalled) {
		return GraphResponse{}, fmt.Errorf("graph failed: %w", err)
	}
	for i := len(entries) - 1; i >= 0; i-- {
		overlay.VisitedNodes = append(overlay.VisitedNodes, entries[i].Destination)
	}
	if len(entries) > 0 {
		overlay.CurrentNode = entries[0].Destination
	}
	return GraphResponse{Mermaid: graph.GenerateMermaid(b, overlay)}, nil
}

// result keeps the new state when only rendering failed, so the agent can recover.
func (s *Server) result(op string, rich *runner.RichResponse, err error) (runner.RichResponse, error) {
	if err != nil && rich == nil {
		return runner.RichResponse{}, fmt.Errorf("%s failed: %w", op, err)
	}
	if err != nil {
		s.logger.Error("MCP "+op+": render failed", "err", err)
	}
	return *rich, nil
}
