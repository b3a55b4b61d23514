package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/catalog"
	"github.com/aretw0/arbor/pkg/domain"
)

// FlowchartsURI lists the stored flowcharts.
const FlowchartsURI = "arbor://flowcharts"

// SessionArgs selects a session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// StartArgs opens a session.
type StartArgs struct {
	FlowchartKey string `json:"flowchart_key,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
}

// AnswerArgs answers the current question of a session.
type AnswerArgs struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

// FlowchartArgs selects a document.
type FlowchartArgs struct {
	Key string `json:"key,omitempty"`
}

// FlowchartList is the result of list_flowcharts.
type FlowchartList struct {
	Default    string          `json:"default" jsonschema_description:"Key of the primary flowchart"`
	Flowcharts []catalog.Entry `json:"flowcharts" jsonschema_description:"Named flowcharts, oldest first"`
}

// Server exposes a Player as an MCP server.
type Server struct {
	player    *arbor.Player
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(player *arbor.Player, opts ...Option) *Server {
	s := &Server{
		player:    player,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("arbor-mcp", strings.TrimSpace(arbor.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	allowAll := cors.AllowAll().Handler
	mux := http.NewServeMux()
	mux.Handle("/sse", allowAll(sseServer.SSEHandler()))
	mux.Handle("/message", allowAll(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
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
		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_flowcharts",
		mcp.WithDescription("List the stored flowcharts."),
		mcp.WithOutputSchema[FlowchartList](),
	), mcp.NewStructuredToolHandler(s.handleList))

	s.mcpServer.AddTool(mcp.NewTool("get_flowchart",
		mcp.WithDescription("Get a flowchart document. Without a key, returns the one a new session would play."),
		mcp.WithString("key", mcp.Description("Storage key of the flowchart (optional)")),
	), s.handleGetFlowchart)

	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start walking a flowchart from its first node."),
		mcp.WithString("flowchart_key", mcp.Description("Storage key of the flowchart (optional)")),
		mcp.WithString("session_id", mcp.Description("Id for the new session (optional, generated when empty)")),
		mcp.WithOutputSchema[arbor.View](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("answer",
		mcp.WithDescription("Answer the current yes/no question."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("answer", mcp.Required(), mcp.Enum("yes", "no"), mcp.Description("yes or no")),
		mcp.WithOutputSchema[arbor.View](),
	), mcp.NewStructuredToolHandler(s.handleAnswer))

	steps := []struct {
		name, description string
		fn                func(context.Context, string) (*arbor.View, error)
	}{
		{"next", "Continue from the current information node.", s.player.Next},
		{"back", "Undo the last decision.", s.player.Back},
		{"restart", "Return to the first node and clear the history.", s.player.Restart},
		{"view_session", "Show the current node, available actions and history.", s.player.View},
	}
	for _, st := range steps {
		s.mcpServer.AddTool(mcp.NewTool(st.name,
			mcp.WithDescription(st.description),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
			mcp.WithOutputSchema[arbor.View](),
		), mcp.NewStructuredToolHandler(s.stepHandler(st.name, st.fn)))
	}
}

func (s *Server) handleList(ctx context.Context, _ mcp.CallToolRequest, _ struct{}) (FlowchartList, error) {
	entries, err := s.player.Catalog().List(ctx)
	if err != nil {
		return FlowchartList{}, err
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}
	return FlowchartList{Default: s.player.Catalog().DefaultKey(), Flowcharts: entries}, nil
}

func (s *Server) handleGetFlowchart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := request.GetString("key", "")
	var (
		doc *domain.Document
		err error
	)
	if key == "" {
		doc, err = s.player.Catalog().Resolve(ctx, "")
	} else {
		doc, err = s.player.Catalog().Load(ctx, key)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get flowchart failed: %v", err)), nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, args StartArgs) (arbor.View, error) {
	v, err := s.player.Start(ctx, args.FlowchartKey, args.SessionID)
	if err != nil {
		s.logger.Warn("MCP start_session failed", "err", err)
		return arbor.View{}, fmt.Errorf("start failed: %w", err)
	}
	return *v, nil
}

func (s *Server) handleAnswer(ctx context.Context, _ mcp.CallToolRequest, args AnswerArgs) (arbor.View, error) {
	v, err := s.player.Answer(ctx, args.SessionID, strings.ToLower(strings.TrimSpace(args.Answer)))
	if err != nil {
		s.logger.Warn("MCP answer failed", "session_id", args.SessionID, "err", err)
		return arbor.View{}, fmt.Errorf("answer failed: %w", err)
	}
	return *v, nil
}

func (s *Server) stepHandler(name string, fn func(context.Context, string) (*arbor.View, error)) mcp.StructuredToolHandlerFunc[SessionArgs, arbor.View] {
	return func(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (arbor.View, error) {
		if args.SessionID == "" {
			return arbor.View{}, fmt.Errorf("session_id is required")
		}
		v, err := fn(ctx, args.SessionID)
		if err != nil {
			s.logger.Warn("MCP step failed", "tool", name, "session_id", args.SessionID, "err", err)
			return arbor.View{}, fmt.Errorf("%s failed: %w", name, err)
		}
		return *v, nil
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(FlowchartsURI, "Stored flowcharts",
		mcp.WithMIMEType("application/json"),
	), s.readFlowcharts)
}

func (s *Server) readFlowcharts(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	list, err := s.handleList(ctx, mcp.CallToolRequest{}, struct{}{})
	if err != nil {
		return nil, fmt.Errorf("failed to list flowcharts: %w", err)
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FlowchartsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
