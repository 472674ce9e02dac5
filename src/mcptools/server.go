package mcptools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
	"github.com/jiaming2012/shioaji-mcp/src/orders"
	"github.com/jiaming2012/shioaji-mcp/src/quotes"
	"github.com/jiaming2012/shioaji-mcp/src/reporting"
	"github.com/jiaming2012/shioaji-mcp/src/session"
	"github.com/jiaming2012/shioaji-mcp/src/telemetry"
)

const ServerName = "shioaji"

type Options struct {
	Version  string
	Location *time.Location

	// Credentials are used by the login tool when the caller omits them.
	Credentials eventmodels.Credentials
}

type toolFunc func(ctx context.Context, args arguments) (string, error)

type toolEntry struct {
	tool    mcp.Tool
	handler toolFunc
}

// Server registers the brokerage operations as MCP tools.
type Server struct {
	session  *session.Session
	quotes   *quotes.Service
	orders   *orders.Gateway
	reports  *reporting.Service
	defaults eventmodels.Credentials
	tracer   trace.Tracer
	tools    []toolEntry
	mcp      *server.MCPServer
}

func NewServer(sess *session.Session, opts Options) *Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}

	if opts.Location == nil {
		opts.Location = time.Local
	}

	s := &Server{
		session:  sess,
		quotes:   quotes.NewService(sess),
		orders:   orders.NewGateway(sess),
		reports:  reporting.NewService(sess, opts.Location),
		defaults: opts.Credentials,
		tracer:   telemetry.Tracer("mcptools"),
	}

	s.mcp = server.NewMCPServer(ServerName, opts.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.registerTools()

	for _, entry := range s.tools {
		s.mcp.AddTool(entry.tool, s.wrap(entry.tool.Name, entry.handler))
	}

	return s
}

func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) Session() *session.Session {
	return s.session
}

// Tools lists the registered tool definitions in registration order.
func (s *Server) Tools() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(s.tools))
	for _, entry := range s.tools {
		out = append(out, entry.tool)
	}

	return out
}

// Call invokes a tool by name with already decoded arguments.
func (s *Server) Call(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	for _, entry := range s.tools {
		if entry.tool.Name == name {
			req := mcp.CallToolRequest{}
			req.Params.Name = name
			req.Params.Arguments = args
			return s.wrap(name, entry.handler)(ctx, req)
		}
	}

	return nil, fmt.Errorf("Server.Call: unknown tool %s: %w", name, eventmodels.ErrLookup)
}

func (s *Server) add(tool mcp.Tool, handler toolFunc) {
	s.tools = append(s.tools, toolEntry{tool: tool, handler: handler})
}

// wrap runs the handler in a span, logs the outcome and converts failures into
// tool errors so the caller sees the backend message.
func (s *Server) wrap(name string, handler toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := s.tracer.Start(ctx, "mcptools."+name)
		defer span.End()

		start := time.Now()
		logger := log.WithField("tool", name)
		logger.Info("tool called")

		text, err := handler(ctx, arguments(request.GetArguments()))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.SetAttributes(attribute.String("error.kind", errorKind(err)))

			logger.WithError(err).WithField("kind", errorKind(err)).Error("tool failed")
			return mcp.NewToolResultError(err.Error()), nil
		}

		logger.WithField("elapsed", time.Since(start)).Debug("tool finished")
		return mcp.NewToolResultText(text), nil
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, eventmodels.ErrUnknownTrade):
		return "unknown_trade"
	case errors.Is(err, eventmodels.ErrConnection):
		return "connection"
	case errors.Is(err, eventmodels.ErrLookup):
		return "lookup"
	case errors.Is(err, eventmodels.ErrSubmission):
		return "submission"
	case errors.Is(err, eventmodels.ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}
