package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/clausemind/internal/core/domain"
	"github.com/kirillkom/clausemind/internal/core/ports"
)

// Server exposes the decision pipeline over MCP, so agent runtimes can ask
// clause questions and inspect document state with the same semantics the
// HTTP API gives human clients.
type Server struct {
	decider ports.DecisionService
	reader  ports.DocumentReader
	mcp     *server.MCPServer
}

func NewServer(decider ports.DecisionService, reader ports.DocumentReader, version string) *Server {
	s := &Server{
		decider: decider,
		reader:  reader,
		mcp: server.NewMCPServer(
			"clausemind",
			version,
			server.WithToolCapabilities(false),
		),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("query_decision",
			mcp.WithDescription("Answer a natural-language question against the indexed documents and return a structured decision with cited evidence."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("The question to decide, e.g. a coverage query."),
			),
			mcp.WithNumber("top_k",
				mcp.Description("How many chunks to retrieve as evidence."),
			),
		),
		s.runQuery,
	)

	s.mcp.AddTool(
		mcp.NewTool("document_status",
			mcp.WithDescription("Look up the indexing status of a document by ID."),
			mcp.WithString("document_id",
				mcp.Required(),
				mcp.Description("The document ID returned at ingestion."),
			),
		),
		s.documentStatus,
	)
}

func (s *Server) runQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	topK := request.GetInt("top_k", 0)

	decision, err := s.decider.Decide(ctx, query, topK)
	if err != nil {
		if domain.IsKind(err, domain.ErrInvalidInput) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, fmt.Errorf("run query: %w", err)
	}

	raw, err := json.Marshal(decision)
	if err != nil {
		return nil, fmt.Errorf("marshal decision: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) documentStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	documentID, err := request.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := s.reader.GetByID(ctx, documentID)
	if err != nil {
		if domain.IsKind(err, domain.ErrDocumentNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("document %s not found", documentID)), nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

// ServeStdio blocks, speaking MCP over stdin/stdout until the stream closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}
