package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/openmc-assist/internal/answer"
	"github.com/Aman-CERP/openmc-assist/internal/config"
	"github.com/Aman-CERP/openmc-assist/internal/embed"
	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
	"github.com/Aman-CERP/openmc-assist/internal/llm"
	"github.com/Aman-CERP/openmc-assist/internal/prompt"
	"github.com/Aman-CERP/openmc-assist/internal/retrieve"
	"github.com/Aman-CERP/openmc-assist/internal/store"
	"github.com/Aman-CERP/openmc-assist/pkg/version"
)

// ServerName is reported to MCP clients.
const ServerName = "openmc-assist"

// Dependencies are the collaborators of a Server.
type Dependencies struct {
	Config    *config.Config
	Store     store.Store
	Index     retrieve.VectorIndex
	Embedder  embed.Embedder
	Generator llm.Generator
	Logger    *slog.Logger
}

// Server exposes ask, retrieve and collection_status as MCP tools.
type Server struct {
	mcp          *mcp.Server
	cfg          *config.Config
	store        store.Store
	index        retrieve.VectorIndex
	retriever    *retrieve.Retriever
	orchestrator *answer.Orchestrator
	embedder     embed.Embedder
	generator    llm.Generator
	logger       *slog.Logger
}

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        ToolAsk,
		Description: "Answer a question about the OpenMC Monte Carlo code using its documentation and examples. Pass earlier turns in history to continue a conversation. Returns the answer and the passages it cites.",
	},
	{
		Name:        ToolRetrieve,
		Description: "Find the OpenMC documentation passages most similar to a query, without generating an answer.",
	},
	{
		Name:        ToolCollectionStatus,
		Description: "Report the ingested collections, their record counts and the active embedding model. Use it to check that documentation has been ingested.",
	},
}

// NewServer creates a Server. Generator may be nil, in which case ask
// reports an internal error and the other tools keep working.
func NewServer(deps Dependencies) (*Server, error) {
	if deps.Index == nil {
		return nil, errors.New("index is required")
	}
	if deps.Embedder == nil {
		return nil, errors.New("embedder is required")
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := retrieve.New(deps.Embedder, retrieve.WithLogger(logger))
	s := &Server{
		cfg:       cfg,
		store:     deps.Store,
		index:     deps.Index,
		retriever: r,
		embedder:  deps.Embedder,
		generator: deps.Generator,
		logger:    logger,
	}
	if deps.Generator != nil {
		s.orchestrator = answer.New(r, &prompt.Builder{HistoryTurns: cfg.Retrieval.HistoryTurns}, deps.Generator,
			answer.WithTopK(cfg.Retrieval.TopK), answer.WithLogger(logger))
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version.Version}, nil)
	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// ListTools returns the registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(tools))
	copy(out, tools)
	return out
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.askHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.retrieveHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description}, s.collectionStatusHandler)
	s.logger.Debug("MCP tools registered", slog.Int("count", len(tools)))
}

// CallTool invokes a tool by name with JSON-style arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case ToolAsk:
		var in AskInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		_, out, err := s.askHandler(ctx, nil, in)
		return out, err
	case ToolRetrieve:
		var in RetrieveInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		_, out, err := s.retrieveHandler(ctx, nil, in)
		return out, err
	case ToolCollectionStatus:
		_, out, err := s.collectionStatusHandler(ctx, nil, CollectionStatusInput{})
		return out, err
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func decodeArgs(args map[string]any, into any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return NewInvalidParamsError(err.Error())
	}
	if err := json.Unmarshal(data, into); err != nil {
		return NewInvalidParamsError(fmt.Sprintf("invalid arguments: %v", err))
	}
	return nil
}

func (s *Server) askHandler(ctx context.Context, _ *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, AskOutput{}, NewInvalidParamsError("query parameter is required")
	}
	if s.orchestrator == nil {
		return nil, AskOutput{}, &MCPError{Code: ErrCodeInternalError, Message: "No generation model is configured."}
	}

	start := time.Now()
	resp, err := s.orchestrator.Respond(ctx, in.Query, s.index, toTurns(in.History))
	if err != nil {
		s.logger.Error("ask failed", append([]any{slog.Duration("duration", time.Since(start))}, amerrors.LogAttrs(err)...)...)
		return nil, AskOutput{}, MapError(err)
	}

	s.logger.Info("ask completed",
		slog.Int("sources", len(resp.Sources)),
		slog.Duration("duration", time.Since(start)))
	return nil, AskOutput{Answer: resp.Answer, Sources: toPassages(resp.Sources)}, nil
}

func (s *Server) retrieveHandler(ctx context.Context, _ *mcp.CallToolRequest, in RetrieveInput) (*mcp.CallToolResult, RetrieveOutput, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, RetrieveOutput{}, NewInvalidParamsError("query parameter is required")
	}

	topK := in.TopK
	if topK <= 0 {
		topK = s.cfg.Retrieval.TopK
	}
	topK = min(topK, maxTopK)

	results, err := s.retriever.Retrieve(ctx, in.Query, s.index, topK)
	if err != nil {
		s.logger.Error("retrieve failed", amerrors.LogAttrs(err)...)
		return nil, RetrieveOutput{}, MapError(err)
	}
	return nil, RetrieveOutput{Passages: toPassages(results)}, nil
}

func (s *Server) collectionStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ CollectionStatusInput) (*mcp.CallToolResult, CollectionStatusOutput, error) {
	count, err := s.index.Count(ctx)
	if err != nil {
		return nil, CollectionStatusOutput{}, MapError(err)
	}

	out := CollectionStatusOutput{
		Collection:  s.cfg.Store.Collection,
		Records:     count,
		Index:       s.cfg.Store.Index,
		Embedder:    s.embedder.ModelName(),
		Collections: []store.CollectionInfo{},
	}
	if s.generator != nil {
		out.Generator = s.generator.ModelName()
	}
	if s.store != nil {
		infos, err := s.store.Collections(ctx)
		if err != nil {
			return nil, CollectionStatusOutput{}, MapError(err)
		}
		out.Collections = infos
	}
	return nil, out, nil
}

// Serve runs the server on transport until ctx is canceled or the client
// disconnects.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server", slog.String("transport", transport))

	switch transport {
	case "", "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("MCP server stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}
