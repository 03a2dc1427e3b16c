// Package knowledge provides the knowledge-base retrieval tool.
package knowledge

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/comprice/deviceagent/llmutils"
	"github.com/comprice/deviceagent/schema"
	"github.com/comprice/deviceagent/tools"
	"github.com/comprice/deviceagent/vectorstore"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/comprice/deviceagent", "knowledge")

// ToolName is the name the model requests this tool by.
const ToolName = "KnowledgeBaseRetriever"

// PassageSeparator joins retrieved passages in the tool output.
const PassageSeparator = "\n\n---\n\n"

// NoResultsMessage is returned when no documents match the query.
const NoResultsMessage = "No relevant knowledge found in the knowledge base."

// RetrieveRequest represents the tool input.
type RetrieveRequest struct {
	Query string `json:"query" yaml:"query" jsonschema:"title=query,description=A clear natural language question to search the knowledge base with."`
}

// RetrieveResult holds the retrieved passages.
type RetrieveResult struct {
	Passages []string `json:"passages"`
}

func (r *RetrieveResult) String() string {
	if len(r.Passages) == 0 {
		return NoResultsMessage
	}
	return strings.Join(r.Passages, PassageSeparator)
}

// Retriever searches a vector-store collection.
type Retriever interface {
	SimilaritySearch(ctx context.Context, query string) ([]vectorstore.Document, error)
}

// Tool retrieves contextual passages from the knowledge base.
type Tool struct {
	name        string
	description string
	funcParams  any

	retriever Retriever
}

var _ tools.Tool[RetrieveRequest, RetrieveResult] = (*Tool)(nil)

// New creates the knowledge-base retrieval tool over the given retriever.
func New(retriever Retriever) (*Tool, error) {
	sc, err := schema.New(reflect.TypeOf(RetrieveRequest{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &Tool{
		name: ToolName,
		description: "Use this tool to fetch contextual information about devices, " +
			"technical terms, or concepts from the knowledge base. " +
			"Input should be a clear natural language question. " +
			"This tool is useful for understanding terminology, specifications, " +
			"or getting background information about device features.",
		funcParams: sc.Parameters,
		retriever:  retriever,
	}, nil
}

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Description() string {
	return t.description
}

func (t *Tool) Parameters() any {
	return t.funcParams
}

// Run searches the knowledge base for passages relevant to the question.
func (t *Tool) Run(ctx context.Context, req *RetrieveRequest) (*RetrieveResult, error) {
	if req.Query == "" {
		return nil, errors.New("invalid request: empty query")
	}

	logger.ContextKV(ctx, xlog.DEBUG, "status", "retrieve", "query", req.Query)

	docs, err := t.retriever.SimilaritySearch(ctx, req.Query)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to retrieve knowledge")
	}

	res := &RetrieveResult{
		Passages: make([]string, 0, len(docs)),
	}
	for _, doc := range docs {
		res.Passages = append(res.Passages, doc.Content)
	}
	return res, nil
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var req RetrieveRequest
	if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithMessage(tools.ErrFailedUnmarshalInput, err.Error())
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}
