package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/fintechco/supportbot/internal/knowledge"
)

// NoResultsMessage is returned when the knowledge base has no relevant documents.
const NoResultsMessage = "No relevant information found in the knowledge base."

// defaultSearchK is how many knowledge-base results the agent tool returns.
const defaultSearchK = 3

// SearchKnowledgeBase queries the knowledge base and formats up to three
// ranked results for the agent. Failures are reported as a readable string
// rather than an error, so the agent can relay them to the user.
func SearchKnowledgeBase(ctx context.Context, kb *knowledge.Manager, query string) string {
	results, err := kb.Search(ctx, query, defaultSearchK)
	if err != nil {
		return fmt.Sprintf("Error accessing knowledge base: %v. Please ensure OPENAI_API_KEY is configured.", err)
	}
	if len(results) == 0 {
		return NoResultsMessage
	}

	formatted := make([]string, 0, len(results))
	for i, doc := range results {
		formatted = append(formatted, fmt.Sprintf("Result %d - %s:\n%s", i+1, doc.Title, doc.Content))
	}
	return strings.Join(formatted, "\n\n")
}

// KnowledgeBaseTool wraps SearchKnowledgeBase as a registrable agent tool.
func KnowledgeBaseTool(kb *knowledge.Manager) *Tool {
	return &Tool{
		Name:        "search_knowledge_base",
		Description: "Search the internal knowledge base for company policies, procedures, FAQs, and support information. Use this first for any questions about account management, products, or services.",
		Func: func(ctx context.Context, params map[string]any) (string, error) {
			query, err := stringParam(params, "query")
			if err != nil {
				return "", err
			}
			return SearchKnowledgeBase(ctx, kb, query), nil
		},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The user's question or search query",
				},
			},
			"required": []string{"query"},
		},
	}
}
