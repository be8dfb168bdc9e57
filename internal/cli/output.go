// Package cli formats command-line output for the supportbot subcommands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fintechco/supportbot/internal/knowledge"
	"github.com/fintechco/supportbot/pkg/utils"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// searchEnvelope is the JSON shape for search output.
type searchEnvelope struct {
	Query   string                     `json:"query"`
	Results []knowledge.ScoredDocument `json:"results"`
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, query string, results []knowledge.ScoredDocument, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(searchEnvelope{Query: query, Results: results})
	default:
		writeSearchResultsText(w, query, results)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, query string, results []knowledge.ScoredDocument) {
	fmt.Fprintf(w, "\nFound %d results for %q\n\n", len(results), query)
	for i, result := range results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Distance: %.4f\n", i+1, result.Distance)
		fmt.Fprintf(w, "Title: %s\n", result.Title)
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(result.Content, 200))
	}
}

// WriteStats writes knowledge base stats to w in the given format.
func WriteStats(w io.Writer, stats knowledge.Stats, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	default:
		fmt.Fprintf(w, "Documents: %d\nIndex vectors: %d\nDimension: %d\n",
			stats.TotalDocuments, stats.IndexSize, stats.Dimension)
		return nil
	}
}

// ParseFormat maps a flag value to an OutputFormat, defaulting to text.
func ParseFormat(s string) OutputFormat {
	if s == string(OutputJSON) {
		return OutputJSON
	}
	return OutputText
}
