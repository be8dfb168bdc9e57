package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fintechco/supportbot/pkg/utils"
)

// maxTopicLen caps a single related-topic snippet in the summary.
const maxTopicLen = 200

// WebSearchClient queries a DuckDuckGo-compatible instant answer API. All
// failures are reported as readable fallback strings, never as errors, so the
// agent always has something to relay.
type WebSearchClient struct {
	baseURL string
	client  *http.Client
}

// NewWebSearchClient creates a client for the given API base URL.
func NewWebSearchClient(baseURL string, timeout time.Duration) *WebSearchClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebSearchClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type instantAnswer struct {
	AbstractText  string `json:"AbstractText"`
	Answer        string `json:"Answer"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

// Search runs the query and summarizes the instant answer.
func (c *WebSearchClient) Search(ctx context.Context, query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	reqURL := strings.TrimRight(c.baseURL, "/") + "/?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Sprintf("Web search error: %v. For financial market data, please refer to official financial news sources.", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "Web search timed out. Please try again or rephrase your query."
		}
		return fmt.Sprintf("Web search error: %v. For financial market data, please refer to official financial news sources.", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Unable to fetch web results at this time. Status code: %d", resp.StatusCode)
	}

	var data instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return fmt.Sprintf("Web search error: %v. For financial market data, please refer to official financial news sources.", err)
	}

	var parts []string
	if data.AbstractText != "" {
		parts = append(parts, "Summary: "+data.AbstractText)
	}
	if data.Answer != "" {
		parts = append(parts, "Answer: "+data.Answer)
	}
	var topics []string
	for _, topic := range data.RelatedTopics {
		if topic.Text != "" {
			topics = append(topics, utils.Truncate(topic.Text, maxTopicLen))
		}
		if len(topics) == 3 {
			break
		}
	}
	if len(topics) > 0 {
		parts = append(parts, "Related: "+strings.Join(topics, " | "))
	}

	if len(parts) == 0 {
		return fmt.Sprintf("Search completed but no detailed results found for: %s. For real-time market data, please check financial websites like Yahoo Finance or Bloomberg.", query)
	}
	return strings.Join(parts, "\n\n")
}

// GetMarketData is a placeholder until a live market-data integration exists.
func GetMarketData(symbol string) string {
	return fmt.Sprintf(`Market data retrieval for %s:

Note: This is a demo environment. For real-time market data, please:
1. Visit financial websites like Yahoo Finance, Bloomberg, or MarketWatch
2. Use your brokerage platform's market data tools
3. Check cryptocurrency exchanges for crypto prices

To enable live market data in this chatbot, configure a financial data API key in the settings.`, symbol)
}

// WebSearchTool wraps the client as a registrable agent tool.
func WebSearchTool(c *WebSearchClient) *Tool {
	return &Tool{
		Name:        "search_web",
		Description: "Search the web for external information like current market data, news, or information not available in the internal knowledge base. Use this for real-time data or general information.",
		Func: func(ctx context.Context, params map[string]any) (string, error) {
			query, err := stringParam(params, "query")
			if err != nil {
				return "", err
			}
			return c.Search(ctx, query), nil
		},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query",
				},
			},
			"required": []string{"query"},
		},
	}
}

// MarketDataTool wraps GetMarketData as a registrable agent tool.
func MarketDataTool() *Tool {
	return &Tool{
		Name:        "get_market_data",
		Description: "Get market data for a stock or crypto symbol.",
		Func: func(ctx context.Context, params map[string]any) (string, error) {
			symbol, err := stringParam(params, "symbol")
			if err != nil {
				return "", err
			}
			return GetMarketData(symbol), nil
		},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"symbol": map[string]any{
					"type":        "string",
					"description": "The stock or crypto symbol",
				},
			},
			"required": []string{"symbol"},
		},
	}
}
