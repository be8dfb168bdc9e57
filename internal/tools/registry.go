package tools

import (
	"github.com/fintechco/supportbot/internal/knowledge"
)

// NewDefaultRegistry registers the full tool set exposed to the agent.
func NewDefaultRegistry(kb *knowledge.Manager, web *WebSearchClient) *Registry {
	r := NewRegistry()
	r.Register(KnowledgeBaseTool(kb))
	r.Register(WebSearchTool(web))
	r.Register(MarketDataTool())
	r.Register(CompoundInterestTool())
	r.Register(InvestmentReturnsTool())
	r.Register(CalculatorTool())
	return r
}
