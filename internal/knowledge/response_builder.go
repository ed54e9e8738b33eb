package knowledge

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultTokenLimit is the token budget for agent-mode responses
const DefaultTokenLimit = 500

// agentDescriptionLimit caps the description carried in agent entries
const agentDescriptionLimit = 240

// AgentEntry is the concise, agent-facing form of a technique
type AgentEntry struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name,omitempty"`
	Tactics []string `json:"tactics,omitempty"`
	Summary string   `json:"summary,omitempty"`
}

// AgentResponse holds search results sized for agent consumption
type AgentResponse struct {
	MatchCount        int            `json:"match_count"`
	Included          int            `json:"included"`
	TokenCount        int            `json:"token_count,omitempty"`
	TokenLimitReached bool           `json:"token_limit_reached,omitempty"`
	Techniques        []AgentEntry   `json:"techniques,omitempty"`
	Detailed          []ResultRecord `json:"detailed,omitempty"`
}

// BuildAgentResponse builds a token-limited response. Entries are added in
// result order until the next one would exceed tokenLimit; the first entry is
// always included.
func BuildAgentResponse(results []ResultRecord, limit, tokenLimit int, logger *zap.Logger) AgentResponse {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokenLimit <= 0 {
		tokenLimit = DefaultTokenLimit
	}

	counter, err := NewTokenCounter()
	if err != nil {
		logger.Warn("token counter initialization failed, using approximation", zap.Error(err))
	}

	resp := AgentResponse{
		MatchCount: len(results),
		Techniques: make([]AgentEntry, 0, len(results)),
	}

	total := 0
	for i, r := range results {
		if limit > 0 && i >= limit {
			break
		}

		entry := AgentEntry{
			ID:      r.ID,
			Name:    r.Name,
			Tactics: r.Tactics,
			Summary: summarize(r.Description, agentDescriptionLimit),
		}
		tokens := counter.CountJSON(entry)

		if len(resp.Techniques) > 0 && total+tokens > tokenLimit {
			resp.TokenLimitReached = true
			break
		}

		resp.Techniques = append(resp.Techniques, entry)
		total += tokens

		if len(resp.Techniques) == 1 && total > tokenLimit {
			resp.TokenLimitReached = true
			break
		}
	}

	resp.Included = len(resp.Techniques)
	resp.TokenCount = total
	return resp
}

// BuildVerboseResponse builds a full response for human consumption
func BuildVerboseResponse(results []ResultRecord, limit int) AgentResponse {
	matched := len(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	detailed := make([]ResultRecord, len(results))
	copy(detailed, results)

	return AgentResponse{
		MatchCount: matched,
		Included:   len(detailed),
		Detailed:   detailed,
	}
}

// summarize shortens a description to its first paragraph, cut at max bytes
// on a word boundary
func summarize(desc string, max int) string {
	desc = strings.TrimSpace(desc)
	if i := strings.Index(desc, "\n\n"); i >= 0 {
		desc = desc[:i]
	}
	if len(desc) <= max {
		return desc
	}
	end := max
	for end > 0 && !utf8.RuneStart(desc[end]) {
		end--
	}
	cut := desc[:end]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
