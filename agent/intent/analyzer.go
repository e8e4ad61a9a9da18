// Package intent turns raw queries into typed Intents. The primary source
// delegates classification to the language model so free-form references can
// be resolved against an explicit context block; a rule-based source offers
// the same contract without a model dependency.
package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "wholesale-agent/agent/contract"
	promptx "wholesale-agent/agent/prompt"
)

// Analyzer classifies queries through the model gateway.
type Analyzer struct {
	gen    contractx.Generator
	system string
}

var _ contractx.IntentSource = (*Analyzer)(nil)

func NewAnalyzer(gen contractx.Generator) *Analyzer {
	return &Analyzer{
		gen:    gen,
		system: promptx.LoadPromptSet().IntentSystem,
	}
}

// Analyze never returns an error: gateway failures and malformed model output
// both degrade to a low-confidence clarification-seeking Intent.
func (a *Analyzer) Analyze(ctx context.Context, query string, snap contractx.ContextSnapshot) contractx.Intent {
	raw, err := a.gen.Generate(ctx, buildIntentPrompt(query, snap), a.system)
	if err != nil {
		log.Error().Err(err).Msg("intent analysis: model invoke failed")
		return DegradedIntent(query)
	}

	result, err := DecodeIntent(raw, query)
	if err != nil {
		log.Error().Err(err).Msg("intent analysis: unparseable model response")
		log.Debug().Str("raw", raw).Msg("raw model response")
		return DegradedIntent(query)
	}
	return result
}

func buildIntentPrompt(query string, snap contractx.ContextSnapshot) string {
	var b strings.Builder

	b.WriteString("Available intents:\n")
	for _, t := range contractx.IntentOrder {
		fmt.Fprintf(&b, "- %s: %s\n", t, contractx.IntentCatalogue[t])
	}

	fmt.Fprintf(&b, "\nUser Query: %q\n", query)

	if snap.HasHistory {
		writeContextBlock(&b, snap)
	}

	b.WriteString("\nAnalyze this query and respond with the JSON format specified in the system prompt.\n")
	b.WriteString("\nCONTEXT HANDLING:\n")
	b.WriteString("- If the query references \"it\", \"that\", or \"them\" and recent products are available, use the most recent product\n")
	b.WriteString("- If this appears to be a follow-up question, consider the previous context\n")
	b.WriteString("- For vague references like \"check that\" or \"what about it\", infer from recent products and actions\n")

	return b.String()
}

func writeContextBlock(b *strings.Builder, snap contractx.ContextSnapshot) {
	var parts []string
	if len(snap.RecentProducts) > 0 {
		parts = append(parts, "Recently mentioned products: "+strings.Join(snap.RecentProducts, ", "))
	}
	if snap.LastActionType != "" {
		parts = append(parts, "Last action performed: "+string(snap.LastActionType))
	}
	if snap.Summary != "" {
		parts = append(parts, "Recent context: "+snap.Summary)
	}
	if snap.RefersToPrevious || snap.IsFollowUp {
		parts = append(parts, "Note: this query appears to reference the previous conversation")
	}
	if len(parts) == 0 {
		return
	}

	b.WriteString("\nConversation Context:\n")
	for _, part := range parts {
		b.WriteString("- " + part + "\n")
	}
}
