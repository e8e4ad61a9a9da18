// Package respond turns structured ActionResults into user-facing text. The
// model gateway does the phrasing; a deterministic renderer guarantees an
// answer when the gateway is down or returns nothing usable.
package respond

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "wholesale-agent/agent/contract"
	promptx "wholesale-agent/agent/prompt"
)

// payloadByteLimit caps how much serialized result data goes into the
// formatting prompt.
const payloadByteLimit = 6000

// Synthesizer formats results through the model gateway.
type Synthesizer struct {
	gen    contractx.Generator
	system string
}

var _ contractx.Synthesizer = (*Synthesizer)(nil)

func NewSynthesizer(gen contractx.Generator) *Synthesizer {
	return &Synthesizer{
		gen:    gen,
		system: promptx.LoadPromptSet().RespondSystem,
	}
}

// Format always returns non-empty text. Clarifications and failures render
// deterministically; successful results go through the model, falling back to
// the deterministic renderer on gateway failure.
func (s *Synthesizer) Format(ctx context.Context, query string, result contractx.ActionResult, snap contractx.ContextSnapshot) string {
	if result.ActionType == contractx.ActionClarification {
		if result.Message != "" {
			return result.Message
		}
		return "Could you please provide more details?"
	}

	if !result.Success {
		return renderFailure(result)
	}

	text, err := s.gen.Generate(ctx, buildFormatPrompt(query, result, snap), s.system)
	if err != nil {
		log.Warn().Err(err).Str("action", string(result.ActionType)).Msg("response formatting: model invoke failed, using fallback")
		return RenderFallback(result)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return RenderFallback(result)
	}
	return text
}

func buildFormatPrompt(query string, result contractx.ActionResult, snap contractx.ContextSnapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "User asked: %q\n", query)
	fmt.Fprintf(&b, "Operation performed: %s\n", result.ActionType)
	if result.Message != "" {
		fmt.Fprintf(&b, "Operation summary: %s\n", result.Message)
	}

	if result.Data != nil {
		payload, err := json.MarshalIndent(result.Data, "", "  ")
		if err == nil {
			if len(payload) > payloadByteLimit {
				payload = payload[:payloadByteLimit]
			}
			b.WriteString("\nData:\n")
			b.Write(payload)
			b.WriteString("\n")
		}
	}

	if snap.HasHistory && (snap.IsFollowUp || snap.RefersToPrevious) {
		b.WriteString("\nThis is a follow-up question in an ongoing conversation.")
		if len(snap.RecentProducts) > 0 {
			fmt.Fprintf(&b, " Recently discussed products: %s.", strings.Join(snap.RecentProducts, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\nPresent this information as a clear, conversational answer to the user's question.\n")
	return b.String()
}
