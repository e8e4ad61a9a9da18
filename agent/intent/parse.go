package intent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	contractx "wholesale-agent/agent/contract"
)

// Model output is free text with no structural guarantee. Every parse path
// here is fallible by construction: callers get a value plus an error and map
// failures to a degraded Intent, never an escaping exception.

var trailingCommaPattern = regexp.MustCompile(`,(\s*[}\]])`)

// ExtractJSON locates the JSON payload inside raw model output. Preference
// order: fenced ```json block, then the whole trimmed text when it is
// brace-delimited, then the span between the first '{' and the last '}'.
func ExtractJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
	}

	if idx := strings.Index(text, "```json"); idx >= 0 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end]), nil
		}
	}

	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		return text, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1], nil
	}

	return "", fmt.Errorf("%w: no JSON object in model response", contractx.ErrSchemaViolation)
}

// rawIntent mirrors the JSON shape the classifier prompt mandates. Entities
// arrive as any because models emit numbers for quantity slots.
type rawIntent struct {
	IntentType            string         `json:"intent_type"`
	Confidence            float64        `json:"confidence"`
	Entities              map[string]any `json:"entities"`
	NeedsClarification    bool           `json:"needs_clarification"`
	ClarificationQuestion string         `json:"clarification_question"`
}

// DecodeIntent parses one model response into an Intent. Unknown intent types
// degrade to the general category with clarification forced on. The returned
// error marks responses that were not parseable at all.
func DecodeIntent(raw, originalQuery string) (contractx.Intent, error) {
	payload, err := ExtractJSON(raw)
	if err != nil {
		return contractx.Intent{}, err
	}
	payload = trailingCommaPattern.ReplaceAllString(payload, "$1")

	var decoded rawIntent
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return contractx.Intent{}, fmt.Errorf("%w: %v", contractx.ErrSchemaViolation, err)
	}

	result := contractx.Intent{
		Type:                  contractx.IntentType(strings.TrimSpace(decoded.IntentType)),
		Confidence:            clamp01(decoded.Confidence),
		Entities:              cleanEntities(decoded.Entities),
		NeedsClarification:    decoded.NeedsClarification,
		ClarificationQuestion: strings.TrimSpace(decoded.ClarificationQuestion),
		RawQuery:              originalQuery,
	}

	if !result.Type.IsValid() {
		result.Type = contractx.IntentGeneral
		result.NeedsClarification = true
		if result.ClarificationQuestion == "" {
			result.ClarificationQuestion = "I'm not sure how to help with that. Could you be more specific about what you're looking for?"
		}
	}

	return result, nil
}

// cleanEntities drops null and empty slot values and stringifies the rest.
func cleanEntities(raw map[string]any) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		if value == nil {
			continue
		}
		var text string
		switch v := value.(type) {
		case string:
			text = strings.TrimSpace(v)
		case float64:
			if v == float64(int64(v)) {
				text = fmt.Sprintf("%d", int64(v))
			} else {
				text = fmt.Sprintf("%g", v)
			}
		case bool:
			text = fmt.Sprintf("%t", v)
		default:
			continue
		}
		if text == "" || strings.EqualFold(text, "null") || strings.EqualFold(text, "none") {
			continue
		}
		out[key] = text
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// DegradedIntent is the uniform fallback when analysis fails entirely.
func DegradedIntent(query string) contractx.Intent {
	return contractx.Intent{
		Type:                  contractx.IntentGeneral,
		Confidence:            0,
		NeedsClarification:    true,
		ClarificationQuestion: "I'm having trouble understanding your request. Could you please rephrase it or provide more specific details?",
		RawQuery:              query,
	}
}
