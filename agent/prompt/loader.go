package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/intent_system.txt
	intentSystemRaw string

	//go:embed template/respond_system.txt
	respondSystemRaw string
)

// PromptSet holds the loaded system instructions.
type PromptSet struct {
	IntentSystem  string
	RespondSystem string
}

// LoadPromptSet returns trimmed prompt strings. Safe to call concurrently;
// the embed is compile-time and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		IntentSystem:  strings.TrimSpace(intentSystemRaw),
		RespondSystem: strings.TrimSpace(respondSystemRaw),
	}
}
