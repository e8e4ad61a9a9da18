// Package convo tracks conversation history for one session so follow-up
// queries ("what about its price?") can be resolved against earlier turns.
package convo

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "wholesale-agent/agent/contract"
)

const (
	DefaultMaxTurns   = 10
	maxRecentProducts = 5
	summaryTurns      = 3
)

// Context accumulates turns and derived tracking state for one conversation.
// It is not safe for concurrent use; each conversation owns its own Context.
type Context struct {
	maxTurns    int
	history     []contractx.ConversationTurn
	turnCounter int

	recentProducts []string
	lastActionType contractx.ActionType
	lastEntities   map[string]string

	now func() time.Time
}

func New(maxTurns int) *Context {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Context{
		maxTurns: maxTurns,
		now:      time.Now,
	}
}

// RecordTurn appends one completed exchange, evicting the oldest turn past
// capacity, and updates the derived tracking state. It never fails: payloads
// it cannot interpret are skipped with a debug log.
func (c *Context) RecordTurn(query string, intent contractx.Intent, result contractx.ActionResult, response string) {
	c.turnCounter++
	c.history = append(c.history, contractx.ConversationTurn{
		ID:        c.turnCounter,
		Timestamp: c.now(),
		Query:     query,
		Intent:    intent,
		Result:    result,
		Response:  response,
	})
	if len(c.history) > c.maxTurns {
		c.history = c.history[1:]
	}

	c.trackTurn(intent, result)
	log.Debug().Int("turn", c.turnCounter).Msg("recorded conversation turn")
}

func (c *Context) trackTurn(intent contractx.Intent, result contractx.ActionResult) {
	c.lastActionType = result.ActionType
	c.lastEntities = intent.Entities

	// A name becomes "recently confirmed" only when the paired result
	// succeeded and actually carried product rows. Misspelled or unresolved
	// references must not poison later disambiguation.
	if !result.Success || result.Data == nil {
		return
	}

	if name := intent.Slot(contractx.SlotProduct); name != "" {
		if rows, ok := result.Data.([]contractx.ProductRecord); ok && len(rows) > 0 {
			c.rememberProduct(name)
		}
	}
	c.trackPayloadNames(result.Data)
}

// trackPayloadNames lifts confirmed product names out of a result payload.
// Payload shapes vary per handler; anything unrecognized is ignored.
func (c *Context) trackPayloadNames(data any) {
	defer func() {
		if r := recover(); r != nil {
			log.Debug().Interface("panic", r).Msg("skipped malformed action payload")
		}
	}()

	switch v := data.(type) {
	case []contractx.ProductRecord:
		for i, rec := range v {
			if i >= 3 {
				break
			}
			c.rememberProduct(rec.Name)
		}
	case contractx.ProductRecord:
		c.rememberProduct(v.Name)
	case contractx.MutationReceipt:
		c.rememberProduct(v.Name)
	case map[string]any:
		if name, ok := v["name"].(string); ok {
			c.rememberProduct(name)
		}
	}
}

func (c *Context) rememberProduct(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	for _, existing := range c.recentProducts {
		if strings.EqualFold(existing, name) {
			return
		}
	}
	c.recentProducts = append(c.recentProducts, name)
	if len(c.recentProducts) > maxRecentProducts {
		c.recentProducts = c.recentProducts[1:]
	}
}

// SnapshotFor returns the context relevant to one incoming query: copies of
// the tracked state plus reference cues detected in the query text.
func (c *Context) SnapshotFor(query string) contractx.ContextSnapshot {
	snap := contractx.ContextSnapshot{
		HasHistory:     len(c.history) > 0,
		RecentProducts: append([]string(nil), c.recentProducts...),
		LastActionType: c.lastActionType,
		Summary:        c.summary(),
	}
	if len(c.lastEntities) > 0 {
		snap.LastEntities = make(map[string]string, len(c.lastEntities))
		for k, v := range c.lastEntities {
			snap.LastEntities[k] = v
		}
	}
	detectReferences(query, &snap)
	return snap
}

var (
	contextualWords = []string{
		"it", "that", "those", "them", "this", "these",
		"same", "also", "too", "again", "more",
		"what about", "how about", "also check",
		"then", "after that", "afterwards",
	}
	followUpPhrases = []string{
		"what about", "how about", "and the", "also",
		"now show", "then", "after", "next",
		"what is", "how much", "check the",
	}
	productReferences = []string{"that product", "this product", "it", "that item"}
	actionReferences  = []string{"again", "same", "also", "more"}
)

func detectReferences(query string, snap *contractx.ContextSnapshot) {
	lowered := strings.ToLower(strings.TrimSpace(query))
	snap.RefersToPrevious = containsWord(lowered, contextualWords)
	snap.IsFollowUp = containsAny(lowered, followUpPhrases)
	snap.RefersToProduct = containsWord(lowered, productReferences)
	snap.RefersToSameAction = containsWord(lowered, actionReferences)
}

// containsWord matches single words on boundaries and multi-word cues as
// substrings, so "item" does not fire the "it" cue.
func containsWord(text string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(cue, " ") {
			if strings.Contains(text, cue) {
				return true
			}
			continue
		}
		for _, field := range strings.FieldsFunc(text, func(r rune) bool {
			return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r == '\'')
		}) {
			if field == cue {
				return true
			}
		}
	}
	return false
}

func containsAny(text string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}

func (c *Context) summary() string {
	if len(c.history) == 0 {
		return "No previous conversation"
	}

	start := len(c.history) - summaryTurns
	if start < 0 {
		start = 0
	}

	parts := make([]string, 0, summaryTurns)
	for _, turn := range c.history[start:] {
		parts = append(parts, summarizeTurn(turn))
	}
	return strings.Join(parts, "; ")
}

func summarizeTurn(turn contractx.ConversationTurn) string {
	entities := turn.Intent.Entities
	switch turn.Intent.Type {
	case contractx.IntentInventoryManagement:
		action := orDefault(entities[contractx.SlotAction], "action")
		product := orDefault(entities[contractx.SlotProduct], "product")
		quantity := orDefault(entities[contractx.SlotQuantity], "some")
		return fmt.Sprintf("User performed %s operation on %s (%s units)", action, product, quantity)
	case contractx.IntentInventoryQuery:
		return fmt.Sprintf("User queried inventory for %s", orDefault(entities[contractx.SlotProduct], "products"))
	case contractx.IntentProductSearch:
		return fmt.Sprintf("User searched for %s", orDefault(entities[contractx.SlotProduct], "products"))
	default:
		return fmt.Sprintf("User made %s query", turn.Intent.Type)
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// History returns the retained turns, oldest first.
func (c *Context) History() []contractx.ConversationTurn {
	return append([]contractx.ConversationTurn(nil), c.history...)
}

// Clear resets the conversation. The turn counter restarts too.
func (c *Context) Clear() {
	c.history = nil
	c.recentProducts = nil
	c.lastActionType = ""
	c.lastEntities = nil
	c.turnCounter = 0
	log.Debug().Msg("conversation context cleared")
}

// Stats reports counters for the shell's /status command.
type Stats struct {
	RetainedTurns  int
	TotalTurns     int
	RecentProducts int
	LastActionType contractx.ActionType
}

func (c *Context) Stats() Stats {
	return Stats{
		RetainedTurns:  len(c.history),
		TotalTurns:     c.turnCounter,
		RecentProducts: len(c.recentProducts),
		LastActionType: c.lastActionType,
	}
}
