// Package orchestrator runs the full query pipeline: snapshot the
// conversation, classify the query, dispatch the action, synthesize the
// response, record the turn.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "wholesale-agent/agent/contract"
	convox "wholesale-agent/agent/convo"
)

// Agent wires the three pipeline stages over a per-session conversation
// context. All collaborators are injected; Agent owns only the sequencing.
type Agent struct {
	intents    contractx.IntentSource
	dispatcher contractx.Dispatcher
	responder  contractx.Synthesizer
	convo      *convox.Context
}

func New(intents contractx.IntentSource, dispatcher contractx.Dispatcher, responder contractx.Synthesizer, convo *convox.Context) (*Agent, error) {
	if intents == nil {
		return nil, errors.New("intent source is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if responder == nil {
		return nil, errors.New("synthesizer is required")
	}
	if convo == nil {
		convo = convox.New(convox.DefaultMaxTurns)
	}
	return &Agent{
		intents:    intents,
		dispatcher: dispatcher,
		responder:  responder,
		convo:      convo,
	}, nil
}

// ProcessQuery runs one query through the pipeline. It never returns an
// error and never panics: every failure mode surfaces as user-facing text.
func (a *Agent) ProcessQuery(ctx context.Context, query string) (response string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("query", query).Msg("query pipeline recovered")
			response = fmt.Sprintf("I apologize, but I encountered an error processing your request: %v", r)
		}
	}()

	snap := a.convo.SnapshotFor(query)

	intent := a.intents.Analyze(ctx, query, snap)
	log.Debug().
		Str("intent", string(intent.Type)).
		Float64("confidence", intent.Confidence).
		Bool("needs_clarification", intent.NeedsClarification).
		Msg("query classified")

	result := a.dispatcher.Dispatch(ctx, intent)
	if !result.Success {
		log.Warn().
			Str("action", string(result.ActionType)).
			Str("error", result.Error).
			Msg("action failed")
	}

	response = a.responder.Format(ctx, query, result, snap)
	if response == "" {
		response = fmt.Sprintf("The %s operation completed, but I could not produce a summary.", result.ActionType)
	}

	a.convo.RecordTurn(query, intent, result, response)
	return response
}

// ClearConversation drops all recorded history for this session.
func (a *Agent) ClearConversation() {
	a.convo.Clear()
}

// History returns the retained conversation turns, oldest first.
func (a *Agent) History() []contractx.ConversationTurn {
	return a.convo.History()
}

// Stats reports conversation counters for the shell's status display.
func (a *Agent) Stats() convox.Stats {
	return a.convo.Stats()
}
