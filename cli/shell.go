// Package cli is the interactive terminal front end for the agent.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	orchestratorx "wholesale-agent/agent/orchestrator"
	ragx "wholesale-agent/rag"
)

const historyFileName = ".wholesale-agent-history"

// Shell runs the read-eval loop over one agent session.
type Shell struct {
	agent  *orchestratorx.Agent
	search *ragx.Pipeline
	out    io.Writer
}

type Option func(*Shell)

// WithSearch enables the /search command against the vector-search add-on.
func WithSearch(p *ragx.Pipeline) Option {
	return func(s *Shell) { s.search = p }
}

func NewShell(agent *orchestratorx.Agent, opts ...Option) *Shell {
	s := &Shell{agent: agent, out: os.Stdout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("/help"),
	readline.PcItem("/clear"),
	readline.PcItem("/history"),
	readline.PcItem("/search"),
	readline.PcItem("/status"),
	readline.PcItem("/exit"),
	readline.PcItem("/quit"),
)

// Run blocks until the user exits or input is closed.
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "you> ",
		HistoryFile:     historyFilePath(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(s.out, "Wholesale inventory assistant. Ask about stock, prices, suppliers, or type /help.")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if done := s.handleCommand(ctx, line); done {
				return nil
			}
			continue
		}

		fmt.Fprintln(s.out, s.agent.ProcessQuery(ctx, line))
		fmt.Fprintln(s.out)
	}
}

// handleCommand runs one slash command; true means exit the shell.
func (s *Shell) handleCommand(ctx context.Context, line string) bool {
	command, args, _ := strings.Cut(line, " ")
	switch strings.ToLower(command) {
	case "/exit", "/quit":
		fmt.Fprintln(s.out, "Goodbye.")
		return true
	case "/help":
		s.printHelp()
	case "/clear":
		s.agent.ClearConversation()
		fmt.Fprintln(s.out, "Conversation cleared.")
	case "/history":
		s.printHistory()
	case "/search":
		s.runSearch(ctx, strings.TrimSpace(args))
	case "/status":
		s.printStatus()
	default:
		fmt.Fprintf(s.out, "Unknown command %s. Type /help for available commands.\n", command)
	}
	return false
}

func (s *Shell) runSearch(ctx context.Context, term string) {
	if !s.search.Enabled() {
		fmt.Fprintln(s.out, "Semantic search is not enabled. Set WEAVIATE_ENABLED=true and run with -rag first.")
		return
	}
	if term == "" {
		fmt.Fprintln(s.out, "Usage: /search <term>")
		return
	}

	hits, err := s.search.Search(ctx, term, 10)
	if err != nil {
		fmt.Fprintf(s.out, "Search failed: %v\n", err)
		return
	}
	if len(hits) == 0 {
		fmt.Fprintf(s.out, "No products matched %q.\n", term)
		return
	}
	for _, hit := range hits {
		fmt.Fprintf(s.out, "- %s (SKU %s, %s)\n", hit.Name, hit.SKU, hit.Category)
	}
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `Commands:
  /help     Show this help
  /clear    Clear the conversation context
  /history  Show the retained conversation turns
  /search   Keyword-search the indexed catalog (needs the search add-on)
  /status   Show conversation statistics
  /exit     Leave the shell (also /quit, Ctrl-D)

Everything else is sent to the assistant as a query, for example:
  How much stock of gaming keyboard do we have?
  Add 50 units to laptop stand
  What about its price?`)
}

func (s *Shell) printHistory() {
	turns := s.agent.History()
	if len(turns) == 0 {
		fmt.Fprintln(s.out, "No conversation history yet.")
		return
	}
	for _, turn := range turns {
		fmt.Fprintf(s.out, "[%d] %s\n", turn.ID, turn.Query)
		fmt.Fprintf(s.out, "    -> %s (%s)\n", turn.Intent.Type, turn.Result.ActionType)
	}
}

func (s *Shell) printStatus() {
	stats := s.agent.Stats()
	fmt.Fprintf(s.out, "Turns retained: %d (of %d total)\n", stats.RetainedTurns, stats.TotalTurns)
	fmt.Fprintf(s.out, "Recent products tracked: %d\n", stats.RecentProducts)
	if stats.LastActionType != "" {
		fmt.Fprintf(s.out, "Last action: %s\n", stats.LastActionType)
	}
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFileName
	}
	return filepath.Join(home, historyFileName)
}
