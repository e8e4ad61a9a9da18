package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	convox "wholesale-agent/agent/convo"
	dispatchx "wholesale-agent/agent/dispatch"
	intentx "wholesale-agent/agent/intent"
	orchestratorx "wholesale-agent/agent/orchestrator"
	respondx "wholesale-agent/agent/respond"
	clix "wholesale-agent/cli"
	configx "wholesale-agent/pkg/config"
	llmx "wholesale-agent/pkg/llm"
	_ "wholesale-agent/pkg/logger/autoload"
	ragx "wholesale-agent/rag"
	storex "wholesale-agent/store"

	contractx "wholesale-agent/agent/contract"
)

func main() {
	var (
		setup    = flag.Bool("setup", false, "run migrations and seed demo data, then exit")
		migrate  = flag.Bool("migrate", false, "run migrations, then exit")
		reindex  = flag.Bool("rag", false, "reindex products into the search add-on, then exit")
		query    = flag.String("query", "", "process one query and exit instead of starting the shell")
		useRules = flag.Bool("rules", false, "use the rule-based classifier instead of the model")
	)
	flag.Parse()

	ctx := context.Background()

	storeCfg := configx.MustNew[storex.Config]("DB")
	entityStore := storex.MustNew(ctx, *storeCfg)
	defer entityStore.Close()

	switch {
	case *setup:
		fatalOnErr(entityStore.Migrate(ctx), "migrate")
		fatalOnErr(entityStore.Seed(ctx), "seed")
		fmt.Println("Database migrated and seeded.")
		return
	case *migrate:
		fatalOnErr(entityStore.Migrate(ctx), "migrate")
		fmt.Println("Database migrated.")
		return
	case *reindex:
		ragCfg := configx.MustNew[ragx.Config]("WEAVIATE")
		ragCfg.Enabled = true
		pipeline, err := ragx.New(*ragCfg)
		fatalOnErr(err, "connect to weaviate")
		products, err := entityStore.ListProducts(ctx, 0)
		fatalOnErr(err, "load products")
		fatalOnErr(pipeline.IndexProducts(ctx, products), "index products")
		fmt.Printf("Indexed %d products.\n", len(products))
		return
	}

	agent := buildAgent(entityStore, *useRules)

	if *query != "" {
		fmt.Println(agent.ProcessQuery(ctx, *query))
		return
	}

	var shellOpts []clix.Option
	ragCfg := configx.MustNew[ragx.Config]("WEAVIATE")
	if pipeline, err := ragx.New(*ragCfg); err != nil {
		log.Warn().Err(err).Msg("search add-on unavailable")
	} else if pipeline.Enabled() {
		shellOpts = append(shellOpts, clix.WithSearch(pipeline))
	}

	if err := clix.NewShell(agent, shellOpts...).Run(ctx); err != nil {
		log.Error().Err(err).Msg("shell exited with error")
		os.Exit(1)
	}
}

func buildAgent(entityStore contractx.EntityStore, useRules bool) *orchestratorx.Agent {
	dispatcher, err := dispatchx.New(entityStore)
	fatalOnErr(err, "build dispatcher")

	var intents contractx.IntentSource
	var responder contractx.Synthesizer
	if useRules {
		intents = intentx.NewRuleAnalyzer()
		responder = fallbackSynthesizer{}
	} else {
		llmCfg := configx.MustNew[llmx.Config]("LLM")
		client := llmx.MustNew(*llmCfg)
		intents = intentx.NewAnalyzer(client)
		responder = respondx.NewSynthesizer(client)
	}

	agent, err := orchestratorx.New(intents, dispatcher, responder, convox.New(convox.DefaultMaxTurns))
	fatalOnErr(err, "build agent")
	return agent
}

// fallbackSynthesizer renders results deterministically, for model-free runs.
type fallbackSynthesizer struct{}

func (fallbackSynthesizer) Format(_ context.Context, _ string, result contractx.ActionResult, _ contractx.ContextSnapshot) string {
	if result.ActionType == contractx.ActionClarification {
		return result.Message
	}
	if !result.Success {
		return "Sorry, the operation failed: " + result.Error
	}
	return respondx.RenderFallback(result)
}

func fatalOnErr(err error, what string) {
	if err != nil {
		log.Fatal().Err(err).Msg(what)
	}
}
