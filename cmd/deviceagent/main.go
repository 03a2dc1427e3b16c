// deviceagent answers questions about a device catalog by routing between a
// knowledge-base retriever and a SQL query tool behind a local model backend.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/comprice/deviceagent/agent"
	"github.com/comprice/deviceagent/chatmodel"
	"github.com/comprice/deviceagent/config"
	"github.com/comprice/deviceagent/embed"
	"github.com/comprice/deviceagent/llmfactory"
	"github.com/comprice/deviceagent/store"
	"github.com/comprice/deviceagent/tools"
	"github.com/comprice/deviceagent/tools/devices"
	"github.com/comprice/deviceagent/tools/knowledge"
	"github.com/comprice/deviceagent/vectorstore"
	"github.com/effective-security/xlog"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

var logger = xlog.NewPackageLogger("github.com/comprice/deviceagent", "main")

// demoQueries run when no queries are given on the command line.
var demoQueries = []string{
	"List all Samsung desktops released after 2021 with more than 8 CPU cores and a price under 1500 USD.",
	"Explain what CPU tier means in this dataset and how it affects performance.",
	"What are the top 3 most affordable laptops with at least 16GB RAM and explain what makes a good CPU for laptops?",
}

func main() {
	cfgFile := flag.String("cfg", "deviceagent.yaml", "configuration file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr))
	if *debug {
		xlog.SetGlobalLogLevel(xlog.DEBUG)
	} else {
		xlog.SetGlobalLogLevel(xlog.INFO)
	}

	if err := run(*cfgFile, flag.Args()); err != nil {
		logger.KV(xlog.ERROR, "err", err.Error())
		os.Exit(1)
	}
}

func run(cfgFile string, queries []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		// missing database or model settings are fatal before any loop starts
		return err
	}

	db, err := sql.Open("pgx", cfg.Database.DataSource())
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := chatmodel.WithChatContext(context.Background(), chatmodel.NewChatContext(""))
	if err := db.PingContext(ctx); err != nil {
		return err
	}

	embedder, err := embed.NewOllama(cfg.Embedding.BaseURL, cfg.Embedding.Model)
	if err != nil {
		return err
	}
	if cfg.Redis != nil {
		options, err := redis.ParseURL(cfg.Redis.Server)
		if err != nil {
			return err
		}
		embedder = embed.NewCached(embedder, redis.NewClient(options), cfg.Redis.Prefix)
	}

	docs := vectorstore.New(db, embedder, cfg.Embedding.Collection).
		WithTopK(cfg.Embedding.TopK)

	kbTool, err := knowledge.New(docs)
	if err != nil {
		return err
	}
	sqlTool, err := devices.New(db)
	if err != nil {
		return err
	}
	registry, err := tools.NewRegistry(kbTool, sqlTool)
	if err != nil {
		return err
	}

	gw, err := llmfactory.New(&cfg.Providers).DefaultGateway()
	if err != nil {
		return err
	}

	loop := agent.New(gw, registry,
		agent.WithMaxTurns(cfg.Agent.MaxTurns),
		agent.WithCallback(agent.NewPackageLoggerCallback(logger)),
		agent.WithStore(store.NewMemoryStore()),
	)

	if len(queries) == 0 {
		queries = demoQueries
	}
	for i, query := range queries {
		logger.KV(xlog.INFO, "query", i+1, "input", query)

		res, err := loop.Run(ctx, query)
		if err != nil {
			return err
		}
		fmt.Printf("Query %d: %s\n%s\n\n", i+1, query, res.Answer)
	}
	return nil
}
