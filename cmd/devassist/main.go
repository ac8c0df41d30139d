package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mwillems/devassist/agent"
	"github.com/mwillems/devassist/config"
	"github.com/mwillems/devassist/llm"
	"github.com/mwillems/devassist/server"
	"github.com/mwillems/devassist/session"
	"github.com/mwillems/devassist/tools"
)

const version = "0.1.0"

func main() {
	serveFlag := flag.Bool("serve", false, "Run the HTTP API instead of a one-shot task")
	addrFlag := flag.String("addr", "", "Listen address for -serve (overrides config)")
	versionFlag := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("devassist version %s\n", version)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %+v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg)

	client, err := newLLMClient(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing LLM client: %+v\n", err)
		os.Exit(1)
	}

	registry, err := tools.NewRegistry(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing tool registry: %+v\n", err)
		os.Exit(1)
	}
	defer registry.Close()

	a := agent.New(cfg, client, registry)

	if *serveFlag {
		addr := cfg.Server.Addr
		if *addrFlag != "" {
			addr = *addrFlag
		}
		srv := &http.Server{
			Addr:         addr,
			Handler:      server.New(a),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Minute,
		}
		log.Info().Str("addr", addr).Msg("serving task API")
		if err := srv.ListenAndServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Server stopped with an error: %+v\n", err)
			os.Exit(1)
		}
		return
	}

	description := strings.Join(flag.Args(), " ")
	if description == "" {
		fmt.Fprintln(os.Stderr, "Usage: devassist [flags] <task description>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	resp, err := a.ProcessTask(context.Background(), session.Task{Description: description})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Task failed: %+v\n", err)
		os.Exit(1)
	}

	fmt.Println(resp.Message)
	if len(resp.ActionsTaken) > 0 {
		fmt.Println("\nActions taken:")
		for _, action := range resp.ActionsTaken {
			fmt.Printf("- %s\n", action)
		}
	}
	if len(resp.NextSteps) > 0 {
		fmt.Println("\nSuggested next steps:")
		for _, step := range resp.NextSteps {
			fmt.Printf("- %s\n", step)
		}
	}
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Logging.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log.Logger = log.Output(os.Stderr)
	}
}

// newLLMClient selects the completion backend from configuration. With no
// backend configured the mock client is used, which answers every task by
// noting that no backend is available.
func newLLMClient(cfg *config.Config) (llm.Client, error) {
	ctx := context.Background()
	switch cfg.LLMClient {
	case "anthropic":
		return llm.NewAnthropicClient(ctx, cfg.Model)
	case "openai":
		return llm.NewOpenAIClient(ctx, cfg.Model)
	case "gemini":
		return llm.NewGeminiClient(ctx, cfg.Model)
	case "bedrock":
		return llm.NewBedrockClient(ctx, cfg.Model)
	default:
		return &llm.MockClient{Replies: []string{">>final\nNo LLM backend is configured; set 'llm' in config.yaml."}}, nil
	}
}
