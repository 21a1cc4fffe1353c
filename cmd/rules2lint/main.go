// rules2lint reads a .cursorrules file of natural-language coding
// rules and generates an eslint.config.mjs enforcing the ones a linter
// can check.
//
// Exit status: 0 when every surviving rule produced its checks, 2 when
// the document was written but some rules failed, 1 on a fatal error
// (no output is written or modified in that case).
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"rules2lint/internal/config"
	"rules2lint/internal/fileio"
	"rules2lint/internal/llm"
	"rules2lint/internal/pipeline"
)

func main() {
	rulesPath := flag.String("rules", ".cursorrules", "path to the rules file")
	outPath := flag.String("out", "", "output path (default: eslint.config.mjs in the rules file's parent directory)")
	cfgPath := flag.String("config", "rules2lint.yaml", "optional YAML config file")
	provider := flag.String("provider", "", "LLM provider: openai, gemini or fake (overrides config)")
	model := flag.String("model", "", "model id (overrides config)")
	workers := flag.Int("workers", 0, "max concurrent extraction calls (overrides config)")
	timeout := flag.Duration("timeout", 0, "overall pipeline timeout (overrides config)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath, *provider)
	if err != nil {
		log.Fatal(err)
	}
	if *model != "" {
		cfg.Model = *model
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *timeout > 0 {
		cfg.PipelineTimeout = *timeout
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	out := *outPath
	if out == "" {
		parent := filepath.Dir(filepath.Dir(absOrDie(*rulesPath)))
		out = filepath.Join(parent, "eslint.config.mjs")
	}
	log.Printf("rules: %s -> %s (provider %s, model %s, %d workers)",
		*rulesPath, out, cfg.Provider, cfg.Model, cfg.Workers)

	if err := fileio.EnsureGitignore(filepath.Dir(absOrDie(*rulesPath))); err != nil {
		log.Printf("warning: %v", err)
	}

	raw, err := fileio.ReadRules(*rulesPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	client, err := newClient(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	start := time.Now()
	result, err := pipeline.New(client, cfg).Run(ctx, raw)
	if err != nil {
		log.Fatal(err)
	}

	if err := fileio.WriteAtomic(out, []byte(result.Document)); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s in %s", out, time.Since(start).Round(time.Millisecond))

	if result.Summary.Partial() {
		os.Exit(2)
	}
}

func newClient(ctx context.Context, cfg config.Config) (llm.Client, error) {
	var base llm.Client
	switch cfg.Provider {
	case "gemini":
		g, err := llm.NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		base = g
	case "fake":
		base = llm.NewFakeClient()
	default:
		base = llm.NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.Temperature)
	}
	return llm.Chain(base,
		llm.Logged(),
		llm.Cached(cfg.CacheSize),
		llm.Retry(3, 300*time.Millisecond),
		llm.RateLimited(cfg.RPS, cfg.Burst),
	), nil
}

func absOrDie(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		log.Fatal(err)
	}
	return abs
}
