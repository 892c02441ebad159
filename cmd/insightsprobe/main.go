package main

// Send the insights prompt for one industry and print the decoded payload:
//   go run ./cmd/insightsprobe -industry tech-software
// Decode a saved response without calling the model:
//   go run ./cmd/insightsprobe -raw response.txt

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"careercoach-backend/internal/bootstrap"
	"careercoach-backend/internal/insights"
	"careercoach-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	industry := flag.String("industry", "", "Industry to generate insights for")
	rawPath := flag.String("raw", "", "Path to a saved model response to decode instead of calling the model")
	outPath := flag.String("out", "", "Path to write the decoded JSON (optional)")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider (gemini or openai)")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	flag.Parse()

	var raw string
	switch {
	case strings.TrimSpace(*rawPath) != "":
		b, err := os.ReadFile(*rawPath)
		if err != nil {
			exitErr(fmt.Sprintf("read raw response: %v", err))
		}
		raw = string(b)
	case strings.TrimSpace(*industry) != "":
		cfg.LLMProvider = *provider
		cfg.LLMModel = *model
		cfg.Env = "production" // fail fast on missing credentials
		client, err := bootstrap.BuildCompleter(cfg)
		if err != nil {
			exitErr(err.Error())
		}
		raw, err = client.Complete(context.Background(), insights.Prompt(*industry))
		if err != nil {
			exitErr(fmt.Sprintf("llm complete: %v", err))
		}
	default:
		exitErr("one of -industry or -raw is required")
	}

	res := insights.Decode(raw)
	if !res.OK() {
		_, _ = fmt.Fprintf(os.Stderr, "raw response:\n%s\n", raw)
		exitErr(fmt.Sprintf("decode failed at %s: %v", res.Err.Stage, res.Err.Err))
	}

	pretty, err := prettyJSON(res.Payload)
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}

	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
}

func prettyJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
