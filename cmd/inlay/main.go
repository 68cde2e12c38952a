// Package main is the entry point for the inlay demo editor.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ckessler/inlay/internal/ai"
	"github.com/ckessler/inlay/internal/app"
	"github.com/ckessler/inlay/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts, oneshot := parseFlags()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if oneshot {
		go cancelOnSignal(cancel)
		return runOneshot(ctx, opts)
	}

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		application.Stop()
	}()

	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func cancelOnSignal(cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
	cancel()
}

// runOneshot prints a single completion to stdout, skipping the editor
// entirely.
func runOneshot(ctx context.Context, opts app.Options) int {
	path := opts.ConfigPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.Provider != "" {
		cfg.Provider = opts.Provider
	}
	if opts.Prompt == "" {
		fmt.Fprintln(os.Stderr, "Error: -oneshot requires -prompt")
		return 1
	}

	provider, err := app.NewProvider(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	s, err := provider.Stream(ctx, ai.Request{
		Prompt:    opts.Prompt,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	text, err := ai.Collect(ctx, s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Println(text)
	return 0
}

func parseFlags() (app.Options, bool) {
	var opts app.Options
	var showVersion, oneshot bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.Provider, "provider", "", "Generation backend (anthropic, openai, gemini, scripted)")
	flag.StringVar(&opts.Provider, "p", "", "Generation backend (shorthand)")
	flag.StringVar(&opts.Prompt, "prompt", "", "Instruction sent on each generation trigger")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&oneshot, "oneshot", false, "Print one completion for -prompt and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Inlay - inline AI assist demo\n\n")
		fmt.Fprintf(os.Stderr, "Usage: inlay [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys:\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+G   generate and insert at the cursor\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+R   rewrite the current line (Tab/Enter keeps, Esc undoes)\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+Z   undo the last commit\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+C   quit\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  inlay                       Open with empty buffer, offline backend\n")
		fmt.Fprintf(os.Stderr, "  inlay -p anthropic notes.md Stream real completions into a file\n")
		fmt.Fprintf(os.Stderr, "  inlay -oneshot -prompt hi   Print one completion and exit\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("Inlay %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		os.Exit(0)
	}

	if args := flag.Args(); len(args) > 0 {
		opts.File = args[0]
	}
	return opts, oneshot
}
