package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/hpungsan/eblog/internal/config"
	"github.com/hpungsan/eblog/internal/db"
	"github.com/hpungsan/eblog/internal/logger"
	"github.com/hpungsan/eblog/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a short usage note when run interactively without args.
func printBanner() {
	fmt.Println(`
        _     _
   ___ | |__ | | ___   __ _
  / _ \| '_ \| |/ _ \ / _' |
 |  __/| |_) | | (_) | (_| |
  \___||_.__/|_|\___/ \__, |
                      |___/

  Local blog post store

  Usage: eblog <command> [options]
         eblog serve      web UI and JSON API
         eblog mcp        MCP server on stdio
         eblog --help`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, zap.NewNop())
		if err := app.Run(os.Args); err != nil {
			fatal("%v", err)
		}
		return
	}

	dir, err := config.BaseDir()
	if err != nil {
		fatal("%v", err)
	}

	cwd, _ := os.Getwd()
	cfg, err := config.LoadWithRepo(dir, cwd)
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	log, err := logger.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		fatal("failed to create logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		log.Warn("unknown tools in disabled_tools", zap.Strings("tools", unknown))
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		log.Warn("unknown types in disabled_types", zap.Strings("types", unknown))
	}

	database, err := db.Init(dir)
	if err != nil {
		fatal("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	// Piped stdin without a command → MCP server
	args := os.Args
	if len(args) < 2 {
		args = append(args, "mcp")
	}

	app := newCLIApp(database, cfg, log)
	if err := app.Run(args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		database.Close()
		os.Exit(1)
	}
}
