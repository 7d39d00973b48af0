package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/hpungsan/careerbridge/internal/backend"
	"github.com/hpungsan/careerbridge/internal/config"
	"github.com/hpungsan/careerbridge/internal/credential"
	"github.com/hpungsan/careerbridge/internal/db"
	"github.com/hpungsan/careerbridge/internal/kv"
	"github.com/hpungsan/careerbridge/internal/mcp"
	"github.com/hpungsan/careerbridge/internal/ops"
	"github.com/hpungsan/careerbridge/internal/timefmt"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"login": true, "logout": true, "whoami": true,
	"notifications": true, "points": true, "gate": true,
	"admin": true, "profile": true, "forms": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

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
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
    ___                          ___      _    _
   / __|__ _ _ _ ___ ___ _ _    | _ )_ _ (_)__| |__ _ ___
  | (__/ _' | '_/ -_) -_) '_|   | _ \ '_|| / _' / _' / -_)
   \___\__,_|_| \___\___|_|     |___/_|  |_\__,_\__, \___|
                                                |___/
  Notifications, points and session sync

  Usage: careerbridge <command> [options]
         careerbridge --help

  MCP server mode requires piped input.`)
}

// openEnv loads configuration for baseDir, opens the store and wires the
// components. The returned func releases what was opened.
func openEnv(ctx context.Context, baseDir string) (*ops.Env, func(), error) {
	wd, err := os.Getwd()
	if err != nil {
		wd = baseDir
	}
	cfg, err := config.LoadWithRepo(baseDir, wd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg, err = config.ApplyEnv(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	var (
		store      kv.Store
		closeStore func()
	)
	if cfg.PostgresDSN != "" {
		pg, err := db.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		store, closeStore = pg, func() { _ = pg.Close() }
	} else {
		database, err := db.Init(baseDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		db.ConfigurePool(database, cfg)
		store, closeStore = db.NewStore(database), func() { _ = database.Close() }
	}

	var secrets kv.Store
	if cfg.UseKeyring {
		ring, err := credential.Open(baseDir)
		if err != nil {
			closeStore()
			return nil, nil, fmt.Errorf("failed to open keyring: %w", err)
		}
		secrets = ring
	}

	formatter, err := timefmt.NewFormatter(cfg.Locale, cfg.Timezone)
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("invalid locale settings: %w", err)
	}

	// stdout belongs to JSON output and the MCP transport
	logger := log.New(os.Stderr, "careerbridge: ", log.LstdFlags)

	env := ops.Wire(ops.EnvOptions{
		Config:    cfg,
		Store:     store,
		Secrets:   secrets,
		API:       backend.New(cfg),
		Formatter: formatter,
		Logger:    logger,
	})
	if _, err := env.Session.Restore(ctx); err != nil {
		logger.Printf("restore session: %v", err)
	}
	return env, closeStore, nil
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before opening anything
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if !isCLIMode() && len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'careerbridge --help' for usage.\n")
		os.Exit(1)
	}

	// A missing .env is fine; variables may come from the shell.
	_ = godotenv.Load()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	baseDir := filepath.Join(homeDir, ".careerbridge")

	env, closeEnv, err := openEnv(context.Background(), baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeEnv()

	if isCLIMode() {
		app := newCLIApp(env)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			closeEnv()
			os.Exit(1)
		}
		return
	}

	// MCP server mode (default)
	if err := mcp.Run(env, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		closeEnv()
		os.Exit(1)
	}
}
