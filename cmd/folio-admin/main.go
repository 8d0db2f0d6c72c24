// Command folio-admin assigns roles to existing accounts and runs migrations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/boycepro/folio/config"
	"github.com/boycepro/folio/internal/bootstrap"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Stdout io.Writer
	Stderr io.Writer

	loadConfig func() (config.AppConfig, error)
	openInfra  func(ctx context.Context, cmdCtx *commandContext, cfg *config.AppConfig) (*infra, error)
}

// errUsage marks failures caused by how the command was invoked.
var errUsage = errors.New("usage")

func main() {
	logger := bootstrap.InitLogger()
	cmdCtx := &commandContext{
		Ctx:        context.Background(),
		Logger:     logger,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		loadConfig: bootstrap.LoadConfig,
		openInfra:  connectInfra,
	}
	os.Exit(run(cmdCtx, os.Args[1:])) //nolint:forbidigo // CLI exit status is part of its contract
}

// run executes one command and returns the process exit code.
func run(cmdCtx *commandContext, args []string) int {
	if len(args) == 0 {
		printUsage(cmdCtx.Stderr)
		return exitUsage
	}

	cmdName := args[0]
	cmd, ok := commands()[cmdName]
	if !ok {
		_ = writef(cmdCtx.Stderr, "unknown command %q\n\n", cmdName)
		printUsage(cmdCtx.Stderr)
		return exitUsage
	}

	if err := cmd.run(cmdCtx, args[1:]); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			_ = writef(cmdCtx.Stderr, "%v\n", err)
			return exitUsage
		}
		cmdCtx.Logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", err)
		return exitError
	}
	return exitOK
}

func commands() map[string]command {
	return map[string]command{
		"set-admin": {
			name:        "set-admin",
			description: "Grant the admin role to one or more existing accounts",
			run:         runSetAdmin,
		},
		"set-role": {
			name:        "set-role",
			description: "Assign a role (free, pro, admin) to existing accounts: set-role --role pro <email>...",
			run:         runSetRole,
		},
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrations,
		},
		"db-seed": {
			name:        "db-seed",
			description: "Run migrations and seed development accounts and page text (DEV=true only)",
			run:         runDBSeed,
		},
	}
}

func printUsage(w io.Writer) {
	_ = writef(w, "Usage: folio-admin <command> [flags]\n\n")
	_ = writef(w, "Available commands:\n")
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_ = writef(w, "  %-12s %s\n", name, cmds[name].description)
	}
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
