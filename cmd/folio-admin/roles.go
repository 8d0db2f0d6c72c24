package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/service"
)

const defaultRoleTimeout = 2 * time.Minute

var errNoEmails = errors.New("at least one email is required")

type roleOptions struct {
	Role    domainauth.Role
	Emails  []string
	Timeout time.Duration
}

func runSetAdmin(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("set-admin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	timeout := fs.Duration("timeout", defaultRoleTimeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	return assignRoles(cmdCtx, roleOptions{Role: domainauth.RoleAdmin, Emails: fs.Args(), Timeout: *timeout})
}

func runSetRole(cmdCtx *commandContext, args []string) error {
	opts, err := parseSetRoleFlags(args)
	if err != nil {
		return err
	}
	return assignRoles(cmdCtx, opts)
}

func parseSetRoleFlags(args []string) (roleOptions, error) {
	fs := flag.NewFlagSet("set-role", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	roleName := fs.String("role", "", "role to assign: free, pro or admin")
	timeout := fs.Duration("timeout", defaultRoleTimeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return roleOptions{}, fmt.Errorf("%w: %w", errUsage, err)
	}
	if *roleName == "" {
		return roleOptions{}, fmt.Errorf("%w: --role is required", errUsage)
	}
	role, err := domainauth.ParseRole(*roleName)
	if err != nil || role == domainauth.RoleNone {
		return roleOptions{}, fmt.Errorf("%w: --role must be free, pro or admin", errUsage)
	}
	return roleOptions{Role: role, Emails: fs.Args(), Timeout: *timeout}, nil
}

// assignRoles validates every email before touching configuration or storage.
func assignRoles(cmdCtx *commandContext, opts roleOptions) error {
	if len(opts.Emails) == 0 {
		return errNoEmails
	}
	for _, email := range opts.Emails {
		if _, err := domainauth.NormalizeEmail(email); err != nil {
			return err
		}
	}

	cfg, err := cmdCtx.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	inf, err := cmdCtx.openInfra(ctx, cmdCtx, &cfg)
	if err != nil {
		return err
	}
	defer inf.Close()

	results, err := inf.Admin.SetRoles(ctx, opts.Role, opts.Emails)
	if err != nil {
		return err
	}
	return printAssignments(cmdCtx.Stdout, results)
}

func printAssignments(w io.Writer, results []service.RoleAssignment) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "EMAIL\tROLE\tSTATUS\tDETAIL\n"); err != nil {
		return err
	}
	for _, r := range results {
		detail := r.IdentityID
		if r.Err != nil {
			detail = r.Err.Error()
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\n", r.Email, r.Role, r.Status, detail); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	counts := service.CountAssignments(results)
	return writef(w, "\n%d applied, %d unknown, %d failed\n",
		counts[service.AssignmentApplied],
		counts[service.AssignmentUnknownUser],
		counts[service.AssignmentFailed])
}
