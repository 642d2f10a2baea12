package cli_test

import (
	"bytes"
	"context"
	"testing"

	"taskdeck/internal/app"
	"taskdeck/internal/cli"
	"taskdeck/internal/commands"
	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
)

func newDispatcher(t *testing.T) (*cli.Dispatcher, *int) {
	t.Helper()
	factoryCalls := 0
	factory := func(ctx context.Context, cfg *config.Config) (*app.App, error) {
		factoryCalls++
		return app.New(cfg, nil), nil
	}
	return cli.NewDispatcher(commands.DefaultRegistry, factory), &factoryCalls
}

func TestUnknownCommandRejected(t *testing.T) {
	d, factoryCalls := newDispatcher(t)
	var out, errOut bytes.Buffer

	code := d.Run(context.Background(), []string{"bogus"}, &out, &errOut)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if errOut.String() != "error: unknown command: bogus\n" {
		t.Errorf("unexpected stderr: %q", errOut.String())
	}
	if *factoryCalls != 0 {
		t.Errorf("factory should not run for unknown commands, ran %d times", *factoryCalls)
	}
}

func TestLeadingFlagRejected(t *testing.T) {
	d, _ := newDispatcher(t)
	var out, errOut bytes.Buffer

	code := d.Run(context.Background(), []string{"--pending"}, &out, &errOut)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if errOut.String() != "error: unknown command: --pending\n" {
		t.Errorf("unexpected stderr: %q", errOut.String())
	}
}

func TestUnknownFlagRejected(t *testing.T) {
	d, _ := newDispatcher(t)
	var out, errOut bytes.Buffer

	code := d.Run(context.Background(), []string{"version", "--config", t.TempDir(), "-bogus"}, &out, &errOut)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if errOut.String() != "error: unknown flag: -bogus\n" {
		t.Errorf("unexpected stderr: %q", errOut.String())
	}
}

func TestAuthGateBlocksWithoutCredentials(t *testing.T) {
	d, factoryCalls := newDispatcher(t)
	var out, errOut bytes.Buffer

	code := d.Run(context.Background(), []string{"list", "--config", t.TempDir()}, &out, &errOut)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if errOut.String() != "error: not logged in (run: taskdeck login)\n" {
		t.Errorf("unexpected stderr: %q", errOut.String())
	}
	if *factoryCalls != 0 {
		t.Errorf("factory should not run behind the auth gate, ran %d times", *factoryCalls)
	}
}

func TestVersionDispatches(t *testing.T) {
	d, _ := newDispatcher(t)
	var out, errOut bytes.Buffer

	code := d.Run(context.Background(), []string{"version", "--config", t.TempDir()}, &out, &errOut)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, errOut.String())
	}
	if out.String() != "taskdeck 0.1.0\n" {
		t.Errorf("unexpected stdout: %q", out.String())
	}
}
