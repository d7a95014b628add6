package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/victoryapp/victory/internal/common"
)

const onlineCheckInterval = 10 * time.Second

func (a *App) getStatus() string {
	s := ""
	if snap := a.account.Current(); snap.LoggedIn {
		s = "@" + snap.Alias + " "
	}
	if mode := a.Mode(); mode != "" {
		s = s + string(mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root recalls the previous session and runs the REPL until the user exits.
func (a *App) Root(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	printlnFn("Welcome to Victory CLI (type 'help' for commands)")

	go a.StartOnlineStatusWatcher(ctx, onlineCheckInterval)

	if err := a.account.Recall(ctx); err != nil {
		if !errors.Is(err, common.ErrSessionRecovery) {
			a.logger.Warn(ctx, "recall", "error", err)
		}
	} else {
		printlnFn("Welcome back, @" + a.account.Current().Alias)
	}

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}

// report prints the outcome of a command. Handlers return their error so
// tests can inspect it; the REPL itself ignores it.
func (a *App) report(ctx context.Context, op string, err error) error {
	if err != nil {
		a.logger.Error(ctx, op+" failed", "error", err)
		printlnFn(op+" failed:", err.Error())
		return err
	}
	return nil
}
