package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. App satisfies it.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Verify(ctx context.Context, code string) error
	Resend(ctx context.Context) error
	Update(ctx context.Context, field, value string) error
	ConfirmUpdate(ctx context.Context, code string) error
	Logout(ctx context.Context) error
	Show(ctx context.Context, username string) error
	Set(ctx context.Context, field, value string) error
	Follow(ctx context.Context, username string) error
	Unfollow(ctx context.Context, username string) error
	Counts(ctx context.Context, username string) error
	Repair(ctx context.Context, username string) error
}

const (
	helpLoggedOut = "Available commands: register, login, verify <code>, resend, show <user>, exit"
	helpLoggedIn  = "Available commands: show [user], set <display|bio|avatar|banner> [value], " +
		"follow <user>, unfollow <user>, counts [user], repair [user], " +
		"update <email|username> <value>, confirm <code>, logout, exit"
)

// runREPL reads commands from scanner and dispatches them to a until EOF,
// "exit" or "quit". Handler errors are reported by the handlers themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("victory %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]
		arg := func(i int) string {
			if i < len(args) {
				return args[i]
			}
			return ""
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "verify":
			if len(args) != 1 {
				printlnFn("Usage: verify <code>")
				continue
			}
			_ = a.Verify(ctx, args[0])

		case "resend":
			_ = a.Resend(ctx)

		case "update":
			if len(args) != 2 {
				printlnFn("Usage: update <email|username> <value>")
				continue
			}
			_ = a.Update(ctx, args[0], args[1])

		case "confirm":
			if len(args) != 1 {
				printlnFn("Usage: confirm <code>")
				continue
			}
			_ = a.ConfirmUpdate(ctx, args[0])

		case "show":
			_ = a.Show(ctx, arg(0))

		case "set":
			if len(args) == 0 {
				printlnFn("Usage: set <display|bio|avatar|banner> [value]")
				continue
			}
			_ = a.Set(ctx, args[0], strings.Join(args[1:], " "))

		case "follow", "unfollow":
			if len(args) != 1 {
				printlnFn("Usage: " + cmd + " <user>")
				continue
			}
			if cmd == "follow" {
				_ = a.Follow(ctx, args[0])
			} else {
				_ = a.Unfollow(ctx, args[0])
			}

		case "counts":
			_ = a.Counts(ctx, arg(0))

		case "repair":
			_ = a.Repair(ctx, arg(0))

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
