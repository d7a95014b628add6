package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/victoryapp/victory/internal/common"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

const dobLayout = "2006-01-02"

// Register prompts for username, email, date of birth and password and
// creates the account. The backend then mails a verification code.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	dobText, err := getSimpleText(a.reader, "Enter date of birth (YYYY-MM-DD)", a.out)
	if err != nil {
		return err
	}
	dob, err := time.Parse(dobLayout, dobText)
	if err != nil {
		printlnFn("Invalid date:", dobText)
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	err = a.account.Register(ctx, username, string(password), email, dob.UnixMilli())
	if err := a.report(ctx, "register", err); err != nil {
		return err
	}
	printlnFn("Account created. Check your email and run: verify <code>")
	return nil
}

// Login accepts a username or an email address.
func (a *App) Login(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Enter username or email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.report(ctx, "login", a.account.Login(ctx, identifier, string(password))); err != nil {
		return err
	}
	printlnFn("Logged in as @" + a.account.Current().Alias)
	return nil
}

func parseCode(code string) (int, error) {
	n, err := strconv.Atoi(code)
	if err != nil {
		return 0, fmt.Errorf("%w: code must be numeric", common.ErrVerification)
	}
	return n, nil
}

func (a *App) Verify(ctx context.Context, code string) error {
	n, err := parseCode(code)
	if err == nil {
		err = a.account.VerifyRegistration(ctx, n)
	}
	if err := a.report(ctx, "verify", err); err != nil {
		return err
	}
	printlnFn("Verified!")
	return nil
}

func (a *App) Resend(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	if err := a.report(ctx, "resend", a.account.ResendVerification(ctx, email)); err != nil {
		return err
	}
	printlnFn("Verification email sent")
	return nil
}

// Update requests an email or username change; the backend mails a code
// that ConfirmUpdate completes.
func (a *App) Update(ctx context.Context, field, value string) error {
	var isAlias bool
	switch field {
	case "username":
		isAlias = true
	case "email":
	default:
		printlnFn("Usage: update <email|username> <value>")
		return fmt.Errorf("unknown field %q", field)
	}
	if err := a.report(ctx, "update", a.account.RequestUpdate(ctx, isAlias, value)); err != nil {
		return err
	}
	printlnFn("Check your email and run: confirm <code>")
	return nil
}

func (a *App) ConfirmUpdate(ctx context.Context, code string) error {
	n, err := parseCode(code)
	if err == nil {
		err = a.account.VerifyUpdate(ctx, n)
	}
	if err := a.report(ctx, "confirm", err); err != nil {
		return err
	}
	printlnFn("Updated!")
	return nil
}

// Logout leaves the session and forgets the remembered account.
func (a *App) Logout(ctx context.Context) error {
	if err := a.report(ctx, "logout", a.account.Logout(ctx)); err != nil {
		return err
	}
	printlnFn("Logged out")
	return nil
}
