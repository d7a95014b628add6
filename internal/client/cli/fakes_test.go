package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/victoryapp/victory/internal/client/services"
	"github.com/victoryapp/victory/internal/client/session"
	"github.com/victoryapp/victory/internal/logging"
)

type fakeAccount struct {
	snap session.Snapshot

	loginID, loginPass string
	loginErr           error

	regUser, regPass, regEmail string
	regDOB                     int64
	regErr                     error

	verifyCode int
	verifyErr  error

	resentTo string

	updateAlias bool
	updateValue string
	updateCode  int

	recallErr error
	logoutErr error
	loggedOut bool
}

func (f *fakeAccount) Recall(context.Context) error {
	return f.recallErr
}
func (f *fakeAccount) Login(_ context.Context, id, pw string) error {
	f.loginID, f.loginPass = id, pw
	if f.loginErr == nil {
		f.snap = session.Snapshot{LoggedIn: true, Alias: id, Pub: "pub-" + id}
	}
	return f.loginErr
}
func (f *fakeAccount) Register(_ context.Context, u, pw, email string, dob int64) error {
	f.regUser, f.regPass, f.regEmail, f.regDOB = u, pw, email, dob
	return f.regErr
}
func (f *fakeAccount) ResendVerification(_ context.Context, email string) error {
	f.resentTo = email
	return nil
}
func (f *fakeAccount) VerifyRegistration(_ context.Context, code int) error {
	f.verifyCode = code
	return f.verifyErr
}
func (f *fakeAccount) RequestUpdate(_ context.Context, isAlias bool, v string) error {
	f.updateAlias, f.updateValue = isAlias, v
	return nil
}
func (f *fakeAccount) VerifyUpdate(_ context.Context, code int) error {
	f.updateCode = code
	return nil
}
func (f *fakeAccount) Logout(context.Context) error {
	f.loggedOut = true
	f.snap = session.Snapshot{}
	return f.logoutErr
}
func (f *fakeAccount) Current() session.Snapshot {
	return f.snap
}

type fakeProfile struct {
	fields  map[string]string
	updated map[string]any
	err     error
}

func (f *fakeProfile) set(field string, v any) error {
	if f.updated == nil {
		f.updated = map[string]any{}
	}
	f.updated[field] = v
	return f.err
}
func (f *fakeProfile) UpdateDisplay(_ context.Context, v string) error {
	return f.set("display", v)
}
func (f *fakeProfile) UpdateBio(_ context.Context, v string) error {
	return f.set("bio", v)
}
func (f *fakeProfile) UpdateAvatar(_ context.Context, v []byte) error {
	return f.set("avatar", v)
}
func (f *fakeProfile) UpdateBanner(_ context.Context, v []byte) error {
	return f.set("banner", v)
}

func (f *fakeProfile) get(field string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.fields[field], nil
}
func (f *fakeProfile) Display(_ context.Context, _ string) (string, error) {
	return f.get("display")
}
func (f *fakeProfile) Bio(_ context.Context, _ string) (string, error) {
	return f.get("bio")
}
func (f *fakeProfile) Avatar(_ context.Context, _ string) (string, error) {
	return f.get("avatar")
}
func (f *fakeProfile) Banner(_ context.Context, _ string) (string, error) {
	return f.get("banner")
}
func (f *fakeProfile) Pub(_ context.Context, _ string) (string, error) {
	return f.get("pub")
}
func (f *fakeProfile) UsernameWithCase(_ context.Context, _ string) (string, error) {
	return f.get("usernameWithCase")
}
func (f *fakeProfile) CreatedAt(context.Context, string) (time.Time, error) {
	return time.Time{}, f.err
}
func (f *fakeProfile) JoinedLabel(_ context.Context, _ string) (string, error) {
	return f.get("joined")
}

type fakeFollow struct {
	followed, unfollowed, repaired string
	following                      bool
	followers, followingN          int
	report                         services.RepairReport
	err                            error
}

func (f *fakeFollow) Follow(_ context.Context, u string) error {
	f.followed = u
	return f.err
}
func (f *fakeFollow) Unfollow(_ context.Context, u string) error {
	f.unfollowed = u
	return f.err
}
func (f *fakeFollow) IsFollowing(context.Context, string) (bool, error) {
	return f.following, f.err
}
func (f *fakeFollow) Followers(context.Context, string) (int, error) {
	return f.followers, f.err
}
func (f *fakeFollow) Following(context.Context, string) (int, error) {
	return f.followingN, f.err
}
func (f *fakeFollow) Repair(_ context.Context, u string) (services.RepairReport, error) {
	f.repaired = u
	return f.report, f.err
}

// capturePrintln collects everything printed through printlnFn.
func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, len(a))
		for i, v := range a {
			parts[i] = strings.TrimSpace(toString(v))
		}
		lines = append(lines, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// stubInputs answers getSimpleText prompts in order and returns password for
// getPassword.
func stubInputs(t *testing.T, password string, answers ...string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if len(answers) == 0 {
			return "", io.EOF
		}
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	getPassword = func(_ io.Writer) ([]byte, error) { return []byte(password), nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

func newTestApp(acc *fakeAccount, prof *fakeProfile, fol *fakeFollow) *App {
	return &App{
		logger:  logging.Nop(),
		account: acc,
		profile: prof,
		follow:  fol,
		reader:  bufio.NewReader(strings.NewReader("")),
		out:     &bytes.Buffer{},
	}
}
