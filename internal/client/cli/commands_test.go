package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victoryapp/victory/internal/client/services"
	"github.com/victoryapp/victory/internal/client/session"
	"github.com/victoryapp/victory/internal/common"
)

func TestRegister_PassesParsedDateOfBirth(t *testing.T) {
	capturePrintln(t)
	stubInputs(t, "hunter22", "alice", "alice@example.com", "1990-05-17")
	acc := &fakeAccount{}
	a := newTestApp(acc, &fakeProfile{}, &fakeFollow{})

	require.NoError(t, a.Register(context.Background()))

	want := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, "alice", acc.regUser)
	assert.Equal(t, "hunter22", acc.regPass)
	assert.Equal(t, "alice@example.com", acc.regEmail)
	assert.Equal(t, want, acc.regDOB)
}

func TestRegister_InvalidDate(t *testing.T) {
	capturePrintln(t)
	stubInputs(t, "pw", "alice", "alice@example.com", "17/05/1990")
	acc := &fakeAccount{}
	a := newTestApp(acc, &fakeProfile{}, &fakeFollow{})

	require.Error(t, a.Register(context.Background()))
	assert.Empty(t, acc.regUser)
}

func TestRegister_ServiceError(t *testing.T) {
	lines := capturePrintln(t)
	stubInputs(t, "pw", "alice", "alice@example.com", "1990-05-17")
	acc := &fakeAccount{regErr: common.ErrUsernameTaken}
	a := newTestApp(acc, &fakeProfile{}, &fakeFollow{})

	err := a.Register(context.Background())
	require.ErrorIs(t, err, common.ErrUsernameTaken)
	assert.Contains(t, *lines, "register failed: "+common.ErrUsernameTaken.Error())
}

func TestLogin(t *testing.T) {
	lines := capturePrintln(t)
	stubInputs(t, "pw", "bob")
	acc := &fakeAccount{}
	a := newTestApp(acc, &fakeProfile{}, &fakeFollow{})

	require.NoError(t, a.Login(context.Background()))
	assert.Equal(t, "bob", acc.loginID)
	assert.Equal(t, "pw", acc.loginPass)
	assert.True(t, a.isLoggedIn())
	assert.Contains(t, *lines, "Logged in as @bob")
}

func TestLogin_Failure(t *testing.T) {
	capturePrintln(t)
	stubInputs(t, "bad", "bob")
	acc := &fakeAccount{loginErr: common.ErrAuthentication}
	a := newTestApp(acc, &fakeProfile{}, &fakeFollow{})

	require.ErrorIs(t, a.Login(context.Background()), common.ErrAuthentication)
	assert.False(t, a.isLoggedIn())
}

func TestVerify(t *testing.T) {
	capturePrintln(t)
	acc := &fakeAccount{}
	a := newTestApp(acc, &fakeProfile{}, &fakeFollow{})

	require.NoError(t, a.Verify(context.Background(), "123456"))
	assert.Equal(t, 123456, acc.verifyCode)

	require.ErrorIs(t, a.Verify(context.Background(), "abc"), common.ErrVerification)
}

func TestResend(t *testing.T) {
	capturePrintln(t)
	stubInputs(t, "", "carol@example.com")
	acc := &fakeAccount{}
	a := newTestApp(acc, &fakeProfile{}, &fakeFollow{})

	require.NoError(t, a.Resend(context.Background()))
	assert.Equal(t, "carol@example.com", acc.resentTo)
}

func TestUpdateAndConfirm(t *testing.T) {
	capturePrintln(t)
	acc := &fakeAccount{}
	a := newTestApp(acc, &fakeProfile{}, &fakeFollow{})
	ctx := context.Background()

	require.NoError(t, a.Update(ctx, "username", "newname"))
	assert.True(t, acc.updateAlias)
	assert.Equal(t, "newname", acc.updateValue)

	require.NoError(t, a.Update(ctx, "email", "n@example.com"))
	assert.False(t, acc.updateAlias)

	require.Error(t, a.Update(ctx, "phone", "1"))

	require.NoError(t, a.ConfirmUpdate(ctx, "42"))
	assert.Equal(t, 42, acc.updateCode)
}

func TestLogout(t *testing.T) {
	capturePrintln(t)
	acc := &fakeAccount{snap: session.Snapshot{LoggedIn: true, Alias: "bob", Pub: "p"}}
	a := newTestApp(acc, &fakeProfile{}, &fakeFollow{})

	require.NoError(t, a.Logout(context.Background()))
	assert.True(t, acc.loggedOut)
	assert.False(t, a.isLoggedIn())
}

func TestShow(t *testing.T) {
	lines := capturePrintln(t)
	acc := &fakeAccount{snap: session.Snapshot{LoggedIn: true, Alias: "bob", Pub: "p"}}
	prof := &fakeProfile{fields: map[string]string{
		"display":          "Alice A.",
		"usernameWithCase": "Alice",
		"bio":              "hello",
		"joined":           "Joined May 2024",
	}}
	a := newTestApp(acc, prof, &fakeFollow{following: true})

	require.NoError(t, a.Show(context.Background(), "alice"))
	assert.Equal(t, []string{
		"Alice A. (@Alice)",
		"hello",
		"Joined May 2024",
		"avatar: none, banner: none",
		"You follow @Alice",
	}, *lines)
}

func TestShow_DefaultsToCurrentUser(t *testing.T) {
	capturePrintln(t)
	a := newTestApp(&fakeAccount{}, &fakeProfile{}, &fakeFollow{})
	require.ErrorIs(t, a.Show(context.Background(), ""), common.ErrNotLoggedIn)
}

func TestSet(t *testing.T) {
	capturePrintln(t)
	origRead := readFile
	t.Cleanup(func() { readFile = origRead })
	readFile = func(name string) ([]byte, error) {
		if name == "me.png" {
			return []byte("png-bytes"), nil
		}
		return nil, errors.New("no such file")
	}

	prof := &fakeProfile{}
	a := newTestApp(&fakeAccount{}, prof, &fakeFollow{})
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "display", "Alice A."))
	require.NoError(t, a.Set(ctx, "bio", "short bio"))
	require.NoError(t, a.Set(ctx, "avatar", "me.png"))
	require.Error(t, a.Set(ctx, "banner", "missing.png"))
	require.Error(t, a.Set(ctx, "age", "3"))

	assert.Equal(t, map[string]any{
		"display": "Alice A.",
		"bio":     "short bio",
		"avatar":  []byte("png-bytes"),
	}, prof.updated)
}

func TestSet_MultilineBio(t *testing.T) {
	capturePrintln(t)
	prof := &fakeProfile{}
	a := newTestApp(&fakeAccount{}, prof, &fakeFollow{})
	a.reader = rdr("line one\nline two\n\n")

	require.NoError(t, a.Set(context.Background(), "bio", ""))
	assert.Equal(t, "line one\nline two", prof.updated["bio"])
}

func TestFollowCommands(t *testing.T) {
	lines := capturePrintln(t)
	acc := &fakeAccount{snap: session.Snapshot{LoggedIn: true, Alias: "bob", Pub: "p"}}
	fol := &fakeFollow{
		followers:  3,
		followingN: 5,
		report:     services.RepairReport{Checked: 2, Added: []string{"carol/followers/bob"}},
	}
	a := newTestApp(acc, &fakeProfile{}, fol)
	ctx := context.Background()

	require.NoError(t, a.Follow(ctx, "carol"))
	require.NoError(t, a.Unfollow(ctx, "dave"))
	require.NoError(t, a.Counts(ctx, ""))
	require.NoError(t, a.Repair(ctx, ""))

	assert.Equal(t, "carol", fol.followed)
	assert.Equal(t, "dave", fol.unfollowed)
	assert.Equal(t, "bob", fol.repaired)
	assert.Contains(t, *lines, "@bob: 3 followers, 5 following")
	assert.Contains(t, *lines, "checked 2 relations, added 1 edges")
	assert.Contains(t, *lines, "+ carol/followers/bob")
}

func TestFollow_Error(t *testing.T) {
	capturePrintln(t)
	fol := &fakeFollow{err: common.ErrNotLoggedIn}
	a := newTestApp(&fakeAccount{}, &fakeProfile{}, fol)
	require.ErrorIs(t, a.Follow(context.Background(), "carol"), common.ErrNotLoggedIn)
}

func TestGetStatus(t *testing.T) {
	acc := &fakeAccount{}
	a := newTestApp(acc, &fakeProfile{}, &fakeFollow{})
	assert.Equal(t, "", a.getStatus())

	a.setMode(context.Background(), ModeOnline)
	assert.Equal(t, "(online)", a.getStatus())

	acc.snap = session.Snapshot{LoggedIn: true, Alias: "bob", Pub: "p"}
	assert.Equal(t, "(@bob online)", a.getStatus())
}
