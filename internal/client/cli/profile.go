package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/victoryapp/victory/internal/common"
)

// readFile is a test seam for loading avatar and banner images.
var readFile = os.ReadFile

var getMultiline = GetMultiline

// target resolves an optional username argument to the logged-in alias.
func (a *App) target(username string) (string, error) {
	if username != "" {
		return username, nil
	}
	snap := a.account.Current()
	if !snap.LoggedIn {
		printlnFn("Log in or name a user")
		return "", common.ErrNotLoggedIn
	}
	return snap.Alias, nil
}

// Show prints the public profile of username, or of the current user.
func (a *App) Show(ctx context.Context, username string) error {
	username, err := a.target(username)
	if err != nil {
		return err
	}

	name, err := a.profile.UsernameWithCase(ctx, username)
	if err := a.report(ctx, "show", err); err != nil {
		return err
	}
	display, _ := a.profile.Display(ctx, username)
	bio, _ := a.profile.Bio(ctx, username)
	joined, _ := a.profile.JoinedLabel(ctx, username)
	avatar, _ := a.profile.Avatar(ctx, username)
	banner, _ := a.profile.Banner(ctx, username)

	printlnFn(fmt.Sprintf("%s (@%s)", display, name))
	if bio != "" {
		printlnFn(bio)
	}
	if joined != "" {
		printlnFn(joined)
	}
	printlnFn(fmt.Sprintf("avatar: %s, banner: %s", imageLabel(avatar), imageLabel(banner)))

	if snap := a.account.Current(); snap.LoggedIn && snap.Alias != username {
		if following, err := a.follow.IsFollowing(ctx, username); err == nil && following {
			printlnFn("You follow @" + name)
		}
	}
	return nil
}

func imageLabel(dataURL string) string {
	if dataURL == "" {
		return "none"
	}
	return fmt.Sprintf("%d bytes", len(dataURL))
}

// Set edits one field of the logged-in profile. Avatar and banner take a
// path to an image file; bio without a value is read over several lines.
func (a *App) Set(ctx context.Context, field, value string) error {
	var err error
	switch field {
	case "display":
		err = a.profile.UpdateDisplay(ctx, value)
	case "bio":
		if value == "" {
			value, err = getMultiline(a.reader, "Enter bio", a.out)
			if err != nil {
				return err
			}
		}
		err = a.profile.UpdateBio(ctx, value)
	case "avatar", "banner":
		img, rerr := readFile(value)
		if rerr != nil {
			return a.report(ctx, "set "+field, rerr)
		}
		if field == "avatar" {
			err = a.profile.UpdateAvatar(ctx, img)
		} else {
			err = a.profile.UpdateBanner(ctx, img)
		}
	default:
		printlnFn("Usage: set <display|bio|avatar|banner> [value]")
		return fmt.Errorf("unknown field %q", field)
	}

	if err := a.report(ctx, "set "+field, err); err != nil {
		return err
	}
	printlnFn("Saved")
	return nil
}
