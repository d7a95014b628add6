package cli

import (
	"context"
	"fmt"
)

func (a *App) Follow(ctx context.Context, username string) error {
	if err := a.report(ctx, "follow", a.follow.Follow(ctx, username)); err != nil {
		return err
	}
	printlnFn("Following @" + username)
	return nil
}

func (a *App) Unfollow(ctx context.Context, username string) error {
	if err := a.report(ctx, "unfollow", a.follow.Unfollow(ctx, username)); err != nil {
		return err
	}
	printlnFn("Unfollowed @" + username)
	return nil
}

// Counts prints follower and following totals.
func (a *App) Counts(ctx context.Context, username string) error {
	username, err := a.target(username)
	if err != nil {
		return err
	}
	followers, err := a.follow.Followers(ctx, username)
	if err := a.report(ctx, "counts", err); err != nil {
		return err
	}
	following, err := a.follow.Following(ctx, username)
	if err := a.report(ctx, "counts", err); err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("@%s: %d followers, %d following", username, followers, following))
	return nil
}

// Repair restores one-sided follow edges of username.
func (a *App) Repair(ctx context.Context, username string) error {
	username, err := a.target(username)
	if err != nil {
		return err
	}
	report, err := a.follow.Repair(ctx, username)
	if err := a.report(ctx, "repair", err); err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("checked %d relations, added %d edges", report.Checked, len(report.Added)))
	for _, e := range report.Added {
		printlnFn("  + " + e)
	}
	return nil
}
