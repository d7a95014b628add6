package services

import (
	"context"
	"strings"

	"github.com/victoryapp/victory/internal/common"
	"github.com/victoryapp/victory/internal/graph"
)

const (
	followingSet = "following"
	followersSet = "followers"
)

type FollowService interface {
	Follow(ctx context.Context, username string) error
	Unfollow(ctx context.Context, username string) error
	IsFollowing(ctx context.Context, username string) (bool, error)
	Followers(ctx context.Context, username string) (int, error)
	Following(ctx context.Context, username string) (int, error)
	// Repair adds the missing mirror edge for every one-sided relation of
	// username.
	Repair(ctx context.Context, username string) (RepairReport, error)
}

// RepairReport lists the edges Repair wrote, as "<owner>/<set>/<key>".
type RepairReport struct {
	Checked int
	Added   []string
}

type followService struct {
	Deps
}

func NewFollowService(deps Deps) FollowService {
	return &followService{Deps: deps.withDefaults()}
}

func (s *followService) me() (string, error) {
	snap := s.State.Get()
	if !snap.LoggedIn {
		return "", common.ErrNotLoggedIn
	}
	return snap.Alias, nil
}

func (s *followService) Follow(ctx context.Context, username string) error {
	me, err := s.me()
	if err != nil {
		return err
	}
	target := strings.ToLower(username)
	if target == "" || target == me {
		return common.ErrInvalidUser
	}

	return runSaga(ctx, s.Logger, "follow",
		step{followingSet, func(ctx context.Context) error {
			return s.Store.Add(ctx, graph.UserPath(me).Child(followingSet), target, graph.UserPath(target))
		}},
		step{followersSet, func(ctx context.Context) error {
			return s.Store.Add(ctx, graph.UserPath(target).Child(followersSet), me, graph.UserPath(me))
		}},
	)
}

func (s *followService) Unfollow(ctx context.Context, username string) error {
	me, err := s.me()
	if err != nil {
		return err
	}
	target := strings.ToLower(username)

	return runSaga(ctx, s.Logger, "unfollow",
		step{followingSet, func(ctx context.Context) error {
			return s.Store.Remove(ctx, graph.UserPath(me).Child(followingSet), target)
		}},
		step{followersSet, func(ctx context.Context) error {
			return s.Store.Remove(ctx, graph.UserPath(target).Child(followersSet), me)
		}},
	)
}

func (s *followService) IsFollowing(ctx context.Context, username string) (bool, error) {
	me, err := s.me()
	if err != nil {
		return false, err
	}
	return s.Fetcher.Exists(ctx, graph.UserPath(me).Child(followingSet, strings.ToLower(username)))
}

func (s *followService) Followers(ctx context.Context, username string) (int, error) {
	return s.Fetcher.Count(ctx, graph.UserPath(strings.ToLower(username)).Child(followersSet))
}

func (s *followService) Following(ctx context.Context, username string) (int, error) {
	return s.Fetcher.Count(ctx, graph.UserPath(strings.ToLower(username)).Child(followingSet))
}

func (s *followService) Repair(ctx context.Context, username string) (RepairReport, error) {
	user := strings.ToLower(username)
	var report RepairReport

	// user follows x: x must list user as follower.
	// x follows user: x must list user as followed.
	pairs := []struct{ own, mirror string }{
		{followingSet, followersSet},
		{followersSet, followingSet},
	}
	for _, pair := range pairs {
		keys, err := s.Fetcher.Keys(ctx, graph.UserPath(user).Child(pair.own))
		if err != nil {
			return report, err
		}
		for _, other := range keys {
			report.Checked++
			mirror := graph.UserPath(other).Child(pair.mirror)
			ok, err := s.Fetcher.Exists(ctx, mirror.Child(user))
			if err != nil {
				return report, err
			}
			if ok {
				continue
			}
			if err := s.Store.Add(ctx, mirror, user, graph.UserPath(user)); err != nil {
				return report, err
			}
			report.Added = append(report.Added, mirror.Child(user).String())
			s.Logger.Info(ctx, "repaired follow edge", "path", mirror.Child(user).String())
		}
	}
	return report, nil
}
