package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/victoryapp/victory/internal/client/assets"
	"github.com/victoryapp/victory/internal/common"
	"github.com/victoryapp/victory/internal/graph"
)

// ProfileService reads any public profile and edits the logged-in one.
type ProfileService interface {
	UpdateDisplay(ctx context.Context, display string) error
	UpdateBio(ctx context.Context, bio string) error
	UpdateAvatar(ctx context.Context, image []byte) error
	UpdateBanner(ctx context.Context, image []byte) error

	Display(ctx context.Context, username string) (string, error)
	Bio(ctx context.Context, username string) (string, error)
	Avatar(ctx context.Context, username string) (string, error)
	Banner(ctx context.Context, username string) (string, error)
	Pub(ctx context.Context, username string) (string, error)
	UsernameWithCase(ctx context.Context, username string) (string, error)
	CreatedAt(ctx context.Context, username string) (time.Time, error)
	JoinedLabel(ctx context.Context, username string) (string, error)
}

type profileService struct {
	Deps
}

func NewProfileService(deps Deps) ProfileService {
	return &profileService{Deps: deps.withDefaults()}
}

func (s *profileService) put(ctx context.Context, field string, v any) error {
	snap := s.State.Get()
	if !snap.LoggedIn {
		return common.ErrNotLoggedIn
	}
	if err := s.Store.Put(ctx, graph.UserPath(snap.Alias).Child(field), v); err != nil {
		return fmt.Errorf("update %s: %w", field, err)
	}
	return nil
}

func (s *profileService) UpdateDisplay(ctx context.Context, display string) error {
	return s.put(ctx, "display", display)
}

func (s *profileService) UpdateBio(ctx context.Context, bio string) error {
	return s.put(ctx, "bio", bio)
}

func (s *profileService) UpdateAvatar(ctx context.Context, image []byte) error {
	return s.putImage(ctx, assets.Avatar, image)
}

func (s *profileService) UpdateBanner(ctx context.Context, image []byte) error {
	return s.putImage(ctx, assets.Banner, image)
}

func (s *profileService) putImage(ctx context.Context, kind assets.Kind, image []byte) error {
	url, err := assets.DataURL(image)
	if err != nil {
		return err
	}
	return s.put(ctx, string(kind), url)
}

func (s *profileService) field(ctx context.Context, username, field string) (string, error) {
	return s.Fetcher.UserField(ctx, strings.ToLower(username), field)
}

func (s *profileService) Display(ctx context.Context, username string) (string, error) {
	return s.field(ctx, username, "display")
}

func (s *profileService) Bio(ctx context.Context, username string) (string, error) {
	return s.field(ctx, username, "bio")
}

func (s *profileService) Avatar(ctx context.Context, username string) (string, error) {
	return s.field(ctx, username, "avatar")
}

func (s *profileService) Banner(ctx context.Context, username string) (string, error) {
	return s.field(ctx, username, "banner")
}

func (s *profileService) Pub(ctx context.Context, username string) (string, error) {
	return s.field(ctx, username, "pub")
}

func (s *profileService) UsernameWithCase(ctx context.Context, username string) (string, error) {
	return s.field(ctx, username, "user")
}

func (s *profileService) CreatedAt(ctx context.Context, username string) (time.Time, error) {
	p := graph.UserPath(strings.ToLower(username)).Child("created_at")
	v, err := s.Fetcher.Value(ctx, p)
	if err != nil {
		return time.Time{}, err
	}
	var secs int64
	switch t := v.(type) {
	case float64:
		secs = int64(t)
	case string:
		secs, err = strconv.ParseInt(t, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse created_at %q: %w", t, err)
		}
	default:
		return time.Time{}, fmt.Errorf("unexpected created_at type %T", v)
	}
	return time.Unix(secs, 0).UTC(), nil
}

// JoinedLabel renders CreatedAt as e.g. "March 2024".
func (s *profileService) JoinedLabel(ctx context.Context, username string) (string, error) {
	t, err := s.CreatedAt(ctx, username)
	if err != nil {
		return "", err
	}
	return t.Format("January 2006"), nil
}
