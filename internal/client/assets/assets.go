// Package assets supplies the default avatar and banner images and turns
// image bytes into the data URLs stored on profiles.
package assets

import (
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/victoryapp/victory/internal/common"
)

// MaxImageSize caps uploaded avatars and banners.
const MaxImageSize = 5 << 20

type Kind string

const (
	Avatar Kind = "avatar"
	Banner Kind = "banner"
)

// Source yields the raw bytes of a default image.
type Source interface {
	Default(ctx context.Context, kind Kind) ([]byte, error)
}

//go:embed defaults/*.png
var defaults embed.FS

type EmbeddedSource struct{}

func (EmbeddedSource) Default(_ context.Context, kind Kind) ([]byte, error) {
	b, err := defaults.ReadFile("defaults/" + string(kind) + ".png")
	if err != nil {
		return nil, fmt.Errorf("default %s: %w", kind, err)
	}
	return b, nil
}

// FallbackSource tries Primary and falls back to Secondary on any error.
type FallbackSource struct {
	Primary   Source
	Secondary Source
}

func (f FallbackSource) Default(ctx context.Context, kind Kind) ([]byte, error) {
	b, err := f.Primary.Default(ctx, kind)
	if err == nil {
		return b, nil
	}
	return f.Secondary.Default(ctx, kind)
}

// DataURL sniffs img and encodes it as a base64 data URL. Only image types
// are accepted.
func DataURL(img []byte) (string, error) {
	if len(img) > MaxImageSize {
		return "", fmt.Errorf("%w: %d bytes", common.ErrImageTooLarge, len(img))
	}
	ct := http.DetectContentType(img)
	if !strings.HasPrefix(ct, "image/") {
		return "", fmt.Errorf("%w: %s", common.ErrUnsupportedImage, ct)
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(img), nil
}
