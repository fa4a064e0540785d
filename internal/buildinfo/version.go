package buildinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-version"
	"go.uber.org/zap"
)

// Version is stamped at build time with -ldflags "-X ...buildinfo.Version=v1.2.3".
var Version = "v0.0.0"

// ReleasesURL is the GitHub "latest release" endpoint checked at startup.
var ReleasesURL = "https://api.github.com/repos/nulzo/model-selector/releases/latest"

type release struct {
	TagName string `json:"tag_name"`
}

// Newer compares two semantic versions and reports whether latest is ahead
// of current.
func Newer(current, latest string) (bool, error) {
	cur, err := version.NewVersion(current)
	if err != nil {
		return false, fmt.Errorf("parse current version %q: %w", current, err)
	}
	lat, err := version.NewVersion(latest)
	if err != nil {
		return false, fmt.Errorf("parse latest version %q: %w", latest, err)
	}
	return cur.LessThan(lat), nil
}

// LatestRelease fetches the newest published tag from url.
func LatestRelease(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	var r release
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	return r.TagName, nil
}

// CheckForUpdates warns when a newer release exists. Failures are logged at
// debug level only.
func CheckForUpdates(ctx context.Context, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	latest, err := LatestRelease(ctx, http.DefaultClient, ReleasesURL)
	if err != nil {
		logger.Debug("Update check failed", zap.Error(err))
		return
	}

	newer, err := Newer(Version, latest)
	if err != nil {
		logger.Debug("Update check failed", zap.Error(err))
		return
	}
	if newer {
		logger.Warn("You are running an outdated version",
			zap.String("current", Version),
			zap.String("latest", latest),
		)
	}
}
