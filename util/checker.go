package util

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dixieflatline76/rngpaper/config"
	"github.com/google/go-github/v63/github"
	"golang.org/x/mod/semver"
)

const (
	githubOwner = "dixieflatline76"
	githubRepo  = "rngpaper"
)

// CheckForUpdatesResult holds the outcome of the update check.
type CheckForUpdatesResult struct {
	UpdateAvailable bool
	CurrentVersion  string
	LatestVersion   string
	ReleaseURL      string
}

// UpdateChecker polls GitHub for the latest stable release.
type UpdateChecker struct {
	client *github.Client
}

// NewUpdateChecker returns a checker using httpClient; nil means http.DefaultClient.
func NewUpdateChecker(httpClient *http.Client) *UpdateChecker {
	return &UpdateChecker{client: github.NewClient(httpClient)}
}

// Check compares config.AppVersion against the latest GitHub release.
func (u *UpdateChecker) Check(ctx context.Context) (*CheckForUpdatesResult, error) {
	release, _, err := u.client.Repositories.GetLatestRelease(ctx, githubOwner, githubRepo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest GitHub release: %w", err)
	}

	current := canonicalVersion(config.AppVersion)
	latest := canonicalVersion(release.GetTagName())
	if !semver.IsValid(latest) {
		return nil, fmt.Errorf("latest release tag %q is not a semantic version", release.GetTagName())
	}

	return &CheckForUpdatesResult{
		UpdateAvailable: semver.Compare(latest, current) > 0,
		CurrentVersion:  current,
		LatestVersion:   latest,
		ReleaseURL:      release.GetHTMLURL(),
	}, nil
}

func canonicalVersion(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
