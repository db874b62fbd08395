// Package gitver provides git-based version and channel detection. It is
// the shared foundation used by both the build phase (artifact version
// strings) and the publish phase (version buckets, republish defaults).
package gitver

import (
	"fmt"
	"time"

	masterminds "github.com/Masterminds/semver/v3"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// VersionInfo holds resolved version metadata from git.
type VersionInfo struct {
	Version      string // full version: "1.2.3", "1.2.3-rc.1", "0.0.0-dev+abc1234"
	Base         string // semver base without prerelease: "1.2.3"
	Major        uint64
	Minor        uint64
	Patch        uint64
	Prerelease   string // "rc.1", "beta.2", or "" for stable
	SHA          string
	Branch       string
	IsRelease    bool // true if HEAD is exactly at a semver tag
	IsPrerelease bool // true if the tag has a prerelease suffix
}

// DetectVersion resolves version info from the repository at rootDir.
// A repo with no semver tags yields a 0.0.0 dev version rather than an
// error — local checkouts and fresh repos still get usable versions.
func DetectVersion(rootDir string) (*VersionInfo, error) {
	repo, err := git.PlainOpen(rootDir)
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	v := &VersionInfo{
		SHA: head.Hash().String()[:7],
	}
	if head.Name().IsBranch() {
		v.Branch = head.Name().Short()
	}

	headTag, latest := findTags(repo, head.Hash())

	switch {
	case headTag != nil:
		v.IsRelease = true
		fill(v, headTag)
		v.Version = headTag.Original()
		if v.Version[0] == 'v' {
			v.Version = v.Version[1:]
		}
	case latest != nil:
		fill(v, latest)
		v.Version = fmt.Sprintf("%s-dev+%s", v.Base, v.SHA)
	default:
		v.Base = "0.0.0"
		v.Version = fmt.Sprintf("0.0.0-dev+%s", v.SHA)
	}

	return v, nil
}

func fill(v *VersionInfo, sv *masterminds.Version) {
	v.Major = sv.Major()
	v.Minor = sv.Minor()
	v.Patch = sv.Patch()
	v.Base = fmt.Sprintf("%d.%d.%d", sv.Major(), sv.Minor(), sv.Patch())
	if sv.Prerelease() != "" {
		v.Prerelease = sv.Prerelease()
		v.IsPrerelease = true
	}
}

// findTags scans repository tags for semver versions. Returns the highest
// semver tag pointing exactly at head (nil if none) and the highest semver
// tag anywhere (nil if the repo has no semver tags).
func findTags(repo *git.Repository, head plumbing.Hash) (atHead, latest *masterminds.Version) {
	iter, err := repo.Tags()
	if err != nil {
		return nil, nil
	}
	defer iter.Close()

	_ = iter.ForEach(func(ref *plumbing.Reference) error {
		sv, err := masterminds.NewVersion(ref.Name().Short())
		if err != nil {
			return nil // non-semver tag, skip
		}

		target := ref.Hash()
		// Annotated tags point at a tag object, not the commit.
		if obj, err := repo.TagObject(ref.Hash()); err == nil {
			target = obj.Target
		}

		if latest == nil || sv.GreaterThan(latest) {
			latest = sv
		}
		if target == head && (atHead == nil || sv.GreaterThan(atHead)) {
			atHead = sv
		}
		return nil
	})

	return atHead, latest
}

// ChannelVersion derives the version string published for a channel.
//
//	stable  — the tag version as-is; requires HEAD at a release tag
//	nightly — base version with a dated prerelease: 1.2.3-nightly.20260823+abc1234
//	other   — dev build: 1.2.3-dev+abc1234
func ChannelVersion(v *VersionInfo, channel string, now time.Time) (string, error) {
	switch channel {
	case "stable":
		if !v.IsRelease {
			return "", fmt.Errorf("stable channel requires HEAD at a release tag (got %s)", v.Version)
		}
		return v.Version, nil
	case "nightly":
		return fmt.Sprintf("%s-nightly.%s+%s", v.Base, now.Format("20060102"), v.SHA), nil
	default:
		return fmt.Sprintf("%s-dev+%s", v.Base, v.SHA), nil
	}
}
