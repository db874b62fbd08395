package gitver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sig() *object.Signature {
	return &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()}
}

func commit(t *testing.T, repo *git.Repository, dir, name string) plumbing.Hash {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	hash, err := wt.Commit("add "+name, &git.CommitOptions{Author: sig()})
	require.NoError(t, err)
	return hash
}

func initRepo(t *testing.T) (*git.Repository, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return repo, dir
}

func TestDetectVersionNoTags(t *testing.T) {
	repo, dir := initRepo(t)
	hash := commit(t, repo, dir, "a.txt")

	v, err := DetectVersion(dir)
	require.NoError(t, err)

	assert.Equal(t, hash.String()[:7], v.SHA)
	assert.Equal(t, "0.0.0", v.Base)
	assert.Equal(t, "0.0.0-dev+"+v.SHA, v.Version)
	assert.False(t, v.IsRelease)
}

func TestDetectVersionAtLightweightTag(t *testing.T) {
	repo, dir := initRepo(t)
	hash := commit(t, repo, dir, "a.txt")
	_, err := repo.CreateTag("v1.2.3", hash, nil)
	require.NoError(t, err)

	v, err := DetectVersion(dir)
	require.NoError(t, err)

	assert.True(t, v.IsRelease)
	assert.Equal(t, "1.2.3", v.Version)
	assert.Equal(t, "1.2.3", v.Base)
	assert.Equal(t, uint64(1), v.Major)
	assert.Equal(t, uint64(2), v.Minor)
	assert.Equal(t, uint64(3), v.Patch)
	assert.False(t, v.IsPrerelease)
}

func TestDetectVersionAtAnnotatedPrereleaseTag(t *testing.T) {
	repo, dir := initRepo(t)
	hash := commit(t, repo, dir, "a.txt")
	_, err := repo.CreateTag("v2.0.0-rc.1", hash, &git.CreateTagOptions{
		Message: "release candidate",
		Tagger:  sig(),
	})
	require.NoError(t, err)

	v, err := DetectVersion(dir)
	require.NoError(t, err)

	assert.True(t, v.IsRelease)
	assert.True(t, v.IsPrerelease)
	assert.Equal(t, "rc.1", v.Prerelease)
	assert.Equal(t, "2.0.0", v.Base)
	assert.Equal(t, "2.0.0-rc.1", v.Version)
}

func TestDetectVersionAheadOfTag(t *testing.T) {
	repo, dir := initRepo(t)
	hash := commit(t, repo, dir, "a.txt")
	_, err := repo.CreateTag("v1.0.0", hash, nil)
	require.NoError(t, err)
	head := commit(t, repo, dir, "b.txt")

	v, err := DetectVersion(dir)
	require.NoError(t, err)

	assert.False(t, v.IsRelease)
	assert.Equal(t, "1.0.0", v.Base)
	assert.Equal(t, "1.0.0-dev+"+head.String()[:7], v.Version)
}

func TestDetectVersionPicksHighestTagAtHead(t *testing.T) {
	repo, dir := initRepo(t)
	hash := commit(t, repo, dir, "a.txt")
	_, err := repo.CreateTag("v0.9.0", hash, nil)
	require.NoError(t, err)
	_, err = repo.CreateTag("v0.10.0", hash, nil)
	require.NoError(t, err)

	v, err := DetectVersion(dir)
	require.NoError(t, err)

	assert.True(t, v.IsRelease)
	assert.Equal(t, "0.10.0", v.Base)
}

func TestDetectVersionNotARepo(t *testing.T) {
	_, err := DetectVersion(t.TempDir())
	assert.Error(t, err)
}

func TestChannelVersion(t *testing.T) {
	now := time.Date(2026, 8, 23, 4, 0, 0, 0, time.UTC)

	release := &VersionInfo{Version: "1.2.3", Base: "1.2.3", SHA: "abc1234", IsRelease: true}
	dev := &VersionInfo{Version: "1.2.3-dev+abc1234", Base: "1.2.3", SHA: "abc1234"}

	got, err := ChannelVersion(release, "stable", now)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", got)

	_, err = ChannelVersion(dev, "stable", now)
	assert.Error(t, err, "stable requires HEAD at a release tag")

	got, err = ChannelVersion(dev, "nightly", now)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3-nightly.20260823+abc1234", got)

	got, err = ChannelVersion(dev, "dev", now)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3-dev+abc1234", got)
}
