package docker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envbox-dev/envbox/internal/manifest"
	"github.com/envbox-dev/envbox/internal/model"
)

// TestBuildSandbox_Staleness verifies the status transitions driven by
// the manifest on disk: a sandbox whose manifest was edited or deleted
// after provisioning is reported stale, regardless of container state.
func TestBuildSandbox_Staleness(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "envbox.json")
	content := []byte(`{"deps": ["ffmpeg", "zlib"]}`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	hash, err := manifest.Hash(path)
	require.NoError(t, err)

	labels := BuildLabels(&model.Sandbox{
		Name:         "music-bot",
		ManifestPath: path,
		ManifestHash: hash,
		Backend:      "apt",
		Image:        "debian:bookworm-slim",
		Packages:     []string{"ffmpeg", "zlib"},
		CreatedAt:    time.Now(),
	})
	containers := []model.ContainerInfo{{
		ContainerID:   "abc123",
		ContainerName: "envbox-music-bot-1a2b3c4d",
		Status:        "running",
		Labels:        labels,
	}}

	// Manifest intact, container running.
	sb, err := BuildSandbox("music-bot", containers)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRunning, sb.Status)
	assert.Equal(t, []string{"ffmpeg", "zlib"}, sb.Packages)

	// Manifest edited after provisioning: hash no longer matches.
	require.NoError(t, os.WriteFile(path, []byte(`{"deps": ["ffmpeg"]}`), 0o644))
	sb, err = BuildSandbox("music-bot", containers)
	require.NoError(t, err)
	assert.Equal(t, model.StatusStale, sb.Status)

	// Manifest deleted.
	require.NoError(t, os.Remove(path))
	sb, err = BuildSandbox("music-bot", containers)
	require.NoError(t, err)
	assert.Equal(t, model.StatusStale, sb.Status)

	// Manifest restored with the provisioned content, container exited.
	require.NoError(t, os.WriteFile(path, content, 0o644))
	containers[0].Status = "exited"
	sb, err = BuildSandbox("music-bot", containers)
	require.NoError(t, err)
	assert.Equal(t, model.StatusStopped, sb.Status)
}

// TestBuildSandbox_NoContainers verifies the error guard: a sandbox
// cannot be reconstructed without at least one container.
func TestBuildSandbox_NoContainers(t *testing.T) {
	_, err := BuildSandbox("music-bot", nil)
	assert.Error(t, err)
}

// TestGroupContainersBySandbox verifies grouping by the name label and
// that unlabeled containers are skipped.
func TestGroupContainersBySandbox(t *testing.T) {
	containers := []model.ContainerInfo{
		{ContainerID: "a", Labels: map[string]string{LabelName: "music-bot"}},
		{ContainerID: "b", Labels: map[string]string{LabelName: "transcode-box"}},
		{ContainerID: "c", Labels: map[string]string{LabelName: "music-bot"}},
		{ContainerID: "d", Labels: map[string]string{}},
	}

	groups := GroupContainersBySandbox(containers)
	require.Len(t, groups, 2)
	assert.Len(t, groups["music-bot"], 2)
	assert.Len(t, groups["transcode-box"], 1)
}
