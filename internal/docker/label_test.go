package docker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envbox-dev/envbox/internal/model"
)

func TestBuildLabels_ParseLabels_RoundTrip(t *testing.T) {
	sb := &model.Sandbox{
		Name:         "music-bot",
		ManifestPath: "/home/user/music-bot/envbox.json",
		ManifestHash: "abc123",
		Backend:      "apt",
		Image:        "debian:bookworm-slim",
		Packages:     []string{"python311", "pip", "ffmpeg", "git", "zlib"},
		CreatedAt:    time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}

	labels := BuildLabels(sb)
	assert.Equal(t, "envbox", labels[LabelManagedBy])
	assert.Equal(t, "python311", labels["envbox.dep.0"])
	assert.Equal(t, "zlib", labels["envbox.dep.4"])

	parsed, err := ParseLabels(labels)
	require.NoError(t, err)
	assert.Equal(t, sb.Name, parsed.Name)
	assert.Equal(t, sb.ManifestPath, parsed.ManifestPath)
	assert.Equal(t, sb.ManifestHash, parsed.ManifestHash)
	assert.Equal(t, sb.Backend, parsed.Backend)
	assert.Equal(t, sb.Image, parsed.Image)
	assert.Equal(t, sb.Packages, parsed.Packages)
	assert.True(t, sb.CreatedAt.Equal(parsed.CreatedAt))
}

func TestParseLabels_MissingKeys(t *testing.T) {
	labels := map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelName:      "music-bot",
	}

	_, err := ParseLabels(labels)
	require.Error(t, err)
	assert.Contains(t, err.Error(), LabelManifestPath)
	assert.Contains(t, err.Error(), LabelManifestHash)
	assert.Contains(t, err.Error(), LabelBackend)
	assert.Contains(t, err.Error(), LabelCreatedAt)
}

func TestParseLabels_WrongManagedByValue(t *testing.T) {
	labels := map[string]string{
		LabelManagedBy:    "other-tool",
		LabelName:         "music-bot",
		LabelManifestPath: "/tmp/envbox.json",
		LabelManifestHash: "abc",
		LabelBackend:      "apt",
		LabelCreatedAt:    "2026-08-30T12:00:00Z",
	}

	_, err := ParseLabels(labels)
	assert.Error(t, err)
}

func TestParseLabels_BadTimestamp(t *testing.T) {
	labels := map[string]string{
		LabelManagedBy:    ManagedByValue,
		LabelName:         "music-bot",
		LabelManifestPath: "/tmp/envbox.json",
		LabelManifestHash: "abc",
		LabelBackend:      "apt",
		LabelCreatedAt:    "yesterday",
	}

	_, err := ParseLabels(labels)
	assert.Error(t, err)
}

func TestParseDepLabels_RestoresOrder(t *testing.T) {
	labels := map[string]string{
		"envbox.dep.2":  "ffmpeg",
		"envbox.dep.0":  "python311",
		"envbox.dep.10": "zlib",
		"envbox.dep.1":  "pip",
		"envbox.name":   "ignored",
	}

	packages, err := ParseDepLabels(labels)
	require.NoError(t, err)
	assert.Equal(t, []string{"python311", "pip", "ffmpeg", "zlib"}, packages)
}

func TestParseDepLabels_NoDeps(t *testing.T) {
	packages, err := ParseDepLabels(map[string]string{"envbox.name": "x"})
	require.NoError(t, err)
	assert.NotNil(t, packages)
	assert.Empty(t, packages)
}

func TestParseDepLabels_InvalidIndex(t *testing.T) {
	_, err := ParseDepLabels(map[string]string{"envbox.dep.first": "python311"})
	assert.Error(t, err)
}

func TestBuildDepLabel(t *testing.T) {
	assert.Equal(t, "envbox.dep.0", BuildDepLabel(0))
	assert.Equal(t, "envbox.dep.12", BuildDepLabel(12))
}
