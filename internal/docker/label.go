package docker

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/envbox-dev/envbox/internal/model"
)

// Label key constants define the Docker label keys used to persist
// sandbox metadata on containers. The labels are the sole persistence
// mechanism — there is no external state file.
//
// All keys share the "envbox." prefix to namespace them away from labels
// set by other tooling.
const (
	// LabelPrefix is the common prefix for all envbox labels.
	LabelPrefix = "envbox."

	// LabelManagedBy identifies containers managed by envbox.
	// Key: "envbox.managed-by", Value: always "envbox".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelName stores the sandbox's unique identifier.
	LabelName = LabelPrefix + "name"

	// LabelManifestPath stores the absolute path of the manifest the
	// sandbox was provisioned from.
	LabelManifestPath = LabelPrefix + "manifest-path"

	// LabelManifestHash stores the hex SHA-256 of the manifest content at
	// provisioning time, for staleness detection.
	LabelManifestHash = LabelPrefix + "manifest-hash"

	// LabelBackend stores the package manager backend used inside the
	// sandbox (e.g. "apt", "apk").
	LabelBackend = LabelPrefix + "backend"

	// LabelImage stores the base image the sandbox was created from.
	LabelImage = LabelPrefix + "image"

	// LabelDepPrefix is the prefix for per-package labels. Every manifest
	// package gets its own label with its position appended:
	//
	//	"envbox.dep.0" = "python311"
	//	"envbox.dep.1" = "ffmpeg"
	//
	// Encoding the index in the key lets the ordered deps sequence
	// round-trip through the unordered label map.
	LabelDepPrefix = LabelPrefix + "dep."

	// LabelCreatedAt stores the provisioning timestamp, RFC3339 in UTC.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the constant value for the LabelManagedBy label,
// used for discovery via Docker API label filters.
const ManagedByValue = "envbox"

// BuildLabels constructs the Docker label map for a Sandbox. Applying
// these labels to the sandbox container allows full reconstruction of
// the Sandbox from container inspection alone.
func BuildLabels(sb *model.Sandbox) map[string]string {
	labels := map[string]string{
		LabelManagedBy:    ManagedByValue,
		LabelName:         sb.Name,
		LabelManifestPath: sb.ManifestPath,
		LabelManifestHash: sb.ManifestHash,
		LabelBackend:      sb.Backend,
		LabelImage:        sb.Image,
		LabelCreatedAt:    sb.CreatedAt.UTC().Format(time.RFC3339),
	}

	for i, pkg := range sb.Packages {
		labels[BuildDepLabel(i)] = pkg
	}

	return labels
}

// ParseLabels reconstructs a Sandbox from Docker container labels.
// This is the inverse of BuildLabels, used when listing or inspecting
// containers.
//
// Status and Containers are NOT reconstructed here: both are determined
// at runtime from container state and the manifest on disk.
func ParseLabels(labels map[string]string) (*model.Sandbox, error) {
	// Check required labels all at once so the error can list every
	// missing key.
	requiredKeys := []string{
		LabelManagedBy,
		LabelName,
		LabelManifestPath,
		LabelManifestHash,
		LabelBackend,
		LabelCreatedAt,
	}

	var missing []string
	for _, key := range requiredKeys {
		if _, ok := labels[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required Docker labels: %s", strings.Join(missing, ", "))
	}

	if labels[LabelManagedBy] != ManagedByValue {
		return nil, fmt.Errorf(
			"label %s has unexpected value %q (expected %q)",
			LabelManagedBy, labels[LabelManagedBy], ManagedByValue,
		)
	}

	createdAt, err := time.Parse(time.RFC3339, labels[LabelCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s: %w", LabelCreatedAt, err)
	}

	packages, err := ParseDepLabels(labels)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dep labels: %w", err)
	}

	return &model.Sandbox{
		Name:         labels[LabelName],
		ManifestPath: labels[LabelManifestPath],
		ManifestHash: labels[LabelManifestHash],
		Backend:      labels[LabelBackend],
		Image:        labels[LabelImage],
		Packages:     packages,
		CreatedAt:    createdAt,
	}, nil
}

// BuildDepLabel generates the label key for the package at position idx
// in the manifest's deps sequence, e.g. BuildDepLabel(2) → "envbox.dep.2".
func BuildDepLabel(idx int) string {
	return fmt.Sprintf("%s%d", LabelDepPrefix, idx)
}

// ParseDepLabels extracts the ordered package list from a label map.
// Entries are sorted by the numeric index embedded in the key, restoring
// the manifest's declared order.
//
// Returns an empty slice (not nil) if no dep labels are present.
func ParseDepLabels(labels map[string]string) ([]string, error) {
	type entry struct {
		idx int
		pkg string
	}

	entries := make([]entry, 0, 4)
	for key, value := range labels {
		if !strings.HasPrefix(key, LabelDepPrefix) {
			continue
		}

		idxStr := strings.TrimPrefix(key, LabelDepPrefix)
		idx, err := strconv.Atoi(idxStr)
		if err != nil {
			return nil, fmt.Errorf("invalid index in label key %q: %w", key, err)
		}
		entries = append(entries, entry{idx: idx, pkg: value})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].idx < entries[j].idx
	})

	packages := make([]string, 0, len(entries))
	for _, e := range entries {
		packages = append(packages, e.pkg)
	}
	return packages, nil
}
