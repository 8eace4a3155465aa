package cleaner

import (
	"os"
	"sort"

	"spmhost/pkg/log"
	"spmhost/pkg/store"
	"spmhost/pkg/units"
)

// Source is the store's view of the artifacts directory that eviction works from.
type Source interface {
	Path() string
	List() ([]store.ArtifactInfo, error)
}

// Result summarises one eviction pass.
type Result struct {
	Scanned        int
	TotalBytes     int64
	Deleted        []string
	FreedBytes     int64
	RemainingBytes int64
	Failed         int
}

// Clean deletes the oldest artifacts listed by source until the total size is at
// most maxSizeBytes. Files are ordered by timestamp, oldest first, with ties
// kept in listing order. A single file larger than the limit is deleted too,
// so the pass may empty the directory. Errors are logged and never returned:
// a file that cannot be deleted is skipped and the pass moves on to the next one.
func Clean(source Source, maxSizeBytes int64) Result {
	directory := source.Path()
	log.Info().
		Str("artifacts_dir", directory).
		Int64("max_size", maxSizeBytes).
		Msg("Checking artifact directory size limit")

	artifacts, err := source.List()
	if err != nil {
		log.Error().Err(err).Str("artifacts_dir", directory).Msg("Could not enumerate artifacts directory")
		return Result{}
	}

	result := Result{Scanned: len(artifacts)}
	for _, artifact := range artifacts {
		result.TotalBytes += artifact.Size
	}
	result.RemainingBytes = result.TotalBytes

	log.Info().Int64("total_size", result.TotalBytes).Int("files", result.Scanned).Msg("Current artifacts size")

	if result.TotalBytes <= maxSizeBytes {
		log.Info().Msg("Artifacts size is within limit")
		return result
	}

	sort.SliceStable(artifacts, func(i, j int) bool {
		return artifacts[i].CreatedAt.Before(artifacts[j].CreatedAt)
	})

	for _, artifact := range artifacts {
		if result.RemainingBytes <= maxSizeBytes {
			break
		}

		if err := os.Remove(artifact.Path); err != nil {
			result.Failed++
			log.Error().Err(err).Str("filename", artifact.Name).Msg("Failed to delete artifact")
			continue
		}

		result.RemainingBytes -= artifact.Size
		result.FreedBytes += artifact.Size
		result.Deleted = append(result.Deleted, artifact.Name)

		log.Info().
			Str("filename", artifact.Name).
			Int64("size", artifact.Size).
			Msg("Deleted artifact to free space")
	}

	log.Info().
		Int64("new_size", result.RemainingBytes).
		Str("freed", units.FormatBytes(result.FreedBytes)).
		Int("deleted", len(result.Deleted)).
		Int("failed", result.Failed).
		Msg("Cleanup complete")

	return result
}
