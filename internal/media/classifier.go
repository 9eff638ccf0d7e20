// Package media turns raw extraction results into the normalized records served to clients.
package media

import "github.com/rizkirmdhn/anydownloader/pkg/models"

// Classify reports whether an extraction result is a playlist or a single video.
// Only the "_type" discriminator is consulted; unknown types are videos.
func Classify(result *models.ExtractionResult) models.Kind {
	if result == nil {
		return models.KindVideo
	}

	switch result.Type {
	case models.TypePlaylist, models.TypeMultiVideo:
		return models.KindPlaylist
	default:
		return models.KindVideo
	}
}
