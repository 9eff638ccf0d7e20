package media

import "github.com/rizkirmdhn/anydownloader/pkg/models"

const (
	// MaxPlaylistEntries caps the entries returned for a playlist
	MaxPlaylistEntries = 50

	watchURLPrefix = "https://www.youtube.com/watch?v="
	unknownTitle   = "Unknown"
)

// BuildPlaylistInfo normalizes a flat playlist extraction result.
// Entries keep engine order, null entries are skipped and at most
// MaxPlaylistEntries are returned.
func BuildPlaylistInfo(result *models.ExtractionResult) *models.PlaylistInfo {
	videos := make([]models.PlaylistEntry, 0, min(len(result.Entries), MaxPlaylistEntries))
	for _, raw := range result.Entries {
		if len(videos) == MaxPlaylistEntries {
			break
		}
		if raw == nil {
			continue
		}
		videos = append(videos, normalizeEntry(raw))
	}

	count := len(videos)
	if result.PlaylistCount != nil {
		count = *result.PlaylistCount
	}

	return &models.PlaylistInfo{
		Type:          models.KindPlaylist,
		Title:         result.Title,
		PlaylistCount: count,
		Uploader:      result.Uploader,
		Videos:        videos,
	}
}

func normalizeEntry(raw *models.PlaylistEntryRaw) models.PlaylistEntry {
	entry := models.PlaylistEntry{
		ID:        raw.ID,
		Title:     coalesce(raw.Title, unknownTitle),
		URL:       raw.URL,
		Thumbnail: raw.Thumbnail,
	}

	if entry.URL == "" {
		entry.URL = raw.WebpageURL
	}
	if entry.URL == "" && raw.ID != "" {
		entry.URL = watchURLPrefix + raw.ID
	}

	if raw.Duration != nil {
		entry.Duration = *raw.Duration
	}

	if entry.Thumbnail == "" && len(raw.Thumbnails) > 0 {
		entry.Thumbnail = raw.Thumbnails[len(raw.Thumbnails)-1].URL
	}

	return entry
}
