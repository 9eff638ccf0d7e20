package media

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/rizkirmdhn/anydownloader/pkg/models"
)

func rawEntries(n int) []*models.PlaylistEntryRaw {
	entries := make([]*models.PlaylistEntryRaw, n)
	for i := range entries {
		entries[i] = &models.PlaylistEntryRaw{ID: fmt.Sprintf("id%d", i), Title: fmt.Sprintf("Video %d", i)}
	}
	return entries
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		result *models.ExtractionResult
		want   models.Kind
	}{
		{name: "video", result: &models.ExtractionResult{Type: "video"}, want: models.KindVideo},
		{name: "playlist", result: &models.ExtractionResult{Type: "playlist"}, want: models.KindPlaylist},
		{name: "multi video", result: &models.ExtractionResult{Type: "multi_video"}, want: models.KindPlaylist},
		{name: "unspecified", result: &models.ExtractionResult{}, want: models.KindVideo},
		{name: "unknown", result: &models.ExtractionResult{Type: "url_transparent"}, want: models.KindVideo},
		{name: "url only sniffing ignored", result: &models.ExtractionResult{WebpageURL: "https://www.youtube.com/watch?v=a&list=b"}, want: models.KindVideo},
		{name: "nil", result: nil, want: models.KindVideo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.result); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildPlaylistInfo_Cap(t *testing.T) {
	for _, n := range []int{0, 1, 49, 50, 51, 120} {
		t.Run(fmt.Sprintf("%d entries", n), func(t *testing.T) {
			info := BuildPlaylistInfo(&models.ExtractionResult{Type: "playlist", Entries: rawEntries(n)})

			want := min(n, MaxPlaylistEntries)
			if len(info.Videos) != want {
				t.Fatalf("len(Videos) = %d, want %d", len(info.Videos), want)
			}
			for i, v := range info.Videos {
				if v.ID != fmt.Sprintf("id%d", i) {
					t.Errorf("Videos[%d].ID = %s, order not preserved", i, v.ID)
				}
			}
			if info.PlaylistCount != want {
				t.Errorf("PlaylistCount = %d, want fallback %d", info.PlaylistCount, want)
			}
		})
	}
}

func TestBuildPlaylistInfo_ReportedCount(t *testing.T) {
	count := 120
	info := BuildPlaylistInfo(&models.ExtractionResult{
		Type:          "playlist",
		Title:         "Mix",
		Uploader:      "Someone",
		PlaylistCount: &count,
		Entries:       rawEntries(120),
	})

	if info.PlaylistCount != 120 {
		t.Errorf("PlaylistCount = %d, want 120", info.PlaylistCount)
	}
	if info.Title != "Mix" || info.Uploader != "Someone" || info.Type != models.KindPlaylist {
		t.Errorf("info = %+v", info)
	}

	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if _, ok := fields["formats"]; ok {
		t.Error("playlist info carries a formats field")
	}
}

func TestBuildPlaylistInfo_SkipsNullEntries(t *testing.T) {
	entries := []*models.PlaylistEntryRaw{{ID: "a"}, nil, {ID: "b"}}
	info := BuildPlaylistInfo(&models.ExtractionResult{Type: "playlist", Entries: entries})

	if len(info.Videos) != 2 || info.Videos[1].ID != "b" {
		t.Errorf("Videos = %+v, want a and b", info.Videos)
	}
}

func TestNormalizeEntry(t *testing.T) {
	tests := []struct {
		name string
		raw  models.PlaylistEntryRaw
		want models.PlaylistEntry
	}{
		{
			name: "all fields",
			raw: models.PlaylistEntryRaw{
				ID: "abc", Title: "Song", URL: "https://example.com/abc", WebpageURL: "https://example.com/page",
				Duration: ptr(61), Thumbnail: "thumb.jpg",
			},
			want: models.PlaylistEntry{ID: "abc", Title: "Song", URL: "https://example.com/abc", Duration: 61, Thumbnail: "thumb.jpg"},
		},
		{
			name: "webpage url fallback",
			raw:  models.PlaylistEntryRaw{ID: "abc", WebpageURL: "https://example.com/page"},
			want: models.PlaylistEntry{ID: "abc", Title: "Unknown", URL: "https://example.com/page"},
		},
		{
			name: "synthesized watch url",
			raw:  models.PlaylistEntryRaw{ID: "dQw4w9WgXcQ"},
			want: models.PlaylistEntry{ID: "dQw4w9WgXcQ", Title: "Unknown", URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		},
		{
			name: "last thumbnail",
			raw: models.PlaylistEntryRaw{
				ID:         "abc",
				URL:        "u",
				Thumbnails: []models.Thumbnail{{URL: "small.jpg"}, {URL: "large.jpg"}},
			},
			want: models.PlaylistEntry{ID: "abc", Title: "Unknown", URL: "u", Thumbnail: "large.jpg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeEntry(&tt.raw)
			if got != tt.want {
				t.Errorf("normalizeEntry() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
