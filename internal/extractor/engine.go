// Package extractor wraps the external media-extraction engine.
//
// The engine scrapes video sites and reports metadata, and optionally downloads
// and muxes the selected streams. yt-dlp run as a subprocess is the only
// implementation; tests substitute their own Engine.
package extractor

import (
	"context"

	"github.com/rizkirmdhn/anydownloader/pkg/models"
)

// Options controls a single engine invocation
type Options struct {
	// Flat lists playlist entries without resolving each of them
	Flat bool

	// Download performs the download instead of only reporting metadata
	Download bool

	// Format is the engine format selector, e.g. "best" or "137+140"
	Format string

	// OutputTemplate is the output path template, e.g. "downloads/x/%(title)s.%(ext)s"
	OutputTemplate string

	// MergeOutputFormat is the container separate audio and video tracks are muxed into
	MergeOutputFormat string

	// NoPlaylist restricts a video+playlist URL to the video
	NoPlaylist bool
}

// Engine extracts metadata for a URL and optionally downloads it
type Engine interface {
	Extract(ctx context.Context, url string, opts Options) (*models.ExtractionResult, error)
}
