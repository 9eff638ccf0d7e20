package media

import "github.com/rizkirmdhn/anydownloader/pkg/models"

const (
	codecNone       = "none"
	defaultVideoExt = "mp4"
	defaultAudioExt = "mp3"
	defaultTitle    = "video"
	unknownValue    = "unknown"
	audioOnlyNote   = "audio only"
)

// IsVideoFormat reports whether the variant carries a video track
func IsVideoFormat(f models.StreamVariant) bool {
	return f.VideoCodec != codecNone
}

// IsAudioFormat reports whether the variant is audio only
func IsAudioFormat(f models.StreamVariant) bool {
	return f.VideoCodec == codecNone && f.AudioCodec != codecNone
}

// BuildCatalog partitions stream variants into video and audio-only formats.
// Engine order is preserved within each bucket; variants with neither track are dropped.
func BuildCatalog(formats []models.StreamVariant) (video, audio []models.FormatRecord) {
	video = make([]models.FormatRecord, 0, len(formats))
	audio = make([]models.FormatRecord, 0)

	for _, f := range formats {
		switch {
		case IsVideoFormat(f):
			video = append(video, models.FormatRecord{
				FormatID:   f.FormatID,
				Ext:        coalesce(f.Ext, defaultVideoExt),
				Resolution: coalesce(f.Resolution, unknownValue),
				Filesize:   filesize(f),
				FormatNote: coalesce(f.FormatNote, unknownValue),
			})
		case IsAudioFormat(f):
			audio = append(audio, models.FormatRecord{
				FormatID:   f.FormatID,
				Ext:        audioExt(f),
				Filesize:   filesize(f),
				FormatNote: audioOnlyNote,
			})
		}
	}

	return video, audio
}

// BuildVideoInfo normalizes a single-video extraction result
func BuildVideoInfo(result *models.ExtractionResult) *models.VideoInfo {
	video, audio := BuildCatalog(result.Formats)

	return &models.VideoInfo{
		Type:         models.KindVideo,
		Title:        coalesce(result.Title, defaultTitle),
		Thumbnail:    result.Thumbnail,
		Duration:     result.Duration,
		WebpageURL:   result.WebpageURL,
		Formats:      video,
		AudioFormats: audio,
	}
}

// filesize prefers the approximate size, then the exact one, then 0
func filesize(f models.StreamVariant) int64 {
	if f.FilesizeApprox != nil && *f.FilesizeApprox != 0 {
		return int64(*f.FilesizeApprox)
	}
	if f.Filesize != nil {
		return int64(*f.Filesize)
	}
	return 0
}

func audioExt(f models.StreamVariant) string {
	if f.AudioExt != "" && f.AudioExt != codecNone {
		return f.AudioExt
	}
	return coalesce(f.Ext, defaultAudioExt)
}

// coalesce returns the first non-empty string
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
