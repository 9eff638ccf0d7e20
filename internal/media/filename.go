package media

import (
	"path/filepath"
	"strings"

	"github.com/rizkirmdhn/anydownloader/pkg/models"
)

// Container suffixes rewritten for clients. The bytes are not re-encoded.
var extensionRewrites = map[string]string{
	".webm": ".mp4",
	".m4a":  ".mp3",
}

// SanitizeFilename replaces every rune outside [A-Za-z0-9 ._-] with '_'
func SanitizeFilename(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	for _, r := range s {
		if isFilenameRune(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}

	return sb.String()
}

func isFilenameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ', r == '.', r == '_', r == '-':
		return true
	}
	return false
}

// NormalizeExtension rewrites the .webm and .m4a suffixes to .mp4 and .mp3
func NormalizeExtension(name string) string {
	ext := filepath.Ext(name)
	if rewrite, ok := extensionRewrites[strings.ToLower(ext)]; ok {
		return strings.TrimSuffix(name, ext) + rewrite
	}
	return name
}

// ClientFilename builds the attachment name from a title and an extension such as ".mp4"
func ClientFilename(title, ext string) string {
	if title == "" {
		title = defaultTitle
	}
	return SanitizeFilename(title) + SanitizeFilename(NormalizeExtension(ext))
}

// PlaceholderExtension guesses the extension a download of formatID will get.
// Selectors that are not a single catalog entry ("best", "137+140") are merged into mp4.
func PlaceholderExtension(info *models.VideoInfo, formatID string) string {
	for _, group := range [][]models.FormatRecord{info.Formats, info.AudioFormats} {
		for _, f := range group {
			if f.FormatID == formatID {
				return NormalizeExtension("." + f.Ext)
			}
		}
	}
	return "." + defaultVideoExt
}
