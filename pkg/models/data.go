package models

// Result types reported by the extraction engine in "_type"
const (
	TypeVideo      = "video"
	TypePlaylist   = "playlist"
	TypeMultiVideo = "multi_video"
)

// ExtractionResult is the raw metadata returned by the extraction engine for one URL
type ExtractionResult struct {
	Type               string              `json:"_type"`
	ID                 string              `json:"id"`
	Title              string              `json:"title"`
	Thumbnail          string              `json:"thumbnail"`
	Thumbnails         []Thumbnail         `json:"thumbnails"`
	Duration           *float64            `json:"duration"`
	WebpageURL         string              `json:"webpage_url"`
	URL                string              `json:"url"`
	Uploader           string              `json:"uploader"`
	Ext                string              `json:"ext"`
	Formats            []StreamVariant     `json:"formats"`
	Entries            []*PlaylistEntryRaw `json:"entries"`
	PlaylistCount      *int                `json:"playlist_count"`
	Filename           string              `json:"_filename"`
	RequestedDownloads []RequestedDownload `json:"requested_downloads"`
}

// StreamVariant is one selectable encoding of a video or audio track
type StreamVariant struct {
	FormatID       string   `json:"format_id"`
	Ext            string   `json:"ext"`
	AudioExt       string   `json:"audio_ext"`
	Resolution     string   `json:"resolution"`
	Filesize       *float64 `json:"filesize"`
	FilesizeApprox *float64 `json:"filesize_approx"`
	FormatNote     string   `json:"format_note"`
	VideoCodec     string   `json:"vcodec"`
	AudioCodec     string   `json:"acodec"`
}

// PlaylistEntryRaw is a shallow playlist entry as reported with --flat-playlist
type PlaylistEntryRaw struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	URL        string      `json:"url"`
	WebpageURL string      `json:"webpage_url"`
	Duration   *float64    `json:"duration"`
	Thumbnail  string      `json:"thumbnail"`
	Thumbnails []Thumbnail `json:"thumbnails"`
}

// Thumbnail is one entry of a thumbnails list
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// RequestedDownload describes a file the engine produced when download is enabled
type RequestedDownload struct {
	Filepath string `json:"filepath"`
	Ext      string `json:"ext"`
}
