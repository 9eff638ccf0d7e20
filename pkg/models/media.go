package models

// Kind tells a video apart from a playlist
type Kind string

const (
	KindVideo    Kind = "video"
	KindPlaylist Kind = "playlist"
)

// Info is the normalized answer of an info lookup.
// It is implemented by *VideoInfo and *PlaylistInfo only.
type Info interface {
	Kind() Kind
	isInfo()
}

// FormatRecord is a stream variant exposed to clients
type FormatRecord struct {
	FormatID   string `json:"format_id"`
	Ext        string `json:"ext"`
	Resolution string `json:"resolution,omitempty"`
	Filesize   int64  `json:"filesize"`
	FormatNote string `json:"format_note"`
}

// VideoInfo is the normalized metadata of a single video
type VideoInfo struct {
	Type         Kind           `json:"type"`
	Title        string         `json:"title"`
	Thumbnail    string         `json:"thumbnail"`
	Duration     *float64       `json:"duration"`
	WebpageURL   string         `json:"webpage_url"`
	Formats      []FormatRecord `json:"formats"`
	AudioFormats []FormatRecord `json:"audio_formats"`
}

func (*VideoInfo) Kind() Kind { return KindVideo }
func (*VideoInfo) isInfo()    {}

// PlaylistInfo is the normalized metadata of a playlist
type PlaylistInfo struct {
	Type          Kind            `json:"type"`
	Title         string          `json:"title"`
	PlaylistCount int             `json:"playlist_count"`
	Uploader      string          `json:"uploader"`
	Videos        []PlaylistEntry `json:"videos"`
}

func (*PlaylistInfo) Kind() Kind { return KindPlaylist }
func (*PlaylistInfo) isInfo()    {}

// PlaylistEntry is one video listed in a playlist
type PlaylistEntry struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail"`
}
