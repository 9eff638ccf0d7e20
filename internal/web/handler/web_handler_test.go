package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rizkirmdhn/anydownloader/internal/common/config"
	"github.com/rizkirmdhn/anydownloader/internal/downloader"
	"github.com/rizkirmdhn/anydownloader/internal/downloader/service"
	"github.com/rizkirmdhn/anydownloader/internal/extractor"
	"github.com/rizkirmdhn/anydownloader/internal/web/websocket"
	"github.com/rizkirmdhn/anydownloader/pkg/models"
	"github.com/sirupsen/logrus"
)

type fakeService struct {
	info     models.Info
	download *service.Download
	batch    *models.BatchResponse
	err      error

	gotURL    string
	gotFormat string
	gotBatch  models.BatchRequest
}

func (f *fakeService) Info(ctx context.Context, url string) (models.Info, error) {
	f.gotURL = url
	return f.info, f.err
}

func (f *fakeService) Download(ctx context.Context, url, formatID string) (*service.Download, error) {
	f.gotURL, f.gotFormat = url, formatID
	return f.download, f.err
}

func (f *fakeService) Batch(ctx context.Context, req models.BatchRequest) (*models.BatchResponse, error) {
	f.gotBatch = req
	return f.batch, f.err
}

func newTestRouter(t *testing.T, svc DownloadService, removeAfterServe bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	hub := websocket.NewHub(log)
	go hub.Run()
	t.Cleanup(hub.Stop)

	cfg := &config.Config{Downloader: config.DownloaderConfig{RemoveAfterServe: removeAfterServe}}

	r := gin.New()
	r.Use(RequestLogger(log))
	NewHandler(cfg, log, svc, hub).RegisterRoutes(r)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestRootHandler(t *testing.T) {
	r := newTestRouter(t, &fakeService{}, false)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if msg, _ := decode(t, w)["message"].(string); msg == "" {
		t.Error("missing message")
	}
}

func TestInfoHandler_Video(t *testing.T) {
	svc := &fakeService{info: &models.VideoInfo{
		Type:         models.KindVideo,
		Title:        "Demo",
		Formats:      []models.FormatRecord{{FormatID: "18", Ext: "mp4", Resolution: "640x360", FormatNote: "360p"}},
		AudioFormats: []models.FormatRecord{},
	}}
	r := newTestRouter(t, svc, false)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/info?url=https%3A%2F%2Fexample.com%2Fv", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if svc.gotURL != "https://example.com/v" {
		t.Errorf("url = %q", svc.gotURL)
	}

	body := decode(t, w)
	if body["type"] != "video" || body["title"] != "Demo" {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["videos"]; ok {
		t.Error("video info carries videos")
	}
	if formats, ok := body["audio_formats"].([]any); !ok || len(formats) != 0 {
		t.Errorf("audio_formats = %v, want empty array", body["audio_formats"])
	}
}

func TestInfoHandler_Playlist(t *testing.T) {
	svc := &fakeService{info: &models.PlaylistInfo{
		Type:          models.KindPlaylist,
		Title:         "Mix",
		PlaylistCount: 120,
		Videos:        []models.PlaylistEntry{{ID: "a", Title: "A", URL: "https://example.com/a"}},
	}}
	r := newTestRouter(t, svc, false)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/info?url=p", nil))
	body := decode(t, w)
	if body["type"] != "playlist" || body["playlist_count"] != float64(120) {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["formats"]; ok {
		t.Error("playlist info carries formats")
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
		wantReason string
	}{
		{
			name:       "extraction",
			err:        &extractor.ExtractionError{URL: "u", Reason: extractor.ReasonUnsupportedURL, Message: "ERROR: Unsupported URL: u"},
			wantStatus: http.StatusBadRequest,
			wantDetail: "ERROR: Unsupported URL: u",
			wantReason: "unsupported_url",
		},
		{
			name:       "invalid request",
			err:        &service.RequestError{Op: "info", Err: errors.New("url is required")},
			wantStatus: http.StatusBadRequest,
			wantDetail: "url is required",
		},
		{
			name:       "download",
			err:        &downloader.DownloadError{URL: "u", Err: errors.New("downloaded file not found")},
			wantStatus: http.StatusBadRequest,
			wantDetail: "downloaded file not found",
		},
		{
			name:       "engine missing",
			err:        extractor.ErrEngineNotInstalled,
			wantStatus: http.StatusInternalServerError,
			wantDetail: internalMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, &fakeService{err: tt.err}, false)

			for _, target := range []string{"/api/info?url=u", "/api/download?url=u"} {
				w := serve(r, httptest.NewRequest(http.MethodGet, target, nil))
				if w.Code != tt.wantStatus {
					t.Errorf("%s status = %d, want %d", target, w.Code, tt.wantStatus)
				}
				body := decode(t, w)
				if body["detail"] != tt.wantDetail {
					t.Errorf("%s detail = %v, want %q", target, body["detail"], tt.wantDetail)
				}
				if reason, _ := body["reason"].(string); reason != tt.wantReason {
					t.Errorf("%s reason = %q, want %q", target, reason, tt.wantReason)
				}
			}
		})
	}
}

func TestDownloadHandler(t *testing.T) {
	for _, remove := range []bool{false, true} {
		t.Run(map[bool]string{false: "keep", true: "remove"}[remove], func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "Demo Clip.webm")
			if err := os.WriteFile(path, []byte("media bytes"), 0o644); err != nil {
				t.Fatal(err)
			}

			svc := &fakeService{download: &service.Download{
				File:     &downloader.File{Path: path, Dir: dir, Ext: ".mp4", ContentType: "video/webm"},
				Filename: "Demo Clip.mp4",
				Title:    "Demo Clip",
			}}
			r := newTestRouter(t, svc, remove)

			w := serve(r, httptest.NewRequest(http.MethodGet, "/api/download?url=u&format_id=251", nil))
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
			}
			if svc.gotFormat != "251" {
				t.Errorf("format_id = %q", svc.gotFormat)
			}
			if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="Demo Clip.mp4"` {
				t.Errorf("Content-Disposition = %q", got)
			}
			if got := w.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, "Content-Disposition") {
				t.Errorf("Access-Control-Expose-Headers = %q", got)
			}
			if got := w.Header().Get("Content-Type"); got != "video/webm" {
				t.Errorf("Content-Type = %q", got)
			}
			if w.Body.String() != "media bytes" {
				t.Errorf("body = %q", w.Body.String())
			}

			_, err := os.Stat(dir)
			if removed := os.IsNotExist(err); removed != remove {
				t.Errorf("directory removed = %v, want %v", removed, remove)
			}
		})
	}
}

func TestDownloadHandler_DefaultFormatLeftToService(t *testing.T) {
	svc := &fakeService{err: &service.RequestError{Op: "download", Err: errors.New("url is required")}}
	r := newTestRouter(t, svc, false)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/download", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
	if svc.gotURL != "" || svc.gotFormat != "" {
		t.Errorf("url = %q, format_id = %q", svc.gotURL, svc.gotFormat)
	}
}

func TestBatchDownloadHandler(t *testing.T) {
	svc := &fakeService{batch: &models.BatchResponse{Results: []models.BatchResult{
		{URL: "v1", Title: "First", Status: models.StatusReady, FormatID: "best", Filename: "First.mp4"},
		{URL: "bad", Status: models.StatusError, FormatID: "best", Error: "ERROR: Unsupported URL: bad"},
	}}}
	r := newTestRouter(t, svc, false)

	req := httptest.NewRequest(http.MethodPost, "/api/batch-download", strings.NewReader(`{"videos":[{"url":"v1"},{"url":"bad","title":"B"}],"format_id":"best"}`))
	req.Header.Set("Content-Type", "application/json")

	w := serve(r, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(svc.gotBatch.Videos) != 2 || svc.gotBatch.Videos[1].Title != "B" || svc.gotBatch.FormatID != "best" {
		t.Errorf("request = %+v", svc.gotBatch)
	}

	var resp models.BatchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 || resp.Results[0].Status != models.StatusReady || resp.Results[1].Status != models.StatusError {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestBatchDownloadHandler_BadBody(t *testing.T) {
	r := newTestRouter(t, &fakeService{}, false)

	for _, body := range []string{"", "{", "[1,2]"} {
		req := httptest.NewRequest(http.MethodPost, "/api/batch-download", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		if w := serve(r, req); w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestCORS(t *testing.T) {
	r := newTestRouter(t, &fakeService{}, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://frontend.test")
	w := serve(r, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	preflight := httptest.NewRequest(http.MethodOptions, "/api/batch-download", nil)
	preflight.Header.Set("Origin", "http://frontend.test")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = serve(r, preflight)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("preflight Access-Control-Allow-Origin = %q", got)
	}
}
