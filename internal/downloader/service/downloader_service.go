package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rizkirmdhn/anydownloader/internal/common/config"
	"github.com/rizkirmdhn/anydownloader/internal/common/logger"
	"github.com/rizkirmdhn/anydownloader/internal/downloader"
	"github.com/rizkirmdhn/anydownloader/internal/media"
	"github.com/rizkirmdhn/anydownloader/pkg/models"
	"github.com/sirupsen/logrus"
)

// DefaultFormatID is used when neither the request nor the config names a format
const DefaultFormatID = "best"

// ErrInvalidRequest matches every *RequestError
var ErrInvalidRequest = errors.New("invalid request")

// RequestError is a request the service refuses before or after resolving it
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is reports ErrInvalidRequest as matching
func (e *RequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}

func invalid(op, format string, args ...any) error {
	return &RequestError{Op: op, Err: fmt.Errorf(format, args...)}
}

// Resolver extracts metadata without downloading
type Resolver interface {
	Resolve(ctx context.Context, url string, flatten bool) (*models.ExtractionResult, error)
}

// Materializer downloads one format of a URL to disk
type Materializer interface {
	Materialize(ctx context.Context, url, formatID, template string) (*downloader.File, error)
}

// EventPublisher receives download lifecycle events. Publish must not block for long.
type EventPublisher interface {
	Publish(event models.DownloadEvent)
}

// Publishers fans an event out to several publishers
type Publishers []EventPublisher

func (p Publishers) Publish(event models.DownloadEvent) {
	for _, publisher := range p {
		publisher.Publish(event)
	}
}

// Download is a materialized file ready to be sent to the client
type Download struct {
	File     *downloader.File
	Filename string
	Title    string
}

type DownloaderService struct {
	config       *config.DownloaderConfig
	resolver     Resolver
	materializer Materializer
	events       EventPublisher
	log          *logger.ComponentLogger
}

// NewDownloaderService creates the service. events may be nil.
func NewDownloaderService(cfg *config.DownloaderConfig, resolver Resolver, materializer Materializer, events EventPublisher, log *logrus.Logger) *DownloaderService {
	if events == nil {
		events = Publishers(nil)
	}
	return &DownloaderService{
		config:       cfg,
		resolver:     resolver,
		materializer: materializer,
		events:       events,
		log:          logger.NewComponentLogger(log, "downloader_service"),
	}
}

// Info resolves url into a VideoInfo, or a PlaylistInfo re-resolved with flat entries
func (s *DownloaderService) Info(ctx context.Context, url string) (models.Info, error) {
	if url == "" {
		return nil, invalid("info", "url is required")
	}

	result, err := s.resolver.Resolve(ctx, url, false)
	if err != nil {
		return nil, err
	}

	if media.Classify(result) == models.KindVideo {
		return media.BuildVideoInfo(result), nil
	}

	flat, err := s.resolver.Resolve(ctx, url, true)
	if err != nil {
		return nil, err
	}

	info := media.BuildPlaylistInfo(flat)
	s.log.WithFields(logrus.Fields{
		"url":            url,
		"playlist_count": info.PlaylistCount,
		"videos":         len(info.Videos),
	}).Debug("Resolved playlist")

	return info, nil
}

// Download resolves url, rejects playlists and materializes formatID.
// The caller owns the returned file.
func (s *DownloaderService) Download(ctx context.Context, url, formatID string) (*Download, error) {
	if url == "" {
		return nil, invalid("download", "url is required")
	}
	formatID = s.formatID(formatID)

	info, err := s.resolveVideo(ctx, url)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, invalid("download", "url resolves to a playlist, download its videos individually")
	}

	s.publish(models.DownloadEvent{Type: models.EventDownload, Status: models.EventStarted, URL: url, Title: info.Title, FormatID: formatID})

	file, err := s.materializer.Materialize(ctx, url, formatID, downloader.TitleTemplate)
	if err != nil {
		s.publish(models.DownloadEvent{Type: models.EventDownload, Status: models.EventFailed, URL: url, Title: info.Title, FormatID: formatID, Error: err.Error()})
		return nil, err
	}

	download := &Download{
		File:     file,
		Filename: media.ClientFilename(info.Title, file.Ext),
		Title:    info.Title,
	}

	s.publish(models.DownloadEvent{Type: models.EventDownload, Status: models.EventCompleted, URL: url, Title: info.Title, FormatID: formatID, Filename: download.Filename})

	return download, nil
}

// batchJob is one entry of a batch request
type batchJob struct {
	index int
	item  models.BatchItem
}

// Batch prepares a placeholder filename for every video entry of req.
// Results follow input order; entries without a url or resolving to a playlist are left out.
func (s *DownloaderService) Batch(ctx context.Context, req models.BatchRequest) (*models.BatchResponse, error) {
	if len(req.Videos) == 0 {
		return nil, invalid("batch", "videos must not be empty")
	}
	formatID := s.formatID(req.FormatID)

	numWorkers := s.config.BatchConcurrency
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if len(req.Videos) < numWorkers {
		numWorkers = len(req.Videos)
	}

	s.log.WithFields(logrus.Fields{
		"videos":    len(req.Videos),
		"workers":   numWorkers,
		"format_id": formatID,
	}).Debug("Starting batch")

	results := make([]*models.BatchResult, len(req.Videos))
	jobs := make(chan batchJob, len(req.Videos))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobs {
				s.log.WithFields(logrus.Fields{
					"worker_id": workerID,
					"index":     job.index,
					"url":       job.item.URL,
				}).Debug("Worker preparing batch entry")

				results[job.index] = s.prepare(ctx, job.item, formatID)
			}
		}(w)
	}

	for i, item := range req.Videos {
		jobs <- batchJob{index: i, item: item}
	}
	close(jobs)
	wg.Wait()

	response := &models.BatchResponse{Results: make([]models.BatchResult, 0, len(results))}
	for _, result := range results {
		if result != nil {
			response.Results = append(response.Results, *result)
		}
	}

	return response, nil
}

// prepare resolves one batch entry. A nil result means the entry is skipped.
func (s *DownloaderService) prepare(ctx context.Context, item models.BatchItem, formatID string) *models.BatchResult {
	if item.URL == "" {
		return nil
	}

	result := &models.BatchResult{URL: item.URL, Title: item.Title, FormatID: formatID}

	info, err := s.resolveVideo(ctx, item.URL)
	if err != nil {
		result.Status = models.StatusError
		result.Error = err.Error()
		s.publish(models.DownloadEvent{Type: models.EventBatch, Status: models.EventError, URL: item.URL, Title: item.Title, FormatID: formatID, Error: result.Error})
		return result
	}
	if info == nil {
		s.log.WithField("url", item.URL).Debug("Skipping playlist in batch")
		return nil
	}

	if result.Title == "" {
		result.Title = info.Title
	}
	result.Status = models.StatusReady
	result.Filename = media.ClientFilename(result.Title, media.PlaceholderExtension(info, formatID))

	s.publish(models.DownloadEvent{Type: models.EventBatch, Status: models.EventReady, URL: item.URL, Title: result.Title, FormatID: formatID, Filename: result.Filename})
	return result
}

// resolveVideo returns the video info of url, or nil when url is a playlist.
// Flat resolution only shortens playlist entries, a single video keeps its formats.
func (s *DownloaderService) resolveVideo(ctx context.Context, url string) (*models.VideoInfo, error) {
	result, err := s.resolver.Resolve(ctx, url, true)
	if err != nil {
		return nil, err
	}
	if media.Classify(result) == models.KindPlaylist {
		return nil, nil
	}
	return media.BuildVideoInfo(result), nil
}

func (s *DownloaderService) formatID(formatID string) string {
	if formatID != "" {
		return formatID
	}
	if s.config.DefaultFormat != "" {
		return s.config.DefaultFormat
	}
	return DefaultFormatID
}

func (s *DownloaderService) publish(event models.DownloadEvent) {
	event.Timestamp = time.Now()
	s.events.Publish(event)
}
