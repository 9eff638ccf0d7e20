// Package downloader materializes a selected format of a video as a file on disk.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rizkirmdhn/anydownloader/internal/common/logger"
	"github.com/rizkirmdhn/anydownloader/internal/extractor"
	"github.com/rizkirmdhn/anydownloader/internal/media"
	"github.com/rizkirmdhn/anydownloader/pkg/models"
	"github.com/rizkirmdhn/anydownloader/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	// TitleTemplate names the output file after the video title
	TitleTemplate = "%(title)s.%(ext)s"

	defaultMergeFormat = "mp4"
	fallbackMIME       = "application/octet-stream"
)

// DownloadError is returned when the engine could not produce a file for a URL
type DownloadError struct {
	URL      string
	FormatID string
	Err      error
}

func (e *DownloadError) Error() string {
	return e.Err.Error()
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// File is a downloaded file inside its own request directory
type File struct {
	// Path is the file on disk
	Path string

	// Dir is the per-request directory holding Path
	Dir string

	// Ext is the client-facing extension, e.g. ".mp4"
	Ext string

	// ContentType is the MIME type detected from the file content
	ContentType string

	// Result is the engine's report of the download
	Result *models.ExtractionResult
}

// Remove deletes the request directory and everything in it
func (f *File) Remove() error {
	return os.RemoveAll(f.Dir)
}

// Materializer runs downloads through an Engine into per-request directories
type Materializer struct {
	engine      extractor.Engine
	downloadDir string
	mergeFormat string
	timeout     time.Duration
	log         *logger.ComponentLogger
}

// NewMaterializer creates a materializer writing below downloadDir.
// An empty mergeFormat muxes into mp4.
func NewMaterializer(engine extractor.Engine, downloadDir, mergeFormat string, timeout time.Duration, log *logrus.Logger) *Materializer {
	if mergeFormat == "" {
		mergeFormat = defaultMergeFormat
	}
	return &Materializer{
		engine:      engine,
		downloadDir: downloadDir,
		mergeFormat: mergeFormat,
		timeout:     timeout,
		log:         logger.NewComponentLogger(log, "downloader"),
	}
}

// Materialize downloads formatID of url using the output template inside a fresh directory.
// Engine rejections and missing output are returned as *DownloadError. The caller owns
// the returned file and should Remove it when done.
func (m *Materializer) Materialize(ctx context.Context, url, formatID, template string) (*File, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	if template == "" {
		template = TitleTemplate
	}

	dir := filepath.Join(m.downloadDir, uuid.New().String())
	if err := utils.EnsureDir(dir); err != nil {
		return nil, err
	}

	log := m.log.WithFields(logrus.Fields{
		"url":       url,
		"format_id": formatID,
		"dir":       dir,
	})
	log.Debug("Starting download")

	start := time.Now()
	result, err := m.engine.Extract(ctx, url, extractor.Options{
		Download:          true,
		Format:            formatID,
		OutputTemplate:    filepath.Join(dir, template),
		MergeOutputFormat: m.mergeFormat,
		NoPlaylist:        true,
	})
	if err != nil {
		os.RemoveAll(dir)
		if errors.Is(err, extractor.ErrEngineNotInstalled) || errors.Is(err, extractor.ErrMalformedOutput) {
			return nil, err
		}
		log.WithError(err).Warn("Download failed")
		return nil, &DownloadError{URL: url, FormatID: formatID, Err: err}
	}

	reported := reportedPath(result)
	path, err := locate(dir, reported)
	if err != nil {
		os.RemoveAll(dir)
		log.WithError(err).Warn("Downloaded file not found")
		return nil, &DownloadError{URL: url, FormatID: formatID, Err: fmt.Errorf("downloaded file not found: %w", err)}
	}

	file := &File{
		Path:        path,
		Dir:         dir,
		Ext:         m.clientExt(reported, path),
		ContentType: fallbackMIME,
		Result:      result,
	}

	mime, err := mimetype.DetectFile(path)
	if err != nil {
		log.WithError(err).Warn("Failed to detect content type")
	} else {
		file.ContentType = mime.String()
		if mime.Extension() != "" && !strings.EqualFold(mime.Extension(), file.Ext) {
			log.WithFields(logrus.Fields{
				"detected": mime.Extension(),
				"ext":      file.Ext,
			}).Warn("Detected container does not match file extension")
		}
	}

	log.WithFields(logrus.Fields{
		"path":         path,
		"content_type": file.ContentType,
		"duration":     time.Since(start).String(),
	}).Info("Download completed")

	return file, nil
}

// clientExt is the normalized extension of the reported name, else of the file
// on disk, else the merge container
func (m *Materializer) clientExt(reported, path string) string {
	for _, name := range []string{reported, path} {
		if ext := filepath.Ext(name); ext != "" {
			return media.NormalizeExtension(ext)
		}
	}
	return "." + m.mergeFormat
}

// reportedPath is where the engine says it wrote the file
func reportedPath(result *models.ExtractionResult) string {
	if len(result.RequestedDownloads) > 0 && result.RequestedDownloads[0].Filepath != "" {
		return result.RequestedDownloads[0].Filepath
	}
	return result.Filename
}

// locate finds the produced file: the reported path, the same path with its
// extension rewritten, or the only file in dir
func locate(dir, reported string) (string, error) {
	if reported != "" {
		if utils.FileExists(reported) {
			return reported, nil
		}
		if rewritten := media.NormalizeExtension(reported); utils.FileExists(rewritten) {
			return rewritten, nil
		}
	}
	return utils.SingleFile(dir)
}
