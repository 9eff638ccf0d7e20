package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"

	"github.com/rizkirmdhn/anydownloader/pkg/models"
)

const defaultYtdlpPath = "yt-dlp"

// YtdlpEngine runs yt-dlp as a subprocess and decodes its single-JSON output
type YtdlpEngine struct {
	// Path is the yt-dlp executable. Defaults to "yt-dlp" from PATH.
	Path string

	// ExtraArgs are passed before the URL on every invocation
	ExtraArgs []string
}

// NewYtdlpEngine creates an engine running the yt-dlp binary at path
func NewYtdlpEngine(path string, extraArgs ...string) *YtdlpEngine {
	return &YtdlpEngine{Path: path, ExtraArgs: extraArgs}
}

// Extract runs yt-dlp for url. The subprocess is killed when ctx is done.
func (y *YtdlpEngine) Extract(ctx context.Context, url string, opts Options) (*models.ExtractionResult, error) {
	cmd := exec.CommandContext(ctx, y.path(), y.buildArgs(url, opts)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrEngineNotInstalled, y.path())
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &ExtractionError{URL: url, Reason: contextReason(ctxErr), Message: ctxErr.Error(), Err: ctxErr}
		}

		msg := engineMessage(stderr.String(), err)
		return nil, &ExtractionError{URL: url, Reason: classifyMessage(msg), Message: msg, Err: err}
	}

	var result models.ExtractionResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	return &result, nil
}

// buildArgs translates Options into yt-dlp flags
func (y *YtdlpEngine) buildArgs(url string, opts Options) []string {
	args := []string{
		"--dump-single-json",
		"--quiet",
		"--no-warnings",
	}

	if opts.Download {
		args = append(args, "--no-simulate")
	} else {
		args = append(args, "--skip-download")
	}
	if opts.Flat {
		args = append(args, "--flat-playlist")
	}
	if opts.NoPlaylist {
		args = append(args, "--no-playlist")
	}
	if opts.Format != "" {
		args = append(args, "--format", opts.Format)
	}
	if opts.OutputTemplate != "" {
		args = append(args, "--output", opts.OutputTemplate)
	}
	if opts.MergeOutputFormat != "" {
		args = append(args, "--merge-output-format", opts.MergeOutputFormat)
	}

	args = append(args, y.ExtraArgs...)
	// "--" keeps a URL starting with '-' from being read as a flag
	return append(args, "--", url)
}

func (y *YtdlpEngine) path() string {
	if y.Path != "" {
		return y.Path
	}
	return defaultYtdlpPath
}
