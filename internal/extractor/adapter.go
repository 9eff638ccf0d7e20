package extractor

import (
	"context"
	"errors"
	"time"

	"github.com/rizkirmdhn/anydownloader/internal/common/logger"
	"github.com/rizkirmdhn/anydownloader/pkg/models"
	"github.com/sirupsen/logrus"
)

// Adapter resolves metadata through an Engine with a fixed no-download configuration
type Adapter struct {
	engine  Engine
	timeout time.Duration
	log     *logger.ComponentLogger
}

// NewAdapter creates an adapter. A zero timeout leaves calls bounded only by their context.
func NewAdapter(engine Engine, timeout time.Duration, log *logrus.Logger) *Adapter {
	return &Adapter{
		engine:  engine,
		timeout: timeout,
		log:     logger.NewComponentLogger(log, "extractor"),
	}
}

// Resolve extracts metadata for url without downloading anything.
// flatten requests shallow playlist entries. Engine failures are returned as *ExtractionError.
func (a *Adapter) Resolve(ctx context.Context, url string, flatten bool) (*models.ExtractionResult, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := a.engine.Extract(ctx, url, Options{Flat: flatten})
	if err != nil {
		err = asExtractionError(url, err)
		a.log.WithFields(logrus.Fields{
			"url":     url,
			"flatten": flatten,
			"error":   err,
		}).Warn("Extraction failed")
		return nil, err
	}

	a.log.WithFields(logrus.Fields{
		"url":      url,
		"flatten":  flatten,
		"type":     result.Type,
		"duration": time.Since(start).String(),
	}).Debug("Extraction completed")

	return result, nil
}

// asExtractionError folds any engine failure except server-side faults into an *ExtractionError
func asExtractionError(url string, err error) error {
	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		return err
	}
	if errors.Is(err, ErrEngineNotInstalled) || errors.Is(err, ErrMalformedOutput) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &ExtractionError{URL: url, Reason: contextReason(err), Message: err.Error(), Err: err}
	}
	return &ExtractionError{URL: url, Reason: classifyMessage(err.Error()), Message: err.Error(), Err: err}
}
