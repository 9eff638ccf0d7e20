package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rizkirmdhn/anydownloader/internal/common/config"
	"github.com/rizkirmdhn/anydownloader/internal/common/logger"
	"github.com/rizkirmdhn/anydownloader/internal/downloader"
	"github.com/rizkirmdhn/anydownloader/internal/downloader/service"
	"github.com/rizkirmdhn/anydownloader/internal/extractor"
	"github.com/rizkirmdhn/anydownloader/internal/web/websocket"
	"github.com/rizkirmdhn/anydownloader/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	rootMessage     = "AnyDownloader API is running. Use the frontend to interact with the service."
	internalMessage = "Internal server error"
)

// DownloadService is what the HTTP layer needs from the downloader service
type DownloadService interface {
	Info(ctx context.Context, url string) (models.Info, error)
	Download(ctx context.Context, url, formatID string) (*service.Download, error)
	Batch(ctx context.Context, req models.BatchRequest) (*models.BatchResponse, error)
}

type Handler struct {
	cfg   *config.Config
	log   *logger.ComponentLogger
	svc   DownloadService
	wsHub *websocket.Hub
}

// NewHandler creates the HTTP handler. The hub must already be running.
func NewHandler(cfg *config.Config, log *logrus.Logger, svc DownloadService, wsHub *websocket.Hub) *Handler {
	return &Handler{
		cfg:   cfg,
		log:   logger.NewComponentLogger(log, "web"),
		svc:   svc,
		wsHub: wsHub,
	}
}

// CORS allows every origin, method and header and exposes Content-Disposition
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Disposition"},
	})
}

// RegisterRoutes registers all the routes for the web handler
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.Use(CORS())

	r.GET("/", h.RootHandler())
	r.GET("/ws", h.WebSocketHandler())

	// API endpoints
	api := r.Group("/api")
	{
		api.GET("/info", h.InfoHandler())
		api.GET("/download", h.DownloadHandler())
		api.POST("/batch-download", h.BatchDownloadHandler())
	}
}

// RootHandler reports that the API is up
func (h *Handler) RootHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": rootMessage,
		})
	}
}

// WebSocketHandler returns the WebSocket connection handler
func (h *Handler) WebSocketHandler() gin.HandlerFunc {
	return websocket.WebSocketHandler(h.wsHub, h.log.Logger)
}

// InfoHandler returns video or playlist metadata for ?url=
func (h *Handler) InfoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := h.svc.Info(c.Request.Context(), c.Query("url"))
		if err != nil {
			h.fail(c, err)
			return
		}

		c.JSON(http.StatusOK, info)
	}
}

// DownloadHandler downloads ?url= in ?format_id= and sends it as an attachment
func (h *Handler) DownloadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		dl, err := h.svc.Download(c.Request.Context(), c.Query("url"), c.Query("format_id"))
		if err != nil {
			h.fail(c, err)
			return
		}

		if h.cfg.Downloader.RemoveAfterServe {
			defer func() {
				if err := dl.File.Remove(); err != nil {
					h.log.WithError(err).Warn("Failed to remove served download")
				}
			}()
		}

		h.log.WithFields(logrus.Fields{
			"url":          c.Query("url"),
			"filename":     dl.Filename,
			"content_type": dl.File.ContentType,
		}).Info("Serving download")

		c.Header("Content-Type", dl.File.ContentType)
		c.Header("Access-Control-Expose-Headers", "Content-Disposition")
		c.FileAttachment(dl.File.Path, dl.Filename)
	}
}

// BatchDownloadHandler prepares placeholder filenames for a list of URLs
func (h *Handler) BatchDownloadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"detail": "Invalid request body",
			})
			return
		}

		resp, err := h.svc.Batch(c.Request.Context(), req)
		if err != nil {
			h.fail(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// fail writes the error response. Rejected input and engine failures are the
// caller's fault and carry the message; anything else is logged and hidden.
func (h *Handler) fail(c *gin.Context, err error) {
	var extErr *extractor.ExtractionError
	var dlErr *downloader.DownloadError

	switch {
	case errors.As(err, &extErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": extErr.Message,
			"reason": extErr.Reason,
		})
	case errors.Is(err, service.ErrInvalidRequest), errors.As(err, &dlErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": err.Error(),
		})
	default:
		h.log.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"error": err,
		}).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": internalMessage,
		})
	}
}
