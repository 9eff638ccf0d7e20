package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rizkirmdhn/anydownloader/internal/common/config"
	"github.com/rizkirmdhn/anydownloader/internal/common/logger"
	"github.com/rizkirmdhn/anydownloader/internal/common/messaging"
	"github.com/rizkirmdhn/anydownloader/internal/downloader"
	"github.com/rizkirmdhn/anydownloader/internal/downloader/service"
	"github.com/rizkirmdhn/anydownloader/internal/extractor"
	"github.com/rizkirmdhn/anydownloader/internal/web/handler"
	"github.com/rizkirmdhn/anydownloader/internal/web/websocket"
	"github.com/rizkirmdhn/anydownloader/pkg/utils"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load the configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger
	log := logger.New(cfg)

	log.WithFields(logrus.Fields{
		"component": "web_main",
		"server":    fmt.Sprintf("%+v", cfg.Server),
		"extractor": fmt.Sprintf("%+v", cfg.Extractor),
	}).Debug("Configuration loaded")

	log.WithFields(logrus.Fields{
		"component": "web_main",
		"config":    fmt.Sprintf("%+v", cfg.Downloader),
	}).Debug("Downloader configuration loaded")

	// Prepare the downloads directory
	dlCfg := cfg.GetDownloaderConfig()
	if err := utils.EnsureDir(dlCfg.DownloadDir); err != nil {
		log.WithFields(logrus.Fields{
			"component": "web_main",
			"error":     err,
		}).Fatal("Failed to create downloads directory")
	}
	if dlCfg.CleanOnStart {
		if err := utils.ClearFolder(dlCfg.DownloadDir); err != nil {
			log.WithFields(logrus.Fields{
				"component": "web_main",
				"error":     err,
			}).Warn("Failed to clean downloads directory")
		}
	}

	// WebSocket hub for download events
	wsHub := websocket.NewHub(log)
	go wsHub.Run()
	defer wsHub.Stop()

	publishers := service.Publishers{wsHub}

	// RabbitMQ is optional
	if rabbitCfg := cfg.GetRabbitMQConfig(); rabbitCfg.URL != "" {
		msgClient, err := messaging.NewRabbitMQClient(rabbitCfg, log)
		if err != nil {
			log.WithFields(logrus.Fields{
				"component": "web_main",
				"error":     err,
			}).Fatal("Failed to create RabbitMQ client")
		}
		defer msgClient.Close()

		publishers = append(publishers, msgClient)
		log.WithFields(logrus.Fields{
			"component": "web_main",
			"exchange":  rabbitCfg.Exchange,
		}).Info("Publishing download events to RabbitMQ")
	}

	// Wire the extraction engine and the downloader service
	engine := extractor.NewYtdlpEngine(cfg.Extractor.Path, cfg.Extractor.ExtraArgs...)
	adapter := extractor.NewAdapter(engine, cfg.Extractor.Timeout, log)
	materializer := downloader.NewMaterializer(engine, dlCfg.DownloadDir, dlCfg.MergeFormat, cfg.Extractor.Timeout, log)
	downloaderService := service.NewDownloaderService(dlCfg, adapter, materializer, publishers, log)

	// Check environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize the gin router
	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestLogger(log))

	// Register routes
	h := handler.NewHandler(cfg, log, downloaderService, wsHub)
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: r,
	}

	// Start the web server
	go func() {
		log.WithFields(logrus.Fields{
			"component": "web_main",
			"addr":      srv.Addr,
		}).Info("Server starting")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithFields(logrus.Fields{
				"component": "web_main",
				"error":     err,
			}).Fatal("Failed to start server")
		}
	}()

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a termination signal
	sig := <-sigCh
	log.WithFields(logrus.Fields{
		"component": "web_main",
		"signal":    sig,
	}).Info("Received signal, shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithFields(logrus.Fields{
			"component": "web_main",
			"error":     err,
		}).Error("Server shutdown failed")
	}
}
