// EyeSee - animal vision camera
// Live camera preview through dog, cat and bird colour filters.

package main

import (
	"context"
	"flag"
	"os"
	"time"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"

	"animal-vision-camera/internal/capture"
	"animal-vision-camera/internal/config"
	"animal-vision-camera/internal/debugserver"
	"animal-vision-camera/internal/gui"
	"animal-vision-camera/internal/io"
	"animal-vision-camera/internal/telemetry"
)

const (
	AppName    = "EyeSee"
	AppID      = "com.eyesee.animal-vision-camera"
	AppVersion = "1.0.0"
)

func main() {
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	pattern := flag.Bool("pattern", false, "Use the synthetic test pattern instead of a camera")
	flag.Parse()

	logger := initLogger(*debugMode)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	if *pattern {
		cfg.Source = config.SourcePattern
	}

	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": *debugMode,
		"source":     cfg.Source,
		"filter":     cfg.DefaultFilter.String(),
	}).Info("Starting EyeSee")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName:    "eyesee",
		ServiceVersion: AppVersion,
		Enabled:        cfg.OTelEnabled,
		Endpoint:       cfg.OTelEndpoint,
	})
	if err != nil {
		logger.WithError(err).Warn("Tracing disabled")
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer flushCancel()
		if err := shutdown(flushCtx); err != nil {
			logger.WithError(err).Warn("Trace flush failed")
		}
	}()

	saver, err := io.NewPhotoSaver(cfg.PhotoDir, cfg.PhotoFormat, logger)
	if err != nil {
		logger.WithError(err).Fatal("Photo directory unavailable")
	}

	myApp := app.NewWithID(AppID)
	myApp.SetIcon(theme.MediaPhotoIcon())
	myApp.Settings().SetTheme(theme.DefaultTheme())

	mainApp := gui.NewApplication(myApp, logger, gui.Options{
		Bridge:        newBridge(cfg, logger),
		Saver:         saver,
		InitialFilter: cfg.DefaultFilter,
		SaveFiltered:  cfg.SaveFiltered,
	})

	if cfg.DebugAddr != "" {
		srv := debugserver.New(cfg.DebugAddr, mainApp.Preview(), logger)
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.WithError(err).Error("Debug server failed")
			}
		}()
	}

	mainApp.ShowAndRun()

	logger.Info("Application shutting down gracefully")
}

func newBridge(cfg config.Config, logger logrus.FieldLogger) capture.Bridge {
	if cfg.Source == config.SourcePattern {
		return capture.NewPattern(cfg.PatternWidth, cfg.PatternHeight, cfg.FrameRate, logger)
	}
	return capture.NewCamera(cfg.DeviceID, logger)
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
