package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"gopkg.in/yaml.v3"

	"github.com/mediascribe/video-transcription/internal/cleanup"
	"github.com/mediascribe/video-transcription/internal/handlers"
	"github.com/mediascribe/video-transcription/internal/hub"
	"github.com/mediascribe/video-transcription/internal/media"
	"github.com/mediascribe/video-transcription/internal/queue"
	"github.com/mediascribe/video-transcription/internal/storage"
	"github.com/mediascribe/video-transcription/internal/transcription"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Workers struct {
		Count int `yaml:"count"`
	} `yaml:"workers"`

	Whisper struct {
		Model  string `yaml:"model"`
		Device string `yaml:"device"`
	} `yaml:"whisper"`

	Storage struct {
		UploadDir     string `yaml:"upload_dir"`
		AudioDir      string `yaml:"audio_dir"`
		TranscriptDir string `yaml:"transcript_dir"`
		Database      string `yaml:"database"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	Limits struct {
		MaxFileSizeMB int `yaml:"max_file_size_mb"`
	} `yaml:"limits"`
}

func main() {
	config, err := loadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cleanup.EnsureDirs(
		config.Storage.UploadDir,
		config.Storage.AudioDir,
		config.Storage.TranscriptDir,
	); err != nil {
		log.Fatalf("Failed to create storage directories: %v", err)
	}

	// Custom logger setup
	logBuffer := &LogBuffer{
		lines: make([]string, 0, 1000),
	}
	multiWriter := io.MultiWriter(os.Stdout, logBuffer)
	log.SetOutput(multiWriter)

	log.Println("Initializing components...")

	extractor := media.NewExtractor()
	transcriber := transcription.NewWhisperTranscriber(
		config.Whisper.Model,
		config.Whisper.Device,
		extractor,
	)
	localStorage := storage.NewLocalStorage(config.Storage.TranscriptDir)

	db, err := storage.NewMetadataDB(config.Storage.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	updateHub := hub.New()

	manager := queue.NewManager(
		config.Workers.Count,
		config.Storage.AudioDir,
		extractor,
		transcriber,
		localStorage,
		db,
		updateHub,
	)
	manager.Start()

	cleanupScheduler := cleanup.NewScheduler(
		[]string{config.Storage.UploadDir, config.Storage.AudioDir},
		config.Cleanup.IntervalMinutes,
		config.Cleanup.MaxAgeHours,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	app := fiber.New(fiber.Config{
		BodyLimit: config.Limits.MaxFileSizeMB * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	uploadHandler := handlers.NewUploadHandler(manager, config.Storage.UploadDir, config.Limits.MaxFileSizeMB)
	jobsHandler := handlers.NewJobsHandler(manager, updateHub)
	liveHandler := handlers.NewLiveHandler(manager, updateHub)

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Post("/api/upload", uploadHandler.Handle)
	app.Get("/api/jobs", jobsHandler.List)
	app.Get("/api/jobs/:id", jobsHandler.Get)
	app.Get("/api/download/:id", jobsHandler.Download)
	app.Get("/api/status", jobsHandler.Status)

	app.Get("/api/transcripts", func(c *fiber.Ctx) error {
		transcripts, err := db.ListTranscripts(50)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(transcripts)
	})

	app.Get("/api/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"logs": logBuffer.GetLogs(),
		})
	})

	// WebSocket route for live job updates
	app.Get("/ws", websocket.New(liveHandler.Handle))

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Println("Endpoints:")
	log.Println("   POST /api/upload       - Upload video file")
	log.Println("   GET  /api/jobs         - List all jobs")
	log.Println("   GET  /api/jobs/:id     - Get job by ID")
	log.Println("   GET  /api/download/:id - Download transcript")
	log.Println("   GET  /api/transcripts  - List transcript index")
	log.Println("   GET  /api/status       - Queue and worker status")
	log.Println("   GET  /api/logs         - View server logs")
	log.Println("   GET  /ws               - WebSocket live job updates")
	log.Println("   GET  /health           - Health check")

	// Graceful shutdown: stop the listener first, then drain the pool.
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}

	manager.Shutdown()
	log.Println("Shutdown complete")
}

// LogBuffer captures logs in memory
type LogBuffer struct {
	lines []string
	mu    sync.Mutex
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = append(lb.lines, string(p))

	// Keep last 1000 lines
	if len(lb.lines) > 1000 {
		lb.lines = lb.lines[len(lb.lines)-1000:]
	}

	return len(p), nil
}

func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}

// loadConfig loads configuration from YAML file
func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
