package main

import (
	"flag"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/vcam-ai/go-vbg/backgrounds"
	"github.com/vcam-ai/go-vbg/config"
	"github.com/vcam-ai/go-vbg/pipeline"
	"github.com/vcam-ai/go-vbg/segmentation"
	"github.com/vcam-ai/go-vbg/server"
	"github.com/vcam-ai/go-vbg/session"
)

func main() {
	var (
		configPath string
		listenAddr string
		device     int
		bgDir      string
		modelPath  string
		debug      bool
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML config file")
	flag.StringVar(&listenAddr, "listen", "", "HTTP listen address (overrides config)")
	flag.IntVar(&device, "device", -1, "Capture device ID (overrides config)")
	flag.StringVar(&bgDir, "backgrounds", "", "Backgrounds directory (overrides config)")
	flag.StringVar(&modelPath, "model", "", "Segmentation model path (overrides config)")
	flag.BoolVar(&debug, "debug", false, "Verbose HTTP logging")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if device >= 0 {
		cfg.CameraDevice = device
	}
	if bgDir != "" {
		cfg.BackgroundsDir = bgDir
	}
	if modelPath != "" {
		cfg.ModelPath = modelPath
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := backgrounds.Load(cfg.BackgroundsDir, cfg.BackgroundCount)
	if err != nil {
		log.Fatalf("loading backgrounds: %v", err)
	}
	defer store.Close()
	log.Printf("loaded %d backgrounds from %s", store.Len(), cfg.BackgroundsDir)

	state := session.NewState(store.Len())

	srv := server.New(store, state, server.Options{
		OpenSource: func() (pipeline.Source, error) {
			return pipeline.OpenDevice(cfg.CameraDevice)
		},
		NewSegmenter: func() (segmentation.Segmenter, error) {
			return segmentation.NewONNXSegmenter(segmentation.Config{
				ModelPath:      cfg.ModelPath,
				InputSize:      cfg.ModelInputSize,
				InputName:      cfg.ModelInput,
				OutputName:     cfg.ModelOutput,
				ApplySigmoid:   cfg.ApplySigmoid,
				LibraryPath:    cfg.ONNXLibrary,
				IntraOpThreads: cfg.IntraOpThreads,
				InterOpThreads: cfg.InterOpThreads,
			})
		},
		JPEGQuality: cfg.JPEGQuality,
	})

	if err := srv.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
