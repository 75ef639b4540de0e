// Package config - service configuration with YAML file support.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds everything the daemon needs to wire the pipeline and the
// HTTP surface.
type Config struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string `yaml:"listen_addr"`
	// CameraDevice is the capture device ID.
	CameraDevice int `yaml:"camera_device"`
	// BackgroundsDir holds the numbered background images.
	BackgroundsDir string `yaml:"backgrounds_dir"`
	// BackgroundCount is the number of background slots.
	BackgroundCount int `yaml:"background_count"`
	// JPEGQuality is the stream encode quality (1-100).
	JPEGQuality int `yaml:"jpeg_quality"`

	// Segmentation model settings.
	ModelPath      string `yaml:"model_path"`
	ModelInputSize int    `yaml:"model_input_size"`
	ModelInput     string `yaml:"model_input"`
	ModelOutput    string `yaml:"model_output"`
	ApplySigmoid   bool   `yaml:"apply_sigmoid"`
	ONNXLibrary    string `yaml:"onnx_library"`
	IntraOpThreads int    `yaml:"intra_op_threads"`
	InterOpThreads int    `yaml:"inter_op_threads"`
}

// Default returns the configuration matching the conventional layout:
// six backgrounds under static/backgrounds, default webcam, port 5000.
func Default() Config {
	return Config{
		ListenAddr:      ":5000",
		CameraDevice:    0,
		BackgroundsDir:  "static/backgrounds",
		BackgroundCount: 6,
		JPEGQuality:     85,
		ModelPath:       "models/selfie_segmentation.onnx",
		ModelInputSize:  256,
		ModelInput:      "input_1",
		ModelOutput:     "activation_10",
		ApplySigmoid:    false,
		IntraOpThreads:  4,
		InterOpThreads:  2,
	}
}

// Load reads a YAML file over the defaults. Fields absent from the file
// keep their default values.
//
// Arguments:
//   - path: The YAML config file path.
//
// Returns:
//   - Config: The merged configuration.
//   - error: An error if the file cannot be read or parsed.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the pipeline cannot run with.
func (c Config) Validate() error {
	if c.BackgroundCount <= 0 {
		return errors.Errorf("background_count must be positive, got %d", c.BackgroundCount)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return errors.Errorf("jpeg_quality must be in [1,100], got %d", c.JPEGQuality)
	}
	if c.ModelInputSize <= 0 {
		return errors.Errorf("model_input_size must be positive, got %d", c.ModelInputSize)
	}
	return nil
}
