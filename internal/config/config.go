package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	Path string
}

type DetectorConfig struct {
	ModelPath     string
	ConfThreshold float64
	IoUThreshold  float64
	MaxDetections int
	Timeout       time.Duration
}

type StorageConfig struct {
	// ReportsDir is where annotated images land when no object storage
	// is configured.
	ReportsDir string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Detector    DetectorConfig
	Storage     StorageConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			Path: v.GetString("DB_PATH"),
		},
		Detector: DetectorConfig{
			ModelPath:     v.GetString("DETECTOR_MODEL_PATH"),
			ConfThreshold: v.GetFloat64("DETECTOR_CONF_THRESHOLD"),
			IoUThreshold:  v.GetFloat64("DETECTOR_IOU_THRESHOLD"),
			MaxDetections: v.GetInt("DETECTOR_MAX_DETECTIONS"),
			Timeout:       v.GetDuration("DETECTOR_TIMEOUT"),
		},
		Storage: StorageConfig{
			ReportsDir: v.GetString("REPORTS_DIR"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.DB.Path == "" {
		cfg.DB.Path = "data/reports.db"
	}
	if cfg.Detector.ModelPath == "" {
		cfg.Detector.ModelPath = "models/yolov8m.onnx"
	}
	if cfg.Detector.ConfThreshold == 0 {
		cfg.Detector.ConfThreshold = 0.25
	}
	if cfg.Detector.IoUThreshold == 0 {
		cfg.Detector.IoUThreshold = 0.45
	}
	if cfg.Detector.MaxDetections == 0 {
		cfg.Detector.MaxDetections = 5
	}
	if cfg.Detector.Timeout == 0 {
		cfg.Detector.Timeout = 10 * time.Second
	}
	if cfg.Storage.ReportsDir == "" {
		cfg.Storage.ReportsDir = "data/reports"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Detector.ConfThreshold <= 0 || cfg.Detector.ConfThreshold > 1 {
		return fmt.Errorf("DETECTOR_CONF_THRESHOLD must be in (0, 1], got %v", cfg.Detector.ConfThreshold)
	}
	if cfg.Detector.IoUThreshold < 0 || cfg.Detector.IoUThreshold > 1 {
		return fmt.Errorf("DETECTOR_IOU_THRESHOLD must be in [0, 1], got %v", cfg.Detector.IoUThreshold)
	}
	if cfg.Detector.MaxDetections < 0 {
		return fmt.Errorf("DETECTOR_MAX_DETECTIONS must not be negative, got %d", cfg.Detector.MaxDetections)
	}
	return nil
}
