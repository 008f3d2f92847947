package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Service    ServiceConfig    `yaml:"service" mapstructure:"service"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Vertex     VertexConfig     `yaml:"vertex" mapstructure:"vertex"`
	OCR        OCRConfig        `yaml:"ocr" mapstructure:"ocr"`
	Render     RenderConfig     `yaml:"render" mapstructure:"render"`
	Preprocess PreprocessConfig `yaml:"preprocess" mapstructure:"preprocess"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the upload server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	UploadDir   string   `yaml:"upload_dir" mapstructure:"upload_dir"`
	MaxUploadMB int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	MaxWorkers  int      `yaml:"max_workers" mapstructure:"max_workers"`
	KeepUploads bool     `yaml:"keep_uploads" mapstructure:"keep_uploads"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// ServiceConfig selects and bounds the text-understanding service.
type ServiceConfig struct {
	Provider          string `yaml:"provider" mapstructure:"provider"`
	TimeoutSecs       int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerMinute int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// VertexConfig holds Vertex AI (Gemini) settings.
type VertexConfig struct {
	Project         string `yaml:"project" mapstructure:"project"`
	Region          string `yaml:"region" mapstructure:"region"`
	Model           string `yaml:"model" mapstructure:"model"`
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
}

// OCRConfig configures the OCR engine.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	TesseractPath string `yaml:"tesseract_path" mapstructure:"tesseract_path"`
	Lang          string `yaml:"lang" mapstructure:"lang"`
	OEM           int    `yaml:"oem" mapstructure:"oem"`
	TessdataDir   string `yaml:"tessdata_dir" mapstructure:"tessdata_dir"`
	MistralKey    string `yaml:"mistral_key" mapstructure:"mistral_key"`
	MistralModel  string `yaml:"mistral_model" mapstructure:"mistral_model"`
}

// RenderConfig configures PDF rasterization.
type RenderConfig struct {
	Provider     string `yaml:"provider" mapstructure:"provider"`
	DPI          int    `yaml:"dpi" mapstructure:"dpi"`
	MaxPages     int    `yaml:"max_pages" mapstructure:"max_pages"`
	PdftoppmPath string `yaml:"pdftoppm_path" mapstructure:"pdftoppm_path"`
}

// PreprocessConfig tunes page image preprocessing.
type PreprocessConfig struct {
	BlockSize      int     `yaml:"block_size" mapstructure:"block_size"`
	ThresholdC     float64 `yaml:"threshold_c" mapstructure:"threshold_c"`
	DenoiseH       float64 `yaml:"denoise_h" mapstructure:"denoise_h"`
	TemplateWindow int     `yaml:"template_window" mapstructure:"template_window"`
	SearchWindow   int     `yaml:"search_window" mapstructure:"search_window"`
	CannyLow       float64 `yaml:"canny_low" mapstructure:"canny_low"`
	CannyHigh      float64 `yaml:"canny_high" mapstructure:"canny_high"`
}

// PipelineConfig configures the normalize/classify/extract calls.
type PipelineConfig struct {
	Temperature               float64 `yaml:"temperature" mapstructure:"temperature"`
	NormalizeMaxTokens        int64   `yaml:"normalize_max_tokens" mapstructure:"normalize_max_tokens"`
	ExtractMaxTokens          int64   `yaml:"extract_max_tokens" mapstructure:"extract_max_tokens"`
	ClassifyMaxTokens         int64   `yaml:"classify_max_tokens" mapstructure:"classify_max_tokens"`
	ClassifyFallbackMaxTokens int64   `yaml:"classify_fallback_max_tokens" mapstructure:"classify_fallback_max_tokens"`
	StrictClassification      bool    `yaml:"strict_classification" mapstructure:"strict_classification"`
	ConcurrentAnalysis        bool    `yaml:"concurrent_analysis" mapstructure:"concurrent_analysis"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DOCINTAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.upload_dir", "uploads")
	v.SetDefault("server.max_upload_mb", 25)
	v.SetDefault("server.max_workers", 2)
	v.SetDefault("server.keep_uploads", false)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("service.provider", "anthropic")
	v.SetDefault("service.timeout_secs", 120)
	v.SetDefault("service.requests_per_minute", 0)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("vertex.project", "")
	v.SetDefault("vertex.region", "us-central1")
	v.SetDefault("vertex.model", "gemini-1.5-pro")
	v.SetDefault("vertex.credentials_file", "")
	v.SetDefault("ocr.provider", "tesseract")
	v.SetDefault("ocr.tesseract_path", "tesseract")
	v.SetDefault("ocr.lang", "eng")
	v.SetDefault("ocr.oem", 3)
	v.SetDefault("ocr.tessdata_dir", "")
	v.SetDefault("ocr.mistral_key", "")
	v.SetDefault("ocr.mistral_model", "mistral-ocr-latest")
	v.SetDefault("render.provider", "fitz")
	v.SetDefault("render.dpi", 150)
	v.SetDefault("render.max_pages", 0)
	v.SetDefault("render.pdftoppm_path", "pdftoppm")
	v.SetDefault("preprocess.block_size", 11)
	v.SetDefault("preprocess.threshold_c", 2.0)
	v.SetDefault("preprocess.denoise_h", 30.0)
	v.SetDefault("preprocess.template_window", 7)
	v.SetDefault("preprocess.search_window", 21)
	v.SetDefault("preprocess.canny_low", 100.0)
	v.SetDefault("preprocess.canny_high", 200.0)
	v.SetDefault("pipeline.temperature", 0.1)
	v.SetDefault("pipeline.normalize_max_tokens", 4000)
	v.SetDefault("pipeline.extract_max_tokens", 4000)
	v.SetDefault("pipeline.classify_max_tokens", 10)
	v.SetDefault("pipeline.classify_fallback_max_tokens", 100)
	v.SetDefault("pipeline.strict_classification", false)
	v.SetDefault("pipeline.concurrent_analysis", true)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the settings needed by mode are present. Mode is
// "extract" for one-shot CLI runs or "serve" for the upload server. All
// problems are reported together.
func (c *Config) Validate(mode string) error {
	if mode != "extract" && mode != "serve" {
		return eris.Errorf("config: unknown mode %q", mode)
	}

	var problems []string

	switch c.Service.Provider {
	case "anthropic", "":
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
		if c.Anthropic.Model == "" {
			problems = append(problems, "anthropic.model is required")
		}
	case "vertex":
		if c.Vertex.Project == "" {
			problems = append(problems, "vertex.project is required")
		}
		if c.Vertex.Region == "" {
			problems = append(problems, "vertex.region is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown service.provider %q", c.Service.Provider))
	}

	switch c.OCR.Provider {
	case "tesseract", "":
	case "mistral":
		if c.OCR.MistralKey == "" {
			problems = append(problems, "ocr.mistral_key is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown ocr.provider %q", c.OCR.Provider))
	}

	switch c.Render.Provider {
	case "fitz", "pdftoppm", "":
	default:
		problems = append(problems, fmt.Sprintf("unknown render.provider %q", c.Render.Provider))
	}
	if c.Render.DPI <= 0 {
		problems = append(problems, "render.dpi must be > 0")
	}
	if c.Pipeline.Temperature < 0 || c.Pipeline.Temperature > 1 {
		problems = append(problems, "pipeline.temperature must be between 0 and 1")
	}

	if mode == "serve" {
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Server.UploadDir == "" {
			problems = append(problems, "server.upload_dir is required")
		}
		if c.Server.MaxWorkers < 1 || c.Server.MaxWorkers > 64 {
			problems = append(problems, "server.max_workers must be between 1 and 64")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
