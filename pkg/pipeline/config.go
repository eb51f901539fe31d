package pipeline

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gardar/docscan/pkg/gdocai"
	"github.com/gardar/docscan/pkg/ocr"
	"github.com/gardar/docscan/pkg/scan"
)

// OCR engine names.
const (
	EngineTesseract  = "tesseract"
	EngineDocumentAI = "documentai"
	EngineHOCR       = "hocr"
)

// ErrInvalidConfig is returned when a loaded config cannot drive a pipeline.
var ErrInvalidConfig = errors.New("pipeline: invalid config")

// OCRConfig selects and tunes the OCR engine.
type OCRConfig struct {
	Engine    string   `yaml:"engine" json:"engine"`
	Languages []string `yaml:"languages" json:"languages"`
	// HOCRFile is the pre-computed hOCR replayed by the hocr engine.
	HOCRFile string `yaml:"hocr_file" json:"hocrFile,omitempty"`
	// LowConfidence flags words below this confidence (0-100).
	LowConfidence float64 `yaml:"low_confidence" json:"lowConfidence"`
}

// Config is the full configuration of the tools.
type Config struct {
	Scan       scan.Config   `yaml:"scan" json:"scan"`
	OCR        OCRConfig     `yaml:"ocr" json:"ocr"`
	DocumentAI gdocai.Config `yaml:"document_ai" json:"documentAi"`
	// Database is the SQLite document store path.
	Database string `yaml:"database" json:"database"`
	// History is the local history JSON file.
	History string `yaml:"history" json:"history"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Scan: scan.DefaultConfig(),
		OCR: OCRConfig{
			Engine:        EngineTesseract,
			Languages:     []string{"eng"},
			LowConfidence: ocr.DefaultLowConfidence,
		},
		Database: "docscan.db",
		History:  "docscan-history.json",
	}
}

// LoadConfig reads a YAML file over DefaultConfig, so omitted keys keep their
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the values a pipeline depends on.
func (c Config) Validate() error {
	switch {
	case c.Scan.MaxDimension <= 0:
		return fmt.Errorf("%w: scan.max_dimension must be positive", ErrInvalidConfig)
	case c.Scan.BlurKernel <= 0 || c.Scan.BlurKernel%2 == 0:
		return fmt.Errorf("%w: scan.blur_kernel must be odd and positive", ErrInvalidConfig)
	case c.Scan.CannyLow < 0 || c.Scan.CannyHigh < c.Scan.CannyLow:
		return fmt.Errorf("%w: scan canny thresholds out of order", ErrInvalidConfig)
	case c.Scan.EpsilonRatio <= 0:
		return fmt.Errorf("%w: scan.epsilon_ratio must be positive", ErrInvalidConfig)
	case c.OCR.LowConfidence < 0 || c.OCR.LowConfidence > 100:
		return fmt.Errorf("%w: ocr.low_confidence must be within 0-100", ErrInvalidConfig)
	}
	switch c.OCR.Engine {
	case EngineTesseract, EngineDocumentAI, EngineHOCR:
	default:
		return fmt.Errorf("%w: unknown ocr.engine %q", ErrInvalidConfig, c.OCR.Engine)
	}
	return nil
}

// ApplyEnv overrides fields from DOCSCAN_* variables looked up with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("DOCSCAN_DB_PATH"); v != "" {
		c.Database = v
	}
	if v := getenv("DOCSCAN_HISTORY_PATH"); v != "" {
		c.History = v
	}
	if v := getenv("DOCSCAN_OCR_ENGINE"); v != "" {
		c.OCR.Engine = v
	}
	if v := getenv("DOCSCAN_OCR_LANGUAGES"); v != "" {
		c.OCR.Languages = strings.Split(v, ",")
	}
	if v := getenv("DOCSCAN_HOCR_FILE"); v != "" {
		c.OCR.HOCRFile = v
	}
	if v := getenv("DOCSCAN_MAX_DIMENSION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: DOCSCAN_MAX_DIMENSION: %w", ErrInvalidConfig, err)
		}
		c.Scan.MaxDimension = n
	}
	if v := getenv("DOCSCAN_DOCAI_PROJECT_ID"); v != "" {
		c.DocumentAI.ProjectID = v
	}
	if v := getenv("DOCSCAN_DOCAI_LOCATION"); v != "" {
		c.DocumentAI.Location = v
	}
	if v := getenv("DOCSCAN_DOCAI_PROCESSOR_ID"); v != "" {
		c.DocumentAI.ProcessorID = v
	}
	if v := getenv("DOCSCAN_DOCAI_CREDENTIALS"); v != "" {
		c.DocumentAI.CredentialsFile = v
	}
	return c.Validate()
}

// NewEngine builds the OCR engine named by cfg.OCR.Engine.
func NewEngine(cfg Config) (ocr.Engine, error) {
	var (
		engine ocr.Engine
		err    error
	)
	switch cfg.OCR.Engine {
	case EngineTesseract:
		engine, err = ocr.NewTesseract(cfg.OCR.Languages...)
	case EngineDocumentAI:
		engine, err = gdocai.NewEngine(cfg.DocumentAI)
	case EngineHOCR:
		if cfg.OCR.HOCRFile == "" {
			return nil, fmt.Errorf("%w: the hocr engine needs ocr.hocr_file", ErrInvalidConfig)
		}
		engine, err = ocr.LoadHOCRFile(cfg.OCR.HOCRFile)
	default:
		return nil, fmt.Errorf("%w: unknown ocr.engine %q", ErrInvalidConfig, cfg.OCR.Engine)
	}
	if err != nil {
		return nil, err
	}
	return engine, nil
}
