package export

import (
	"log/slog"
)

// LayerConfig holds options for the invisible text layer of a searchable PDF.
type LayerConfig struct {
	Debug       bool         // Draw the text in red with word boxes instead of hiding it
	LayerName   string       // Base name of OCR layer (page number will be appended)
	LogWarnings bool         // Whether to log lossy text encoding
	Logger      *slog.Logger // Custom logger for warnings (nil = slog.Default())
	Font        FontConfig
}

// DefaultLayerConfig returns a config with sensible defaults
func DefaultLayerConfig() LayerConfig {
	return LayerConfig{
		LayerName:   "OCR Text", // Will be formatted as "OCR Text (Page X)" in the final PDF
		LogWarnings: true,
		Font:        DefaultFont,
	}
}

func (c LayerConfig) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// FontConfig contains font settings for OCR text rendering
type FontConfig struct {
	Name        string  // Font name (e.g., "Helvetica")
	Style       string  // Font style ("", "B", "I", "BI")
	Size        float64 // Default font size
	AscentRatio float64 // Vertical positioning ratio
}

// DefaultFont is Helvetica, whose metrics fpdf ships as a core font
var DefaultFont = FontConfig{
	Name:        "Helvetica",
	Style:       "",
	Size:        10,
	AscentRatio: 0.718,
}
