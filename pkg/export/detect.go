package export

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrEmptyPDF is returned when layer detection gets no data.
var ErrEmptyPDF = errors.New("export: empty PDF data")

// ocgName matches the name of an optional content group, allowing escaped
// parentheses inside the literal string.
var ocgName = regexp.MustCompile(`/Type\s*/OCG\s*/Name\s*\(((?:\\.|[^\\)])*)\)`)

// LayerNames returns the optional content group (layer) names found in the
// raw PDF data, deduplicated and in file order.
func LayerNames(pdfData []byte) ([]string, error) {
	if len(pdfData) == 0 {
		return nil, ErrEmptyPDF
	}

	var layers []string
	seen := make(map[string]bool)
	for _, match := range ocgName.FindAllSubmatch(pdfData, -1) {
		name := unescapePDFString(string(match[1]))
		if decoded, err := decodeUTF16BE([]byte(name)); err == nil {
			name = decoded
		}
		if !seen[name] {
			seen[name] = true
			layers = append(layers, name)
		}
	}
	return layers, nil
}

// LayerCheckResult contains the results of checking for OCR layers
type LayerCheckResult struct {
	Layers       []string // All detected layers
	HasOCRLayer  bool     // True if the specified OCR layer exists
	OCRLayerName string   // Name of the detected OCR layer (if any)
	Warnings     []string // Any warnings about potential OCR layers
}

// CheckOCRLayers reports whether pdfData already carries a text layer named
// ocrLayerName, with or without a "(Page N)" suffix.
func CheckOCRLayers(pdfData []byte, ocrLayerName string) (LayerCheckResult, error) {
	result := LayerCheckResult{}

	layers, err := LayerNames(pdfData)
	if err != nil {
		return result, fmt.Errorf("cannot analyze layers: %w", err)
	}
	result.Layers = layers

	pageLayerPattern := regexp.MustCompile(fmt.Sprintf(`^%s\s*\(Page\s*\d+.*`, regexp.QuoteMeta(ocrLayerName)))

	for _, layer := range layers {
		if layer == ocrLayerName || pageLayerPattern.MatchString(layer) {
			result.HasOCRLayer = true
			result.OCRLayerName = layer
			break
		}

		if strings.Contains(strings.ToLower(layer), "ocr") &&
			!strings.HasPrefix(layer, ocrLayerName) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Existing layer detected that might contain OCR: %s", layer))
		}
	}

	return result, nil
}
