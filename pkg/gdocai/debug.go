package gdocai

import (
	"fmt"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/protobuf/encoding/protojson"
)

// ResponseJSON renders a raw Document AI response as indented JSON, for
// inspecting what the service returned before conversion to words.
func ResponseJSON(doc *documentaipb.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("gdocai: nil document")
	}
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("gdocai: encode response: %w", err)
	}
	return data, nil
}
