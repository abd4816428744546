package scanning

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zombor/receipt-reconciler/internal/reconcile"
)

// ErrMalformedExtraction is returned when a recognizer response is not a
// JSON object of the expected shape.
var ErrMalformedExtraction = errors.New("malformed extraction")

// ParseExtraction pulls the JSON object out of a model response and decodes it
func ParseExtraction(text string) (*reconcile.RawReceipt, error) {
	text = strings.TrimSpace(text)

	// Remove markdown code fences if present
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("%w: no JSON object found in response", ErrMalformedExtraction)
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx < startIdx {
		return nil, fmt.Errorf("%w: invalid JSON object in response", ErrMalformedExtraction)
	}

	return DecodeExtraction([]byte(text[startIdx : endIdx+1]))
}

// DecodeExtraction checks data against the extraction schema and decodes it
func DecodeExtraction(data []byte) (*reconcile.RawReceipt, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling json: %w", ErrMalformedExtraction, err)
	}

	if err := compiledSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedExtraction, err)
	}

	var raw reconcile.RawReceipt
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding receipt: %w", ErrMalformedExtraction, err)
	}

	return &raw, nil
}
