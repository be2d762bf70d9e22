package source

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/metapublish/internal/core/domain"
)

// Decode parses a JSON list of objects.
// Numbers are kept as json.Number so identifiers keep their exact digits.
func Decode(data []byte) ([]domain.SourceRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceMalformed, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after document", domain.ErrSourceMalformed)
	}

	list, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", domain.ErrSourceShapeInvalid, kindOf(doc))
	}

	records := make([]domain.SourceRecord, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is %s", domain.ErrSourceShapeInvalid, i, kindOf(item))
		}
		records = append(records, domain.SourceRecord(obj))
	}
	return records, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "an object"
	case []any:
		return "a list"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case json.Number:
		return "a number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
