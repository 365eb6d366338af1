package keywords

import (
	"encoding/json"
	"fmt"
	"strings"
)

// payloadItem mirrors one element of the LLM payload. Pointers distinguish
// a missing field from an empty one.
type payloadItem struct {
	Keyword *string `json:"Keyword"`
	AdGroup *string `json:"Ad Group"`
}

// Extract recovers the keyword list from a raw LLM reply. The reply may carry prose
// or markdown around the list; only the first bracketed span is considered.
func Extract(raw string) ([]Record, error) {
	span, ok := locatePayload(raw)
	if !ok {
		return nil, &ExtractionError{Reason: ErrNoPayload}
	}

	items, err := decodePayload(span)
	if err != nil {
		return nil, err
	}

	return validatePayload(items)
}

// locatePayload returns the span from the first '[' up to and including the first ']' after it.
// Nested or multiple lists are not searched for.
func locatePayload(raw string) (string, bool) {
	start := strings.IndexByte(raw, '[')
	if start < 0 {
		return "", false
	}
	end := strings.IndexByte(raw[start:], ']')
	if end < 0 {
		return "", false
	}
	return raw[start : start+end+1], true
}

// decodePayload strictly decodes span as a JSON list of objects.
func decodePayload(span string) ([]payloadItem, error) {
	var items []payloadItem
	if err := json.Unmarshal([]byte(span), &items); err != nil {
		return nil, &ExtractionError{Reason: ErrMalformedPayload, Cause: err}
	}
	return items, nil
}

// validatePayload checks every decoded element for both required fields.
// One bad element fails the whole list.
func validatePayload(items []payloadItem) ([]Record, error) {
	if len(items) == 0 {
		return nil, &ExtractionError{Reason: ErrEmptyPayload}
	}

	records := make([]Record, 0, len(items))
	for i, item := range items {
		if item.Keyword == nil || strings.TrimSpace(*item.Keyword) == "" {
			return nil, &ExtractionError{Reason: ErrMissingField, Detail: fmt.Sprintf("element %d: Keyword", i)}
		}
		if item.AdGroup == nil || strings.TrimSpace(*item.AdGroup) == "" {
			return nil, &ExtractionError{Reason: ErrMissingField, Detail: fmt.Sprintf("element %d: Ad Group", i)}
		}
		records = append(records, Record{
			Keyword: strings.TrimSpace(*item.Keyword),
			AdGroup: strings.TrimSpace(*item.AdGroup),
		})
	}
	return records, nil
}
