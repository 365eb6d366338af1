package keywords

import (
	"fmt"
	"strings"
)

// Record is a single paid-search keyword and the ad group it belongs to.
// The JSON names match the payload the LLM is asked to produce.
type Record struct {
	Keyword string `json:"Keyword" yaml:"keyword"`
	AdGroup string `json:"Ad Group" yaml:"ad_group"`
}

// NewRecord trims both fields and rejects empty values.
func NewRecord(keyword, adGroup string) (Record, error) {
	r := Record{
		Keyword: strings.TrimSpace(keyword),
		AdGroup: strings.TrimSpace(adGroup),
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Validate checks that both fields are non-empty after trimming.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Keyword) == "" {
		return &ValidationError{Field: "keyword", Message: "must not be empty"}
	}
	if strings.TrimSpace(r.AdGroup) == "" {
		return &ValidationError{Field: "ad_group", Message: "must not be empty"}
	}
	return nil
}

// Label renders the record as "{keyword} ({ad_group})".
func (r Record) Label() string {
	return fmt.Sprintf("%s (%s)", r.Keyword, r.AdGroup)
}

// Keywords returns just the keyword strings of records, in order.
func Keywords(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Keyword
	}
	return out
}
