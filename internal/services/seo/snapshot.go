package seo

import (
	"fmt"
	"strings"
)

// Placeholders used when a page does not provide a field.
const (
	NoTitle           = "No title found"
	NoMetaDescription = "No meta description found"
	NoMetaKeywords    = "No meta keywords found"
	NoPageText        = "No main content found on this page."
)

// Snapshot is the on-page SEO content of one fetched URL.
type Snapshot struct {
	URL             string `json:"url"`
	Title           string `json:"title"`
	MetaDescription string `json:"meta_description"`
	MetaKeywords    string `json:"meta_keywords"`
	PageText        string `json:"page_text"`
}

// Normalized returns a copy with every empty field replaced by its placeholder.
func (s Snapshot) Normalized() Snapshot {
	s.Title = orPlaceholder(s.Title, NoTitle)
	s.MetaDescription = orPlaceholder(s.MetaDescription, NoMetaDescription)
	s.MetaKeywords = orPlaceholder(s.MetaKeywords, NoMetaKeywords)
	s.PageText = orPlaceholder(s.PageText, NoPageText)
	return s
}

// ErrorSnapshot builds the well-formed snapshot returned alongside a FetchError.
func ErrorSnapshot(url string, err error) Snapshot {
	text := fmt.Sprintf("Page could not be fetched (%v)", err)
	return Snapshot{
		URL:             url,
		Title:           text,
		MetaDescription: text,
		MetaKeywords:    text,
		PageText:        text,
	}
}

func orPlaceholder(v, placeholder string) string {
	if strings.TrimSpace(v) == "" {
		return placeholder
	}
	return strings.TrimSpace(v)
}
