package prompts

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"campaign-builder/internal/services/seo"
)

//go:embed keyword_prompt.tmpl
var keywordPromptTemplate string

//go:embed seo_prompt.tmpl
var seoPromptTemplate string

var (
	keywordTmpl = template.Must(template.New("keyword_prompt").Parse(keywordPromptTemplate))
	seoTmpl     = template.Must(template.New("seo_prompt").Parse(seoPromptTemplate))
)

// Default plan shape.
const (
	DefaultKeywordCount = 15
	DefaultGroupCount   = 3
)

// KeywordPrompt keeps the instruction apart from the user-supplied description
// so the LLM boundary can tell them apart.
type KeywordPrompt struct {
	Instruction string
	Context     string
}

type keywordData struct {
	KeywordCount int
	GroupCount   int
	PerGroup     int
}

type seoData struct {
	seo.Snapshot
	Keywords string
}

// Composer builds the keyword-generation and SEO-analysis prompts. It has no side
// effects; identical inputs always produce identical prompts.
type Composer struct {
	keywordCount int
	groupCount   int
}

// NewComposer creates a Composer. keywordCount must be a positive multiple of groupCount.
func NewComposer(keywordCount, groupCount int) (*Composer, error) {
	if keywordCount <= 0 || groupCount <= 0 {
		return nil, fmt.Errorf("keyword and group counts must be positive (got %d/%d)", keywordCount, groupCount)
	}
	if keywordCount%groupCount != 0 {
		return nil, fmt.Errorf("keyword count %d is not divisible by group count %d", keywordCount, groupCount)
	}
	return &Composer{keywordCount: keywordCount, groupCount: groupCount}, nil
}

// Default returns a Composer for 15 keywords across 3 ad groups.
func Default() *Composer {
	return &Composer{keywordCount: DefaultKeywordCount, groupCount: DefaultGroupCount}
}

// BuildKeywordPrompt returns the instruction for generating a keyword plan and the
// trimmed business description as separate context.
func (c *Composer) BuildKeywordPrompt(description string) KeywordPrompt {
	var sb strings.Builder
	// execution cannot fail: the template only reads ints from a struct
	_ = keywordTmpl.Execute(&sb, keywordData{
		KeywordCount: c.keywordCount,
		GroupCount:   c.groupCount,
		PerGroup:     c.keywordCount / c.groupCount,
	})

	return KeywordPrompt{
		Instruction: strings.TrimSpace(sb.String()),
		Context:     strings.TrimSpace(description),
	}
}

// BuildSEOPrompt embeds the page's SEO fields and, when there are any, the active keywords.
func (c *Composer) BuildSEOPrompt(snapshot seo.Snapshot, activeKeywords []string) (string, error) {
	var kws []string
	for _, k := range activeKeywords {
		if k = strings.TrimSpace(k); k != "" {
			kws = append(kws, k)
		}
	}

	var sb strings.Builder
	err := seoTmpl.Execute(&sb, seoData{
		Snapshot: snapshot.Normalized(),
		Keywords: strings.Join(kws, ", "),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render SEO prompt: %w", err)
	}
	return strings.TrimSpace(sb.String()), nil
}

// KeywordCount returns the number of keywords the prompt asks for.
func (c *Composer) KeywordCount() int { return c.keywordCount }

// GroupCount returns the number of ad groups the prompt asks for.
func (c *Composer) GroupCount() int { return c.groupCount }
