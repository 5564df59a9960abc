// Package gemini implements LLM-based extraction using Google Gemini.
package gemini

import (
	"context"

	"github.com/fwojciec/profdir"
	"google.golang.org/genai"
)

const model = "gemini-2.0-flash"

// Ensure Extractor implements profdir.Extractor at compile time.
var _ profdir.Extractor = (*Extractor)(nil)

// Extractor implements profdir.Extractor using Google Gemini structured
// output. Page HTML is optionally trimmed by a Cleaner before prompting to
// keep token counts down.
type Extractor struct {
	client  *genai.Client
	cleaner profdir.Cleaner
}

// NewExtractor creates a new Extractor. A nil cleaner sends page HTML to
// the model untrimmed.
func NewExtractor(client *genai.Client, cleaner profdir.Cleaner) *Extractor {
	return &Extractor{client: client, cleaner: cleaner}
}

// DiscoverLinks extracts professor names and absolute profile URLs from a
// faculty directory page.
func (e *Extractor) DiscoverLinks(ctx context.Context, html string) (string, error) {
	return e.generate(ctx, html, linkInstruction, LinkSchema())
}

// ExtractProfile extracts a professor's details from a profile page.
func (e *Extractor) ExtractProfile(ctx context.Context, html string) (string, error) {
	return e.generate(ctx, html, profileInstruction, ProfileSchema())
}

func (e *Extractor) generate(ctx context.Context, html, instruction string, schema *genai.Schema) (string, error) {
	if html == "" {
		return "", profdir.Errorf(profdir.EINVALID, "page HTML required")
	}

	html = CleanForPrompt(e.cleaner, html)

	result, err := e.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: html}},
		}},
		BuildConfig(instruction, schema),
	)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", profdir.Errorf(profdir.EINTERNAL, "gemini returned nil result")
	}

	return result.Text(), nil
}

// CleanForPrompt applies the cleaner to page HTML before it is sent to the
// model. A nil cleaner, a cleaner failure, or empty cleaner output falls
// back to the raw HTML so extraction never loses a page to cleanup.
func CleanForPrompt(cleaner profdir.Cleaner, html string) string {
	if cleaner == nil {
		return html
	}
	cleaned, err := cleaner.Clean(html)
	if err != nil || cleaned == "" {
		return html
	}
	return cleaned
}

const linkInstruction ="From the provided HTML of a university faculty page, extract the full name and the absolute URL to the profile page for every professor listed. Return a single JSON object with a 'professors' array containing objects with 'name' and 'profile_url' fields. Make sure all URLs are absolute and complete."

const profileInstruction = "From the professor's profile page, extract their full name, email, university, department, research topics, and a brief summary. If a field is not present, omit it from the JSON."

// BuildConfig returns the GenerateContentConfig for extraction calls.
func BuildConfig(instruction string, schema *genai.Schema) *genai.GenerateContentConfig {
	temp := float32(0.1)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: instruction}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
}

// LinkSchema is the response schema for link discovery: a professors array
// of name and profile_url pairs.
func LinkSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"professors": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":        {Type: genai.TypeString, Description: "The professor's full name as listed in the directory."},
						"profile_url": {Type: genai.TypeString, Description: "The full, absolute URL to the professor's individual profile page."},
					},
					Required: []string{"name", "profile_url"},
				},
			},
		},
		Required: []string{"professors"},
	}
}

// ProfileSchema is the response schema for detail extraction.
func ProfileSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":       {Type: genai.TypeString, Description: "The full name of the professor."},
			"email":      {Type: genai.TypeString, Description: "The professor's email address."},
			"university": {Type: genai.TypeString, Description: "The university they are affiliated with."},
			"department": {Type: genai.TypeString, Description: "The specific department of the professor."},
			"research_topics": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "A list of the professor's primary research topics or interests.",
			},
			"summary": {Type: genai.TypeString, Description: "A brief one or two-sentence summary of the professor's work or role."},
		},
		Required: []string{"name"},
	}
}
