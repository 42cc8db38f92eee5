package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Engine sends frames to the Gemini vision endpoint. Generation parameters
// are fixed server-side: low temperature to keep hallucinated violations to a
// minimum, whatever the caller asked for.
type Engine struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string { return "gemini" }

const userPrompt = "Review this webcam frame from the ongoing interview."

func systemPrompt(strictness string) string {
	base := `You are an automated proctor watching a candidate's webcam feed during a remote interview.
Inspect the frame for rule breaches: the candidate looking away from the screen, more than one face in view, no face in view, a phone or other unauthorized device, notes or books, or signs of reading from a second screen.
For every breach found, output exactly one line of the form:
PROCTORING_VIOLATION: <short category>
Output nothing else. If the frame is clean, reply with exactly: OK`
	switch strictness {
	case "lenient":
		base += "\nOnly report breaches you are certain about."
	case "strict":
		base += "\nReport every plausible breach, including borderline ones."
	}
	return base
}

// Generate runs one analysis round trip for a single image.
func (e *Engine) Generate(ctx context.Context, img []byte, mime, strictness string) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:     ptrFloat32(0.1),
		TopP:            ptrFloat32(0.95),
		TopK:            ptrInt32(32),
		MaxOutputTokens: ptrInt32(256),
	}
	m.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockOnlyHigh},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockOnlyHigh},
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt(strictness))},
	}

	resp, err := m.GenerateContent(ctx,
		genai.Text(userPrompt),
		&genai.Blob{MIMEType: mime, Data: img},
	)
	if err != nil {
		return "", err
	}
	txt := firstText(resp)
	if txt == "" {
		return "", fmt.Errorf("gemini: empty response")
	}
	return txt, nil
}

// Probe is the lightweight reachability check used by the session manager.
// CountTokens hits the API without generating anything.
func (e *Engine) Probe(ctx context.Context) error {
	if e.APIKey == "" {
		return errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if _, err := m.CountTokens(ctx, genai.Text("ping")); err != nil {
		return fmt.Errorf("gemini probe: %w", err)
	}
	return nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

func ptrFloat32(v float32) *float32 { return &v }
func ptrInt32(v int32) *int32       { return &v }
