// Package advisor asks a Gemini model for a short financial tip based
// on the recent movements. The call is strictly best effort: every
// failure path returns a canned fallback string, never an error.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"brisa/internal/core"
)

// Fallback is returned whenever the model cannot be reached or returns
// nothing useful.
const Fallback = "¡Ups! No pude analizar tus gastos en este momento. ¡Sigue ahorrando! 🚀"

const systemInstruction = "Eres un asesor financiero juvenil y experto llamado BrisaBot. " +
	"Hablas en español de forma cercana y usas emojis."

type Advisor struct {
	model string
}

func New(model string) *Advisor {
	return &Advisor{model: model}
}

// Advise returns a short tip for the given (already period-filtered)
// movements. It never fails; callers can render the result directly.
func (a *Advisor) Advise(ctx context.Context, txs []core.Transaction) string {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// The client reads its API key from the environment. Created per
	// call so key rotation needs no restart.
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		slog.WarnContext(ctx, "Advisor client unavailable", "error", err)
		return Fallback
	}

	prompt, err := buildPrompt(txs)
	if err != nil {
		slog.WarnContext(ctx, "Advisor prompt build failed", "error", err)
		return Fallback
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, a.model, contents, cfg)
	if err != nil {
		slog.WarnContext(ctx, "Advisor generation failed", "error", err, "model", a.model)
		return Fallback
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		slog.WarnContext(ctx, "Advisor returned empty response", "model", a.model)
		return Fallback
	}
	return text
}

func buildPrompt(txs []core.Transaction) (string, error) {
	type movement struct {
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
		Currency    string  `json:"currency,omitempty"`
		Date        string  `json:"date"`
		Type        string  `json:"type"`
		Category    string  `json:"category"`
	}

	movements := make([]movement, 0, len(txs))
	for _, t := range txs {
		movements = append(movements, movement{
			Description: t.Description,
			Amount:      t.Amount,
			Currency:    string(t.Currency),
			Date:        t.Date.Format("2006-01-02"),
			Type:        string(t.Type),
			Category:    core.CategoryName(t.Category),
		})
	}

	encoded, err := json.Marshal(movements)
	if err != nil {
		return "", fmt.Errorf("marshal movements: %w", err)
	}

	return "Analiza los siguientes movimientos financieros y bríndame 3 consejos " +
		"cortos y amigables para mejorar mis finanzas. Sé motivador y profesional.\n" +
		"Movimientos: " + string(encoded), nil
}
