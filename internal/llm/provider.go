// Online dialogue provider: Haiku generates response options for a
// customer interaction. Implements dialogue.Provider.
package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/talgya/courier-life/internal/dialogue"
)

// DialogueProvider adapts the Haiku client to the dialogue.Provider contract.
type DialogueProvider struct {
	client *Client
}

// NewDialogueProvider wraps a client. Returns nil when the client is
// disabled so callers can fall back to offline mode cleanly.
func NewDialogueProvider(client *Client) *DialogueProvider {
	if !client.Enabled() {
		return nil
	}
	return &DialogueProvider{client: client}
}

// GenerateOptions asks Haiku for 3 reply options with effect predictions.
func (p *DialogueProvider) GenerateOptions(ctx dialogue.ProviderContext) ([]dialogue.Option, error) {
	if p == nil || !p.client.Enabled() {
		return nil, fmt.Errorf("dialogue provider not configured")
	}

	system := buildDialogueSystemPrompt()
	user := buildDialogueUserPrompt(ctx)

	response, err := p.client.Complete(system, user, 400)
	if err != nil {
		return nil, fmt.Errorf("dialogue options: %w", err)
	}

	return parseDialogueResponse(response)
}

func buildDialogueSystemPrompt() string {
	return `You are the dialogue engine of a food-delivery courier simulation.
The courier is at a customer's door and must choose what to say.

Respond ONLY with a JSON array of exactly 3 reply options. Each option has:
- "text": what the courier says (one sentence)
- "credit_delta": integer reputation impact, -3 to +3
- "tip_chance_delta": float tip-probability bonus, 0 to 1
- "complaint_chance_delta": float complaint-probability change, -0.3 to 0.5

Options should span different risk/reward profiles: one safe, one risky,
one that rewards a socially skilled courier.`
}

func buildDialogueUserPrompt(ctx dialogue.ProviderContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Customer type: %s\n", ctx.CustomerType)
	fmt.Fprintf(&b, "Order priority: %s-tier\n", ctx.OrderPriority)
	fmt.Fprintf(&b, "Delivery district: %s\n", ctx.District)
	fmt.Fprintf(&b, "Situation: %s\n\n", ctx.Trigger)
	fmt.Fprintf(&b, "Courier emotional intelligence: %d\n", ctx.EmotionalIntelligence)
	fmt.Fprintf(&b, "Courier level: %d\n\n", ctx.PlayerLevel)
	b.WriteString("Generate the 3 reply options as a JSON array.")

	return b.String()
}

func parseDialogueResponse(response string) ([]dialogue.Option, error) {
	// Find JSON array in response (the LLM might include explanation text).
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var raw []struct {
		Text                 string  `json:"text"`
		CreditDelta          int     `json:"credit_delta"`
		TipChanceDelta       float64 `json:"tip_chance_delta"`
		ComplaintChanceDelta float64 `json:"complaint_chance_delta"`
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("parse options: %w", err)
	}

	var opts []dialogue.Option
	for _, o := range raw {
		if o.Text == "" {
			continue
		}
		// Clamp effects to the contract's ranges.
		if o.CreditDelta > 3 {
			o.CreditDelta = 3
		}
		if o.CreditDelta < -3 {
			o.CreditDelta = -3
		}
		opts = append(opts, dialogue.Option{
			Text: o.Text,
			Effect: dialogue.Effect{
				CreditDelta:          o.CreditDelta,
				TipChanceDelta:       o.TipChanceDelta,
				ComplaintChanceDelta: o.ComplaintChanceDelta,
			},
		})
	}
	if len(opts) == 0 {
		return nil, fmt.Errorf("no usable options in response")
	}
	return opts, nil
}

var _ dialogue.Provider = (*DialogueProvider)(nil)
