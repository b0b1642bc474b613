package vision

import (
	"fmt"
	"strings"
)

// DefaultAudience is the visitor profile the critique is written for.
const DefaultAudience = "first-time visitors who are unfamiliar with the product"

const promptTemplate = `You are a Senior UX/UI Conversion Optimisation Expert.
Your goal is to make this page clear, trustworthy and welcoming for %s.

Analyze this landing page screenshot.

PART 1: EXECUTIVE SUMMARY
Write a 1-paragraph summary (approx 50 words) on how to improve this page for that audience.

PART 2: ANNOTATIONS
Identify 5 to 7 critical UX and UI issues that, fixed, would raise the conversion rate.

Focus on:
- Color psychology: reduce anxiety and friction.
- Trust: increase credibility.
- Clarity: remove jargon.

Coordinates are normalized to 0-1000 on both axes, origin at the top-left corner.

Return a JSON object:
{
  "executive_summary": "...",
  "annotations": [
    {
      "id": 1,
      "text": "CHANGE THIS!",
      "description": "Why this hurts conversion.",
      "recommendation": "The specific fix.",
      "label_pos": [ymin, xmin, ymax, xmax],
      "target_pos": [y, x]
    }
  ]
}

"text" is a short, punchy headline. "label_pos" is where the headline label
should be placed and "target_pos" is the exact point the pointer should hit.`

// Prompt returns the critique prompt for the given audience.
// An empty audience uses DefaultAudience.
func Prompt(audience string) string {
	audience = strings.TrimSpace(audience)
	if audience == "" {
		audience = DefaultAudience
	}
	return fmt.Sprintf(promptTemplate, audience)
}
