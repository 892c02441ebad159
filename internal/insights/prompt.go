package insights

import "fmt"

// SystemPrompt frames the model for providers that take a separate system message.
const SystemPrompt = "You are a labour market analyst. Reply with a single JSON object and nothing else."

const promptTemplate = `
Analyze the current state of the %s industry and provide insights in ONLY the following JSON format without any additional notes or explanations:
{
  "salaryRanges": [
    { "role": "string", "min": number, "max": number, "median": number, "location": "string" }
  ],
  "growthRate": number,
  "demandLevel": "HIGH" | "MEDIUM" | "LOW",
  "topSkills": ["skill1", "skill2"],
  "marketOutlook": "POSITIVE" | "NEUTRAL" | "NEGATIVE",
  "keyTrends": ["trend1", "trend2"],
  "recommendedSkills": ["skill1", "skill2"]
}

IMPORTANT: Return ONLY the JSON. No additional text, notes, or markdown formatting.
Include at least 5 common roles for salary ranges.
Growth rate should be a percentage.
Include at least 5 skills and trends.
`

// Prompt builds the analysis prompt for industry.
func Prompt(industry string) string {
	return fmt.Sprintf(promptTemplate, industry)
}
