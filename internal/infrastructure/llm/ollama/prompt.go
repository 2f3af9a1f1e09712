package ollama

const maxDescription = 2000

const detectionInstructions = `List every distinct food or drink item.
Return strict JSON: {"items":[{"name":string,"confidence":number from 0 to 1,"portion_estimate":grams or null}]}.
Use short common food names in English. Skip tableware, packaging, logos and people.
No markdown, no extra keys.`

func buildDetectionPrompt(description string, hasImage bool) string {
	if len(description) > maxDescription {
		description = description[:maxDescription]
	}

	prompt := detectionInstructions
	if hasImage {
		prompt = "You are looking at a photo of a meal.\n" + prompt
	}
	if description != "" {
		prompt += "\n\nMeal description:\n" + description
	}
	return prompt
}
