package core

// prompts.go holds the text sent to the model. Keeping it apart from the
// service makes it easy to tweak without touching the parsing code.

const (
	// SystemPrompt frames every consultation call.
	SystemPrompt = "You are a medical AI assistant. Be professional and medical in tone, " +
		"conservative in diagnosis, and always suggest consulting a healthcare professional for serious conditions."

	// AnalysisInstruction asks for the JSON object parseAnalysis expects. The
	// patient's symptoms and file list are placed before it.
	AnalysisInstruction = `Please provide your analysis in the following JSON format:
{
  "diagnosis": "Brief diagnosis or condition description",
  "severity": "mild|moderate|severe",
  "recommended_specialty": "Primary medical specialty needed",
  "symptoms_analysis": "Detailed analysis of symptoms",
  "recommendations": "General recommendations for the patient",
  "follow_up_questions": ["Question 1", "Question 2", "Question 3"],
  "urgent_attention": true/false,
  "prescription_suggestions": ["Suggestion 1", "Suggestion 2"],
  "lifestyle_advice": "Lifestyle recommendations"
}

IMPORTANT GUIDELINES:
- If symptoms suggest severe conditions, mark urgent_attention as true
- Recommend appropriate medical specialties based on symptoms
- Provide evidence-based recommendations
- When in doubt, recommend professional consultation

Respond only with the JSON format above.`

	// FollowUpInstruction asks for a bare JSON array of questions.
	FollowUpInstruction = `Generate 3-5 specific follow-up questions to better understand the patient's condition. Focus on:
- Clarifying symptoms
- Understanding timeline
- Identifying triggers
- Assessing severity changes

Respond with a JSON array of questions.`

	// defaultFileDescription stands in for files uploaded without one.
	defaultFileDescription = "Medical document/image"
)
