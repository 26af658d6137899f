package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"smartcare/pkg"
)

// modelAnalysis is the JSON object the model is asked to produce.
type modelAnalysis struct {
	Diagnosis               string   `json:"diagnosis"`
	Severity                string   `json:"severity"`
	RecommendedSpecialty    string   `json:"recommended_specialty"`
	SymptomsAnalysis        string   `json:"symptoms_analysis"`
	Recommendations         string   `json:"recommendations"`
	FollowUpQuestions       []string `json:"follow_up_questions"`
	UrgentAttention         bool     `json:"urgent_attention"`
	PrescriptionSuggestions []string `json:"prescription_suggestions"`
	LifestyleAdvice         string   `json:"lifestyle_advice"`
}

// extractJSON returns text from the first occurrence of first up to the last
// occurrence of last. Models often wrap the payload in prose or code fences.
func extractJSON(text string, first, last byte) (string, bool) {
	start := strings.IndexByte(text, first)
	end := strings.LastIndexByte(text, last)
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// parseAnalysis turns a model reply into an Analysis. The four core fields
// must be present and non-empty; severity is lower-cased.
func parseAnalysis(reply string) (*pkg.Analysis, error) {
	raw, ok := extractJSON(reply, '{', '}')
	if !ok {
		return nil, errors.New("no JSON object in reply")
	}
	var m modelAnalysis
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	required := []struct{ name, value string }{
		{"diagnosis", m.Diagnosis},
		{"severity", m.Severity},
		{"recommended_specialty", m.RecommendedSpecialty},
		{"symptoms_analysis", m.SymptomsAnalysis},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return nil, fmt.Errorf("missing required field: %s", f.name)
		}
	}

	a := &pkg.Analysis{
		Diagnosis:               m.Diagnosis,
		Severity:                strings.ToLower(m.Severity),
		RecommendedSpecialty:    m.RecommendedSpecialty,
		SymptomsAnalysis:        m.SymptomsAnalysis,
		Recommendations:         m.Recommendations,
		FollowUpQuestions:       m.FollowUpQuestions,
		UrgentAttention:         m.UrgentAttention,
		PrescriptionSuggestions: m.PrescriptionSuggestions,
		LifestyleAdvice:         m.LifestyleAdvice,
	}
	if a.FollowUpQuestions == nil {
		a.FollowUpQuestions = []string{}
	}
	if a.PrescriptionSuggestions == nil {
		a.PrescriptionSuggestions = []string{}
	}
	return a, nil
}

// parseQuestions extracts the JSON array of questions from a model reply.
func parseQuestions(reply string) ([]string, error) {
	raw, ok := extractJSON(reply, '[', ']')
	if !ok {
		return nil, errors.New("no JSON array in reply")
	}
	var qs []string
	if err := json.Unmarshal([]byte(raw), &qs); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if len(qs) == 0 {
		return nil, errors.New("empty question list")
	}
	return qs, nil
}

// unavailableAnalysis is returned when the model could not be reached.
func unavailableAnalysis() *pkg.Analysis {
	return &pkg.Analysis{
		Diagnosis:            "Unable to provide specific diagnosis at this time",
		Severity:             "moderate",
		RecommendedSpecialty: "General Medicine",
		SymptomsAnalysis:     "Please consult with a healthcare professional for proper evaluation. Our AI service is temporarily unavailable.",
		Recommendations:      "Schedule an appointment with a healthcare provider for proper diagnosis and treatment.",
		FollowUpQuestions: []string{
			"How long have you been experiencing these symptoms?",
			"Have you had similar symptoms before?",
			"Are you currently taking any medications?",
			"What makes your symptoms better or worse?",
		},
		PrescriptionSuggestions: []string{},
		LifestyleAdvice:         "Maintain a healthy lifestyle and consult a healthcare professional for proper medical advice.",
		Fallback:                true,
	}
}

// unparsableAnalysis is returned when the model answered but not in the
// requested shape.
func unparsableAnalysis() *pkg.Analysis {
	return &pkg.Analysis{
		Diagnosis:            "Unable to provide specific diagnosis",
		Severity:             "moderate",
		RecommendedSpecialty: "General Medicine",
		SymptomsAnalysis:     "Please consult with a healthcare professional for proper evaluation.",
		Recommendations:      "Schedule an appointment with a healthcare provider for proper diagnosis.",
		FollowUpQuestions: []string{
			"How long have you been experiencing these symptoms?",
			"Have you had similar symptoms before?",
			"Are you currently taking any medications?",
		},
		PrescriptionSuggestions: []string{},
		LifestyleAdvice:         "Maintain a healthy lifestyle and consult a healthcare professional.",
		Fallback:                true,
	}
}

// fallbackQuestions are asked when no follow-up questions could be generated.
func fallbackQuestions() []string {
	return []string{
		"How have your symptoms changed since our last conversation?",
		"Are there any specific triggers that make your symptoms worse?",
		"Have you noticed any new symptoms?",
	}
}
