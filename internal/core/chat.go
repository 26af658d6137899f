package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"smartcare/internal/llm"
	"smartcare/pkg"

	"go.uber.org/zap"
)

// ChatService runs AI symptom consultations. Model failures never reach the
// caller: they are absorbed into fallback answers that carry Fallback=true.
type ChatService struct {
	Store  SessionStore
	LLM    llm.Client
	Logger *zap.Logger
}

// NewChatService constructs a new ChatService with the given LLM client.
func NewChatService(store SessionStore, client llm.Client, logger *zap.Logger) *ChatService {
	return &ChatService{Store: store, LLM: client, Logger: logger}
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

// Start opens a new session. Name and email are optional.
func (s *ChatService) Start(ctx context.Context, patientName, patientEmail string) (*pkg.ChatSession, error) {
	return s.Store.CreateSession(ctx, optional(patientName), optional(patientEmail))
}

// Session returns one session.
func (s *ChatService) Session(ctx context.Context, sessionID string) (*pkg.ChatSession, error) {
	return s.Store.GetSession(ctx, sessionID)
}

// PatientSessions returns a patient's sessions, newest first.
func (s *ChatService) PatientSessions(ctx context.Context, email string) ([]pkg.ChatSession, error) {
	return s.Store.ListSessionsByEmail(ctx, email)
}

// Analyze asks the model for a structured assessment of symptoms and records
// the result on the session. refs may add descriptions to the session's
// uploaded files or mention files the client holds itself.
func (s *ChatService) Analyze(ctx context.Context, sessionID, symptoms string, refs []pkg.FileRef) (*pkg.Analysis, error) {
	sessionID = strings.TrimSpace(sessionID)
	symptoms = strings.TrimSpace(symptoms)
	if sessionID == "" || symptoms == "" {
		return nil, pkg.Validationf("Session ID and symptoms are required")
	}
	if _, err := s.Store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	files, err := s.Store.ListFiles(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	prompt := analysisPrompt(symptoms, mergeFileRefs(files, refs))
	var a *pkg.Analysis
	reply, err := s.LLM.Chat(ctx, []llm.Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		s.Logger.Warn("symptom analysis unavailable", zap.String("session_id", sessionID), zap.Error(err))
		a = unavailableAnalysis()
	} else if a, err = parseAnalysis(reply); err != nil {
		s.Logger.Warn("unparsable symptom analysis", zap.String("session_id", sessionID), zap.Error(err))
		a = unparsableAnalysis()
	}

	if err := s.Store.SaveAnalysis(ctx, sessionID, symptoms, a); err != nil {
		return nil, err
	}
	return a, nil
}

// FollowUp generates questions that build on the session's last analysis.
func (s *ChatService) FollowUp(ctx context.Context, sessionID, newSymptoms string) ([]string, error) {
	sessionID = strings.TrimSpace(sessionID)
	newSymptoms = strings.TrimSpace(newSymptoms)
	if sessionID == "" || newSymptoms == "" {
		return nil, pkg.Validationf("Session ID and new symptoms are required")
	}
	session, err := s.Store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	previous, err := json.MarshalIndent(map[string]*string{
		"symptoms":             session.Symptoms,
		"diagnosis":            session.Diagnosis,
		"severity":             session.Severity,
		"recommendedSpecialty": session.RecommendedSpecialty,
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf("Based on the previous medical analysis and new symptoms, generate relevant follow-up questions.\n\n"+
		"PREVIOUS ANALYSIS:\n%s\n\nNEW SYMPTOMS:\n%s\n\n%s", previous, newSymptoms, FollowUpInstruction)

	reply, err := s.LLM.Chat(ctx, []llm.Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		s.Logger.Warn("follow-up questions unavailable", zap.String("session_id", sessionID), zap.Error(err))
		return fallbackQuestions(), nil
	}
	questions, err := parseQuestions(reply)
	if err != nil {
		s.Logger.Warn("unparsable follow-up questions", zap.String("session_id", sessionID), zap.Error(err))
		return fallbackQuestions(), nil
	}
	return questions, nil
}

// mergeFileRefs lists the session's stored files first, taking descriptions
// from refs with the same original name, then any refs not stored.
func mergeFileRefs(files []pkg.UploadedFile, refs []pkg.FileRef) []pkg.FileRef {
	described := make(map[string]string, len(refs))
	for _, r := range refs {
		if r.Description != "" {
			described[r.OriginalName] = r.Description
		}
	}
	out := make([]pkg.FileRef, 0, len(files)+len(refs))
	stored := make(map[string]bool, len(files))
	for _, f := range files {
		stored[f.OriginalName] = true
		out = append(out, pkg.FileRef{OriginalName: f.OriginalName, Description: described[f.OriginalName]})
	}
	for _, r := range refs {
		if r.OriginalName != "" && !stored[r.OriginalName] {
			stored[r.OriginalName] = true
			out = append(out, r)
		}
	}
	return out
}

func analysisPrompt(symptoms string, files []pkg.FileRef) string {
	var b strings.Builder
	b.WriteString("Analyze the following patient symptoms and provide a professional medical assessment.\n\n")
	b.WriteString("PATIENT SYMPTOMS:\n")
	b.WriteString(symptoms)
	b.WriteString("\n\n")
	if len(files) > 0 {
		b.WriteString("UPLOADED MEDICAL FILES:\n")
		for _, f := range files {
			desc := f.Description
			if desc == "" {
				desc = defaultFileDescription
			}
			fmt.Fprintf(&b, "- %s: %s\n", f.OriginalName, desc)
		}
		b.WriteString("\n")
	}
	b.WriteString(AnalysisInstruction)
	return b.String()
}
