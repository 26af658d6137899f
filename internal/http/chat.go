package http

import (
	"net/http"

	"smartcare/pkg"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleStartChat(c *gin.Context) {
	var body struct {
		PatientName  string `json:"patientName"`
		PatientEmail string `json:"patientEmail"`
	}
	// An empty body starts an anonymous session.
	if !s.bindOptional(c, &body) {
		return
	}
	sess, err := s.Chat.Start(c.Request.Context(), body.PatientName, body.PatientEmail)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessionId":    sess.SessionID,
		"message":      "Chat session started successfully",
		"patientName":  sess.PatientName,
		"patientEmail": sess.PatientEmail,
	})
}

// handleAnalyze always answers 200 once the input is valid; a model outage
// shows up as "fallback": true in the analysis.
func (s *Server) handleAnalyze(c *gin.Context) {
	var body struct {
		SessionID     string        `json:"sessionId"`
		Symptoms      string        `json:"symptoms"`
		UploadedFiles []pkg.FileRef `json:"uploadedFiles"`
	}
	if !s.bind(c, &body) {
		return
	}
	analysis, err := s.Chat.Analyze(c.Request.Context(), body.SessionID, body.Symptoms, body.UploadedFiles)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessionId": body.SessionID,
		"analysis":  analysis,
		"message":   "Symptoms analyzed successfully",
	})
}

func (s *Server) handleFollowUp(c *gin.Context) {
	var body struct {
		SessionID   string `json:"sessionId"`
		NewSymptoms string `json:"newSymptoms"`
	}
	if !s.bind(c, &body) {
		return
	}
	questions, err := s.Chat.FollowUp(c.Request.Context(), body.SessionID, body.NewSymptoms)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessionId":         body.SessionID,
		"followUpQuestions": questions,
		"message":           "Follow-up questions generated successfully",
	})
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, err := s.Chat.Session(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess, "message": "Session retrieved successfully"})
}

func (s *Server) handlePatientSessions(c *gin.Context) {
	sessions, err := s.Chat.PatientSessions(c.Request.Context(), c.Param("email"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "message": "Patient sessions retrieved successfully"})
}
