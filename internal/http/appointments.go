package http

import (
	"net/http"

	"smartcare/pkg"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleSlots(c *gin.Context) {
	doctorID, ok := s.idParam(c, "doctorId", "doctor")
	if !ok {
		return
	}
	avail, err := s.Scheduler.AvailableSlots(c.Request.Context(), doctorID, c.Query("date"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"doctorId":       avail.DoctorID,
		"date":           avail.Date,
		"availableSlots": avail.AvailableSlots,
		"bookedSlots":    avail.BookedSlots,
		"message":        "Available slots retrieved successfully",
	})
}

// handleBook books a slot. A full slot is a 400 and nothing is stored. The
// doctor details come back from the booking itself.
func (s *Server) handleBook(c *gin.Context) {
	var req pkg.BookingRequest
	if !s.bind(c, &req) {
		return
	}
	appt, err := s.Scheduler.Book(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"appointmentId": appt.ID,
		"doctor": gin.H{
			"id":        appt.DoctorID,
			"name":      appt.DoctorName,
			"specialty": appt.Specialty,
			"email":     appt.DoctorEmail,
			"phone":     appt.DoctorPhone,
		},
		"appointmentDate": appt.AppointmentDate,
		"appointmentTime": appt.AppointmentTime,
		"message":         "Appointment booked successfully",
	})
}

func (s *Server) handleGetAppointment(c *gin.Context) {
	id, ok := s.idParam(c, "id", "appointment")
	if !ok {
		return
	}
	appt, err := s.Scheduler.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": appt, "message": "Appointment retrieved successfully"})
}

func (s *Server) handlePatientAppointments(c *gin.Context) {
	appts, err := s.Scheduler.ByPatient(c.Request.Context(), c.Param("email"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts, "message": "Patient appointments retrieved successfully"})
}

func (s *Server) handleDoctorAppointments(c *gin.Context) {
	doctorID, ok := s.idParam(c, "doctorId", "doctor")
	if !ok {
		return
	}
	appts, err := s.Scheduler.ByDoctor(c.Request.Context(), doctorID, c.Query("date"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts, "message": "Doctor appointments retrieved successfully"})
}

func (s *Server) handleSetStatus(c *gin.Context) {
	id, ok := s.idParam(c, "id", "appointment")
	if !ok {
		return
	}
	var body struct {
		Status pkg.AppointmentStatus `json:"status"`
	}
	if !s.bind(c, &body) {
		return
	}
	if err := s.Scheduler.SetStatus(c.Request.Context(), id, body.Status); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment status updated successfully", "status": body.Status})
}

// handleCancel soft-cancels: the row stays with status cancelled.
func (s *Server) handleCancel(c *gin.Context) {
	id, ok := s.idParam(c, "id", "appointment")
	if !ok {
		return
	}
	if err := s.Scheduler.Cancel(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment cancelled successfully"})
}
