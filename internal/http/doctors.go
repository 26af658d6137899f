package http

import (
	"net/http"

	"smartcare/pkg"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListDoctors(c *gin.Context) {
	doctors, err := s.Doctors.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctors": doctors, "message": "Doctors retrieved successfully"})
}

func (s *Server) handleDoctorsBySpecialty(c *gin.Context) {
	specialty := c.Param("specialty")
	doctors, err := s.Doctors.BySpecialty(c.Request.Context(), specialty)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctors": doctors, "specialty": specialty, "message": "Doctors retrieved successfully"})
}

func (s *Server) handleGetDoctor(c *gin.Context) {
	id, ok := s.idParam(c, "id", "doctor")
	if !ok {
		return
	}
	doctor, err := s.Doctors.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctor": doctor, "message": "Doctor retrieved successfully"})
}

func (s *Server) handleSpecialties(c *gin.Context) {
	specialties, err := s.Doctors.Specialties(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"specialties": specialties, "message": "Specialties retrieved successfully"})
}

// handleAvailableDoctors lists doctors of a specialty with room in the slot
// given by the date and time query parameters.
func (s *Server) handleAvailableDoctors(c *gin.Context) {
	specialty, date, slot := c.Param("specialty"), c.Query("date"), c.Query("time")
	doctors, err := s.Doctors.Available(c.Request.Context(), specialty, date, slot)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"doctors":   doctors,
		"specialty": specialty,
		"date":      date,
		"time":      slot,
		"message":   "Available doctors retrieved successfully",
	})
}

func (s *Server) handleCreateDoctor(c *gin.Context) {
	var d pkg.Doctor
	if !s.bind(c, &d) {
		return
	}
	if err := s.Doctors.Create(c.Request.Context(), &d); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": d.ID, "message": "Doctor added successfully"})
}

func (s *Server) handleUpdateDoctor(c *gin.Context) {
	id, ok := s.idParam(c, "id", "doctor")
	if !ok {
		return
	}
	var d pkg.Doctor
	if !s.bind(c, &d) {
		return
	}
	if err := s.Doctors.Update(c.Request.Context(), id, &d); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Doctor updated successfully"})
}

func (s *Server) handleDeleteDoctor(c *gin.Context) {
	id, ok := s.idParam(c, "id", "doctor")
	if !ok {
		return
	}
	if err := s.Doctors.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Doctor deleted successfully"})
}
