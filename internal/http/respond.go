package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"smartcare/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// fail writes err as {"error": ...}. Validation and capacity errors are 400,
// missing resources 404, anything else a logged 500.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pkg.ErrValidation), errors.Is(err, pkg.ErrCapacityExceeded):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, pkg.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.Logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err))
		body := gin.H{"error": "Internal server error"}
		if !s.opts.Production {
			body["message"] = err.Error()
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	}
}

// bind decodes the JSON body into v. A malformed or oversized body is a
// validation error.
func (s *Server) bind(c *gin.Context, v interface{}) bool {
	return s.bindJSON(c, v, false)
}

// bindOptional is bind for endpoints where an empty body, chunked or not,
// means all defaults.
func (s *Server) bindOptional(c *gin.Context, v interface{}) bool {
	return s.bindJSON(c, v, true)
}

func (s *Server) bindJSON(c *gin.Context, v interface{}, emptyOK bool) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		if emptyOK && errors.Is(err, io.EOF) {
			return true
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(c, pkg.Validationf("Request body too large"))
			return false
		}
		s.fail(c, pkg.Validationf("Invalid request body"))
		return false
	}
	return true
}

// idParam parses a positive integer path parameter.
func (s *Server) idParam(c *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		s.fail(c, pkg.Validationf("Invalid %s ID", label))
		return 0, false
	}
	return id, true
}

// intQuery reads an optional integer query parameter.
func (s *Server) intQuery(c *gin.Context, name string, fallback int) (int, bool) {
	v := c.Query(name)
	if v == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		s.fail(c, pkg.Validationf("%s must be an integer", name))
		return 0, false
	}
	return n, true
}
