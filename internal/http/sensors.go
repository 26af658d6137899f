package http

import (
	"context"
	"net/http"
	"time"

	"smartcare/internal/core"
	"smartcare/pkg"

	"github.com/gin-gonic/gin"
)

// sensorEndpoints adapts one sensor kind to the shared route set. latest
// reports found=false when the device has no readings yet.
type sensorEndpoints struct {
	kind   pkg.ReadingKind
	label  string
	record func(c *gin.Context) (int64, bool)
	list   func(ctx context.Context, q pkg.ReadingQuery) (interface{}, int, error)
	latest func(ctx context.Context, deviceID string) (interface{}, bool, error)
	stats  func(ctx context.Context, deviceID string, days int) (interface{}, error)
	remove func(ctx context.Context, id int64) error
}

func oximeterHandlers(s *Server) sensorEndpoints {
	return sensorEndpoints{
		kind:  pkg.KindOximeter,
		label: "Oximeter",
		record: func(c *gin.Context) (int64, bool) {
			var in pkg.OximeterInput
			if !s.bind(c, &in) {
				return 0, false
			}
			r, err := s.Sensors.RecordOximeter(c.Request.Context(), in)
			if err != nil {
				s.fail(c, err)
				return 0, false
			}
			return r.ID, true
		},
		list: func(ctx context.Context, q pkg.ReadingQuery) (interface{}, int, error) {
			rs, err := s.Sensors.OximeterReadings(ctx, q)
			return rs, len(rs), err
		},
		latest: func(ctx context.Context, deviceID string) (interface{}, bool, error) {
			r, err := s.Sensors.LatestOximeter(ctx, deviceID)
			return r, r != nil, err
		},
		stats: func(ctx context.Context, deviceID string, days int) (interface{}, error) {
			return s.Sensors.OximeterStats(ctx, deviceID, days)
		},
		remove: s.Sensors.DeleteOximeter,
	}
}

func temperatureHandlers(s *Server) sensorEndpoints {
	return sensorEndpoints{
		kind:  pkg.KindTemperature,
		label: "Temperature",
		record: func(c *gin.Context) (int64, bool) {
			var in pkg.TemperatureInput
			if !s.bind(c, &in) {
				return 0, false
			}
			r, err := s.Sensors.RecordTemperature(c.Request.Context(), in)
			if err != nil {
				s.fail(c, err)
				return 0, false
			}
			return r.ID, true
		},
		list: func(ctx context.Context, q pkg.ReadingQuery) (interface{}, int, error) {
			rs, err := s.Sensors.TemperatureReadings(ctx, q)
			return rs, len(rs), err
		},
		latest: func(ctx context.Context, deviceID string) (interface{}, bool, error) {
			r, err := s.Sensors.LatestTemperature(ctx, deviceID)
			return r, r != nil, err
		},
		stats: func(ctx context.Context, deviceID string, days int) (interface{}, error) {
			return s.Sensors.TemperatureStats(ctx, deviceID, days)
		},
		remove: s.Sensors.DeleteTemperature,
	}
}

func (s *Server) sensorRoutes(g *gin.RouterGroup, e sensorEndpoints) {
	g.POST("/reading", func(c *gin.Context) {
		id, ok := e.record(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "id": id, "message": e.label + " reading stored successfully"})
	})

	g.GET("/readings", func(c *gin.Context) {
		q, ok := s.readingQuery(c)
		if !ok {
			return
		}
		readings, n, err := e.list(c.Request.Context(), q)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "readings": readings, "count": n})
	})

	g.GET("/readings/latest", func(c *gin.Context) {
		reading, found, err := e.latest(c.Request.Context(), c.Query("deviceId"))
		if err != nil {
			s.fail(c, err)
			return
		}
		if !found {
			c.JSON(http.StatusOK, gin.H{"success": true, "reading": nil, "message": "No readings found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "reading": reading})
	})

	g.GET("/readings/stats", func(c *gin.Context) {
		days, ok := s.intQuery(c, "days", core.DefaultStatsDays)
		if !ok {
			return
		}
		stats, err := e.stats(c.Request.Context(), c.Query("deviceId"), days)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
	})

	g.DELETE("/readings/:id", func(c *gin.Context) {
		id, ok := s.idParam(c, "id", "reading")
		if !ok {
			return
		}
		if err := e.remove(c.Request.Context(), id); err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": e.label + " reading deleted successfully"})
	})

	g.GET("/stream", s.handleStream(e.kind))
}

func (s *Server) readingQuery(c *gin.Context) (pkg.ReadingQuery, bool) {
	q := pkg.ReadingQuery{DeviceID: c.Query("deviceId")}
	var ok bool
	if q.Limit, ok = s.intQuery(c, "limit", 0); !ok {
		return q, false
	}
	if q.Offset, ok = s.intQuery(c, "offset", 0); !ok {
		return q, false
	}
	if q.Start, ok = s.timeQuery(c, "startDate"); !ok {
		return q, false
	}
	if q.End, ok = s.timeQuery(c, "endDate"); !ok {
		return q, false
	}
	return q, true
}

// timeQuery accepts an RFC 3339 timestamp or a bare YYYY-MM-DD date.
func (s *Server) timeQuery(c *gin.Context, name string) (*time.Time, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, true
		}
	}
	s.fail(c, pkg.Validationf("%s must be a date (YYYY-MM-DD) or an RFC 3339 timestamp", name))
	return nil, false
}
