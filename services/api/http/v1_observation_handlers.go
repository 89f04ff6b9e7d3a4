package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/02loveslollipop/hrc-pi-filter/services/api/db"
)

// pagination parses page and limit query parameters. limit falls back to
// the configured default and is capped at the configured maximum.
func (s *Server) pagination(c *gin.Context) (page, limit int, ok bool) {
	page = 1
	if p := c.Query("page"); p != "" {
		val, err := strconv.Atoi(p)
		if err != nil || val <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
			return 0, 0, false
		}
		page = val
	}

	limit = s.cfg.DefaultLimit
	if l := c.Query("limit"); l != "" {
		val, err := strconv.Atoi(l)
		if err != nil || val <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return 0, 0, false
		}
		limit = min(val, s.cfg.MaxLimit)
	}
	return page, limit, true
}

func paginationMeta(page, limit, total int) gin.H {
	return gin.H{
		"page":        page,
		"limit":       limit,
		"total_count": total,
		"total_pages": (total + limit - 1) / limit,
	}
}

func obsIDParam(c *gin.Context) (int, bool) {
	obsID, err := strconv.Atoi(c.Param("obs_id"))
	if err != nil || obsID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid obs_id"})
		return 0, false
	}
	return obsID, true
}

func floatQuery(c *gin.Context, name string) (*float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return nil, false
	}
	return &v, true
}

// handleV1ListObservations returns published runs
// GET /api/v1/observations?page=1&limit=20
func (s *Server) handleV1ListObservations(c *gin.Context) {
	page, limit, ok := s.pagination(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	result, err := s.store.ListObservations(ctx, limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       result.Observations,
		"pagination": paginationMeta(page, limit, result.TotalCount),
	})
}

// handleV1GetObservation returns one run summary
// GET /api/v1/observations/:obs_id
func (s *Server) handleV1GetObservation(c *gin.Context) {
	obsID, ok := obsIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	obs, err := s.store.GetObservation(ctx, obsID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if obs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "observation not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": obs})
}

// handleV1ObservationPhotons returns stored photons of a run
// GET /api/v1/observations/:obs_id/photons?page=1&limit=500&pi_min=20&pi_max=80
func (s *Server) handleV1ObservationPhotons(c *gin.Context) {
	obsID, ok := obsIDParam(c)
	if !ok {
		return
	}
	page, limit, ok := s.pagination(c)
	if !ok {
		return
	}
	piMin, ok := floatQuery(c, "pi_min")
	if !ok {
		return
	}
	piMax, ok := floatQuery(c, "pi_max")
	if !ok {
		return
	}
	if piMin != nil && piMax != nil && *piMin > *piMax {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pi_min exceeds pi_max"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	obs, err := s.store.GetObservation(ctx, obsID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if obs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "observation not found"})
		return
	}

	result, err := s.store.FetchPhotons(ctx, db.PhotonQuery{
		ObsID:  obsID,
		PIMin:  piMin,
		PIMax:  piMax,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       result.Photons,
		"pagination": paginationMeta(page, limit, result.TotalCount),
		"meta": gin.H{
			"obs_id": obsID,
			"gain":   obs.Gain,
		},
	})
}
