package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gradekit/repograde/pkg/assess"
	"github.com/gradekit/repograde/pkg/attribute"
	"github.com/gradekit/repograde/pkg/store"
	"github.com/gradekit/repograde/pkg/weights"
)

// assessRequest is the POST /api/v1/assessments body. Weights and
// overrides are the config-file and CLI layers of resolution; callers
// without a config simply omit both.
type assessRequest struct {
	Target       string               `json:"target"`
	Measurements []assess.Measurement `json:"measurements" binding:"required"`
	Weights      map[string]float64   `json:"weights"`
	Overrides    map[string]float64   `json:"overrides"`
	Strict       bool                 `json:"strict"`
}

// validateRequest is the POST /api/v1/weights/validate body.
type validateRequest struct {
	Weights   map[string]float64 `json:"weights"`
	Overrides map[string]float64 `json:"overrides"`
	Strict    bool               `json:"strict"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCatalog(c *gin.Context) {
	catalog := attribute.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"attributes": catalog,
		"count":      len(catalog),
	})
}

func (s *Server) handleAssess(c *gin.Context) {
	var req assessRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	var opts []assess.RunnerOption
	if s.cfg.Jobs > 0 {
		opts = append(opts, assess.WithJobs(s.cfg.Jobs))
	}
	if req.Strict {
		opts = append(opts, assess.WithStrictWeights())
	}

	res, err := assess.NewRunner(opts...).Run(c.Request.Context(), req.Target,
		req.Measurements, toVector(req.Weights), toVector(req.Overrides))
	if err != nil {
		s.renderRunError(c, err)
		return
	}

	body := gin.H{"result": res}
	if s.store != nil {
		id, err := s.store.Save(c.Request.Context(), res)
		if err != nil {
			s.logger.Error("saving assessment", "target", req.Target, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record assessment"})
			return
		}
		body["id"] = id
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleValidateWeights(c *gin.Context) {
	var req validateRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	var opts []weights.Option
	if req.Strict {
		opts = append(opts, weights.WithStrict())
	}

	// Validation never errors out; the report says whether the
	// configuration is usable.
	report := weights.Validate(toVector(req.Weights), toVector(req.Overrides), opts...)
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleListAssessments(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history store disabled"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := s.store.List(c.Request.Context(), c.Query("target"), limit)
	if err != nil {
		s.logger.Error("listing assessments", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list assessments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"assessments": records,
		"count":       len(records),
	})
}

func (s *Server) handleGetAssessment(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history store disabled"})
		return
	}

	id := c.Param("id")
	res, err := s.store.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "assessment not found"})
		return
	}
	if err != nil {
		s.logger.Error("loading assessment", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load assessment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "result": res})
}

// renderRunError maps engine failures onto HTTP statuses: caller
// mistakes are 422 with enough detail to fix the request, cancellations
// and anything unexpected are 500.
func (s *Server) renderRunError(c *gin.Context, err error) {
	var verr *weights.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "invalid weight configuration",
			"issues": verr.Issues,
		})
	case errors.Is(err, assess.ErrNoAssessableAttributes):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "assessment inconclusive: no assessable attributes",
		})
	case c.Request.Context().Err() != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "request cancelled"})
	default:
		// Remaining failures from a run are measurement problems.
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	}
}

func toVector(m map[string]float64) weights.Vector {
	if len(m) == 0 {
		return nil
	}
	v := make(weights.Vector, len(m))
	for id, w := range m {
		v[attribute.ID(id)] = w
	}
	return v
}
