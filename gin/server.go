// Package gin exposes the scraping pipeline over HTTP.
package gin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fwojciec/profdir/scrape"
	"github.com/gin-gonic/gin"
)

// ScrapeRunner runs the pipeline for a request. *scrape.Pipeline satisfies
// it via RunWithCap.
type ScrapeRunner interface {
	RunWithCap(ctx context.Context, sources []scrape.Source, maxProfiles int) (*scrape.Summary, error)
}

var _ ScrapeRunner = (*scrape.Pipeline)(nil)

// Server handles inbound scrape requests.
type Server struct {
	router *gin.Engine
	runner ScrapeRunner
	logger *slog.Logger
}

// NewServer creates a Server around the given runner. A nil logger
// disables logging.
func NewServer(runner ScrapeRunner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{runner: runner, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery())
	router.POST("/scrape", s.handleScrape)
	s.router = router

	return s
}

// Handler returns the http.Handler for the server, for mounting or testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until the listener fails.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// scrapeRequest accepts both trigger shapes: the legacy single-directory
// form with selectors, and the directory list form. Selectors are accepted
// for compatibility but unused; extraction is instruction-driven.
type scrapeRequest struct {
	University    string            `json:"university"`
	Department    string            `json:"department"`
	URL           string            `json:"url"`
	Selectors     map[string]string `json:"selectors"`
	DirectoryURLs []string          `json:"directory_urls"`
	MaxProfiles   int               `json:"max_profiles"`
}

type sourceStatus struct {
	URL         string `json:"url"`
	State       string `json:"state"`
	AbortReason string `json:"abort_reason,omitempty"`
	Profiles    int    `json:"profiles"`
}

type scrapeResponse struct {
	Status       string         `json:"status"`
	Inserted     int            `json:"inserted"`
	Found        int            `json:"found"`
	Junk         int            `json:"junk"`
	Rejected     int            `json:"rejected"`
	Deduplicated int            `json:"deduplicated"`
	Existing     int            `json:"existing"`
	Sources      []sourceStatus `json:"sources"`
}

func errorResponse(message string) gin.H {
	return gin.H{"status": "error", "message": message}
}

func (s *Server) handleScrape(c *gin.Context) {
	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request body: "+err.Error()))
		return
	}

	var sources []scrape.Source
	if req.URL != "" {
		sources = append(sources, scrape.Source{
			URL:        req.URL,
			University: req.University,
			Department: req.Department,
		})
	}
	for _, u := range req.DirectoryURLs {
		sources = append(sources, scrape.Source{
			URL:        u,
			University: req.University,
			Department: req.Department,
		})
	}
	if len(sources) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse("url or directory_urls required"))
		return
	}

	if len(req.Selectors) > 0 {
		s.logger.Warn("ignoring selectors in scrape request; extraction is instruction-driven")
	}

	summary, err := s.runner.RunWithCap(c.Request.Context(), sources, req.MaxProfiles)
	if err != nil {
		s.logger.Error("scrape run failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse(err.Error()))
		return
	}

	resp := scrapeResponse{
		Status:       "success",
		Inserted:     summary.Inserted,
		Found:        summary.Found,
		Junk:         summary.Junk,
		Rejected:     summary.Rejected,
		Deduplicated: summary.Deduplicated,
		Existing:     summary.Existing,
	}
	for _, src := range summary.Sources {
		resp.Sources = append(resp.Sources, sourceStatus{
			URL:         src.Source.URL,
			State:       string(src.State),
			AbortReason: src.AbortReason,
			Profiles:    src.Profiles,
		})
	}
	c.JSON(http.StatusOK, resp)
}
