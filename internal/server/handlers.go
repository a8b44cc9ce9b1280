package server

import (
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"

	"github.com/KaramelBytes/medflow-cli/internal/agents"
	"github.com/KaramelBytes/medflow-cli/internal/ai"
	"github.com/KaramelBytes/medflow-cli/internal/analysis"
	"github.com/KaramelBytes/medflow-cli/internal/filter"
	"github.com/KaramelBytes/medflow-cli/internal/graph"
	"github.com/KaramelBytes/medflow-cli/internal/logger"
	"github.com/KaramelBytes/medflow-cli/internal/parser"
	"github.com/KaramelBytes/medflow-cli/internal/quality"
	"github.com/KaramelBytes/medflow-cli/internal/record"
)

func jsonError(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"error": err.Error()})
}

// importHandler replaces the current dataset with the request body. The
// optional name parameter (e.g. deliveries.xlsx) selects a parser by extension.
func (s *Server) importHandler(c echo.Context) error {
	res, err := parser.ParseReader(c.Request().Body, c.QueryParam("name"))
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}
	ds := s.Store.Put(res)
	logger.Named("server").Infow("dataset imported",
		logger.FieldFormat, ds.Format,
		logger.FieldCount, ds.Rows)
	return c.JSON(http.StatusOK, ds)
}

func (s *Server) datasetHandler(c echo.Context) error {
	ds, ok := s.Store.Current()
	if !ok {
		return jsonError(c, http.StatusNotFound, errors.New("no dataset imported"))
	}
	return c.JSON(http.StatusOK, ds)
}

// filteredRows applies the request's filter parameters to the current rows.
func (s *Server) filteredRows(c echo.Context) ([]record.Row, error) {
	crit, err := criteriaFromQuery(c.QueryParams())
	if err != nil {
		return nil, err
	}
	return filter.Apply(s.Store.Rows(), crit), nil
}

func (s *Server) rowsHandler(c echo.Context) error {
	rows, err := s.filteredRows(c)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}
	limit, err := intParam(c.QueryParams(), "limit", 0)
	if err != nil || limit < 0 {
		return jsonError(c, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	if rows == nil {
		rows = []record.Row{}
	}
	return c.JSON(http.StatusOK, rows)
}

func (s *Server) summary(c echo.Context) (*analysis.Summary, error) {
	rows, err := s.filteredRows(c)
	if err != nil {
		return nil, err
	}
	opt, err := optionsFromQuery(c.QueryParams())
	if err != nil {
		return nil, err
	}
	return analysis.Summarize(rows, opt), nil
}

func (s *Server) summaryHandler(c echo.Context) error {
	sum, err := s.summary(c)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}
	if strings.EqualFold(c.QueryParam("format"), "markdown") {
		return c.String(http.StatusOK, sum.Markdown())
	}
	return c.JSON(http.StatusOK, sum)
}

func (s *Server) graphHandler(c echo.Context) error {
	rows, err := s.filteredRows(c)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}
	q := c.QueryParams()
	maxNodes, err := intParam(q, "max_nodes", s.MaxNodes)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}
	threshold, err := intParam(q, "edge_threshold", 0)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}
	g := graph.Build(rows, graph.Options{MaxNodes: maxNodes, MinLinkWeight: int64(threshold)})
	return c.JSON(http.StatusOK, g)
}

// qualityHandler reports on the filtered rows; header mappings always describe
// the whole import.
func (s *Server) qualityHandler(c echo.Context) error {
	rows, err := s.filteredRows(c)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, quality.Check(s.Store.Result().Headers, rows))
}

type answer struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

func (s *Server) insightHandler(c echo.Context) error {
	return s.oneShot(c, agents.InsightFor)
}

func (s *Server) predictionHandler(c echo.Context) error {
	return s.oneShot(c, agents.PredictionFor)
}

func (s *Server) oneShot(c echo.Context, build func(string, *analysis.Summary) (ai.GenerateRequest, error)) error {
	sum, err := s.summary(c)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}
	req, err := build(s.Model, sum)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, err)
	}
	text, err := agents.Ask(c.Request().Context(), s.Runtime, req)
	if err != nil {
		return s.aiError(c, err)
	}
	return c.JSON(http.StatusOK, answer{Text: text, Model: req.Model})
}

func (s *Server) pipelineHandler(c echo.Context) error {
	sum, err := s.summary(c)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}
	in, err := agents.NewInput(sum, s.MaxContextTokens)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, err)
	}
	p := &agents.Pipeline{Runtime: s.Runtime, Specs: s.Specs, Model: s.Model, Limiter: s.Limiter}
	run, err := p.Run(c.Request().Context(), in)
	if err != nil {
		return c.JSON(aiStatus(err), run)
	}
	return c.JSON(http.StatusOK, run)
}

// aiStatus maps a missing runtime to 503 and any runtime failure to 502.
func aiStatus(err error) int {
	if errors.Is(err, agents.ErrNoRuntime) || errors.Is(err, ai.ErrMissingAPIKey) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

func (s *Server) aiError(c echo.Context, err error) error {
	status := aiStatus(err)
	if status == http.StatusBadGateway {
		logger.Named("server").Warnw("generation failed", logger.FieldError, err)
	}
	return jsonError(c, status, err)
}
