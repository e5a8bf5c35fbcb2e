package recommendations

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"tool-recommender/internal/shared/server/middleware"
	"tool-recommender/internal/shared/server/respond"
	"tool-recommender/internal/shared/util"
)

// APIKeyHeader carries a request-scoped upstream credential.
const APIKeyHeader = "X-Api-Key"

// Handler wires HTTP handlers to the recommendation service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches recommendation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/options", h.options)
	rg.POST("/recommendations", h.recommend)
	rg.POST("/recommendations/export", h.export)
}

type recommendRequest struct {
	BusinessSize  string `json:"businessSize" binding:"required"`
	MonthlyBudget *int   `json:"monthlyBudget" binding:"required"`
	Category      string `json:"category" binding:"required"`
	Complexity    string `json:"complexity" binding:"required"`
	Requirements  string `json:"requirements"`
}

type option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func (h *Handler) options(c *gin.Context) {
	sizes := make([]option, 0, len(BusinessSizes))
	for _, s := range BusinessSizes {
		sizes = append(sizes, option{Value: string(s), Label: s.Label()})
	}
	categories := make([]option, 0, len(Categories))
	for _, cat := range Categories {
		categories = append(categories, option{Value: string(cat), Label: cat.Label()})
	}
	complexities := make([]option, 0, len(Complexities))
	for _, cx := range Complexities {
		complexities = append(complexities, option{Value: strings.ToLower(cx.String()), Label: cx.String()})
	}

	respond.OK(c, gin.H{
		"businessSizes":      sizes,
		"categories":         categories,
		"complexities":       complexities,
		"maxMonthlyBudget":   MaxMonthlyBudget,
		"maxRequirementsLen": MaxRequirementsLen,
		"sortFields":         []SortField{SortScore, SortName, SortPrice, SortFeatures},
		"exportFormats":      []ExportFormat{ExportCSV, ExportTSV, ExportJSON},
	})
}

func (h *Handler) recommend(c *gin.Context) {
	view, ok := h.parseView(c)
	if !ok {
		return
	}
	result, ok := h.run(c)
	if !ok {
		return
	}

	set := view.Apply(result.Set)
	c.Set("recommendationCount", set.Len())
	respond.OK(c, gin.H{
		"recommendations": set.Items(),
		"count":           set.Len(),
		"degradedCount":   set.DegradedCount(),
		"source":          result.Source,
		"attempts":        result.Attempts,
	})
}

func (h *Handler) export(c *gin.Context) {
	format, err := ParseExportFormat(c.DefaultQuery("format", string(ExportCSV)))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeUnsupportedFormat, "format must be one of csv, tsv, json", []map[string]string{
			{"field": "format", "issue": "unsupported"},
		})
		return
	}
	name := "recommendations"
	if raw := c.Query("filename"); raw != "" {
		clean, err := util.SanitizeFileName(strings.TrimSuffix(raw, "."+string(format)))
		if err != nil {
			writeError(c, &ValidationError{Field: "filename", Issue: err.Error()})
			return
		}
		name = clean
	}
	view, ok := h.parseView(c)
	if !ok {
		return
	}
	result, ok := h.run(c)
	if !ok {
		return
	}

	body, err := view.Apply(result.Set).Export(format)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Attachment(c, name+"."+string(format), format.ContentType(), body)
}

// run binds the body, resolves the credential and calls the service.
// On failure the response has already been written.
func (h *Handler) run(c *gin.Context) (Result, bool) {
	var body recommendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid request body", []map[string]string{
			{"field": "body", "issue": err.Error()},
		})
		return Result{}, false
	}
	req, err := body.toRequest()
	if err != nil {
		writeError(c, err)
		return Result{}, false
	}

	result, err := h.Svc.Recommend(c.Request.Context(), Input{
		Request:   req,
		APIKey:    c.GetHeader(APIKeyHeader),
		RequestID: middleware.RequestIDFromContext(c),
	})
	if err != nil {
		writeError(c, err)
		return Result{}, false
	}
	return result, true
}

func (b recommendRequest) toRequest() (Request, error) {
	size, err := ParseBusinessSize(b.BusinessSize)
	if err != nil {
		return Request{}, err
	}
	category, err := ParseCategory(b.Category)
	if err != nil {
		return Request{}, err
	}
	complexity, err := ParseComplexity(b.Complexity)
	if err != nil {
		return Request{}, err
	}
	return NewRequest(size, *b.MonthlyBudget, category, complexity, b.Requirements)
}

// View is the sort and budget window applied to a parsed set before it is returned.
type View struct {
	Sort     SortField
	MinPrice int
	MaxPrice int
	Filter   bool
}

// Apply filters then sorts s.
func (v View) Apply(s Set) Set {
	if v.Filter {
		s = s.FilterByBudget(v.MinPrice, v.MaxPrice)
	}
	return s.SortBy(v.Sort)
}

func (h *Handler) parseView(c *gin.Context) (View, bool) {
	sort, err := ParseSortField(c.Query("sort"))
	if err != nil {
		writeError(c, err)
		return View{}, false
	}
	view := View{Sort: sort, MaxPrice: NoLimit}
	for _, q := range []struct {
		name string
		dst  *int
	}{
		{"minPrice", &view.MinPrice},
		{"maxPrice", &view.MaxPrice},
	} {
		raw := strings.TrimSpace(c.Query(q.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(c, &ValidationError{Field: q.name, Issue: "must be a non-negative integer"})
			return View{}, false
		}
		*q.dst = n
		view.Filter = true
	}
	return view, true
}

func writeError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, verr.Error(), []map[string]string{
			{"field": verr.Field, "issue": verr.Issue},
		})
	case errors.Is(err, ErrMissingCredential):
		respond.Error(c, http.StatusUnauthorized, ErrorCodeMissingCredential, "an Anthropic API key is required", nil)
	case errors.Is(err, ErrUnsupportedFormat):
		respond.Error(c, http.StatusBadRequest, ErrorCodeUnsupportedFormat, err.Error(), nil)
	case errors.Is(err, ErrServiceUnavailable):
		respond.Error(c, http.StatusServiceUnavailable, ErrorCodeServiceUnavailable, "The recommendation service is temporarily overloaded. Please try again shortly.", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusGatewayTimeout, ErrorCodeTimeout, "the upstream request timed out or was canceled", nil)
	case errors.Is(err, ErrTerminalTransport):
		respond.Error(c, http.StatusBadGateway, ErrorCodeUpstream, err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to produce recommendations", nil)
	}
}
