package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/FutingLiang/dmv-routes-frontend/internal/export"
	"github.com/FutingLiang/dmv-routes-frontend/internal/stats"
	"github.com/FutingLiang/dmv-routes-frontend/internal/store"
)

type handlers struct {
	reader Reader
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type routesBody struct {
	Success    bool             `json:"success"`
	Routes     []store.RouteRow `json:"routes"`
	Statistics store.TableStats `json:"statistics"`
	LimitUsed  int              `json:"limit_used"`
}

type searchBody struct {
	Success    bool             `json:"success"`
	Routes     []store.RouteRow `json:"routes"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	TotalPages int64            `json:"total_pages"`
}

type statisticsBody struct {
	Success bool `json:"success"`
	stats.Statistics
}

type detailedBody struct {
	Success bool `json:"success"`
	stats.Detailed
}

type sampleBody struct {
	Success bool `json:"success"`
	stats.SampleTable
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) routes(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit")
	if limit <= 0 {
		limit = store.DefaultLimit
	}

	rows, err := h.reader.ListRoutes(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.reader.TableStats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, routesBody{Success: true, Routes: rows, Statistics: st, LimitUsed: limit})
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := store.SearchParams{
		District:  q.Get("district"),
		RouteType: q.Get("route_type"),
		Search:    q.Get("search"),
		Page:      queryInt(r, "page"),
		PerPage:   queryInt(r, "per_page"),
	}.Normalize()

	rows, total, err := h.reader.SearchRoutes(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchBody{
		Success:    true,
		Routes:     rows,
		Total:      total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: stats.TotalPages(total, p.PerPage),
	})
}

func (h *handlers) statistics(w http.ResponseWriter, r *http.Request) {
	groups, err := h.reader.RouteGroups(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statisticsBody{Success: true, Statistics: stats.DistrictStats(groups)})
}

func (h *handlers) detailedStatistics(w http.ResponseWriter, r *http.Request) {
	groups, err := h.reader.RouteGroups(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detailedBody{Success: true, Detailed: stats.DetailedStats(groups)})
}

func (h *handlers) sampleTable(w http.ResponseWriter, r *http.Request) {
	groups, err := h.reader.RouteGroups(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sampleBody{Success: true, SampleTable: stats.BuildSampleTable(groups)})
}

func (h *handlers) exportDetailed(w http.ResponseWriter, r *http.Request) {
	groups, err := h.reader.RouteGroups(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteDetailed(&buf, stats.DetailedStats(groups)); err != nil {
		h.fail(w, r, err)
		return
	}
	writeAttachment(w, export.DetailedFilename, "detailed-statistics.xlsx", buf.Bytes())
}

func (h *handlers) exportSample(w http.ResponseWriter, r *http.Request) {
	groups, err := h.reader.RouteGroups(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteSample(&buf, stats.BuildSampleTable(groups)); err != nil {
		h.fail(w, r, err)
		return
	}
	writeAttachment(w, export.SampleFilename, "sample-table.xlsx", buf.Bytes())
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	zap.L().Error("request failed",
		zap.String("component", "api"),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
}

// queryInt parses a query parameter; missing or malformed values are 0.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeAttachment sends an xlsx download. name is the UTF-8 filename;
// fallback is the ASCII name for clients without RFC 5987 support.
func writeAttachment(w http.ResponseWriter, name, fallback string, body []byte) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(
		`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, url.PathEscape(name)))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
