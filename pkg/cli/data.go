package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mchmarny/gearpulse/pkg/catalog"
	"github.com/mchmarny/gearpulse/pkg/config"
	"github.com/mchmarny/gearpulse/pkg/data"
)

const (
	maxRequestBodyBytes = 1 << 16
)

type statusRequest struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDataError maps missing records to 404 and everything else to 500.
func writeDataError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, data.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	slog.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, msg)
}

func requestDomain(w http.ResponseWriter, r *http.Request, cfg *config.Config) (string, *config.Domain, bool) {
	name := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("domain")))
	if name == "" {
		writeError(w, http.StatusBadRequest, "domain is required")
		return "", nil, false
	}
	d, err := cfg.GetDomain(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", nil, false
	}
	return name, d, true
}

func productsAPIHandler(db *sql.DB, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domain, d, ok := requestDomain(w, r, cfg)
		if !ok {
			return
		}

		q := r.URL.Query()
		c := &data.ProductCriteria{
			Domain:     domain,
			Category:   optional(q.Get("category")),
			Brand:      optional(q.Get("brand")),
			Tag:        optional(q.Get("tag")),
			Occupation: optional(q.Get("occupation")),
			Page:       queryParamInt(r, "page", 1),
			PageSize:   queryParamInt(r, "limit", d.PageSize),
		}

		slog.Debug("products query", "domain", domain, "page", c.Page, "limit", c.PageSize)

		res, err := catalog.GetListing(r.Context(), db, c)
		if err != nil {
			writeDataError(w, err, "failed to list products")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func productAPIHandler(db *sql.DB, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := catalog.GetDetail(r.Context(), db, cfg, r.PathValue("id"))
		if err != nil {
			writeDataError(w, err, "failed to get product")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func relatedAPIHandler(db *sql.DB, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := catalog.GetRelated(db, cfg, r.PathValue("id"))
		if err != nil {
			writeDataError(w, err, "failed to get related products")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func facetAPIHandler(db *sql.DB, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domain, _, ok := requestDomain(w, r, cfg)
		if !ok {
			return
		}

		kind := r.PathValue("kind")
		if !data.Contains(data.FacetKinds, kind) {
			writeError(w, http.StatusBadRequest, "invalid facet kind")
			return
		}

		res, err := data.GetFacet(db, domain, kind, queryParamInt(r, "limit", queryResultLimitDefault))
		if err != nil {
			writeDataError(w, err, "failed to get facet")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func stateAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := data.GetDataState(db)
		if err != nil {
			writeDataError(w, err, "failed to get data state")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func statusAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if !data.Contains(data.ReviewStatuses, req.Status) {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}

		id := r.PathValue("id")
		if err := data.SetProductStatus(db, id, req.Status); err != nil {
			writeDataError(w, err, "failed to update product status")
			return
		}
		writeJSON(w, http.StatusOK, &statusResult{ID: id, Status: req.Status})
	}
}

func updateAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var u data.ProductUpdate
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&u); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		id := r.PathValue("id")
		if err := data.UpdateProduct(db, id, &u); err != nil {
			writeDataError(w, err, "failed to update product")
			return
		}

		p, err := data.GetProduct(db, id)
		if err != nil {
			writeDataError(w, err, "failed to get product")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func queryParamInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Debug("error converting query string to int", "key", key, "value", v, "error", err)
		return def
	}

	if i < 1 {
		return def
	}

	return i
}
