// Package api exposes the device table over a JSON HTTP API. Handlers
// translate between HTTP and the service layer; every error is recovered
// here and turned into a JSON error envelope, never a fault that kills
// the process.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/devboardhq/devboard/internal/auth"
	"github.com/devboardhq/devboard/internal/query"
	"github.com/devboardhq/devboard/internal/service"
	"github.com/devboardhq/devboard/internal/storage"
)

const (
	maxRequestBodySize = 1 << 20  // JSON bodies
	maxImportBodySize  = 20 << 20 // uploads
)

// Deps carries the collaborators for the HTTP surface.
type Deps struct {
	Service *service.Service
	Gate    *auth.Gate
}

// NewHandler returns the devboard HTTP handler. Everything except
// /health requires a bearer token mapping to the admin or viewer role;
// mutation authorization itself lives in the service layer.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(SessionAuth(deps.Gate))

		r.Get("/devices", handleListDevices(deps))
		r.Post("/devices", handleAddDevice(deps))
		r.Get("/devices/{id}", handleGetDevice(deps))
		r.Patch("/devices/{id}", handleEditDevice(deps))
		r.Delete("/devices/{id}", handleDeleteDevice(deps))
		r.Get("/stats/status", handleStatusCounts(deps))
		r.Get("/export", handleExport(deps))
		r.Post("/import", handleImport(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleListDevices(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := query.Filter{
			Status:   r.URL.Query().Get("status"),
			Location: r.URL.Query().Get("location"),
			Search:   r.URL.Query().Get("q"),
		}
		table, err := deps.Service.List(f)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, table)
	}
}

func handleGetDevice(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := deps.Service.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, rec)
	}
}

func handleAddDevice(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var rec storage.Record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		table, err := deps.Service.Add(sessionFrom(r.Context()), rec)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(table[len(table)-1])
	}
}

func handleEditDevice(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var changes map[string]string
		if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if len(changes) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "no fields to change")
			return
		}

		id := chi.URLParam(r, "id")
		table, err := deps.Service.Edit(sessionFrom(r.Context()), id, changes)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		// If the id column itself was edited, count rows under the new id.
		matchID := id
		if v, ok := changes["id"]; ok {
			matchID = v
		}
		updated := 0
		for _, rec := range table {
			if rec.ID == matchID {
				updated++
			}
		}
		writeJSON(w, map[string]any{"status": "updated", "rows": updated})
	}
}

func handleDeleteDevice(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, err := deps.Service.Delete(sessionFrom(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, map[string]string{"status": "deleted"})
	}
}

func handleStatusCounts(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := deps.Service.StatusCounts()
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, counts)
	}
}

func handleExport(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formatParam := r.URL.Query().Get("format")
		if formatParam == "" {
			formatParam = "csv"
		}
		format, err := service.ParseFormat(formatParam)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		filename := r.URL.Query().Get("filename")
		if filename == "" {
			filename = service.DefaultExportFilename
			if format == service.FormatXLSX {
				filename = "devices_export.xlsx"
			}
		}

		data, err := deps.Service.Export(format)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Write(data)
	}
}

func handleImport(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBodySize)
		defer r.Body.Close()

		file, header, err := r.FormFile("file")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "missing file upload: %v", err)
			return
		}
		defer file.Close()

		format, err := formatFromFilename(header.Filename)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		data, err := io.ReadAll(file)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading upload: %v", err)
			return
		}

		table, err := deps.Service.Import(sessionFrom(r.Context()), data, format)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, map[string]any{"status": "imported", "rows": len(table)})
	}
}

func formatFromFilename(name string) (service.Format, error) {
	ext := filepath.Ext(name)
	if ext == "" {
		return "", &service.ImportError{Cause: fmt.Errorf("filename %q has no extension", name)}
	}
	format, err := service.ParseFormat(ext)
	if err != nil {
		return "", &service.ImportError{Cause: err}
	}
	return format, nil
}

// writeServiceError maps service-layer errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var impErr *service.ImportError
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		httpError(w, http.StatusForbidden, "authorization_error", "%v", err)
	case errors.Is(err, service.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found", "%v", err)
	case errors.As(err, &impErr):
		httpError(w, http.StatusBadRequest, "import_error", "%v", err)
	case errors.Is(err, service.ErrInvalid):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
