// internal/api/handlers.go
package api

import (
	"encoding/json"
	"net/http"

	"szz/internal/errors"
	"szz/internal/linker"
	"szz/internal/logging"
	"szz/internal/validation"
	"szz/shared/types"

	"go.uber.org/zap"
)

type LinkHandler struct {
	linker *linker.Linker
	logger *logging.Logger
}

func NewLinkHandler(l *linker.Linker, logger *logging.Logger) *LinkHandler {
	if logger == nil {
		logger = logging.Wrap(nil)
	}
	return &LinkHandler{linker: l, logger: logger}
}

// Register mounts every endpoint on mux.
func (h *LinkHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", Health)
	mux.HandleFunc("POST /api/links", h.Link)
	mux.HandleFunc("GET /api/revisions/latest", h.Latest)
	mux.HandleFunc("GET /api/log", h.Log)
	mux.HandleFunc("GET /api/commits/{commit}/files", h.Files)
	mux.HandleFunc("GET /api/commits/{commit}/ranges", h.Ranges)
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Link answers with every link that could be computed; commits that failed
// are listed under failures instead of failing the whole request.
func (h *LinkHandler) Link(w http.ResponseWriter, r *http.Request) {
	req, err := validation.ValidateLinkRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	report, err := h.linker.LinkReport(r.Context(), req.Commits)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.WithRequestID(r.Context()).Info("linked fix commits",
		zap.Int("requested", len(req.Commits)),
		zap.Int("linked", len(report.Links)),
		zap.Int("failed", len(report.Failures)),
	)
	writeJSON(w, http.StatusOK, ToLinkResponse(report))
}

func (h *LinkHandler) Latest(w http.ResponseWriter, r *http.Request) {
	rev, err := h.linker.LatestRevision(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.LatestResponse{Revision: rev.String()})
}

func (h *LinkHandler) Log(w http.ResponseWriter, r *http.Request) {
	rev := r.URL.Query().Get("revision")
	out, err := h.linker.Log(r.Context(), rev)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.LogResponse{Revision: rev, Log: out})
}

func (h *LinkHandler) Files(w http.ResponseWriter, r *http.Request) {
	commit := r.PathValue("commit")
	files, err := h.linker.ChangedFiles(r.Context(), commit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FilesResponse{Commit: commit, Files: files})
}

func (h *LinkHandler) Ranges(w http.ResponseWriter, r *http.Request) {
	commit := r.PathValue("commit")
	file := r.URL.Query().Get("file")
	if file == "" {
		h.writeError(w, r, errors.ValidationError("file is required", nil))
		return
	}

	ranges, err := h.linker.ChangedRanges(r.Context(), commit, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.RangesResponse{Commit: commit, File: file, Ranges: ranges})
}

// ToLinkResponse flattens a report into its wire form.
func ToLinkResponse(report *linker.Report) types.LinkResponse {
	resp := types.LinkResponse{Links: make(map[string][]string, len(report.Links))}
	for fix, origins := range report.Links {
		resp.Links[fix.String()] = origins.Strings()
	}
	if len(report.Failures) > 0 {
		resp.Failures = make(map[string]string, len(report.Failures))
		for fix, err := range report.Failures {
			resp.Failures[fix.String()] = err.Error()
		}
	}
	return resp
}

func (h *LinkHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	resp := types.ErrorResponse{Type: string(errors.TypeOf(err)), Message: err.Error()}
	var e *errors.Error
	if errors.As(err, &e) {
		resp.Details = e.Details
	}
	if resp.Type == "" {
		resp.Type = "INTERNAL"
	}

	log := h.logger.WithRequestID(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		log.Info("request rejected", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
