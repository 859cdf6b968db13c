package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/vitrine/internal/models"
	"github.com/hyperjump/vitrine/internal/snapshot"
	"github.com/hyperjump/vitrine/internal/storage"
)

const (
	infoCatalog    = "Exibindo todo o estoque disponível"
	instructionNil = "Não encontramos produtos com os parâmetros informados e também não encontramos opções próximas."
)

// dataResponse is the body of GET /api/data.
type dataResponse struct {
	Results     []models.Record `json:"resultados"`
	TotalFound  int             `json:"total_encontrado"`
	Fallback    *fallbackInfo   `json:"fallback,omitempty"`
	Info        string          `json:"info,omitempty"`
	Error       string          `json:"error,omitempty"`
	Instruction string          `json:"instrucao_ia,omitempty"`
	Suggestions []string        `json:"sugestoes,omitempty"`
	State       string          `json:"estado,omitempty"`
	Policy      *models.Policy  `json:"politica,omitempty"`
}

type fallbackInfo struct {
	RemovedFilters []string              `json:"removed_filters"`
	CategoryRemap  *models.CategoryRemap `json:"category_remap,omitempty"`
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	params := make(map[string]string)
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			params[name] = values[0]
		}
	}
	query := models.QueryFromParams(params)
	s.logger.Debug("search request",
		zap.Any("filters", query.Filters),
		zap.Any("ranges", query.Ranges),
		zap.String("id", query.ID),
	)
	resp, err := s.engine.Search(r.Context(), query)
	if err != nil {
		if errors.Is(err, snapshot.ErrNoData) {
			s.respondJSON(w, http.StatusNotFound, dataResponse{
				Results: []models.Record{},
				Error:   err.Error(),
			})
			return
		}
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, toDataResponse(query, resp))
}

func toDataResponse(query *models.SearchQuery, resp *models.SearchResponse) dataResponse {
	out := dataResponse{
		Results:     resp.Items,
		TotalFound:  resp.TotalFound,
		Suggestions: resp.Suggestions,
		State:       resp.State,
		Policy:      resp.Policy,
	}
	if out.Results == nil {
		out.Results = []models.Record{}
	}
	switch resp.State {
	case models.StateLookup:
		if resp.TotalFound > 0 {
			out.Info = fmt.Sprintf("Produto encontrado por ID: %s", query.ID)
		} else {
			out.Error = fmt.Sprintf("Produto com ID %s não encontrado", query.ID)
		}
		return out
	case models.StateCatalog:
		out.Info = infoCatalog
	}
	if len(resp.RelaxationsApplied) > 0 || resp.CategoryRemap != nil {
		out.Fallback = &fallbackInfo{
			RemovedFilters: resp.RelaxationsApplied,
			CategoryRemap:  resp.CategoryRemap,
		}
	}
	if resp.TotalFound == 0 {
		out.Instruction = instructionNil
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

type snapshotInfo struct {
	Version  string    `json:"version"`
	LoadedAt time.Time `json:"loaded_at"`
	Records  int       `json:"records"`
}

type dataFileInfo struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
}

type statusResponse struct {
	LastUpdate    *models.UpdateStatus `json:"last_update"`
	StoredRecords int64                `json:"stored_records"`
	Snapshot      *snapshotInfo        `json:"snapshot"`
	DataFile      *dataFileInfo        `json:"data_file,omitempty"`
	CurrentTime   time.Time            `json:"current_time"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := statusResponse{CurrentTime: time.Now()}

	if s.storage != nil {
		last, err := s.storage.LatestStatus(ctx)
		switch {
		case err == nil:
			resp.LastUpdate = last
		case !errors.Is(err, storage.ErrNotFound):
			s.logger.Error("status: latest update failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		count, err := s.storage.CountRecords(ctx)
		if err != nil {
			s.logger.Error("status: count records failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.StoredRecords = count
	}

	if snap, err := s.store.Current(); err == nil {
		resp.Snapshot = &snapshotInfo{Version: snap.Version, LoadedAt: snap.LoadedAt, Records: snap.Len()}
	}

	if path := s.config.Storage.DatabasePath; path != "" {
		if size, err := storage.DatabaseSize(path); err == nil {
			resp.DataFile = &dataFileInfo{Path: path, SizeBytes: size}
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		s.respondError(w, http.StatusNotImplemented, "refresh not enabled")
		return
	}
	s.refresher.Trigger()
	s.respondJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
