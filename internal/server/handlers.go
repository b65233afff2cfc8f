package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"buildboard/internal/domain"
	"buildboard/internal/logging"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	if err := s.migrator.Migrate(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.migrator.Ping(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, initResponse{Success: true, Message: "database initialized"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !readJSON(w, r, &req) {
		return
	}

	id, err := s.sessions.CreateSession(r.Context(), toCreateSessionParams(req))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, createSessionResponse{Success: true, SessionID: id})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.ListSessions(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	payload := make([]sessionJSON, len(sessions))
	for i, session := range sessions {
		payload[i] = sessionToJSON(session)
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": payload})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"session": sessionToJSON(*session)})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := s.chat.ListMessages(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	payload := make([]messageJSON, len(messages))
	for i, m := range messages {
		payload[i] = messageToJSON(m)
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": payload})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !readJSON(w, r, &req) {
		return
	}

	result, err := s.chat.SendMessage(r.Context(), r.PathValue("id"), req.Message)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Success:   true,
		MessageID: result.MessageID,
		Response:  result.Response,
	})
}

func (s *Server) handleRunSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessions.RunSession(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, runSessionResponse{
		Success:   true,
		SessionID: id,
		Status:    string(domain.StatusCoding),
		Note:      "session marked as coding; no build pipeline is attached",
	})
}

func (s *Server) handleTimeStart(w http.ResponseWriter, r *http.Request) {
	state, err := s.timer.Start(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, timeStartResponse{
		Success:   true,
		Running:   state.Running,
		StartedAt: state.StartedAt,
	})
}

func (s *Server) handleTimeStop(w http.ResponseWriter, r *http.Request) {
	result, err := s.timer.Stop(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, timeStopResponse{
		Success: true,
		Running: result.Running,
		Seconds: result.Seconds,
		Cost:    result.CostUSD,
	})
}

func (s *Server) handleTimeStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.timer.Status(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, timeStatusResponse{
		Running:   status.Running,
		StartedAt: status.StartedAt,
		Seconds:   status.Seconds,
		Aggregates: timeAggregatesJSON{
			TodaySeconds: status.Aggregates.TodaySeconds,
			WeekSeconds:  status.Aggregates.WeekSeconds,
			MonthSeconds: status.Aggregates.MonthSeconds,
			TodayCost:    status.Aggregates.TodayCost,
			WeekCost:     status.Aggregates.WeekCost,
			MonthCost:    status.Aggregates.MonthCost,
			RatePerHour:  status.Aggregates.RatePerHour,
		},
	})
}

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	entries, err := s.images.ListImages(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	payload := make([]imageEntryJSON, len(entries))
	for i, entry := range entries {
		payload[i] = imageEntryJSON{
			Key:      entry.Object.Key,
			Size:     entry.Object.Size,
			Uploaded: entry.Object.Uploaded,
		}
		if entry.Metadata != nil {
			payload[i].Metadata = &imageMetaJSON{
				Key:       entry.Metadata.Key,
				Title:     entry.Metadata.Title,
				Alt:       entry.Metadata.Alt,
				Tags:      entry.Metadata.Tags,
				UpdatedAt: entry.Metadata.UpdatedAt,
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"images": payload})
}

// handleUpsertImageMetadata matches PUT /api/images/{key...} so object keys
// may contain slashes; the trailing /metadata segment is part of the route.
func (s *Server) handleUpsertImageMetadata(w http.ResponseWriter, r *http.Request) {
	key, ok := strings.CutSuffix(r.PathValue("key"), "/metadata")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var req upsertMetadataRequest
	if !readJSON(w, r, &req) {
		return
	}

	err := s.images.UpsertMetadata(r.Context(), key, toUpsertMetadataParams(req))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleTestKeys(w http.ResponseWriter, _ *http.Request) {
	keys := make(map[string]bool, len(s.providers))
	for _, p := range s.providers {
		keys[p.Name()] = p.Configured()
	}
	writeJSON(w, http.StatusOK, keys)
}

// --- helpers ---

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps the error taxonomy: validation 400, not found 404,
// everything else a storage-layer 500 with the message passed through.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		logging.Logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
