package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/graywire/internal/buildlog"
)

// handleListBuilds returns a page of the build log.
//
// Query parameters: service, class, failed (bool), limit, offset.
func (s *Server) handleListBuilds(w http.ResponseWriter, r *http.Request) {
	if s.buildLog == nil {
		writeNotFound(w, "build log is not enabled")
		return
	}

	q := r.URL.Query()
	filter := buildlog.Filter{
		Service: q.Get("service"),
		Class:   q.Get("class"),
	}

	var err error
	if v := q.Get("failed"); v != "" {
		if filter.FailedOnly, err = strconv.ParseBool(v); err != nil {
			writeBadRequest(w, "failed must be a boolean")
			return
		}
	}
	if v := q.Get("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
	}
	if v := q.Get("offset"); v != "" {
		if filter.Offset, err = strconv.Atoi(v); err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
	}

	result, err := s.buildLog.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing build log", "error", err, "request_id", requestID(r.Context()))
		writeInternalError(w, "listing build log")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
