package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/graywire/internal/configtree"
)

// serviceSummary is one entry of the service listing.
type serviceSummary struct {
	Name  string `json:"name"`
	Class string `json:"class"`
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"services": len(s.registry.Names()),
		"version":  s.version,
	})
}

// handleListServices lists every configured name in configuration order.
func (s *Server) handleListServices(w http.ResponseWriter, _ *http.Request) {
	names := s.registry.Names()
	out := make([]serviceSummary, 0, len(names))
	for _, name := range names {
		d, err := s.registry.GetConfig(name, nil)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		out = append(out, serviceSummary{Name: name, Class: d.Class})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"services": out,
		"count":    len(out),
	})
}

// handleGetService returns the resolved descriptor for one name.
func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	d, err := s.registry.GetConfig(chi.URLParam(r, "name"), nil)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleServiceConfig merges the request body, a JSON object of instance
// params, over the configured params and returns the result. Nothing is
// instantiated.
func (s *Server) handleServiceConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "request body too large")
			return
		}
		writeBadRequest(w, "reading request body")
		return
	}

	params, err := configtree.DecodeMap(body)
	if err != nil {
		writeBadRequest(w, "body must be a JSON object: "+err.Error())
		return
	}

	d, err := s.registry.GetConfig(chi.URLParam(r, "name"), params)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleListClasses lists the class identifiers the factory can build.
func (s *Server) handleListClasses(w http.ResponseWriter, _ *http.Request) {
	var classes []string
	if s.classes != nil {
		classes = s.classes.Classes()
	}
	if classes == nil {
		classes = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"classes": classes,
		"count":   len(classes),
	})
}

// handleListInstances lists the cached instances in build order.
func (s *Server) handleListInstances(w http.ResponseWriter, _ *http.Request) {
	instances := s.registry.Instances()
	if instances == nil {
		instances = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"instances": instances,
		"count":     len(instances),
	})
}
