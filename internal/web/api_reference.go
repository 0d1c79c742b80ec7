package web

import (
	"net/http"

	"fleetops-sim/internal/errorkb"
	"fleetops-sim/internal/fleet"
)

// Reference-data endpoints: error knowledge base, facility layout, task
// catalog. All static after startup.

func (s *Server) listErrors(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		jsonResponse(w, errorkb.Search(q))
		return
	}
	if v := r.URL.Query().Get("vendor"); v != "" {
		jsonResponse(w, errorkb.ByVendor(fleet.Vendor(v)))
		return
	}
	jsonResponse(w, errorkb.All())
}

func (s *Server) getError(w http.ResponseWriter, r *http.Request) {
	entry, ok := errorkb.Lookup(r.PathValue("code"))
	if !ok {
		jsonError(w, "unknown error code", http.StatusNotFound)
		return
	}
	jsonResponse(w, entry)
}

func (s *Server) getFacility(w http.ResponseWriter, r *http.Request) {
	layout := s.sim.Layout()
	jsonResponse(w, map[string]any{
		"width":    layout.Width,
		"height":   layout.Height,
		"zones":    layout.Zones,
		"stations": layout.Stations,
		"chargers": layout.Chargers,
	})
}

func (s *Server) listTaskDefs(w http.ResponseWriter, r *http.Request) {
	if v := r.URL.Query().Get("vendor"); v != "" {
		jsonResponse(w, fleet.TasksForVendor(fleet.Vendor(v)))
		return
	}
	jsonResponse(w, fleet.Catalog)
}
