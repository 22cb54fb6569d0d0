package handler

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Mark-Phillipson/Risk/internal/service"
	"github.com/Mark-Phillipson/Risk/pkg/geo"
	"github.com/Mark-Phillipson/Risk/pkg/raster"
	"github.com/Mark-Phillipson/Risk/pkg/render"
)

// MapHandler handles map operations on a live session.
type MapHandler struct {
	mgr *service.SessionManager
}

// NewMapHandler creates a MapHandler.
func NewMapHandler(mgr *service.SessionManager) *MapHandler {
	return &MapHandler{mgr: mgr}
}

func (h *MapHandler) session(w http.ResponseWriter, r *http.Request) (*service.MapSession, bool) {
	s, err := h.mgr.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	return s, true
}

// decodeBody decodes the request body and writes a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeJSON(r, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// ListRegions handles GET /api/v1/sessions/{id}/regions.
func (h *MapHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Game().Regions())
}

type regionDetail struct {
	Region any                `json:"region"`
	Shape  *render.RegionInfo `json:"shape,omitempty"`
	Label  *render.LabelInfo  `json:"label,omitempty"`
}

// GetRegion handles GET /api/v1/sessions/{id}/regions/{code}.
func (h *MapHandler) GetRegion(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	code := r.PathValue("code")
	reg, found := s.Game().Lookup(code)
	if !found {
		writeServiceError(w, service.ErrRegionNotFound)
		return
	}
	out := regionDetail{Region: reg}
	if info, ok := s.Engine().Region(reg.Code); ok {
		out.Shape = &info
	}
	if l, ok := s.Engine().Label(reg.Code); ok {
		out.Label = &l
	}
	writeJSON(w, http.StatusOK, out)
}

type clickRequest struct {
	ID string      `json:"id"`
	At *geo.LatLng `json:"at"`
}

type clickResponse struct {
	ID  string `json:"id"`
	Hit bool   `json:"hit"`
}

// Click handles POST /api/v1/sessions/{id}/click. The body names a region
// by id, or a point to hit-test.
func (h *MapHandler) Click(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req clickRequest
	if !decodeBody(w, r, &req) {
		return
	}
	switch {
	case req.At != nil:
		id, hit := s.ClickAt(*req.At)
		writeJSON(w, http.StatusOK, clickResponse{ID: id, Hit: hit})
	case strings.TrimSpace(req.ID) != "":
		writeJSON(w, http.StatusOK, clickResponse{ID: req.ID, Hit: s.Click(req.ID)})
	default:
		writeError(w, http.StatusBadRequest, "id or at is required")
	}
}

type conquerRequest struct {
	Code  string `json:"code"`
	Color string `json:"color"`
}

// Conquer handles POST /api/v1/sessions/{id}/conquer.
func (h *MapHandler) Conquer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req conquerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	res, err := s.Conquer(r.Context(), req.Code, req.Color)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type batchRequest struct {
	IDs []string `json:"ids"`
	// Color applies to every id; Colors gives one color per id and wins.
	Color  string   `json:"color"`
	Colors []string `json:"colors"`
}

// ApplyBatch handles POST /api/v1/sessions/{id}/batch.
func (h *MapHandler) ApplyBatch(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req batchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	colors := render.SharedColor(req.Color)
	if len(req.Colors) > 0 {
		colors = render.ColorList(req.Colors...)
	}
	writeJSON(w, http.StatusOK, s.ApplyBatch(req.IDs, colors))
}

// ClearMap handles POST /api/v1/sessions/{id}/clear. Only the map is cleared;
// ownership and stored records are kept.
func (h *MapHandler) ClearMap(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Engine().ClearAll()
	w.WriteHeader(http.StatusNoContent)
}

// Reset handles POST /api/v1/sessions/{id}/reset.
func (h *MapHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Reset(r.Context())
	writeJSON(w, http.StatusOK, s.Info())
}

// Restore handles POST /api/v1/sessions/{id}/restore.
func (h *MapHandler) Restore(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Restore(r.Context()))
}

type labelsRequest struct {
	Enabled bool `json:"enabled"`
}

// SetLabels handles PUT /api/v1/sessions/{id}/labels.
func (h *MapHandler) SetLabels(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req labelsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.Engine().SetLabelsEnabled(req.Enabled)
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": s.Engine().LabelsEnabled()})
}

// RecomputeLabels handles POST /api/v1/sessions/{id}/labels/recompute.
func (h *MapHandler) RecomputeLabels(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Engine().RecomputeLabels()
	w.WriteHeader(http.StatusNoContent)
}

// GetLabel handles GET /api/v1/sessions/{id}/labels/{code}.
func (h *MapHandler) GetLabel(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	l, found := s.Engine().Label(r.PathValue("code"))
	if !found {
		writeError(w, http.StatusNotFound, "no label for region")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

type viewRequest struct {
	Center *geo.LatLng `json:"center"`
	Zoom   float64     `json:"zoom"`
}

type viewResponse struct {
	Center  geo.LatLng `json:"center"`
	Zoom    float64    `json:"zoom"`
	MinZoom float64    `json:"minZoom"`
	MaxZoom float64    `json:"maxZoom"`
}

func writeView(w http.ResponseWriter, s *service.MapSession) {
	writeJSON(w, http.StatusOK, viewResponse{
		Center:  s.Scene().Center(),
		Zoom:    s.Engine().Zoom(),
		MinZoom: s.Engine().MinZoom(),
		MaxZoom: s.Engine().MaxZoom(),
	})
}

// GetView handles GET /api/v1/sessions/{id}/view.
func (h *MapHandler) GetView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeView(w, s)
}

// SetView handles PUT /api/v1/sessions/{id}/view. Without a center only the
// zoom changes.
func (h *MapHandler) SetView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req viewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Center != nil {
		s.Engine().SetView(*req.Center, req.Zoom)
	} else {
		s.Engine().SetZoom(req.Zoom)
	}
	writeView(w, s)
}

type nameRequest struct {
	Name string `json:"name"`
}

// ZoomToGroup handles POST /api/v1/sessions/{id}/view/group.
func (h *MapHandler) ZoomToGroup(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req nameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !s.Engine().ZoomToRegionGroup(req.Name) {
		writeError(w, http.StatusNotFound, "unknown region group")
		return
	}
	writeView(w, s)
}

type idRequest struct {
	ID string `json:"id"`
}

// ZoomToFeature handles POST /api/v1/sessions/{id}/view/feature.
func (h *MapHandler) ZoomToFeature(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req idRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !s.Engine().ZoomToFeature(req.ID) {
		writeServiceError(w, service.ErrRegionNotFound)
		return
	}
	writeView(w, s)
}

// ResetView handles POST /api/v1/sessions/{id}/view/reset.
func (h *MapHandler) ResetView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Engine().ResetView()
	writeView(w, s)
}

type keyRequest struct {
	Key string `json:"key"`
}

// HandleKey handles POST /api/v1/sessions/{id}/keys.
func (h *MapHandler) HandleKey(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req keyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"handled": s.Engine().HandleKey(req.Key)})
}

type focusRequest struct {
	Element    string `json:"element"`
	SelectText bool   `json:"selectText"`
}

// RegisterElement handles POST /api/v1/sessions/{id}/elements. Clients
// announce the UI elements they host so focus requests can reach them.
func (h *MapHandler) RegisterElement(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req focusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Element == "" {
		writeError(w, http.StatusBadRequest, "element is required")
		return
	}
	s.Scene().RegisterElement(req.Element)
	w.WriteHeader(http.StatusNoContent)
}

// UnregisterElement handles DELETE /api/v1/sessions/{id}/elements/{element}.
func (h *MapHandler) UnregisterElement(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Scene().UnregisterElement(r.PathValue("element"))
	w.WriteHeader(http.StatusNoContent)
}

// Focus handles POST /api/v1/sessions/{id}/focus. A false result means the
// element was not there yet; the engine keeps polling for it.
func (h *MapHandler) Focus(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req focusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"focused": s.Engine().FocusElement(req.Element, req.SelectText)})
}

// FocusShape handles POST /api/v1/sessions/{id}/focus-shape.
func (h *MapHandler) FocusShape(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req idRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !s.Engine().FocusShape(req.ID) {
		writeServiceError(w, service.ErrRegionNotFound)
		return
	}
	writeView(w, s)
}

// ShowAll handles POST /api/v1/sessions/{id}/show-all.
func (h *MapHandler) ShowAll(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Engine().ShowAll()
	w.WriteHeader(http.StatusNoContent)
}

// Groups handles GET /api/v1/sessions/{id}/groups.
func (h *MapHandler) Groups(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	groups := s.Engine().Groups()
	if groups == nil {
		groups = []string{}
	}
	writeJSON(w, http.StatusOK, groups)
}

// Snapshot handles GET /api/v1/sessions/{id}/snapshot.
func (h *MapHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// SnapshotPNG handles GET /api/v1/sessions/{id}/snapshot.png.
func (h *MapHandler) SnapshotPNG(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := raster.Encode(w, s.Snapshot(), raster.DefaultOptions()); err != nil {
		log.Error().Err(err).Str("sessionId", s.ID).Msg("Failed to encode snapshot")
	}
}
