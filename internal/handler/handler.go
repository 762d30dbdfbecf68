package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"schematic/internal/codec"
	"schematic/internal/domain"
	"schematic/internal/geometry"
	"schematic/internal/scene"
	"schematic/internal/service"
	"schematic/internal/viewport"
)

// MaxImportSize bounds the body of an import request
const MaxImportSize = 10 << 20

// SceneHandler handles scene API requests
type SceneHandler struct {
	svc *service.SceneService
}

// NewSceneHandler creates a new scene handler
func NewSceneHandler(svc *service.SceneService) *SceneHandler {
	return &SceneHandler{svc: svc}
}

// Register adds the scene routes to mux
func (h *SceneHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/scene", h.GetScene)
	mux.HandleFunc("POST /api/scene/reload", h.Reload)
	mux.HandleFunc("PUT /api/scene/context", h.SetContext)
	mux.HandleFunc("PUT /api/scene/layout", h.ReportLayout)

	mux.HandleFunc("POST /api/viewport", h.ApplyViewport)
	mux.HandleFunc("PUT /api/viewport/size", h.Resize)

	mux.HandleFunc("POST /api/connections", h.CreateConnection)
	mux.HandleFunc("DELETE /api/connections/{id}", h.DeleteConnection)

	mux.HandleFunc("POST /api/drag", h.StartDrag)
	mux.HandleFunc("PUT /api/drag", h.MoveDrag)
	mux.HandleFunc("DELETE /api/drag", h.CancelDrag)
	mux.HandleFunc("POST /api/drag/finish", h.FinishDrag)

	mux.HandleFunc("PUT /api/nodes/{id}/position", h.MoveNode)
	mux.HandleFunc("DELETE /api/nodes/{id}", h.DeleteNode)

	mux.HandleFunc("POST /api/import/{format}", h.Import)
	mux.HandleFunc("GET /api/export/{format}", h.Export)
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// GetScene returns the current frame
func (h *SceneHandler) GetScene(w http.ResponseWriter, r *http.Request) {
	frame, ok := h.svc.Frame()
	if !ok {
		writeError(w, "Scene not ready", "", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, frame, http.StatusOK)
}

// Reload rebuilds the scene from the store
func (h *SceneHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reload(r.Context()); err != nil {
		h.fail(w, "Failed to reload scene", err)
		return
	}
	h.GetScene(w, r)
}

// ContextRequest selects a viewing context
type ContextRequest struct {
	Kind             domain.SchematicKind `json:"kind"`
	DeploymentNodeID string               `json:"deployment_node_id,omitempty"`
}

// SetContext switches the viewing context and reloads
func (h *SceneHandler) SetContext(w http.ResponseWriter, r *http.Request) {
	var req ContextRequest
	if !decode(w, r, &req) {
		return
	}

	vc := domain.NewViewingContext(req.Kind, req.DeploymentNodeID)
	if err := h.svc.SwitchContext(r.Context(), vc); err != nil {
		h.fail(w, "Failed to switch context", err)
		return
	}
	h.GetScene(w, r)
}

// LayoutRequest reports where a client drew sockets, keyed by socket
// identity, in surface coordinates
type LayoutRequest struct {
	Positions map[string]geometry.Point `json:"positions"`
}

// ReportLayout records client socket positions and repositions connections
func (h *SceneHandler) ReportLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if !decode(w, r, &req) {
		return
	}
	n := h.svc.ReportLayout(req.Positions)
	writeJSON(w, map[string]int{"refreshed": n}, http.StatusOK)
}

// ViewportRequest is one pan/zoom update
type ViewportRequest struct {
	Zoom    float64 `json:"zoom"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// ApplyViewport publishes a pan/zoom event. The scene applies it
// asynchronously.
func (h *SceneHandler) ApplyViewport(w http.ResponseWriter, r *http.Request) {
	var req ViewportRequest
	if !decode(w, r, &req) {
		return
	}

	ev := viewport.Event{Zoom: req.Zoom, Offset: geometry.Pt(req.OffsetX, req.OffsetY)}
	if err := h.svc.ApplyViewport(ev); err != nil {
		h.fail(w, "Invalid viewport", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// SizeRequest is a new surface size
type SizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Resize changes the surface size
func (h *SceneHandler) Resize(w http.ResponseWriter, r *http.Request) {
	var req SizeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.Resize(req.Width, req.Height); err != nil {
		h.fail(w, "Invalid size", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ConnectionRequest names the two sockets of a new connection
type ConnectionRequest struct {
	Source      domain.SocketIdentity `json:"source"`
	Destination domain.SocketIdentity `json:"destination"`
}

// ConnectionResponse carries the identity of a created connection
type ConnectionResponse struct {
	ID domain.ConnectionIdentity `json:"id"`
}

// CreateConnection connects two sockets
func (h *SceneHandler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var req ConnectionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Source == "" || req.Destination == "" {
		writeError(w, "Source and destination are required", "", http.StatusBadRequest)
		return
	}

	id, err := h.svc.CreateConnection(r.Context(), req.Source, req.Destination)
	if err != nil {
		h.fail(w, "Failed to create connection", err)
		return
	}
	writeJSON(w, ConnectionResponse{ID: id}, http.StatusCreated)
}

// DeleteConnection removes a connection
func (h *SceneHandler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	id := domain.ConnectionIdentity(r.PathValue("id"))
	if err := h.svc.RemoveConnection(r.Context(), id); err != nil {
		h.fail(w, "Failed to delete connection", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DragRequest starts or moves a connection drag
type DragRequest struct {
	Source domain.SocketIdentity `json:"source,omitempty"`
	X      float64               `json:"x"`
	Y      float64               `json:"y"`
}

// StartDrag begins dragging a connection out of a socket
func (h *SceneHandler) StartDrag(w http.ResponseWriter, r *http.Request) {
	var req DragRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Source == "" {
		writeError(w, "Source is required", "", http.StatusBadRequest)
		return
	}

	id, err := h.svc.StartDrag(req.Source, geometry.Pt(req.X, req.Y))
	if err != nil {
		h.fail(w, "Failed to start drag", err)
		return
	}
	writeJSON(w, ConnectionResponse{ID: id}, http.StatusCreated)
}

// MoveDrag moves the dragged connection's end to the pointer
func (h *SceneHandler) MoveDrag(w http.ResponseWriter, r *http.Request) {
	var req DragRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.MoveDrag(geometry.Pt(req.X, req.Y)); err != nil {
		h.fail(w, "Failed to move drag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CancelDrag drops the dragged connection
func (h *SceneHandler) CancelDrag(w http.ResponseWriter, r *http.Request) {
	if !h.svc.CancelDrag() {
		h.fail(w, "Failed to cancel drag", service.ErrNoDrag)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FinishDrag turns the drag into a connection to the destination socket
func (h *SceneHandler) FinishDrag(w http.ResponseWriter, r *http.Request) {
	var req ConnectionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Destination == "" {
		writeError(w, "Destination is required", "", http.StatusBadRequest)
		return
	}

	id, err := h.svc.FinishDrag(r.Context(), req.Destination)
	if err != nil {
		h.fail(w, "Failed to finish drag", err)
		return
	}
	writeJSON(w, ConnectionResponse{ID: id}, http.StatusCreated)
}

// MoveNode stores a node's position in the current context
func (h *SceneHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	var p geometry.Point
	if !decode(w, r, &p) {
		return
	}
	if err := h.svc.MoveNode(r.Context(), r.PathValue("id"), p); err != nil {
		h.fail(w, "Failed to move node", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteNode removes a node and its connections
func (h *SceneHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNode(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, "Failed to delete node", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Import replaces the stored schematic with the request body
func (h *SceneHandler) Import(w http.ResponseWriter, r *http.Request) {
	format := r.PathValue("format")
	if _, err := codec.ForFormat(format); err != nil {
		writeError(w, "Unsupported format", err.Error(), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxImportSize))
	if err != nil {
		writeError(w, "Failed to read request body", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.svc.Import(r.Context(), format, data)
	if err != nil {
		if result == nil {
			h.fail(w, "Failed to import", err)
			return
		}
		h.fail(w, "Imported but failed to load scene", err)
		return
	}
	writeJSON(w, result, http.StatusOK)
}

// Export writes the stored schematic as a download
func (h *SceneHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.PathValue("format"))
	c, err := codec.ForFormat(format)
	if err != nil {
		writeError(w, "Unsupported format", err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := h.svc.ExportDocument(r.Context())
	if err != nil {
		h.fail(w, "Failed to export", err)
		return
	}

	contentType := "application/json"
	if c.Format() == "yaml" {
		contentType = "application/x-yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=schematic."+c.Format())

	if err := c.Export(doc, w); err != nil {
		log.Printf("Failed to export %s: %v", format, err)
		// Can't write error response as we already set headers
	}
}

// fail maps a service error to a status code and writes it
func (h *SceneHandler) fail(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s: %v", msg, err)
	}
	writeError(w, msg, err.Error(), status)
}

func statusFor(err error) int {
	var loadErr *scene.LoadError
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrNoDrag):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConnectionExists), errors.Is(err, scene.ErrLoadSuperseded):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidViewport), errors.Is(err, service.ErrInvalidContext),
		errors.Is(err, service.ErrInvalidDocument):
		return http.StatusBadRequest
	case errors.As(err, &loadErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Helper functions

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, error, details string, statusCode int) {
	writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}
