package server

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/highlight"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/render/sink"
	"github.com/matzehuels/kintree/pkg/tree"
	"github.com/matzehuels/kintree/pkg/viewport"
)

// =============================================================================
// Response helpers
// =============================================================================

type errorResponse struct {
	Code    errors.Code    `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code errors.Code, msg string, details map[string]any) {
	s.writeJSON(w, status, errorResponse{Code: code, Message: msg, Details: details})
}

// writeErr maps a coded error to its HTTP status.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.writeError(w, status, code, errors.UserMessage(err), nil)
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeCapacityExceeded:
		return http.StatusConflict
	case errors.ErrCodeNotFound, errors.ErrCodeNodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	if strings.HasPrefix(string(code), "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

// =============================================================================
// Tree and health
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	nodes, active := s.engine.Graph().Len(), s.engine.Highlights().Len()
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"nodes":      nodes,
		"highlights": active,
	})
}

func (s *Server) handlePutTree(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeErr(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read tree"))
		return
	}
	if err := s.LoadTree(data); err != nil {
		s.writeErr(w, err)
		return
	}
	s.mu.Lock()
	nodes, active := s.engine.Graph().Len(), s.engine.Highlights().Len()
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes, "highlights": active})
}

// =============================================================================
// Highlights
// =============================================================================

func (s *Server) handleListHighlights(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	hs := s.engine.Highlights().All()
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, map[string]any{"highlights": hs, "capacity": s.engine.Capacity()})
}

func (s *Server) handleAddHighlight(w http.ResponseWriter, r *http.Request) {
	var def highlight.Definition
	if err := decodeBody(r, &def); err != nil {
		s.writeErr(w, err)
		return
	}
	s.mu.Lock()
	id, err := s.engine.AddHighlight(def)
	s.mu.Unlock()
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleReplaceHighlights(w http.ResponseWriter, r *http.Request) {
	var defs []highlight.Definition
	if err := decodeBody(r, &defs); err != nil {
		s.writeErr(w, err)
		return
	}
	s.mu.Lock()
	ids, err := s.engine.ReplaceHighlights(defs)
	s.mu.Unlock()
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ids": ids})
}

func (s *Server) handleClearHighlights(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.engine.ClearHighlights()
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveHighlight(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	ok := s.engine.RemoveHighlight(id)
	s.mu.Unlock()
	if !ok {
		s.writeError(w, http.StatusNotFound, errors.ErrCodeNotFound, "highlight not found", map[string]any{"id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHighlightStrokes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	strokes, err := s.engine.PathStrokes(chi.URLParam(r, "id"))
	s.mu.Unlock()
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"strokes": strokes})
}

// =============================================================================
// Rendering
// =============================================================================

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = sink.FormatJSON
	}
	if err := sink.ValidateFormat(format); err != nil {
		s.writeErr(w, err)
		return
	}
	vp, err := parseViewport(q)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	s.mu.Lock()
	g := s.engine.Graph()
	state := s.engine.Highlights()
	frame := s.engine.RenderData(vp)
	hash := s.treeHash
	s.mu.Unlock()

	if format == sink.FormatJSON && q.Get("strokes") == "" {
		s.writeJSON(w, http.StatusOK, frame)
		return
	}

	opts := pipeline.Options{
		Viewport:    vp,
		Formats:     []string{format},
		NoLabels:    q.Get("labels") == "false",
		JSONStrokes: q.Get("strokes") != "",
	}
	for _, h := range state.All() {
		opts.Highlights = append(opts.Highlights, h.Definition)
	}
	if scale := q.Get("scale"); scale != "" {
		v, err := strconv.ParseFloat(scale, 64)
		if err != nil {
			s.writeErr(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "scale"))
			return
		}
		opts.Scale = v
	}

	// Rendered output carries highlight ids, so they are part of the key.
	key := cache.Hash([]byte(hash + "\x00" + strings.Join(state.IDs(), ",")))
	artifacts, hit, err := s.runner.RenderWithCacheInfo(r.Context(), g, key, frame, opts)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", sink.ContentType(format))
	w.Header().Set("X-Cache", cacheHeader(hit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

// parseViewport reads minx, miny, maxx and maxy. All four or none must be set.
func parseViewport(q map[string][]string) (*tree.Rect, error) {
	names := []string{"minx", "miny", "maxx", "maxy"}
	var vals [4]float64
	set := 0
	for i, name := range names {
		v := first(q[name])
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "viewport %s: not a number: %q", name, v)
		}
		vals[i] = f
		set++
	}
	switch set {
	case 0:
		return nil, nil
	case len(names):
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "viewport needs minx, miny, maxx and maxy")
	}
	rect := tree.Rect{MinX: vals[0], MinY: vals[1], MaxX: vals[2], MaxY: vals[3]}
	if rect.IsEmpty() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "viewport is empty")
	}
	return &rect, nil
}

func first(vs []string) string {
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// =============================================================================
// Paths
// =============================================================================

func documentNodes(ns []tree.Node) []tree.DocumentNode {
	out := make([]tree.DocumentNode, len(ns))
	for i, n := range ns {
		out[i] = tree.DocumentNode{
			ID: n.ID, Name: n.Name,
			X: n.X, Y: n.Y, Depth: n.Depth,
			FatherID: n.FatherID, MotherID: n.MotherID,
			HasPhoto: n.HasPhoto,
		}
	}
	return out
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	path := s.engine.CalculatePath(id)
	s.mu.Unlock()
	if len(path) == 0 {
		s.writeError(w, http.StatusNotFound, errors.ErrCodeNodeNotFound, fmt.Sprintf("node %q not in tree", id), nil)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"path": documentNodes(path)})
}

type dualResponse struct {
	Paths        [2][]tree.DocumentNode `json:"paths"`
	Intersection *tree.DocumentNode     `json:"intersection,omitempty"`
}

func (s *Server) handleDualPaths(w http.ResponseWriter, r *http.Request) {
	a, b := chi.URLParam(r, "a"), chi.URLParam(r, "b")
	s.mu.Lock()
	d := s.engine.CalculateDualPaths(a, b)
	s.mu.Unlock()

	resp := dualResponse{Paths: [2][]tree.DocumentNode{documentNodes(d.Paths[0]), documentNodes(d.Paths[1])}}
	if d.Intersection != nil {
		n := documentNodes([]tree.Node{*d.Intersection})[0]
		resp.Intersection = &n
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Camera
// =============================================================================

func parseSize(q map[string][]string) (viewport.Size, error) {
	size := viewport.Size{Width: 800, Height: 600}
	for name, dst := range map[string]*float64{"width": &size.Width, "height": &size.Height} {
		v := first(q[name])
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || f <= 0 || math.IsInf(f, 0) {
			return size, errors.New(errors.ErrCodeInvalidInput, "%s must be a positive number: %q", name, v)
		}
		*dst = f
	}
	return size, nil
}

func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	size, err := parseSize(r.URL.Query())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.mu.Lock()
	t, ok := s.engine.Fit(size)
	s.mu.Unlock()
	if !ok {
		s.writeError(w, http.StatusNotFound, errors.ErrCodeNotFound, "tree is empty", nil)
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleFitNode(w http.ResponseWriter, r *http.Request) {
	size, err := parseSize(r.URL.Query())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.mu.Lock()
	t, err := s.engine.CenterOn(chi.URLParam(r, "id"), size)
	s.mu.Unlock()
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}
