package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/banshee-data/gpinterp/internal/httputil"
	"github.com/banshee-data/gpinterp/internal/interp"
	"github.com/banshee-data/gpinterp/internal/render"
	"github.com/banshee-data/gpinterp/internal/version"
)

// internalErrorMessage is the only detail a client sees for a 500.
const internalErrorMessage = "internal server error"

// PredictRequest is the body of the /predict endpoints. A missing points
// field is the same as an empty list.
type PredictRequest struct {
	Points []interp.Point `json:"points"`
}

// rawPredictRequest defers point decoding so errors can name the index.
type rawPredictRequest struct {
	Points []json.RawMessage `json:"points"`
}

// EntropyRequest is the body of /text/entropy.
type EntropyRequest struct {
	Text *string `json:"text"`
}

// internalError logs the cause against the request ID and hides it from
// the client.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logger.Printf("request=%s %s %s failed: %v", RequestIDFromContext(r.Context()), r.Method, r.URL.Path, err)
	httputil.InternalServerError(w, internalErrorMessage)
}

// interpolate decodes a PredictRequest and runs the interpolation. It writes
// the error response itself and returns nil when the handler should stop.
func (s *Server) interpolate(w http.ResponseWriter, r *http.Request) *interp.Grid {
	var req rawPredictRequest
	if err := httputil.DecodeJSON(w, r, &req, s.maxBodyBytes); err != nil {
		httputil.BadRequest(w, err.Error())
		return nil
	}
	if len(req.Points) > s.maxPoints {
		httputil.BadRequest(w, fmt.Sprintf("too many points: %d (maximum is %d)", len(req.Points), s.maxPoints))
		return nil
	}
	points := make([]interp.Point, len(req.Points))
	for i, raw := range req.Points {
		if err := json.Unmarshal(raw, &points[i]); err != nil {
			httputil.BadRequest(w, fmt.Sprintf("points[%d]: %v", i, err))
			return nil
		}
	}

	grid, err := interp.Interpolate(points, s.interp)
	if err != nil {
		s.internalError(w, r, err)
		return nil
	}
	return grid
}

func (s *Server) predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w, http.MethodPost)
		return
	}
	grid := s.interpolate(w, r)
	if grid == nil {
		return
	}
	httputil.WriteJSONOK(w, grid)
}

func (s *Server) predictHeatmap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w, http.MethodPost)
		return
	}
	layer, err := render.ParseLayer(r.URL.Query().Get("layer"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	grid := s.interpolate(w, r)
	if grid == nil {
		return
	}

	var buf bytes.Buffer
	if err := render.WritePNG(&buf, grid, layer); err != nil {
		s.internalError(w, r, err)
		return
	}
	httputil.WriteBody(w, "image/png", buf.Bytes())
}

func (s *Server) predictChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w, http.MethodPost)
		return
	}
	layer, err := render.ParseLayer(r.URL.Query().Get("layer"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	grid := s.interpolate(w, r)
	if grid == nil {
		return
	}

	var buf bytes.Buffer
	if err := render.WriteChart(&buf, grid, layer); err != nil {
		s.internalError(w, r, err)
		return
	}
	httputil.WriteBody(w, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) textEntropy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w, http.MethodPost)
		return
	}

	var req EntropyRequest
	if err := httputil.DecodeJSON(w, r, &req, s.maxBodyBytes); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if msg := s.validateText(req.Text); msg != "" {
		httputil.BadRequest(w, msg)
		return
	}

	httputil.WriteJSONOK(w, s.analyzer.Analyze(*req.Text))
}

// validateText returns a client-facing message, or "" if text is acceptable.
func (s *Server) validateText(text *string) string {
	switch {
	case text == nil:
		return "text is required"
	case strings.TrimSpace(*text) == "":
		return "text must not be empty"
	case utf8.RuneCountInString(*text) > s.maxTextLength:
		return fmt.Sprintf("text exceeds maximum length of %d characters", s.maxTextLength)
	}
	return ""
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}

// healthModel reports readiness. The model is built per request, so it is
// ready whenever the process is serving.
func (s *Server) healthModel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"model": "ready"})
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	httputil.WriteJSONOK(w, version.Get())
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	httputil.NotFound(w, "not found: "+r.URL.Path)
}
