package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sigrams/livevalidate/pkg/dom"
	"github.com/sigrams/livevalidate/pkg/domui"
	"github.com/sigrams/livevalidate/pkg/pages"
	"github.com/sigrams/livevalidate/pkg/validate"
)

const validateSuffix = "/validate"

// loadPage reads and parses a page from the store.
func (s *Server) loadPage(ctx context.Context, name string) (*dom.Node, error) {
	data, err := s.store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	doc, err := dom.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("server: parse page %s: %w", name, err)
	}
	return doc, nil
}

func (s *Server) writePageError(w http.ResponseWriter, r *http.Request, name string, err error) {
	switch {
	case errors.Is(err, pages.ErrNotFound):
		http.Error(w, "page not found", http.StatusNotFound)
	case errors.Is(err, pages.ErrInvalidName):
		http.Error(w, "invalid page name", http.StatusBadRequest)
	case errors.Is(err, context.Canceled):
		s.logger.Debug("page load cancelled", "page", name)
	default:
		s.logger.Error("page load failed", "page", name, "error", err, "path", r.URL.Path)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List(r.Context())
	if err != nil {
		s.writePageError(w, r, "", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": names})
}

// injectClient appends the thin client script to head, or to body when the
// page has no head. HIDs are assigned before this, so the script gets none.
func (s *Server) injectClient(doc *dom.Node, name string) {
	script := dom.Element("script",
		dom.Attr{Key: "src", Value: ClientPath},
		dom.Attr{Key: "data-ws", Value: "/ws/" + name},
		dom.Attr{Key: "data-marker", Value: s.config.UI.Marker},
		dom.Attr{Key: "defer", Value: ""},
	)
	parent := doc.QueryFirst(dom.ByTag("head"))
	if parent == nil {
		parent = doc.QueryFirst(dom.ByTag("body"))
	}
	if parent == nil {
		parent = doc
	}
	parent.AppendChild(script)
}

func (s *Server) renderPage(w http.ResponseWriter, status int, doc *dom.Node) {
	var buf bytes.Buffer
	if err := dom.Render(&buf, doc); err != nil {
		s.logger.Error("render failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// handlePage serves a page with HIDs and the thin client.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	doc, err := s.loadPage(r.Context(), name)
	if err != nil {
		s.writePageError(w, r, name, err)
		return
	}
	domui.NewHost(doc, s.config.UI)
	s.injectClient(doc, name)
	s.renderPage(w, http.StatusOK, doc)
}

// handleValidate validates posted values against one marked form. It
// answers 200 when the form is valid and 422 otherwise, as JSON or, when
// the client accepts HTML, as the annotated page.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(chi.URLParam(r, "*"), validateSuffix)
	if !ok {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	index := 0
	if raw := r.URL.Query().Get("form"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid form index", http.StatusBadRequest)
			return
		}
		index = n
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	doc, err := s.loadPage(r.Context(), name)
	if err != nil {
		s.writePageError(w, r, name, err)
		return
	}

	ui := s.config.UI
	ui.Logger = s.logger
	host := domui.NewHost(doc, ui)
	form, err := host.MarkedForm(index)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	values := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		values[key] = r.PostForm.Get(key)
	}
	host.ApplyValues(form, values)

	var opts []validate.Option
	if s.config.Metrics != nil {
		opts = append(opts, validate.WithObserver(s.config.Metrics))
	}
	v := validate.New[*dom.Node](host, s.checker, opts...)
	valid, results := v.ValidateFormResults(form)
	if s.config.Metrics != nil {
		s.config.Metrics.SubmitGuarded(valid)
	}

	status := http.StatusOK
	if !valid {
		status = http.StatusUnprocessableEntity
	}
	if acceptsHTML(r) {
		s.renderPage(w, status, doc)
		return
	}
	writeJSON(w, status, domui.NewFormReport(valid, results))
}

func acceptsHTML(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(mt, "text/html") {
			return true
		}
	}
	return false
}
