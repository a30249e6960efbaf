package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/minitwitter/internal/apperrors"
	"github.com/nkiryanov/minitwitter/internal/forms"
	"github.com/nkiryanov/minitwitter/internal/handlers/render"
	"github.com/nkiryanov/minitwitter/internal/handlers/userctx"
	"github.com/nkiryanov/minitwitter/internal/logger"
)

// Render pages with request user set
type pages struct {
	renderer *render.Renderer
	logger   logger.Logger
}

func (p *pages) urls() render.URLs {
	return p.renderer.URLs()
}

func (p *pages) render(w http.ResponseWriter, r *http.Request, status int, name string, data render.Page) {
	data.User = userctx.FromRequest(r)
	if data.Query == "" {
		data.Query = r.URL.Query().Get("q")
	}

	if err := p.renderer.HTML(w, status, name, data); err != nil {
		p.logger.Error("can't render page", "page", name, "error", err)
	}
}

func (p *pages) notFound(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, http.StatusNotFound, render.PageNotFound, render.Page{})
}

// Log unexpected error and render generic error page
func (p *pages) serverError(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Error("request failed", "method", r.Method, "uri", r.RequestURI, "error", err)
	p.render(w, r, http.StatusInternalServerError, render.PageServerError, render.Page{})
}

// Render form page again with field errors
// Malformed body is answered with 400, other errors with error page
func (p *pages) formError(w http.ResponseWriter, r *http.Request, name string, data render.Page, err error) {
	var verr *apperrors.ValidationError
	switch {
	case errors.Is(err, forms.ErrMalformedForm):
		p.logger.Info("bad form submitted", "uri", r.RequestURI, "error", err)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	case !errors.As(err, &verr):
		p.serverError(w, r, err)
		return
	}

	data.Errors = verr.Fields
	p.render(w, r, http.StatusOK, name, data)
}

func handleNotFound(p *pages) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.notFound(w, r)
	})
}
