package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/nkiryanov/minitwitter/internal/apperrors"
	"github.com/nkiryanov/minitwitter/internal/forms"
	"github.com/nkiryanov/minitwitter/internal/handlers/render"
)

const msgInvalidLogin = "Please enter a correct username and password."

func handleRegister(auth authService, users userService, p *pages) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			p.render(w, r, http.StatusOK, render.PageRegister, render.Page{})
			return
		case http.MethodPost:
		default:
			methodNotAllowed(w)
			return
		}

		in := forms.ParseRegistrationInput(r)
		data := render.Page{Form: map[string]string{"username": in.Username, "email": in.Email}}

		if err := in.Validate(r.Context(), users); err != nil {
			p.formError(w, r, render.PageRegister, data, err)
			return
		}

		_, issued, err := auth.Register(r.Context(), in.Username, in.Email, in.Password1)
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			verr := apperrors.NewValidationError("username", "A user with that username already exists.")
			p.formError(w, r, render.PageRegister, data, verr)
			return
		case err != nil:
			p.serverError(w, r, err)
			return
		}

		auth.SetSessionToResponse(w, issued)
		http.Redirect(w, r, p.urls().List(), http.StatusFound)
	})
}

func handleLogin(auth authService, p *pages) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			p.render(w, r, http.StatusOK, render.PageLogin, render.Page{Next: r.URL.Query().Get("next")})
			return
		case http.MethodPost:
		default:
			methodNotAllowed(w)
			return
		}

		in := forms.ParseLoginInput(r)
		next := r.PostFormValue("next")
		data := render.Page{Next: next, Form: map[string]string{"username": in.Username}}

		if err := in.Validate(); err != nil {
			p.formError(w, r, render.PageLogin, data, err)
			return
		}

		_, issued, err := auth.Login(r.Context(), in.Username, in.Password)
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			verr := apperrors.NewValidationError(apperrors.NonFieldErrors, msgInvalidLogin)
			p.formError(w, r, render.PageLogin, data, verr)
			return
		case err != nil:
			p.serverError(w, r, err)
			return
		}

		auth.SetSessionToResponse(w, issued)
		http.Redirect(w, r, safeRedirect(next, p.urls().List()), http.StatusFound)
	})
}

func handleLogout(auth authService, p *pages) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}

		if err := auth.Logout(r.Context(), r); err != nil {
			p.logger.Warn("can't revoke session", "error", err)
		}

		auth.ClearSession(w)
		http.Redirect(w, r, p.urls().List(), http.StatusFound)
	})
}

// Return next if it is a local path, fallback otherwise
func safeRedirect(next string, fallback string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n") {
		return fallback
	}

	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}

	return next
}
