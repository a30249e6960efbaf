package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/minitwitter/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

const layoutFile = "layout.html"

// Page names
const (
	PageTweetList   = "tweet_list.html"
	PageIndex       = "index.html"
	PageTweetForm   = "tweet_form.html"
	PageTweetDelete = "tweet_confirm_delete.html"
	PageRegister    = "register.html"
	PageLogin       = "login.html"
	PageSearch      = "search.html"
	PageNotFound    = "404.html"
	PageServerError = "500.html"
)

const dateTimeLayout = "Jan 2, 2006, 3:04 PM"

// Data every page is rendered with
type Page struct {
	// Authenticated user, nil for anonymous
	User *models.User

	Tweets []models.Tweet
	Tweet  models.Tweet

	// Tweet form edits existing tweet
	Editing bool

	// Submitted form values and field errors, keyed by field name
	Form   map[string]string
	Errors map[string]string

	// Search query
	Query string

	// Where to go after login
	Next string
}

// Error message for the field, apperrors.NonFieldErrors for form-wide one
func (p Page) Error(field string) string {
	return p.Errors[field]
}

func (p Page) Value(field string) string {
	return p.Form[field]
}

// Data of a single tweet in a list
type tweetItem struct {
	Tweet models.Tweet
	User  *models.User
}

// URLs of the application pages
type URLs struct {
	// Tweet routes mount prefix, e.g. '/tweet'
	Prefix string
}

func (u URLs) List() string     { return u.Prefix + "/" }
func (u URLs) Index() string    { return u.Prefix + "/index/" }
func (u URLs) Create() string   { return u.Prefix + "/create/" }
func (u URLs) Register() string { return u.Prefix + "/register/" }
func (u URLs) Search() string   { return u.Prefix + "/search/" }
func (u URLs) Login() string    { return "/accounts/login/" }
func (u URLs) Logout() string   { return "/accounts/logout/" }

func (u URLs) Edit(id uuid.UUID) string   { return fmt.Sprintf("%s/%s/edit/", u.Prefix, id) }
func (u URLs) Delete(id uuid.UUID) string { return fmt.Sprintf("%s/%s/delete/", u.Prefix, id) }

// Login url that returns to next after success
func (u URLs) LoginNext(next string) string {
	if next == "" {
		return u.Login()
	}
	return u.Login() + "?" + url.Values{"next": {next}}.Encode()
}

// Url stored media file is served on
func (u URLs) Media(name string) string {
	return path.Join("/media", name)
}

type Renderer struct {
	urls  URLs
	pages map[string]*template.Template
}

// Parse every page together with layout
func New(urls URLs) (*Renderer, error) {
	funcs := template.FuncMap{
		"urls":     func() URLs { return urls },
		"datetime": formatDateTime,
		"maxlen":   func() int { return models.TweetMaxLength },
		"item":     func(t models.Tweet, u *models.User) tweetItem { return tweetItem{Tweet: t, User: u} },
	}

	files, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("can't list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := path.Base(file)
		if name == layoutFile {
			continue
		}

		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/"+layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("can't parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Renderer{urls: urls, pages: pages}, nil
}

func (r *Renderer) URLs() URLs {
	return r.urls
}

// Render page with layout into response
// Page is rendered to buffer first so failed rendering never sends partial page
func (r *Renderer) HTML(w http.ResponseWriter, status int, name string, data Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return fmt.Errorf("template %s not found", name)
	}

	buf := &bytes.Buffer{}
	if err := tmpl.ExecuteTemplate(buf, layoutFile, data); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return fmt.Errorf("can't render template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
	return nil
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	s := t.Format(dateTimeLayout)
	return strings.NewReplacer("AM", "a.m.", "PM", "p.m.").Replace(s)
}
