package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/minitwitter/internal/apperrors"
	"github.com/nkiryanov/minitwitter/internal/forms"
	"github.com/nkiryanov/minitwitter/internal/handlers/render"
	"github.com/nkiryanov/minitwitter/internal/handlers/userctx"
	"github.com/nkiryanov/minitwitter/internal/models"
)

func methodNotAllowed(w http.ResponseWriter) {
	w.Header().Set("Allow", "GET, POST")
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func handleTweetList(tweets tweetService, p *pages) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		all, err := tweets.ListAll(r.Context())
		if err != nil {
			p.serverError(w, r, err)
			return
		}

		p.render(w, r, http.StatusOK, render.PageTweetList, render.Page{Tweets: all})
	})
}

func handleIndex(p *pages) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.render(w, r, http.StatusOK, render.PageIndex, render.Page{})
	})
}

func handleSearch(tweets tweetService, p *pages) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")

		found, err := tweets.Search(r.Context(), q)
		if err != nil {
			p.serverError(w, r, err)
			return
		}

		p.render(w, r, http.StatusOK, render.PageSearch, render.Page{Tweets: found, Query: q})
	})
}

func handleTweetCreate(tweets tweetService, media mediaStorage, p *pages) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := userctx.FromRequest(r)

		switch r.Method {
		case http.MethodGet:
			p.render(w, r, http.StatusOK, render.PageTweetForm, render.Page{})
			return
		case http.MethodPost:
		default:
			methodNotAllowed(w)
			return
		}

		in, err := forms.ParseTweetInput(w, r)
		data := render.Page{Form: map[string]string{"text": in.Text}}
		if err != nil {
			p.formError(w, r, render.PageTweetForm, data, err)
			return
		}

		photo := ""
		if in.Photo != nil {
			photo, err = media.Save(in.Photo)
			if err != nil {
				p.serverError(w, r, err)
				return
			}
		}

		_, err = tweets.Create(r.Context(), *user, in.Text, photo)
		if err != nil {
			removeMedia(media, p, photo)
			p.formError(w, r, render.PageTweetForm, data, err)
			return
		}

		http.Redirect(w, r, p.urls().List(), http.StatusFound)
	})
}

// Find tweet from url owned by request user
// Render not found page and return false if there is no such tweet
func findOwnedTweet(tweets tweetService, p *pages, w http.ResponseWriter, r *http.Request) (models.Tweet, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		p.notFound(w, r)
		return models.Tweet{}, false
	}

	tweet, err := tweets.FindOwned(r.Context(), id, *userctx.FromRequest(r))
	switch {
	case errors.Is(err, apperrors.ErrTweetNotFound):
		p.notFound(w, r)
		return tweet, false
	case err != nil:
		p.serverError(w, r, err)
		return tweet, false
	}

	return tweet, true
}

func handleTweetEdit(tweets tweetService, media mediaStorage, p *pages) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}

		user := userctx.FromRequest(r)
		tweet, ok := findOwnedTweet(tweets, p, w, r)
		if !ok {
			return
		}

		if r.Method == http.MethodGet {
			data := render.Page{Tweet: tweet, Editing: true, Form: map[string]string{"text": tweet.Text}}
			p.render(w, r, http.StatusOK, render.PageTweetForm, data)
			return
		}

		in, err := forms.ParseTweetInput(w, r)
		data := render.Page{Tweet: tweet, Editing: true, Form: map[string]string{"text": in.Text}}
		if err != nil {
			p.formError(w, r, render.PageTweetForm, data, err)
			return
		}

		photo := tweet.Photo
		saved := ""
		switch {
		case in.Photo != nil:
			saved, err = media.Save(in.Photo)
			if err != nil {
				p.serverError(w, r, err)
				return
			}
			photo = saved
		case in.ClearPhoto:
			photo = ""
		}

		updated, err := tweets.Update(r.Context(), *user, tweet, in.Text, photo)
		switch {
		case errors.Is(err, apperrors.ErrTweetNotFound):
			removeMedia(media, p, saved)
			p.notFound(w, r)
			return
		case err != nil:
			removeMedia(media, p, saved)
			p.formError(w, r, render.PageTweetForm, data, err)
			return
		}

		if tweet.Photo != updated.Photo {
			removeMedia(media, p, tweet.Photo)
		}

		http.Redirect(w, r, p.urls().List(), http.StatusFound)
	})
}

func handleTweetDelete(tweets tweetService, media mediaStorage, p *pages) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}

		user := userctx.FromRequest(r)
		tweet, ok := findOwnedTweet(tweets, p, w, r)
		if !ok {
			return
		}

		if r.Method == http.MethodGet {
			p.render(w, r, http.StatusOK, render.PageTweetDelete, render.Page{Tweet: tweet})
			return
		}

		err := tweets.Delete(r.Context(), *user, tweet)
		switch {
		case errors.Is(err, apperrors.ErrTweetNotFound):
			p.notFound(w, r)
			return
		case err != nil:
			p.serverError(w, r, err)
			return
		}

		removeMedia(media, p, tweet.Photo)
		http.Redirect(w, r, p.urls().List(), http.StatusFound)
	})
}

// Remove media file nobody refers to, failure is only logged
func removeMedia(media mediaStorage, p *pages, name string) {
	if err := media.Remove(name); err != nil {
		p.logger.Warn("can't remove media file", "name", name, "error", err)
	}
}
