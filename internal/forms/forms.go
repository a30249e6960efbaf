package forms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/nkiryanov/minitwitter/internal/apperrors"
)

// Max size of a non-file form value
const maxValueSize = 1 << 20

// Request body is malformed: not a client-side validation failure
var ErrMalformedForm = errors.New("malformed form")

// Tweet create and edit form
type TweetInput struct {
	Text       string  `form:"text" validate:"notblank,max=280"`
	Photo      *Upload `form:"photo" validate:"-"`
	ClearPhoto bool    `form:"photo-clear" validate:"-"`
}

// Parse multipart or urlencoded tweet form
// Returned error is *apperrors.ValidationError when the form is invalid, input is filled anyway.
// Multipart parts are streamed, nothing is spilled to disk
func ParseTweetInput(w http.ResponseWriter, r *http.Request) (TweetInput, error) {
	var in TweetInput
	verr := &apperrors.ValidationError{}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+maxValueSize)

	mr, err := r.MultipartReader()
	switch {
	case errors.Is(err, http.ErrNotMultipart):
		if err := r.ParseForm(); err != nil {
			return in, fmt.Errorf("%w: %w", ErrMalformedForm, err)
		}
		in.Text = r.PostFormValue("text")
		in.ClearPhoto = r.PostFormValue("photo-clear") != ""
	case err != nil:
		return in, fmt.Errorf("%w: %w", ErrMalformedForm, err)
	default:
		if err := in.readParts(mr, verr); err != nil {
			return in, err
		}
	}

	if err := validateStruct(in); err != nil {
		var textErr *apperrors.ValidationError
		if !errors.As(err, &textErr) {
			return in, err
		}
		for field, msg := range textErr.Fields {
			verr.Add(field, msg)
		}
	}

	if len(verr.Fields) > 0 {
		return in, verr
	}
	return in, nil
}

// Fill input from parts in the order they come.
// Body over the limit stops reading: values read so far are kept and photo is reported too large
func (in *TweetInput) readParts(mr *multipart.Reader, verr *apperrors.ValidationError) error {
	for {
		part, err := mr.NextPart()
		switch {
		// Truncated body is wrapped io.EOF, the clean end is bare
		case err == io.EOF: // nolint:errorlint
			return nil
		case isTooLarge(err):
			verr.Add("photo", msgTooLarge)
			return nil
		case err != nil:
			return fmt.Errorf("%w: %w", ErrMalformedForm, err)
		}

		err = in.readPart(part, verr)
		_ = part.Close()
		switch {
		case isTooLarge(err):
			verr.Add("photo", msgTooLarge)
			return nil
		case err != nil:
			return fmt.Errorf("%w: %w", ErrMalformedForm, err)
		}
	}
}

func (in *TweetInput) readPart(part *multipart.Part, verr *apperrors.ValidationError) error {
	switch part.FormName() {
	case "text":
		value, err := readValue(part)
		in.Text = value
		return err
	case "photo-clear":
		value, err := readValue(part)
		in.ClearPhoto = value != ""
		return err
	case "photo":
		// Browsers send empty part without file name when no file chosen
		if part.FileName() == "" {
			return nil
		}
		photo, err := readImage(part, "photo")
		var photoErr *apperrors.ValidationError
		switch {
		case errors.As(err, &photoErr):
			for field, msg := range photoErr.Fields {
				verr.Add(field, msg)
			}
			return nil
		case err != nil:
			return err
		}
		in.Photo = photo
	}
	return nil
}

func readValue(part *multipart.Part) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, maxValueSize+1))
	switch {
	case err != nil:
		return "", err
	case len(data) > maxValueSize:
		return "", fmt.Errorf("value of %q is larger than %d bytes", part.FormName(), maxValueSize)
	}
	return string(data), nil
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

// Answer whether the username is used already
type UsernameLookup interface {
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

// User registration form
type RegistrationInput struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"required,email"`
	Password1 string `form:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

func ParseRegistrationInput(r *http.Request) RegistrationInput {
	return RegistrationInput{
		Username:  r.PostFormValue("username"),
		Email:     r.PostFormValue("email"),
		Password1: r.PostFormValue("password1"),
		Password2: r.PostFormValue("password2"),
	}
}

// Validate field rules, then username uniqueness
func (in RegistrationInput) Validate(ctx context.Context, lookup UsernameLookup) error {
	verr := &apperrors.ValidationError{}

	if err := validateStruct(in); err != nil {
		if !errors.As(err, &verr) {
			return err
		}
	}

	if _, invalid := verr.Fields["username"]; !invalid {
		taken, err := lookup.UsernameTaken(ctx, in.Username)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("username", "A user with that username already exists.")
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Login form
type LoginInput struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

func ParseLoginInput(r *http.Request) LoginInput {
	return LoginInput{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
}

func (in LoginInput) Validate() error {
	return validateStruct(in)
}
