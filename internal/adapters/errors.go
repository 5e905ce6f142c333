package adapters

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// Kinds of provider failure. Every error returned by an adapter wraps exactly
// one of these, so callers can pick retry or abort with errors.Is.
var (
	ErrNotFound  = errors.New("not found")
	ErrAuth      = errors.New("authentication failed")
	ErrTransient = errors.New("provider error")
	ErrMalformed = errors.New("malformed response")
)

// classify wraps err from the provider call op with its failure kind.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, kindOf(err), err)
}

func kindOf(err error) error {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return kindOfStatus(apiErr.Status)
	}
	var apiErrPtr *spotify.Error
	if errors.As(err, &apiErrPtr) {
		return kindOfStatus(apiErrPtr.Status)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return ErrAuth
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return ErrMalformed
	}

	// Transport failures and anything unrecognised.
	return ErrTransient
}

func kindOfStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrAuth
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusBadRequest:
		return ErrMalformed
	default:
		return ErrTransient
	}
}

func malformed(op, detail string) error {
	return fmt.Errorf("%s: %w: %s", op, ErrMalformed, detail)
}
