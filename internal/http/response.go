package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/query"
)

const contentTypeJSON = "application/json"

type messageBody struct {
	Message string `json:"message"`
}

type detailBody struct {
	Detail string `json:"detail"`
}

// listBody is the paginated list envelope.
type listBody[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a service error onto a status code and body. notFound is
// the message used for a missing resource.
func writeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr.Fields)
	case errors.Is(err, core.ErrValidation):
		writeJSON(w, http.StatusBadRequest, detailBody{Detail: err.Error()})
	case errors.Is(err, core.ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSON(w, http.StatusUnauthorized, detailBody{Detail: "Authentication credentials were not provided."})
	case errors.Is(err, core.ErrForbidden):
		writeJSON(w, http.StatusForbidden, detailBody{Detail: "You do not have permission to perform this action."})
	case errors.Is(err, query.ErrInvalidPage):
		writeJSON(w, http.StatusNotFound, messageBody{Message: "Invalid page."})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, messageBody{Message: notFound})
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, detailBody{Detail: "Request body too large."})
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err.Error(),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, detailBody{Detail: "A server error occurred."})
	}
}

// writeList writes page as the list envelope with results in place of its items.
func writeList[T, R any](w http.ResponseWriter, r *http.Request, page query.Page[T], results []R) {
	body := listBody[R]{Count: page.Total, Results: results}
	if page.HasNext() {
		link := pageLink(r, page.Number+1)
		body.Next = &link
	}
	if page.HasPrevious() {
		link := pageLink(r, page.Number-1)
		body.Previous = &link
	}
	writeJSON(w, http.StatusOK, body)
}

// pageLink is the absolute URL of the current request at another page. The
// first page carries no page parameter.
func pageLink(r *http.Request, n int) string {
	q := r.URL.Query()
	if n <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(n))
	}
	u := url.URL{
		Scheme:   requestScheme(r),
		Host:     r.Host,
		Path:     r.URL.Path,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" || proto == "http" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
