package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/hypot/internal/apperror"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// fields is a request body read either as a JSON object or as an
// application/x-www-form-urlencoded form. Older clients post forms, so both
// shapes are accepted on every POST route.
type fields struct {
	json map[string]json.RawMessage
	form url.Values
}

func readFields(w http.ResponseWriter, r *http.Request) (*fields, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		f := &fields{json: map[string]json.RawMessage{}}
		if err := json.NewDecoder(r.Body).Decode(&f.json); err != nil {
			if errors.Is(err, io.EOF) {
				return f, nil
			}
			return nil, apperror.ValidationFailed("body", "request body must be a JSON object")
		}
		return f, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, apperror.ValidationFailed("body", "request body must be a form or JSON object")
	}
	return &fields{form: r.PostForm}, nil
}

// rejectBody logs an unreadable body and answers with its validation error.
func rejectBody(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.Warn("invalid request body",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeError(w, err)
}

// String returns the named field as text. A JSON number or boolean is
// returned in its literal form.
func (f *fields) String(name string) string {
	if f.json == nil {
		return f.form.Get(name)
	}
	raw, ok := f.json[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}

// Bool accepts true/false, 1/0 and the HTML checkbox value "on".
// A missing field is false.
func (f *fields) Bool(name string) (bool, error) {
	s := strings.TrimSpace(f.String(name))
	if s == "" {
		return false, nil
	}
	if s == "on" {
		return true, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, apperror.ValidationFailed(name, name+" must be true or false")
	}
	return b, nil
}

// List accepts a JSON array of strings, repeated form values
// (name=a&name=b or name[]=a), or one comma-separated string.
func (f *fields) List(name string) ([]string, error) {
	var values []string
	if f.json != nil {
		raw, ok := f.json[name]
		if !ok || string(raw) == "null" {
			return nil, nil
		}
		if err := json.Unmarshal(raw, &values); err != nil {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, apperror.ValidationFailed(name, name+" must be a list of user ids")
			}
			values = []string{s}
		}
	} else {
		values = append(append([]string(nil), f.form[name]...), f.form[name+"[]"]...)
	}

	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out, nil
}

// Time accepts RFC 3339 text or Unix milliseconds. Empty means no value.
func (f *fields) Time(name string) (*time.Time, error) {
	s := strings.TrimSpace(f.String(name))
	if s == "" {
		return nil, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		t := time.UnixMilli(ms).UTC()
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, apperror.ValidationFailed(name,
			fmt.Sprintf("%s must be an RFC 3339 timestamp or Unix milliseconds", name))
	}
	return &t, nil
}

// pathParam returns the named route parameter decoded. chi matches on
// r.URL.RawPath when it is set, so the parameter is still escaped ("a%2Fb")
// in exactly that case.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return raw
	}
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
