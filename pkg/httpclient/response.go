package httpclient

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/vonage/pkg/errx"
)

// Response is a successful (2xx) exchange.
type Response struct {
	StatusCode  int
	Header      http.Header
	ContentType string
	Body        []byte
}

// Empty reports whether the response carries no content, as with 204.
func (r *Response) Empty() bool {
	return r.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(r.Body)) == 0
}

// IsJSON reports whether the body should be decoded as JSON.
func (r *Response) IsJSON() bool {
	return isJSON(r.ContentType, r.Body)
}

// Decode stores the body in out. Empty responses leave out untouched.
// *string and *[]byte receive the raw body; anything else needs JSON.
func (r *Response) Decode(out any) error {
	if out == nil || r.Empty() {
		return nil
	}

	switch t := out.(type) {
	case *string:
		*t = string(r.Body)
		return nil
	case *[]byte:
		*t = bytes.Clone(r.Body)
		return nil
	}

	if !r.IsJSON() {
		return &errx.Error{
			Kind:        errx.KindProtocolFailure,
			StatusCode:  r.StatusCode,
			ContentType: r.ContentType,
			Body:        errx.Excerpt(r.Body),
			Message:     "expected a JSON response",
		}
	}

	if err := json.Unmarshal(r.Body, out); err != nil {
		return &errx.Error{
			Kind:        errx.KindProtocolFailure,
			StatusCode:  r.StatusCode,
			ContentType: r.ContentType,
			Body:        errx.Excerpt(r.Body),
			Message:     "failed to decode response",
			Cause:       err,
		}
	}
	return nil
}

// Value decodes the body into a generic value: nil for empty responses, the
// decoded JSON, or the raw text.
func (r *Response) Value() (any, error) {
	if r.Empty() {
		return nil, nil
	}
	if !r.IsJSON() {
		return string(r.Body), nil
	}
	var v any
	if err := r.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// mediaType returns the content type without parameters.
func mediaType(header string) string {
	if header == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		mt, _, _ = strings.Cut(header, ";")
		return strings.TrimSpace(strings.ToLower(mt))
	}
	return mt
}

func isJSON(contentType string, body []byte) bool {
	if strings.HasSuffix(contentType, "json") {
		return true
	}
	if contentType != "" && contentType != "text/plain" {
		return false
	}
	b := bytes.TrimSpace(body)
	return len(b) > 0 && (b[0] == '{' || b[0] == '[') && json.Valid(b)
}

// problem covers the error documents returned across the APIs: RFC 7807
// problem details, OAuth2 errors and the legacy error_text field.
type problem struct {
	Type             string `json:"type"`
	Title            string `json:"title"`
	Detail           string `json:"detail"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorText        string `json:"error-text"`
	Message          string `json:"message"`
}

func (p problem) message() string {
	switch {
	case p.Title != "" && p.Detail != "":
		return p.Title + ": " + p.Detail
	case p.Title != "":
		return p.Title
	case p.Detail != "":
		return p.Detail
	case p.Error != "" && p.ErrorDescription != "":
		return p.Error + ": " + p.ErrorDescription
	case p.Error != "":
		return p.Error
	case p.ErrorText != "":
		return p.ErrorText
	default:
		return p.Message
	}
}

// errorFromResponse maps a non-2xx exchange onto the taxonomy.
func errorFromResponse(status int, header http.Header, body []byte) *errx.Error {
	ct := mediaType(header.Get("Content-Type"))
	e := &errx.Error{
		Kind:        errx.KindForStatus(status),
		StatusCode:  status,
		ContentType: ct,
		Body:        errx.Excerpt(body),
	}

	if isJSON(ct, body) {
		var data any
		if json.Unmarshal(body, &data) == nil {
			e.Data = data
		}
		var p problem
		if json.Unmarshal(body, &p) == nil {
			e.Message = p.message()
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}

	if status == http.StatusTooManyRequests {
		if s, err := strconv.Atoi(strings.TrimSpace(header.Get("Retry-After"))); err == nil && s >= 0 {
			e.RetryAfter = s
		}
	}
	return e
}
