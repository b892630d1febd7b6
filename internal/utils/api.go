package utils

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	models "github.com/chrisdamba/rentalbooking/internal"
)

const maxBodyBytes = 1 << 20

type ApiError struct {
	XMLName         xml.Name                 `json:"-" xml:"error"`
	StatusCode      int                      `json:"-" xml:"-"`
	Kind            string                   `json:"kind,omitempty" xml:"kind,omitempty"`
	Msg             string                   `json:"error,omitempty" xml:"message,omitempty"`
	CurrentStatus   models.BookingStatus     `json:"current_status,omitempty" xml:"current_status,omitempty"`
	AllowedStatuses []models.BookingStatus   `json:"allowed_statuses,omitempty" xml:"allowed_statuses>status,omitempty"`
	Conflicts       []models.ConflictSummary `json:"conflicts,omitempty" xml:"conflicts>conflict,omitempty"`
}
type ContentType string

type XMLResponse struct {
	XMLName xml.Name    `xml:"response"`
	Data    interface{} `xml:"data,omitempty"`
	Error   *ApiError   `xml:"error,omitempty"`
}

const (
	ContentTypeJSON ContentType = "application/json"
	ContentTypeXML  ContentType = "application/xml"
)

func (o *ApiError) Error() string {
	return fmt.Sprintf("%d: %s", o.StatusCode, o.Msg)
}

func JsonDecodeBody(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return err
	}
	if len(body) > maxBodyBytes {
		return fmt.Errorf("request body larger than %d bytes", maxBodyBytes)
	}
	return json.Unmarshal(body, dst)
}

func NewInternalServerError(msg string) ApiError {
	return ApiError{StatusCode: http.StatusInternalServerError, Kind: string(models.KindInternal), Msg: msg}
}

func NewBadRequest(msg string) ApiError {
	return ApiError{StatusCode: http.StatusBadRequest, Kind: string(models.KindValidation), Msg: msg}
}

func NewUnauthorized(msg string) ApiError {
	return ApiError{StatusCode: http.StatusUnauthorized, Kind: "unauthorized", Msg: msg}
}

func NewForbidden(msg string) ApiError {
	return ApiError{StatusCode: http.StatusForbidden, Kind: "forbidden", Msg: msg}
}

func NewTooManyRequests(msg string) ApiError {
	return ApiError{StatusCode: http.StatusTooManyRequests, Kind: "rate_limited", Msg: msg}
}

func RenderResponse(r *http.Request, w http.ResponseWriter, statusCode int, res interface{}) {
	contentType := getResponseContentType(r)
	switch contentType {
	case ContentTypeJSON:
		renderJson(w, statusCode, res)
	case ContentTypeXML:
		renderXML(w, statusCode, res)
	default:
		renderJson(w, http.StatusUnsupportedMediaType, nil)
	}
}

func AllowedMethods(next http.HandlerFunc, methods ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		found := existsInSlice(methods, r.Method)
		if found {
			next(w, r)
		} else {
			w.Header().Set("Allow", strings.Join(methods, ", "))
			ae := ApiError{StatusCode: http.StatusMethodNotAllowed, Kind: "method_not_allowed", Msg: r.Method + " is not allowed"}
			RenderResponse(r, w, ae.StatusCode, ae)
		}
	}
}

// AllowedContentTypes only checks requests that carry a body.
func AllowedContentTypes(next http.HandlerFunc, mediaTypes ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength == 0 || r.Method == http.MethodGet || r.Method == http.MethodHead {
			next(w, r)
			return
		}
		mt, _, err := mime.ParseMediaType(r.Header.Get("content-type"))
		if err == nil && existsInSlice(mediaTypes, mt) {
			next(w, r)
		} else {
			ae := ApiError{StatusCode: http.StatusUnsupportedMediaType, Kind: "unsupported_media_type", Msg: "content type must be one of " + strings.Join(mediaTypes, ", ")}
			RenderResponse(r, w, ae.StatusCode, ae)
		}
	}
}

func existsInSlice(list []string, needle string) bool {
	for i := range list {
		if list[i] == needle {
			return true
		}
	}
	return false
}

func getResponseContentType(r *http.Request) ContentType {
	accept := r.Header.Get("Accept")
	if accept == "" {
		return ContentTypeJSON // default to JSON if no Accept header
	}

	// first supported type in the Accept header wins
	types := strings.Split(accept, ",")
	for _, t := range types {
		mt := strings.TrimSpace(strings.Split(t, ";")[0]) // remove quality values
		switch mt {
		case string(ContentTypeJSON):
			return ContentTypeJSON
		case string(ContentTypeXML):
			return ContentTypeXML
		}
	}
	return ContentTypeJSON
}

func renderJson(w http.ResponseWriter, statusCode int, res interface{}) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	if res != nil {
		var err error
		body, err = json.Marshal(res)
		if err != nil {
			ae := NewInternalServerError(err.Error())
			statusCode = ae.StatusCode
			body, err = json.Marshal(&ae)
			if err != nil {
				body = []byte(`{"error": "` + err.Error() + `"}`)
			}
		}
	}
	w.WriteHeader(statusCode)
	if len(body) > 0 {
		w.Write(body)
	}
}

func renderXML(w http.ResponseWriter, statusCode int, res interface{}) {
	w.Header().Set("Content-Type", "application/xml")

	var body []byte
	var err error

	if res != nil {
		switch v := res.(type) {
		case ApiError:
			body, err = xml.Marshal(XMLResponse{Error: &v})
		case *ApiError:
			body, err = xml.Marshal(XMLResponse{Error: v})
		case error:
			body, err = xml.Marshal(XMLResponse{Error: &ApiError{Msg: v.Error()}})
		default:
			body, err = xml.Marshal(XMLResponse{Data: res})
		}

		if err != nil {
			ae := NewInternalServerError(err.Error())
			statusCode = ae.StatusCode
			body, err = xml.Marshal(XMLResponse{Error: &ae})
			if err != nil {
				body = []byte(`<?xml version="1.0" encoding="UTF-8"?>
                    <response><error><message>Internal Server Error</message></error></response>`)
			}
		}
	}

	w.WriteHeader(statusCode)
	if len(body) > 0 {
		w.Write(body)
	}
}
