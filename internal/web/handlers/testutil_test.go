package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facetag/internal/session"
	"github.com/kozaktomas/facetag/internal/web/middleware"
)

func contains(s, sub string) bool {
	return strings.Contains(s, sub)
}

// newTestSession creates a session through a manager that is stopped when
// the test ends.
func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	sm := session.NewManager("test-secret")
	t.Cleanup(sm.Stop)
	return sm.Create()
}

// requestWithSession attaches sess to the request context.
func requestWithSession(r *http.Request, sess *session.Session) *http.Request {
	return r.WithContext(middleware.SetSessionInContext(r.Context(), sess))
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// testPNG encodes a solid gray image.
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// multipartRequest builds a POST with data under field. A nil data sends a
// form without any file.
func multipartRequest(t *testing.T, path, field string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if data != nil {
		part, err := writer.CreateFormFile(field, "upload.png")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		part.Write(data)
	} else if err := writer.WriteField("note", "empty"); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
