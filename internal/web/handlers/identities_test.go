package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/facetag/internal/matcher"
	"github.com/kozaktomas/facetag/internal/neural"
)

func testIdentities(t *testing.T) *matcher.FaceMatcher {
	t.Helper()
	m, err := matcher.New([]matcher.LabeledDescriptors{
		{Label: "Temirlan", Descriptors: []neural.Descriptor{{0, 0}, {0.1, 0}}},
		{Label: "Jiří"},
	}, 0.6, matcher.StrategyMean)
	if err != nil {
		t.Fatalf("matcher.New() error = %v", err)
	}
	return m
}

func TestIdentitiesHandler_List(t *testing.T) {
	handler := NewIdentitiesHandler(testIdentities(t))

	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest("GET", "/api/v1/identities", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}

	var resp struct {
		Identities []matcher.Identity `json:"identities"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp.Identities) != 2 {
		t.Fatalf("expected 2 identities, got %d", len(resp.Identities))
	}
	if resp.Identities[0].Label != "Temirlan" || resp.Identities[0].Descriptors != 2 {
		t.Errorf("unexpected first identity: %+v", resp.Identities[0])
	}
	if resp.Identities[1].Matchable {
		t.Errorf("identity without descriptors should not be matchable: %+v", resp.Identities[1])
	}
}

func TestIdentitiesHandler_Get(t *testing.T) {
	handler := NewIdentitiesHandler(testIdentities(t))

	tests := []struct {
		name       string
		param      string
		wantStatus int
		wantLabel  string
	}{
		{"exact", "Temirlan", http.StatusOK, "Temirlan"},
		{"case insensitive", "temirlan", http.StatusOK, "Temirlan"},
		{"without diacritics", "jiri", http.StatusOK, "Jiří"},
		{"unknown", "Elon", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestWithChiParams(httptest.NewRequest("GET", "/api/v1/identities/"+tt.param, nil), map[string]string{"name": tt.param})
			recorder := httptest.NewRecorder()
			handler.Get(recorder, req)

			if recorder.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, recorder.Code)
			}
			if tt.wantLabel == "" {
				return
			}
			var id matcher.Identity
			if err := json.Unmarshal(recorder.Body.Bytes(), &id); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if id.Label != tt.wantLabel {
				t.Errorf("Label = %q, want %q", id.Label, tt.wantLabel)
			}
		})
	}
}
