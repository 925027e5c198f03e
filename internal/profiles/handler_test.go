package profiles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/movieflix/backend/internal/middleware"
	"github.com/movieflix/backend/internal/models"
)

func newTestServer(svc *Service) *http.ServeMux {
	h := NewHandler(svc, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/profiles", h.List)
	mux.HandleFunc("POST /api/profiles", h.Create)
	mux.HandleFunc("GET /api/profiles/limits", h.Limits)
	mux.HandleFunc("GET /api/profiles/avatars", h.Avatars)
	mux.HandleFunc("DELETE /api/profiles/{id}", h.Delete)
	mux.HandleFunc("POST /api/profiles/{id}/switch", h.Switch)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, acc *models.Account, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if acc != nil {
		req = req.WithContext(middleware.WithAccount(context.Background(), acc))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, payload
}

func TestHandlerCreate_LimitPayload(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	mux := newTestServer(svc)
	acc := testAccount(models.PlanBasic) // ceiling 2

	for _, name := range []string{"A", "B"} {
		rec, _ := doJSON(t, mux, acc, http.MethodPost, "/api/profiles", `{"name":"`+name+`"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %s: got %d: %s", name, rec.Code, rec.Body.String())
		}
	}

	rec, payload := doJSON(t, mux, acc, http.MethodPost, "/api/profiles", `{"name":"C"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("over-limit create: got %d, want 403", rec.Code)
	}
	if payload["currentCount"] != float64(2) || payload["maxAllowed"] != float64(2) {
		t.Errorf("limit payload: got %v", payload)
	}
	if payload["success"] != false {
		t.Error("limit response should carry success=false")
	}
}

func TestHandlerCreate_Validation(t *testing.T) {
	svc := NewService(newMemStore())
	mux := newTestServer(svc)
	acc := testAccount(models.PlanStandard)

	rec, _ := doJSON(t, mux, acc, http.MethodPost, "/api/profiles", `{"name":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty name: got %d, want 400", rec.Code)
	}

	rec, _ = doJSON(t, mux, acc, http.MethodPost, "/api/profiles", `{"name":"Ok","pin":"12"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("short pin: got %d, want 400", rec.Code)
	}

	rec, _ = doJSON(t, mux, acc, http.MethodPost, "/api/profiles", `{"name":"Ok","type":"alien"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad type: got %d, want 400", rec.Code)
	}

	rec, _ = doJSON(t, mux, nil, http.MethodPost, "/api/profiles", `{"name":"Ok"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no account in context: got %d, want 401", rec.Code)
	}
}

func TestHandlerList_Shape(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	mux := newTestServer(svc)
	acc := testAccount(models.PlanStandard)

	doJSON(t, mux, acc, http.MethodPost, "/api/profiles", `{"name":"One"}`)
	doJSON(t, mux, acc, http.MethodPost, "/api/profiles", `{"name":"Two"}`)

	rec, payload := doJSON(t, mux, acc, http.MethodGet, "/api/profiles", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: got %d", rec.Code)
	}
	if payload["success"] != true || payload["count"] != float64(2) {
		t.Errorf("list payload: got %v", payload)
	}
	profilesList, ok := payload["profiles"].([]any)
	if !ok || len(profilesList) != 2 {
		t.Fatalf("profiles array: got %v", payload["profiles"])
	}
	first := profilesList[0].(map[string]any)
	if first["name"] != "One" || first["isActive"] != true {
		t.Errorf("first profile: got %v", first)
	}
	if _, leaked := first["pinHash"]; leaked {
		t.Error("pin hash must never appear in responses")
	}
	if _, ok := first["watchHistoryCount"]; !ok {
		t.Error("list entries should carry watchHistoryCount")
	}
}

func TestHandlerSwitch_WrongPIN(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	mux := newTestServer(svc)
	acc := testAccount(models.PlanStandard)

	doJSON(t, mux, acc, http.MethodPost, "/api/profiles", `{"name":"Open"}`)
	rec, payload := doJSON(t, mux, acc, http.MethodPost, "/api/profiles", `{"name":"Locked","pin":"1234"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d", rec.Code)
	}
	locked := payload["profile"].(map[string]any)["id"].(string)

	rec, _ = doJSON(t, mux, acc, http.MethodPost, "/api/profiles/"+locked+"/switch", `{"pin":"0000"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong pin: got %d, want 401", rec.Code)
	}

	rec, payload = doJSON(t, mux, acc, http.MethodPost, "/api/profiles/"+locked+"/switch", `{"pin":"1234"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("correct pin: got %d: %s", rec.Code, rec.Body.String())
	}
	switched := payload["profile"].(map[string]any)
	if switched["isActive"] != true {
		t.Errorf("switched profile should be active: %v", switched)
	}
}

func TestHandlerDelete_LastProfile(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	mux := newTestServer(svc)
	acc := testAccount(models.PlanStandard)

	_, payload := doJSON(t, mux, acc, http.MethodPost, "/api/profiles", `{"name":"Only"}`)
	id := payload["profile"].(map[string]any)["id"].(string)

	rec, _ := doJSON(t, mux, acc, http.MethodDelete, "/api/profiles/"+id, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("deleting last profile: got %d, want 403", rec.Code)
	}

	rec, _ = doJSON(t, mux, acc, http.MethodDelete, "/api/profiles/not-a-uuid", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("malformed id: got %d, want 404", rec.Code)
	}
}

func TestHandlerAvatars(t *testing.T) {
	svc := NewService(newMemStore())
	mux := newTestServer(svc)

	rec, payload := doJSON(t, mux, nil, http.MethodGet, "/api/profiles/avatars?type=kids", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("avatars: got %d", rec.Code)
	}
	if payload["type"] != "kids" {
		t.Errorf("type echo: got %v", payload["type"])
	}
	avatars, ok := payload["avatars"].([]any)
	if !ok || len(avatars) == 0 {
		t.Fatalf("avatars array: got %v", payload["avatars"])
	}
}

func TestHandlerLimits(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	mux := newTestServer(svc)
	acc := testAccount(models.PlanBasic)

	doJSON(t, mux, acc, http.MethodPost, "/api/profiles", `{"name":"A"}`)

	rec, payload := doJSON(t, mux, acc, http.MethodGet, "/api/profiles/limits", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("limits: got %d", rec.Code)
	}
	if payload["currentCount"] != float64(1) || payload["maxAllowed"] != float64(2) {
		t.Errorf("limits payload: got %v", payload)
	}
	if payload["canCreate"] != true || payload["remaining"] != float64(1) {
		t.Errorf("limits payload: got %v", payload)
	}
}
