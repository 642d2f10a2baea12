package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"golang.org/x/oauth2"

	"taskdeck/internal/api"
	"taskdeck/internal/credentials"
)

// recorder collects error toasts for assertions.
type recorder struct {
	mu     sync.Mutex
	errors []string
}

func (r *recorder) Success(title, message string) {}
func (r *recorder) Info(title, message string)    {}
func (r *recorder) Error(title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, title+": "+message)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

func newCreds(t *testing.T, access, refresh string) *credentials.Store {
	t.Helper()
	creds := credentials.NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	if access != "" || refresh != "" {
		err := creds.Save(context.Background(), &oauth2.Token{
			AccessToken:  access,
			RefreshToken: refresh,
		})
		if err != nil {
			t.Fatalf("save credentials: %v", err)
		}
	}
	return creds
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "success",
		"data":    data,
		"message": "",
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "error",
		"message": message,
	})
}

func TestGetAttachesBearerToken(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeSuccess(w, http.StatusOK, map[string]string{"value": "hello"})
	}))
	defer ts.Close()

	creds := newCreds(t, "access-1", "refresh-1")
	client := api.New(ts.URL, creds)

	var out struct {
		Value string `json:"value"`
	}
	if err := client.Get(context.Background(), "/things", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "Bearer access-1" {
		t.Errorf("expected bearer header %q, got %q", "Bearer access-1", gotAuth)
	}
	if out.Value != "hello" {
		t.Errorf("expected decoded data, got %+v", out)
	}
}

func TestGetWithoutCredentialsSendsNoAuthHeader(t *testing.T) {
	var sawHeader bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawHeader = r.Header["Authorization"]
		writeSuccess(w, http.StatusOK, map[string]bool{"ok": true})
	}))
	defer ts.Close()

	client := api.New(ts.URL, newCreds(t, "", ""))
	if err := client.Get(context.Background(), "/things", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sawHeader {
		t.Error("expected no Authorization header without stored credentials")
	}
}

func TestRefreshAndReplayOn401(t *testing.T) {
	var thingsCalls, refreshCalls int
	var replayAuth string

	mux := http.NewServeMux()
	mux.HandleFunc("/things", func(w http.ResponseWriter, r *http.Request) {
		thingsCalls++
		if r.Header.Get("Authorization") != "Bearer fresh-access" {
			writeError(w, http.StatusUnauthorized, "token expired")
			return
		}
		replayAuth = r.Header.Get("Authorization")
		writeSuccess(w, http.StatusOK, map[string]string{"value": "after refresh"})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refreshToken"] != "refresh-1" {
			writeError(w, http.StatusUnauthorized, "unknown refresh token")
			return
		}
		writeSuccess(w, http.StatusOK, map[string]string{
			"accessToken":  "fresh-access",
			"refreshToken": "fresh-refresh",
		})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	creds := newCreds(t, "stale-access", "refresh-1")
	client := api.New(ts.URL, creds)

	var out struct {
		Value string `json:"value"`
	}
	if err := client.Get(context.Background(), "/things", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if refreshCalls != 1 {
		t.Errorf("expected exactly 1 refresh call, got %d", refreshCalls)
	}
	if thingsCalls != 2 {
		t.Errorf("expected original + replay = 2 calls, got %d", thingsCalls)
	}
	if replayAuth != "Bearer fresh-access" {
		t.Errorf("replay used wrong token: %q", replayAuth)
	}
	if out.Value != "after refresh" {
		t.Errorf("expected replayed response, got %+v", out)
	}
	if creds.AccessToken() != "fresh-access" || creds.RefreshToken() != "fresh-refresh" {
		t.Errorf("rotated tokens not persisted: access=%q refresh=%q",
			creds.AccessToken(), creds.RefreshToken())
	}
}

func TestRefreshFailureTearsDownSession(t *testing.T) {
	var thingsCalls, refreshCalls, expired int

	mux := http.NewServeMux()
	mux.HandleFunc("/things", func(w http.ResponseWriter, r *http.Request) {
		thingsCalls++
		writeError(w, http.StatusUnauthorized, "token expired")
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		writeError(w, http.StatusUnauthorized, "refresh token revoked")
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	creds := newCreds(t, "stale-access", "revoked-refresh")
	client := api.New(ts.URL, creds,
		api.WithAuthExpiredHandler(func() { expired++ }))

	err := client.Get(context.Background(), "/things", nil)
	if err == nil {
		t.Fatal("expected the original 401 to propagate")
	}
	if !api.IsAuthError(err) {
		t.Errorf("expected an auth error, got %v", err)
	}
	if refreshCalls != 1 {
		t.Errorf("expected exactly 1 refresh attempt, got %d", refreshCalls)
	}
	if thingsCalls != 1 {
		t.Errorf("expected no replay after failed refresh, got %d calls", thingsCalls)
	}
	if expired != 1 {
		t.Errorf("expected 1 auth-expired callback, got %d", expired)
	}
	if creds.AccessToken() != "" {
		t.Error("expected stored credentials to be cleared")
	}
}

func TestNoRefreshWithoutRefreshToken(t *testing.T) {
	var refreshCalls, expired int

	mux := http.NewServeMux()
	mux.HandleFunc("/things", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnauthorized, "token expired")
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		writeError(w, http.StatusUnauthorized, "no token")
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	creds := newCreds(t, "stale-access", "")
	client := api.New(ts.URL, creds,
		api.WithAuthExpiredHandler(func() { expired++ }))

	err := client.Get(context.Background(), "/things", nil)
	if !api.IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if refreshCalls != 0 {
		t.Errorf("expected no refresh request without a refresh token, got %d", refreshCalls)
	}
	if expired != 1 {
		t.Errorf("expected 1 auth-expired callback, got %d", expired)
	}
}

func TestDecodeRejectsNonEnvelopeBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[1, 2, 3]`))
	}))
	defer ts.Close()

	client := api.New(ts.URL, newCreds(t, "", ""))
	var out []int
	if err := client.Get(context.Background(), "/things", &out); err == nil {
		t.Fatal("expected bare array body to be rejected")
	}
}

func TestDecodeRejectsWrongEnvelopeStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"partial","data":{},"message":"half done"}`))
	}))
	defer ts.Close()

	client := api.New(ts.URL, newCreds(t, "", ""))
	err := client.Get(context.Background(), "/things", nil)
	if err == nil {
		t.Fatal("expected non-success envelope to be rejected")
	}
	if !strings.Contains(err.Error(), "half done") {
		t.Errorf("expected server message in error, got %v", err)
	}
}

func TestFailureSurfacesServerMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusBadRequest, "task title must not be empty")
	}))
	defer ts.Close()

	rec := &recorder{}
	client := api.New(ts.URL, newCreds(t, "", ""), api.WithNotifier(rec))

	err := client.Post(context.Background(), "/tasks", map[string]string{}, nil)
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *api.Error, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "task title must not be empty" {
		t.Errorf("expected server message, got %q", apiErr.Message)
	}
	if rec.count() != 1 {
		t.Errorf("expected 1 error toast, got %d", rec.count())
	}
}

func TestPostFormSendsMultipart(t *testing.T) {
	var contentType, field, filename, fileBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		field = r.FormValue("kind")
		file, header, err := r.FormFile("avatar")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		defer file.Close()
		filename = header.Filename
		buf := make([]byte, header.Size)
		n, _ := file.Read(buf)
		fileBody = string(buf[:n])
		writeSuccess(w, http.StatusOK, map[string]bool{"ok": true})
	}))
	defer ts.Close()

	client := api.New(ts.URL, newCreds(t, "access-1", ""))
	form := api.NewForm().
		Set("kind", "avatar").
		AddFile("avatar", "me.png", []byte("png-bytes"))

	if err := client.PostForm(context.Background(), "/auth/avatar", form, nil); err != nil {
		t.Fatalf("PostForm: %v", err)
	}
	if !strings.HasPrefix(contentType, "multipart/form-data; boundary=") {
		t.Errorf("expected multipart content type, got %q", contentType)
	}
	if field != "avatar" || filename != "me.png" || fileBody != "png-bytes" {
		t.Errorf("form not transported intact: field=%q file=%q body=%q", field, filename, fileBody)
	}
}
