package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func issueToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "kiosk-test",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestRegisterDeviceAndAuthHeader(t *testing.T) {
	token := issueToken(t, time.Hour)
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/devices/register":
			var req map[string]string
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req["device_id"] != "kiosk-test" {
				t.Errorf("device_id = %q", req["device_id"])
			}
			_ = json.NewEncoder(w).Encode(map[string]string{
				"access_token":  token,
				"refresh_token": "refresh",
			})
		case "/users":
			gotAuth = r.Header.Get("Authorization")
			_ = json.NewEncoder(w).Encode([]UserSummary{{Name: "Ada", RollNumber: "42"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "kiosk-test")
	users, err := c.Users(context.Background())
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	if len(users) != 1 || users[0].RollNumber != "42" {
		t.Fatalf("users = %+v", users)
	}
	if gotAuth != "Bearer "+token {
		t.Errorf("authorization = %q", gotAuth)
	}
}

func TestTokenExpiryTriggersReRegister(t *testing.T) {
	registrations := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/devices/register":
			registrations++
			// Already inside the one-minute leeway: unusable immediately.
			_ = json.NewEncoder(w).Encode(map[string]string{
				"access_token": issueToken(t, 30*time.Second),
			})
		case "/start_attendance":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"message":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "kiosk-test")
	if err := c.StartAttendance(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if registrations != 1 {
		t.Fatalf("registrations = %d, want 1", registrations)
	}
	if err := c.StartAttendance(context.Background()); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if registrations != 2 {
		t.Fatalf("registrations = %d, want re-register on expiry", registrations)
	}
}

func TestConcurrentRequestsRefreshOnce(t *testing.T) {
	token := issueToken(t, time.Hour)
	var registrations atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/devices/register":
			registrations.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": token})
		case "/users":
			if r.Header.Get("Authorization") != "Bearer "+token {
				t.Errorf("authorization = %q", r.Header.Get("Authorization"))
			}
			_ = json.NewEncoder(w).Encode([]UserSummary{})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "kiosk-test")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Users(context.Background()); err != nil {
				t.Errorf("users: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := registrations.Load(); got != 1 {
		t.Fatalf("registrations = %d, want exactly 1 across concurrent callers", got)
	}
}

func TestBackendErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/devices/register" {
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": issueToken(t, time.Hour)})
			return
		}
		http.Error(w, "camera not available", http.StatusConflict)
	}))
	defer srv.Close()

	c := New(srv.URL, "kiosk-test")
	if err := c.StartAttendance(context.Background()); err == nil {
		t.Fatal("backend error not surfaced")
	}
}

func TestRegisterUserRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/devices/register":
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": issueToken(t, time.Hour)})
		case "/register":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse form: %v", err)
			}
			if r.FormValue("roll_number") != "42" {
				t.Errorf("roll_number = %q", r.FormValue("roll_number"))
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "no face detected in frame"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "kiosk-test")
	err := c.RegisterUser(context.Background(), RegisterRequest{
		Name:       "Ada",
		RollNumber: "42",
		Department: "CS",
		Role:       "Student",
		FrameData:  "data:image/jpeg;base64,xxxx",
	})
	if err == nil {
		t.Fatal("rejected registration should surface an error")
	}
}
