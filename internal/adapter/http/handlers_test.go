package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	adapthttp "accounts/internal/adapter/http"
	"accounts/internal/adapter/memory"
	"accounts/internal/app"
)

// captureNotifier records the last delivered code instead of emailing it.
type captureNotifier struct {
	email string
	code  string
}

func (n *captureNotifier) Send(ctx context.Context, email, code string) error {
	n.email = email
	n.code = code
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *captureNotifier) {
	t.Helper()

	store := memory.New()
	notifier := &captureNotifier{}
	hasher := app.NewHasher(bcrypt.MinCost)
	tokens := app.NewTokenService([]byte("test-secret"))
	authSvc := app.NewAuthService(store, hasher, tokens, 0, 0)
	recoverySvc := app.NewRecoveryService(store, notifier, hasher, tokens, 0)
	cookies := adapthttp.NewCookieManager(false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ts := httptest.NewServer(adapthttp.New(authSvc, recoverySvc, tokens, cookies, logger).Handler())
	t.Cleanup(ts.Close)
	return ts, notifier
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func do(t *testing.T, client *http.Client, method, url string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func wantStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, raw)
	}
}

func TestSetup_FirstAccountOnly(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newClient(t)

	setup := map[string]string{
		"name":     "Admin Person",
		"username": "admin1",
		"email":    "admin@example.com",
		"password": "admin-password",
	}

	resp := do(t, client, http.MethodPost, ts.URL+"/api/setup", setup)
	wantStatus(t, resp, http.StatusCreated)
	body := decodeBody(t, resp)
	user, _ := body["user"].(map[string]any)
	if user["role"] != "admin" {
		t.Errorf("expected the first account to be admin, got %v", user["role"])
	}

	resp = do(t, client, http.MethodPost, ts.URL+"/api/setup", setup)
	wantStatus(t, resp, http.StatusConflict)
	resp.Body.Close()
}

func TestLoginLogoutLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newClient(t)

	resp := do(t, client, http.MethodPost, ts.URL+"/api/setup", map[string]string{
		"name": "Admin Person", "username": "admin1", "email": "admin@example.com", "password": "admin-password",
	})
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	// No session yet.
	resp = do(t, client, http.MethodGet, ts.URL+"/api/protected", nil)
	wantStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	// Bad credentials.
	resp = do(t, client, http.MethodPost, ts.URL+"/api/login", map[string]string{
		"username": "admin1", "password": "wrong-password",
	})
	wantStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	// Good credentials set the session cookie.
	resp = do(t, client, http.MethodPost, ts.URL+"/api/login", map[string]string{
		"username": "admin1", "password": "admin-password",
	})
	wantStatus(t, resp, http.StatusOK)
	var sawSession bool
	for _, c := range resp.Cookies() {
		if c.Name == "access_token" && c.Value != "" {
			sawSession = true
			if !c.HttpOnly {
				t.Error("session cookie must be HttpOnly")
			}
		}
	}
	if !sawSession {
		t.Fatal("expected an access_token cookie on login")
	}
	body := decodeBody(t, resp)
	if _, ok := body["user"]; !ok {
		t.Error("expected the principal in the login response")
	}

	resp = do(t, client, http.MethodGet, ts.URL+"/api/protected", nil)
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// Logout clears the session; repeating it is harmless.
	for i := 0; i < 2; i++ {
		resp = do(t, client, http.MethodPost, ts.URL+"/api/logout", nil)
		wantStatus(t, resp, http.StatusOK)
		resp.Body.Close()
	}
	resp = do(t, client, http.MethodGet, ts.URL+"/api/protected", nil)
	wantStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
}

func TestAdminSurface_RoleGate(t *testing.T) {
	ts, _ := newTestServer(t)
	admin := newClient(t)

	resp := do(t, admin, http.MethodPost, ts.URL+"/api/setup", map[string]string{
		"name": "Admin Person", "username": "admin1", "email": "admin@example.com", "password": "admin-password",
	})
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()
	resp = do(t, admin, http.MethodPost, ts.URL+"/api/login", map[string]string{
		"username": "admin1", "password": "admin-password",
	})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// Admin creates an ordinary user.
	resp = do(t, admin, http.MethodPost, ts.URL+"/api/register", map[string]string{
		"name": "Bobby Person", "username": "bobby1", "email": "bobby@example.com", "password": "bobby-password", "role": "user",
	})
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	// The listing never leaks credential material.
	resp = do(t, admin, http.MethodGet, ts.URL+"/api/users", nil)
	wantStatus(t, resp, http.StatusOK)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if strings.Contains(strings.ToLower(string(raw)), "password") {
		t.Errorf("user listing must not carry credential fields: %s", raw)
	}
	var listing struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	}
	if err := json.Unmarshal(raw, &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(listing.Users))
	}

	// A user session cannot reach the admin surface.
	user := newClient(t)
	resp = do(t, user, http.MethodPost, ts.URL+"/api/login", map[string]string{
		"username": "bobby1", "password": "bobby-password",
	})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	resp = do(t, user, http.MethodGet, ts.URL+"/api/users", nil)
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	// Role change, then deletion.
	resp = do(t, admin, http.MethodPatch, ts.URL+"/api/update-role", map[string]string{
		"username": "bobby1", "role": "admin",
	})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	var bobbyID string
	for _, u := range listing.Users {
		if u.Username == "bobby1" {
			bobbyID = u.ID
		}
	}
	resp = do(t, admin, http.MethodDelete, ts.URL+"/api/users/"+bobbyID, nil)
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = do(t, user, http.MethodPost, ts.URL+"/api/login", map[string]string{
		"username": "bobby1", "password": "bobby-password",
	})
	wantStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
}

func TestPasswordRecoveryFlow(t *testing.T) {
	ts, notifier := newTestServer(t)
	admin := newClient(t)

	resp := do(t, admin, http.MethodPost, ts.URL+"/api/setup", map[string]string{
		"name": "Admin Person", "username": "admin1", "email": "admin@example.com", "password": "admin-password",
	})
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	client := newClient(t)

	// Recovery for an unknown account fails without starting a cycle.
	resp = do(t, client, http.MethodPost, ts.URL+"/api/forgot", map[string]string{"username": "nobody"})
	wantStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()

	resp = do(t, client, http.MethodPost, ts.URL+"/api/forgot", map[string]string{"username": "admin1"})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	if notifier.email != "admin@example.com" {
		t.Fatalf("expected delivery to admin@example.com, got %q", notifier.email)
	}
	if len(notifier.code) != 6 {
		t.Fatalf("expected a six-digit code, got %q", notifier.code)
	}

	// The update step is closed until the code is presented.
	resp = do(t, client, http.MethodPatch, ts.URL+"/api/update", map[string]string{"password": "recovered-password"})
	wantStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	wrong := "000000"
	if wrong == notifier.code {
		wrong = "000001"
	}
	resp = do(t, client, http.MethodPost, ts.URL+"/api/recover", map[string]string{"recoverCode": wrong})
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = do(t, client, http.MethodPost, ts.URL+"/api/recover", map[string]string{"recoverCode": notifier.code})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = do(t, client, http.MethodPatch, ts.URL+"/api/update", map[string]string{"password": "recovered-password"})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// The recovery session is gone once the cycle completes.
	resp = do(t, client, http.MethodPatch, ts.URL+"/api/update", map[string]string{"password": "another-password"})
	wantStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	// Old credential is dead, new one works.
	resp = do(t, client, http.MethodPost, ts.URL+"/api/login", map[string]string{
		"username": "admin1", "password": "admin-password",
	})
	wantStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
	resp = do(t, client, http.MethodPost, ts.URL+"/api/login", map[string]string{
		"username": "admin1", "password": "recovered-password",
	})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestChangeOwnPassword(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newClient(t)

	resp := do(t, client, http.MethodPost, ts.URL+"/api/setup", map[string]string{
		"name": "Admin Person", "username": "admin1", "email": "admin@example.com", "password": "admin-password",
	})
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()
	resp = do(t, client, http.MethodPost, ts.URL+"/api/login", map[string]string{
		"username": "admin1", "password": "admin-password",
	})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = do(t, client, http.MethodPatch, ts.URL+"/api/update-password", map[string]string{
		"currentPassword": "wrong-password", "newPassword": "next-password-1",
	})
	wantStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = do(t, client, http.MethodPatch, ts.URL+"/api/update-password", map[string]string{
		"currentPassword": "admin-password", "newPassword": "next-password-1",
	})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = do(t, client, http.MethodPost, ts.URL+"/api/login", map[string]string{
		"username": "admin1", "password": "next-password-1",
	})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newClient(t)

	resp := do(t, client, http.MethodGet, ts.URL+"/api/login", nil)
	wantStatus(t, resp, http.StatusMethodNotAllowed)
	resp.Body.Close()
}
