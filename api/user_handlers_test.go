package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func signupRequest(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	fw, err := mw.CreateFormFile("image", "avatar.jpg")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte("avatar-bytes"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/users/signup", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSignup(t *testing.T) {
	valid := map[string]string{
		"name":     "Max",
		"email":    "a@b.com",
		"password": "secret1",
	}

	t.Run("creates user and returns a token", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, signupRequest(t, valid))
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}

		var body map[string]string
		decodeBody(t, rec, &body)
		if body["userId"] == "" || body["token"] == "" || body["email"] != "a@b.com" {
			t.Errorf("unexpected signup response: %v", body)
		}

		callerID, err := parseToken(testSecret, body["token"])
		if err != nil || callerID != body["userId"] {
			t.Errorf("token subject = %q (err %v), want %q", callerID, err, body["userId"])
		}

		user, err := env.db.GetUser(context.Background(), body["userId"])
		if err != nil {
			t.Fatalf("user not stored: %v", err)
		}
		if user.Password == "secret1" {
			t.Error("password stored in plaintext")
		}
		if !CheckPasswordHash("secret1", user.Password) {
			t.Error("stored hash does not verify against the password")
		}
	})

	t.Run("duplicate email fails atomically", func(t *testing.T) {
		env := newTestEnv(t)
		env.db.addUser("Existing", "a@b.com")

		rec := env.do(t, signupRequest(t, valid))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}
		if len(env.db.users) != 1 {
			t.Errorf("user count = %d, want 1", len(env.db.users))
		}
		// the stored avatar must not survive the failed signup
		if len(env.images.deleted) != 1 {
			t.Errorf("deleted uploads = %v, want one entry", env.images.deleted)
		}
	})

	t.Run("short password", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, signupRequest(t, map[string]string{
			"name":     "Max",
			"email":    "a@b.com",
			"password": "12345",
		}))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}
	})

	t.Run("missing image", func(t *testing.T) {
		env := newTestEnv(t)

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		for k, v := range valid {
			_ = mw.WriteField(k, v)
		}
		_ = mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/users/signup", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		if rec := env.do(t, req); rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}
	})
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, signupRequest(t, map[string]string{
		"name":     "Max",
		"email":    "a@b.com",
		"password": "secret1",
	})); rec.Code != http.StatusCreated {
		t.Fatalf("signup failed: %d %s", rec.Code, rec.Body.String())
	}

	login := func(t *testing.T, body string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return env.do(t, req)
	}

	t.Run("valid credentials", func(t *testing.T) {
		rec := login(t, `{"email":"a@b.com","password":"secret1"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		var body map[string]string
		decodeBody(t, rec, &body)
		if body["token"] == "" {
			t.Error("login response carries no token")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if rec := login(t, `{"email":"a@b.com","password":"wrong"}`); rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		if rec := login(t, `{"email":"x@y.com","password":"secret1"}`); rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})
}

func TestListUsersHidesPasswords(t *testing.T) {
	env := newTestEnv(t)
	user := env.db.addUser("Max", "a@b.com")
	user.Password = "$2a$10$somehash"

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "somehash") || strings.Contains(rec.Body.String(), "password") {
		t.Errorf("response leaks password material: %s", rec.Body.String())
	}
}
