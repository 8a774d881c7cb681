package google

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"finboard/internal/config"
)

const clientJSON = `{"installed":{"client_id":"cid","client_secret":"secret",
"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token",
"redirect_uris":["http://localhost"]}}`

func TestOAuthConfig(t *testing.T) {
	oc, err := OAuthConfig(&config.Config{GoogleOAuthClientJSON: clientJSON, OAuthRedirectPort: "9999"})
	if err != nil {
		t.Fatalf("OAuthConfig() error = %v", err)
	}
	if oc.ClientID != "cid" {
		t.Errorf("ClientID = %q", oc.ClientID)
	}
	if oc.RedirectURL != "http://localhost:9999/callback" {
		t.Errorf("RedirectURL = %q", oc.RedirectURL)
	}

	if _, err := OAuthConfig(&config.Config{}); !errors.Is(err, config.ErrSheetsNotConfigured) {
		t.Errorf("expected ErrSheetsNotConfigured, got %v", err)
	}
}

func TestSaveAndLoadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if err := SaveToken(path, &oauth2.Token{AccessToken: "at", RefreshToken: "rt"}); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}
	tok, err := LoadToken(path)
	if err != nil {
		t.Fatalf("LoadToken() error = %v", err)
	}
	if tok.RefreshToken != "rt" {
		t.Errorf("RefreshToken = %q", tok.RefreshToken)
	}
	if _, err := LoadToken(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing token file")
	}
}

// promptWriter hands every write to the test.
type promptWriter chan string

func (p promptWriter) Write(b []byte) (int, error) {
	p <- string(b)
	return len(b), nil
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func TestAuthorize(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "the-code" {
			t.Errorf("code = %q", r.Form.Get("code"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"abc","token_type":"Bearer","refresh_token":"r","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	addr := freeAddr(t)
	oc := &oauth2.Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{AuthURL: "http://auth.invalid/auth", TokenURL: tokenSrv.URL},
		RedirectURL:  "http://" + addr + "/callback",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	prompt := make(promptWriter, 1)
	type result struct {
		tok *oauth2.Token
		err error
	}
	done := make(chan result, 1)
	go func() {
		tok, err := Authorize(ctx, oc, addr, prompt)
		done <- result{tok, err}
	}()

	var line string
	select {
	case line = <-prompt:
	case <-ctx.Done():
		t.Fatal("no consent URL printed")
	}
	consent, err := url.Parse(strings.TrimSpace(strings.SplitN(line, "\n", 2)[1]))
	if err != nil {
		t.Fatalf("parse consent URL: %v", err)
	}
	state := consent.Query().Get("state")

	resp, err := http.Get("http://" + addr + "/callback?code=wrong&state=forged")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("forged state status = %d", resp.StatusCode)
	}

	resp, err = http.Get("http://" + addr + "/callback?code=the-code&state=" + url.QueryEscape(state))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	r := <-done
	if r.err != nil {
		t.Fatalf("Authorize() error = %v", r.err)
	}
	if r.tok.AccessToken != "abc" {
		t.Errorf("AccessToken = %q", r.tok.AccessToken)
	}
}

func TestAuthorizeDenied(t *testing.T) {
	addr := freeAddr(t)
	oc := &oauth2.Config{Endpoint: oauth2.Endpoint{AuthURL: "http://auth.invalid/auth"}}

	prompt := make(promptWriter, 1)
	done := make(chan error, 1)
	go func() {
		_, err := Authorize(context.Background(), oc, addr, prompt)
		done <- err
	}()
	<-prompt

	resp, err := http.Get("http://" + addr + "/callback?error=access_denied")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if err := <-done; err == nil || !strings.Contains(err.Error(), "access_denied") {
		t.Errorf("expected denial error, got %v", err)
	}
}
