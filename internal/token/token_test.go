package token_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JaimeStill/docriver/internal/token"
	"github.com/JaimeStill/docriver/pkg/docriver"
	"github.com/JaimeStill/docriver/pkg/submission"
)

func request(t *testing.T, fields map[string]string, files int) submission.Request {
	t.Helper()
	var req submission.Request
	for k, v := range fields {
		req.Add(k, v)
	}
	for range files {
		req.Attach(submission.FieldFiles, submission.BytesAttachment("a.pdf", "application/pdf", []byte("%PDF")))
	}
	return req
}

func enrich(t *testing.T, h submission.Hook, req submission.Request) (submission.Enrichment, error) {
	t.Helper()
	var (
		got submission.Enrichment
		err error
	)
	done := make(chan struct{})
	h.Enrich(context.Background(), req, func(e submission.Enrichment, e2 error) {
		got, err = e, e2
		close(done)
	})
	<-done
	return got, err
}

func TestParsePermissions(t *testing.T) {
	perms, err := token.ParsePermissions([]string{"realm:p.*", "document:a:b"})
	if err != nil {
		t.Fatal(err)
	}
	if perms["realm"] != "p.*" || perms["document"] != "a:b" {
		t.Errorf("got %v", perms)
	}

	if _, err := token.ParsePermissions([]string{"novalue"}); !errors.Is(err, token.ErrInvalidPermission) {
		t.Errorf("expected ErrInvalidPermission, got %v", err)
	}
}

func TestForSubmit(t *testing.T) {
	req := request(t, map[string]string{
		submission.FieldTx:              "T-1",
		submission.FieldRefResourceType: "claim",
		submission.FieldRefResourceID:   "C-100",
	}, 2)

	base := token.Permissions{"realm": "p1"}
	perms := token.ForSubmit(base, req)

	want := token.Permissions{
		"realm":         "p1",
		"txType":        "submit",
		"documentCount": "2",
		"tx":            "T-1",
		"resourceType":  "claim",
		"resourceId":    "C-100",
	}
	for k, v := range want {
		if perms[k] != v {
			t.Errorf("%s: got %q, want %q", k, perms[k], v)
		}
	}
	if _, ok := base["txType"]; ok {
		t.Error("base permissions mutated")
	}
}

func TestIssuerHS256(t *testing.T) {
	cfg := &token.Config{Mode: token.ModeJWT, Algorithm: "HS256", Secret: "s3cret", Subject: "alice"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	h, err := token.NewHook(cfg, nil, slog.Default())
	if err != nil {
		t.Fatal(err)
	}

	e, err := enrich(t, h, request(t, nil, 1))
	if err != nil {
		t.Fatal(err)
	}

	auth := e[submission.FieldAuthorization]
	raw, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		t.Fatalf("authorization: got %q", auth)
	}

	claims := &token.Claims{}
	_, err = jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte("s3cret"), nil
	}, jwt.WithAudience("docriver"), jwt.WithIssuer("docriver"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"subject", claims.Subject, "alice"},
		{"resource", claims.Resource, "document"},
		{"txType", claims.Permissions["txType"], "submit"},
		{"documentCount", claims.Permissions["documentCount"], "1"},
		{"tx", claims.Permissions["tx"], e[submission.FieldTx]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
	if e[submission.FieldTx] == "" {
		t.Error("tx not assigned")
	}
	if claims.ExpiresAt.Sub(claims.IssuedAt.Time).Seconds() != 60 {
		t.Errorf("lifetime: got %v", claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	}
}

func TestIssuerRS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "key.pem")
	block := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	if err := os.WriteFile(path, block, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := &token.Config{Mode: token.ModeJWT, KeyFile: path, Subject: "svc", Issuer: "realm1"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	iss, err := token.NewIssuer(cfg)
	if err != nil {
		t.Fatal(err)
	}

	signed, _, err := iss.Issue(token.Permissions{"txType": "submit", "tx": "T-9"})
	if err != nil {
		t.Fatal(err)
	}

	claims := &token.Claims{}
	if _, err := jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"RS256"})); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Issuer != "realm1" || claims.Permissions["tx"] != "T-9" {
		t.Errorf("claims: %+v", claims)
	}
}

func TestServerSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if r.URL.Path != "/token" || !ok || user != "alice" || pass != "pw" {
			http.Error(w, `{"error":"Authorizaton failed"}`, http.StatusForbidden)
			return
		}

		var body struct {
			Audience    string            `json:"audience"`
			Permissions map[string]string `json:"permissions"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		body.Permissions["tx"] = "server-tx"

		json.NewEncoder(w).Encode(map[string]any{
			"authorization": "Bearer issued",
			"token":         map[string]any{"permissions": body.Permissions},
		})
	}))
	defer srv.Close()

	t.Run("granted", func(t *testing.T) {
		cfg := &token.Config{Mode: token.ModeServer, ServerURL: srv.URL, Subject: "alice", Secret: "pw"}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatal(err)
		}
		h, err := token.NewHook(cfg, srv.Client(), slog.Default())
		if err != nil {
			t.Fatal(err)
		}

		e, err := enrich(t, h, request(t, nil, 1))
		if err != nil {
			t.Fatal(err)
		}
		if e[submission.FieldAuthorization] != "Bearer issued" || e[submission.FieldTx] != "server-tx" {
			t.Errorf("got %v", e)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		cfg := &token.Config{Mode: token.ModeServer, ServerURL: srv.URL, Subject: "mallory"}
		cfg.Finalize(nil)
		src := token.NewServerSource(cfg, srv.Client())

		_, err := src.Grant(context.Background(), token.Permissions{})
		if !errors.Is(err, token.ErrTokenRejected) {
			t.Errorf("expected ErrTokenRejected, got %v", err)
		}
	})
}

func TestOIDCSource(t *testing.T) {
	var issuer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/.well-known/openid-configuration":
			json.NewEncoder(w).Encode(map[string]any{
				"issuer":                 issuer,
				"authorization_endpoint": issuer + "/authorize",
				"token_endpoint":         issuer + "/token",
				"jwks_uri":               issuer + "/keys",
			})
		case "/token":
			r.ParseForm()
			if r.Form.Get("grant_type") != "client_credentials" || r.Form.Get("audience") != "docriver" {
				http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
				return
			}
			w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":60}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	issuer = srv.URL

	cfg := &token.Config{Mode: token.ModeOIDC, IssuerURL: srv.URL, ClientID: "drc", ClientSecret: "cs"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	h, err := token.NewHook(cfg, srv.Client(), slog.Default())
	if err != nil {
		t.Fatal(err)
	}

	e, err := enrich(t, h, request(t, map[string]string{submission.FieldTx: "T-5"}, 1))
	if err != nil {
		t.Fatal(err)
	}
	if e[submission.FieldAuthorization] != "Bearer at-1" {
		t.Errorf("authorization: got %q", e[submission.FieldAuthorization])
	}
	if _, ok := e[submission.FieldTx]; ok {
		t.Error("oidc source must not assign tx")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  token.Config
		want error
	}{
		{"disabled", token.Config{}, nil},
		{"jwt without key", token.Config{Mode: token.ModeJWT, Subject: "a"}, token.ErrInvalidConfig},
		{"jwt without subject", token.Config{Mode: token.ModeJWT, Algorithm: "HS256", Secret: "x"}, token.ErrInvalidConfig},
		{"jwt hs256", token.Config{Mode: token.ModeJWT, Algorithm: "hs256", Secret: "x", Subject: "a"}, nil},
		{"bad algorithm", token.Config{Mode: token.ModeJWT, Algorithm: "none", Subject: "a"}, token.ErrInvalidConfig},
		{"server without url", token.Config{Mode: token.ModeServer, Subject: "a"}, token.ErrInvalidConfig},
		{"oidc", token.Config{Mode: token.ModeOIDC, IssuerURL: "https://idp", ClientID: "c"}, nil},
		{"oidc without client", token.Config{Mode: token.ModeOIDC, IssuerURL: "https://idp"}, token.ErrInvalidConfig},
		{"unknown mode", token.Config{Mode: "kerberos"}, token.ErrUnknownMode},
		{"bad permission", token.Config{Permissions: []string{"x"}}, token.ErrInvalidPermission},
		{"bad expires", token.Config{Expires: "soon"}, token.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewHookDisabled(t *testing.T) {
	h, err := token.NewHook(&token.Config{}, nil, slog.Default())
	if err != nil || h != nil {
		t.Errorf("got %v, %v", h, err)
	}
}

func TestInstall(t *testing.T) {
	hook := submission.SyncHook(func(context.Context, submission.Request) (submission.Enrichment, error) {
		return nil, nil
	})

	tests := []struct {
		name       string
		hook       submission.Hook
		onSubmit   string
		registered bool
		direct     bool
	}{
		{"no hook", nil, "", false, false},
		{"direct", hook, "", true, true},
		{"selected by name", hook, token.HookName, true, false},
		{"other hook selected", hook, "audit", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, direct := token.Install(tt.hook, tt.onSubmit)
			_, err := reg.Hook(token.HookName)
			if (err == nil) != tt.registered {
				t.Errorf("registered: got %v, want %v", err == nil, tt.registered)
			}
			if (direct != nil) != tt.direct {
				t.Errorf("direct: got %v, want %v", direct != nil, tt.direct)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	if auth, err := token.Authorize(context.Background(), &token.Config{}, nil, token.ForEvents); err != nil || auth != "" {
		t.Fatalf("disabled: got %q, %v", auth, err)
	}

	cfg := &token.Config{Mode: token.ModeJWT, Algorithm: "HS256", Secret: "s3cret", Subject: "drc", Permissions: []string{"realm:p1"}}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	auth, err := token.Authorize(context.Background(), cfg, nil, func(base token.Permissions) token.Permissions {
		return token.ForDocument(base, "d1")
	})
	if err != nil {
		t.Fatal(err)
	}

	claims := &token.Claims{}
	_, err = jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), claims, func(*jwt.Token) (any, error) {
		return []byte("s3cret"), nil
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := token.Permissions{"realm": "p1", "txType": "get-document", "document": "d1"}
	for k, v := range want {
		if claims.Permissions[k] != v {
			t.Errorf("%s: got %q, want %q", k, claims.Permissions[k], v)
		}
	}
}

func viewParams(t *testing.T, hook docriver.ViewHook, document string) docriver.ViewParams {
	t.Helper()
	var got docriver.ViewParams
	called := 0
	hook(context.Background(), document, func(p docriver.ViewParams) {
		called++
		got = p
	})
	if called != 1 {
		t.Fatalf("done called %d times", called)
	}
	return got
}

func TestNewViewHook(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		hook, err := token.NewViewHook(&token.Config{}, nil, slog.Default())
		if err != nil || hook != nil {
			t.Fatalf("got hook %v, err %v", hook != nil, err)
		}
	})

	t.Run("jwt", func(t *testing.T) {
		cfg := &token.Config{Mode: token.ModeJWT, Algorithm: "HS256", Secret: "s3cret", Subject: "viewer", Permissions: []string{"realm:p1"}}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatal(err)
		}
		hook, err := token.NewViewHook(cfg, nil, slog.Default())
		if err != nil {
			t.Fatal(err)
		}

		p := viewParams(t, hook, "d1")
		claims := &token.Claims{}
		_, err = jwt.ParseWithClaims(strings.TrimPrefix(p["authorization"], "Bearer "), claims, func(*jwt.Token) (any, error) {
			return []byte("s3cret"), nil
		})
		if err != nil {
			t.Fatalf("parse %q: %v", p["authorization"], err)
		}
		if claims.Permissions["txType"] != "get-document" || claims.Permissions["document"] != "d1" || claims.Permissions["realm"] != "p1" {
			t.Errorf("permissions: got %v", claims.Permissions)
		}
	})

	t.Run("grant failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "denied", http.StatusForbidden)
		}))
		defer srv.Close()

		cfg := &token.Config{Mode: token.ModeServer, ServerURL: srv.URL, Subject: "alice"}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatal(err)
		}
		hook, err := token.NewViewHook(cfg, srv.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
		if err != nil {
			t.Fatal(err)
		}

		if p := viewParams(t, hook, "d1"); p["authorization"] != "" {
			t.Errorf("authorization: got %q", p["authorization"])
		}
	})
}
