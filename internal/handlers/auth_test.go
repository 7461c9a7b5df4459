package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HammerMeetNail/splitledger/internal/models"
)

const testGatewayToken = "gateway-secret"

func gatewayLogin(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(body))
	req.Header.Set(GatewayTokenHeader, testGatewayToken)
	return req
}

func TestSessionToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{name: "bearer header", header: "Bearer abc123", want: "abc123"},
		{name: "lowercase scheme", header: "bearer abc123", want: "abc123"},
		{name: "cookie", cookie: "cookie-token", want: "cookie-token"},
		{name: "header wins over cookie", header: "Bearer header-token", cookie: "cookie-token", want: "header-token"},
		{name: "other scheme falls back to cookie", header: "Basic dXNlcg==", cookie: "cookie-token", want: "cookie-token"},
		{name: "nothing", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			if got := SessionToken(req); got != tt.want {
				t.Errorf("SessionToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	var got models.Identity
	handler := NewAuthHandler(&mockAuthService{
		LoginFunc: func(ctx context.Context, identity models.Identity) (*models.User, string, error) {
			got = identity
			return &models.User{ID: identity.ID, Name: identity.Name, Email: identity.Email}, "tok", nil
		},
	}, true, testGatewayToken)

	body := `{"id":" auth0|alice ","name":"Alice","email":" Alice@Example.com "}`
	req := gatewayLogin(body)
	rr := httptest.NewRecorder()
	handler.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.ID != "auth0|alice" || got.Email != "alice@example.com" {
		t.Errorf("identity not normalized: %+v", got)
	}

	var response AuthResponse
	decodeBody(t, rr, &response)
	if response.User == nil || response.User.ID != "auth0|alice" {
		t.Fatalf("unexpected user in response: %+v", response.User)
	}
	if response.Token != "tok" {
		t.Errorf("expected token in response, got %q", response.Token)
	}

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookieName || cookies[0].Value != "tok" {
		t.Fatalf("expected session cookie, got %+v", cookies)
	}
	if !cookies[0].Secure || !cookies[0].HttpOnly {
		t.Error("expected secure, http-only session cookie")
	}
}

func TestAuthHandler_Login_Invalid(t *testing.T) {
	handler := NewAuthHandler(&mockAuthService{
		LoginFunc: func(ctx context.Context, identity models.Identity) (*models.User, string, error) {
			t.Fatal("Login should not be called for invalid input")
			return nil, "", nil
		},
	}, false, testGatewayToken)

	t.Run("malformed body", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.Login(rr, gatewayLogin("{"))
		assertErrorResponse(t, rr, http.StatusBadRequest, "Invalid request body")
	})

	t.Run("missing email", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.Login(rr, gatewayLogin(`{"id":"x"}`))
		assertErrorResponse(t, rr, http.StatusBadRequest, "Identity id and email are required")
	})
}

func TestAuthHandler_Login_RequiresGatewayToken(t *testing.T) {
	body := `{"id":"auth0|bob","email":"mallory@example.com"}`
	refuse := &mockAuthService{
		LoginFunc: func(ctx context.Context, identity models.Identity) (*models.User, string, error) {
			t.Fatal("Login must not reach the service without a trusted gateway")
			return nil, "", nil
		},
	}

	tests := []struct {
		name       string
		configured string
		presented  string
	}{
		{name: "missing header", configured: testGatewayToken},
		{name: "wrong header", configured: testGatewayToken, presented: "guess"},
		{name: "prefix of token", configured: testGatewayToken, presented: "gateway"},
		{name: "login disabled", configured: "", presented: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAuthHandler(refuse, false, tt.configured)
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(body))
			if tt.presented != "" {
				req.Header.Set(GatewayTokenHeader, tt.presented)
			}
			rr := httptest.NewRecorder()
			handler.Login(rr, req)

			assertErrorResponse(t, rr, http.StatusUnauthorized, "Authentication required")
			if len(rr.Result().Cookies()) != 0 {
				t.Error("no session cookie should be set")
			}
		})
	}
}

func TestAuthHandler_Login_ServiceError(t *testing.T) {
	handler := NewAuthHandler(&mockAuthService{
		LoginFunc: func(ctx context.Context, identity models.Identity) (*models.User, string, error) {
			return nil, "", errors.New("redis down and db down")
		},
	}, false, testGatewayToken)

	rr := httptest.NewRecorder()
	body := `{"id":"auth0|alice","email":"alice@example.com"}`
	handler.Login(rr, gatewayLogin(body))
	assertErrorResponse(t, rr, http.StatusInternalServerError, "Internal server error")
}

func TestAuthHandler_Logout(t *testing.T) {
	var deleted string
	handler := NewAuthHandler(&mockAuthService{
		DeleteSessionFunc: func(ctx context.Context, token string) error {
			deleted = token
			return nil
		},
	}, false, testGatewayToken)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr := httptest.NewRecorder()
	handler.Logout(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if deleted != "tok" {
		t.Errorf("expected session tok to be deleted, got %q", deleted)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected session cookie to be cleared, got %+v", cookies)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	handler := NewAuthHandler(&mockAuthService{}, false, testGatewayToken)

	t.Run("unauthenticated", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.Me(rr, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
		assertErrorResponse(t, rr, http.StatusUnauthorized, "Authentication required")
	})

	t.Run("authenticated", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.Me(rr, asUser(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), testAlice))

		var response AuthResponse
		decodeBody(t, rr, &response)
		if response.User == nil || response.User.Email != testAlice.Email {
			t.Errorf("unexpected user: %+v", response.User)
		}
	})
}
