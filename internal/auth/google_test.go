package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"review-analyzer/internal/shared/server/middleware"
	"review-analyzer/internal/users"
)

func fakeGoogle(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"42","email":"g@example.com","name":"G User"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleCallbackUpsertsUserAndSetsCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := fakeGoogle(t)
	svc, _, repo := newTestService(t)
	g := NewGoogleService("cid", "secret", "http://localhost/auth/google/callback", "/", svc, users.NewService(repo), false)
	g.oauthConfig.Endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	g.userInfoURL = srv.URL + "/userinfo"

	router := gin.New()
	g.RegisterRoutes(&router.RouterGroup)

	start := httptest.NewRecorder()
	router.ServeHTTP(start, httptest.NewRequest(http.MethodGet, "/auth/google/start", nil))
	if start.Code != http.StatusFound {
		t.Fatalf("expected redirect from start, got %d", start.Code)
	}
	loc, _ := url.Parse(start.Header().Get("Location"))
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatalf("expected state in auth url")
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state="+state+"&code=c", nil))
	if resp.Code != http.StatusFound || resp.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect to /, got %d %q", resp.Code, resp.Header().Get("Location"))
	}

	var session string
	for _, ck := range resp.Result().Cookies() {
		if ck.Name == middleware.SessionCookie {
			session = ck.Value
		}
	}
	if session == "" {
		t.Fatalf("expected session cookie")
	}
	id, err := svc.ResolveSession(context.Background(), session)
	if err != nil || id.UserID != "google:42" {
		t.Fatalf("unexpected identity %+v %v", id, err)
	}
	stored, err := repo.GetByID(context.Background(), "google:42")
	if err != nil || !stored.Confirmed() || stored.Provider != users.ProviderGoogle {
		t.Fatalf("unexpected stored user %+v %v", stored, err)
	}
}

func TestGoogleCallbackRejectsUnknownState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _, repo := newTestService(t)
	g := NewGoogleService("cid", "secret", "http://localhost/cb", "/", svc, users.NewService(repo), false)
	router := gin.New()
	g.RegisterRoutes(&router.RouterGroup)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=nope&code=c", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
