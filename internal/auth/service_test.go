package auth

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	sharedauth "review-analyzer/internal/shared/auth"
	"review-analyzer/internal/users"
)

type captureMailer struct {
	links []string
}

func (m *captureMailer) SendConfirmation(ctx context.Context, email, link string) error {
	m.links = append(m.links, link)
	return nil
}

func newTestService(t *testing.T) (*Service, *captureMailer, *users.MemoryRepo) {
	t.Helper()
	repo := users.NewMemoryRepo()
	mailer := &captureMailer{}
	core, _ := observer.New(zapcore.DebugLevel)
	svc := NewService(repo, sharedauth.NewSigner([]byte("test-secret")), NewMemoryRevoker(), mailer, zap.New(core))
	return svc, mailer, repo
}

func signUp(t *testing.T, svc *Service, email, password string) {
	t.Helper()
	err := svc.SignUp(context.Background(), SignUpInput{
		Email:           email,
		Password:        password,
		ConfirmPassword: password,
		RedirectTo:      "http://localhost:8080/auth/callback",
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	return u.Query().Get("token")
}

func TestSignUpValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	cases := []struct {
		in   SignUpInput
		want string
	}{
		{SignUpInput{Email: "a@example.com", Password: "secret1"}, MsgFillAllFields},
		{SignUpInput{Email: "a@example.com", Password: "secret1", ConfirmPassword: "secret2", RedirectTo: "/x"}, MsgPasswordsDiffer},
		{SignUpInput{Email: "a@example.com", Password: "abc", ConfirmPassword: "abc", RedirectTo: "/x"}, MsgPasswordTooShort},
	}
	for _, tc := range cases {
		err := svc.SignUp(context.Background(), tc.in)
		if got := UserMessage(err); got != tc.want {
			t.Fatalf("SignUp(%+v): got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	signUp(t, svc, "a@example.com", "secret1")
	err := svc.SignUp(context.Background(), SignUpInput{
		Email: "a@example.com", Password: "secret1", ConfirmPassword: "secret1", RedirectTo: "/auth/callback",
	})
	if !errors.Is(err, ErrUserExists) || UserMessage(err) != "User already registered" {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestSignInRequiresConfirmation(t *testing.T) {
	svc, mailer, repo := newTestService(t)
	signUp(t, svc, "a@example.com", "secret1")

	_, err := svc.SignIn(context.Background(), "a@example.com", "secret1")
	if !errors.Is(err, ErrEmailNotConfirmed) {
		t.Fatalf("expected ErrEmailNotConfirmed, got %v", err)
	}
	if UserMessage(err) != MsgConfirmEmailFirst {
		t.Fatalf("unexpected message %q", UserMessage(err))
	}

	if len(mailer.links) != 1 {
		t.Fatalf("expected one confirmation link, got %d", len(mailer.links))
	}
	user, err := svc.Confirm(context.Background(), tokenFromLink(t, mailer.links[0]))
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	stored, _ := repo.GetByID(context.Background(), user.ID)
	if !stored.Confirmed() {
		t.Fatalf("expected user confirmed")
	}
	if stored.PasswordHash == "secret1" || stored.PasswordHash == "" {
		t.Fatalf("expected bcrypt hash to be stored")
	}

	sess, err := svc.SignIn(context.Background(), "a@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	current, err := svc.CurrentUser(context.Background(), sess.Token)
	if err != nil || current.Email != "a@example.com" {
		t.Fatalf("CurrentUser: %+v %v", current, err)
	}
}

func TestSignInBadCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	signUp(t, svc, "a@example.com", "secret1")

	if _, err := svc.SignIn(context.Background(), "a@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.SignIn(context.Background(), "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
	_, err := svc.SignIn(context.Background(), "", "")
	if UserMessage(err) != MsgMissingCredentials {
		t.Fatalf("unexpected message %q", UserMessage(err))
	}
}

func TestConfirmLinkIsSingleUse(t *testing.T) {
	svc, mailer, _ := newTestService(t)
	signUp(t, svc, "a@example.com", "secret1")
	token := tokenFromLink(t, mailer.links[0])

	if _, err := svc.Confirm(context.Background(), token); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	_, err := svc.Confirm(context.Background(), token)
	if !errors.Is(err, ErrInvalidLink) {
		t.Fatalf("expected ErrInvalidLink on replay, got %v", err)
	}
	if UserMessage(err) != ErrInvalidLink.Error() {
		t.Fatalf("unexpected message %q", UserMessage(err))
	}
}

func TestConfirmRejectsSessionToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	sess, err := svc.IssueSession(users.User{ID: "u1", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	if _, err := svc.Confirm(context.Background(), sess.Token); !errors.Is(err, ErrInvalidLink) {
		t.Fatalf("expected ErrInvalidLink, got %v", err)
	}
}

func TestSignOutRevokesSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	sess, _ := svc.IssueSession(users.User{ID: "u1", Email: "a@example.com"})

	if id, err := svc.ResolveSession(context.Background(), sess.Token); err != nil || id.UserID != "u1" {
		t.Fatalf("ResolveSession before sign-out: %+v %v", id, err)
	}
	if err := svc.SignOut(context.Background(), sess.Token); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, err := svc.ResolveSession(context.Background(), sess.Token); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected ErrRevoked, got %v", err)
	}
	if err := svc.SignOut(context.Background(), "garbage"); err != nil {
		t.Fatalf("SignOut with invalid token: %v", err)
	}
}
