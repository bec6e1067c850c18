package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	accountdomain "contaplus/backend/internal/account/domain"
	companydomain "contaplus/backend/internal/company/domain"
	profiledomain "contaplus/backend/internal/profile/domain"
	"contaplus/backend/internal/security"
	sessiondomain "contaplus/backend/internal/session/domain"
)

type memAccountRepo struct {
	mu      sync.Mutex
	byID    map[string]*accountdomain.Account
	byEmail map[string]*accountdomain.Account
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{
		byID:    map[string]*accountdomain.Account{},
		byEmail: map[string]*accountdomain.Account{},
	}
}

func (r *memAccountRepo) GetByID(ctx context.Context, id string) (*accountdomain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memAccountRepo) GetByEmail(ctx context.Context, email string) (*accountdomain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEmail[email], nil
}

func (r *memAccountRepo) GetByVerificationToken(ctx context.Context, tokenHash string) (*accountdomain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.VerificationTokenHash == tokenHash && a.VerificationTokenHash != "" {
			return a, nil
		}
	}
	return nil, nil
}

func (r *memAccountRepo) Create(ctx context.Context, a *accountdomain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[a.ID] = a
	r.byEmail[a.Email] = a
	return nil
}

func (r *memAccountRepo) MarkEmailVerified(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.byID[id]; ok {
		a.EmailVerifiedAt = &at
		a.VerificationTokenHash = ""
		a.VerificationExpiresAt = nil
	}
	return nil
}

type memProfileRepo struct {
	mu sync.Mutex
	m  map[string]*profiledomain.Profile
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{m: map[string]*profiledomain.Profile{}}
}

func (r *memProfileRepo) GetByID(ctx context.Context, id string) (*profiledomain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[id], nil
}

func (r *memProfileRepo) Create(ctx context.Context, p *profiledomain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[p.ID] = p
	return nil
}

type memCompanyRepo struct {
	mu sync.Mutex
	m  map[string]*companydomain.Company
}

func newMemCompanyRepo() *memCompanyRepo {
	return &memCompanyRepo{m: map[string]*companydomain.Company{}}
}

func (r *memCompanyRepo) Create(ctx context.Context, c *companydomain.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[c.ID] = c
	return nil
}

type memSessionRepo struct {
	mu     sync.Mutex
	byHash map[string]*sessiondomain.Session
	byID   map[string]*sessiondomain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{
		byHash: map[string]*sessiondomain.Session{},
		byID:   map[string]*sessiondomain.Session{},
	}
}

func (r *memSessionRepo) GetByRefreshTokenHash(ctx context.Context, hash string) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byHash[hash], nil
}

func (r *memSessionRepo) Create(ctx context.Context, s *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byHash[s.RefreshTokenHash] = s
	r.byID[s.ID] = s
	return nil
}

func (r *memSessionRepo) Revoke(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok && s.RevokedAt == nil {
		now := time.Now().UTC()
		s.RevokedAt = &now
	}
	return nil
}

type memMailer struct {
	mu   sync.Mutex
	sent []string // tokens
	to   []string
}

func (m *memMailer) SendVerification(ctx context.Context, toEmail, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = append(m.to, toEmail)
	m.sent = append(m.sent, token)
	return nil
}

type fixture struct {
	svc      *AuthService
	accounts *memAccountRepo
	profiles *memProfileRepo
	company  *memCompanyRepo
	sessions *memSessionRepo
	mailer   *memMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	accounts := newMemAccountRepo()
	profiles := newMemProfileRepo()
	company := newMemCompanyRepo()
	sessions := newMemSessionRepo()
	mailer := &memMailer{}
	hasher := security.NewHasher(4) // min cost for fast tests
	tokens := security.NewTokenProvider([]byte("test-secret"), "test-issuer", 15*time.Minute)
	svc := NewAuthService(accounts, profiles, company, sessions, hasher, tokens, mailer,
		30*24*time.Hour, 24*time.Hour)
	return &fixture{svc: svc, accounts: accounts, profiles: profiles, company: company, sessions: sessions, mailer: mailer}
}

// registerVerified registers an account and marks it verified, returning its email.
func (f *fixture) registerVerified(t *testing.T, email, password string) *RegisterResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), RegisterParams{
		Email:           email,
		Password:        password,
		FirstName:       "Alice",
		PaternalSurname: "Rojas",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(f.mailer.sent) == 0 {
		t.Fatal("no verification mail dispatched")
	}
	token := f.mailer.sent[len(f.mailer.sent)-1]
	if _, err := f.svc.VerifyEmail(context.Background(), token); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	return res
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	params := RegisterParams{Email: "alice@x.com", Password: "Secret123", FirstName: "Alice"}
	if _, err := f.svc.Register(ctx, params); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := f.svc.Register(ctx, params); !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Errorf("duplicate Register: want ErrEmailAlreadyRegistered, got %v", err)
	}
}

func TestRegister_CreatesCompanyProfileAndUnverifiedAdmin(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Register(context.Background(), RegisterParams{
		Email: "Alice@X.com ", Password: "Secret123", FirstName: "Alice", PaternalSurname: "Rojas",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.Email != "alice@x.com" {
		t.Errorf("email not normalized: %q", res.Email)
	}
	acc := f.accounts.byEmail["alice@x.com"]
	if acc == nil {
		t.Fatal("account not persisted")
	}
	if acc.Role != accountdomain.RoleAdmin {
		t.Errorf("role = %v, want admin", acc.Role)
	}
	if acc.Verified() {
		t.Error("fresh account must be unverified")
	}
	if acc.VerificationTokenHash == "" || acc.VerificationExpiresAt == nil {
		t.Error("pending verification token missing")
	}
	if acc.PasswordHash == "Secret123" {
		t.Error("password stored in plaintext")
	}
	if f.company.m[res.CompanyID] == nil {
		t.Error("company not persisted")
	}
	if f.profiles.m[res.ProfileID] == nil {
		t.Error("profile not persisted")
	}
}

func TestVerifyEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Register(ctx, RegisterParams{Email: "bob@x.com", Password: "Secret123"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token := f.mailer.sent[0]

	email, err := f.svc.VerifyEmail(ctx, token)
	if err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if email != "bob@x.com" {
		t.Errorf("email = %q", email)
	}
	acc := f.accounts.byEmail["bob@x.com"]
	if !acc.Verified() {
		t.Error("account not marked verified")
	}
	if acc.VerificationTokenHash != "" {
		t.Error("verification token not cleared")
	}

	// Single use: the same token must now be rejected.
	if _, err := f.svc.VerifyEmail(ctx, token); !errors.Is(err, ErrInvalidVerificationToken) {
		t.Errorf("reused token: want ErrInvalidVerificationToken, got %v", err)
	}
}

func TestVerifyEmail_UnknownToken(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.VerifyEmail(context.Background(), "no-such-token"); !errors.Is(err, ErrInvalidVerificationToken) {
		t.Errorf("want ErrInvalidVerificationToken, got %v", err)
	}
}

func TestVerifyEmail_ExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Register(ctx, RegisterParams{Email: "bob@x.com", Password: "Secret123"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token := f.mailer.sent[0]

	f.svc.now = func() time.Time { return time.Now().UTC().Add(25 * time.Hour) }
	if _, err := f.svc.VerifyEmail(ctx, token); !errors.Is(err, ErrVerificationTokenExpired) {
		t.Errorf("want ErrVerificationTokenExpired, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	reg := f.registerVerified(t, "alice@x.com", "Secret123")

	res, err := f.svc.Login(context.Background(), "alice@x.com", "Secret123",
		ClientInfo{UserAgent: "go-test", IP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatal("token pair incomplete")
	}
	if res.AccountID != reg.AccountID || res.CompanyID != reg.CompanyID {
		t.Errorf("result ids = %q/%q, want %q/%q", res.AccountID, res.CompanyID, reg.AccountID, reg.CompanyID)
	}
	if res.Role != accountdomain.RoleAdmin {
		t.Errorf("role = %v", res.Role)
	}

	// The persisted session's hash must match the disclosed raw token.
	sess := f.sessions.byHash[security.HashRefreshToken(res.RefreshToken)]
	if sess == nil {
		t.Fatal("no session stored under the refresh token hash")
	}
	if sess.AccountID != reg.AccountID {
		t.Errorf("session account = %q", sess.AccountID)
	}
	if sess.UserAgent != "go-test" || sess.IP != "10.0.0.1" {
		t.Errorf("client metadata = %q/%q", sess.UserAgent, sess.IP)
	}
	if got, want := sess.ExpiresAt, sess.CreatedAt.Add(30*24*time.Hour); !got.Equal(want) {
		t.Errorf("ExpiresAt = %v, want CreatedAt + refresh TTL (%v)", got, want)
	}
	if !sess.ExpiresAt.After(sess.CreatedAt) {
		t.Error("session expiry not after creation")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t, "alice@x.com", "Secret123")

	if _, err := f.svc.Login(context.Background(), "alice@x.com", "wrong", ClientInfo{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("want ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Login(context.Background(), "ghost@x.com", "Secret123", ClientInfo{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("want ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnverifiedEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Register(ctx, RegisterParams{Email: "carol@x.com", Password: "Secret123"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := f.svc.Login(ctx, "carol@x.com", "Secret123", ClientInfo{}); !errors.Is(err, ErrEmailNotVerified) {
		t.Errorf("want ErrEmailNotVerified, got %v", err)
	}
}

func TestRefresh_Success(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t, "alice@x.com", "Secret123")
	res, err := f.svc.Login(context.Background(), "alice@x.com", "Secret123", ClientInfo{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	access, err := f.svc.Refresh(context.Background(), res.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if access == "" {
		t.Fatal("empty access token")
	}
	// Refreshed token carries current role and company claims.
	id, err := security.NewTokenProvider([]byte("test-secret"), "test-issuer", 15*time.Minute).ValidateAccess(access)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if id.AccountID != res.AccountID || id.CompanyID != res.CompanyID || id.Role != int16(accountdomain.RoleAdmin) {
		t.Errorf("claims = %+v", id)
	}
}

func TestRefresh_FabricatedToken(t *testing.T) {
	f := newFixture(t)
	fabricated, _ := security.GenerateRefreshToken()
	if _, err := f.svc.Refresh(context.Background(), fabricated); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("want ErrInvalidRefreshToken, got %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), ""); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("empty token: want ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRefresh_RevokedSession(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t, "alice@x.com", "Secret123")
	res, _ := f.svc.Login(context.Background(), "alice@x.com", "Secret123", ClientInfo{})

	if err := f.svc.Logout(context.Background(), res.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), res.RefreshToken); !errors.Is(err, ErrRefreshTokenRevoked) {
		t.Errorf("want ErrRefreshTokenRevoked, got %v", err)
	}
}

func TestRefresh_ExpiredSession(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t, "alice@x.com", "Secret123")
	res, _ := f.svc.Login(context.Background(), "alice@x.com", "Secret123", ClientInfo{})

	// 31 days later: past the 30-day session lifetime.
	f.svc.now = func() time.Time { return time.Now().UTC().Add(31 * 24 * time.Hour) }
	if _, err := f.svc.Refresh(context.Background(), res.RefreshToken); !errors.Is(err, ErrRefreshTokenExpired) {
		t.Errorf("want ErrRefreshTokenExpired, got %v", err)
	}

	// One day in is still fine.
	f.svc.now = func() time.Time { return time.Now().UTC().Add(24 * time.Hour) }
	if _, err := f.svc.Refresh(context.Background(), res.RefreshToken); err != nil {
		t.Errorf("Refresh at +1d: %v", err)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t, "alice@x.com", "Secret123")
	res, _ := f.svc.Login(context.Background(), "alice@x.com", "Secret123", ClientInfo{})

	if err := f.svc.Logout(context.Background(), res.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	sess := f.sessions.byHash[security.HashRefreshToken(res.RefreshToken)]
	if sess.RevokedAt == nil {
		t.Fatal("session not revoked")
	}
	first := *sess.RevokedAt

	// Second revocation is not an error and keeps the original timestamp.
	if err := f.svc.Logout(context.Background(), res.RefreshToken); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	if !sess.RevokedAt.Equal(first) {
		t.Error("revocation timestamp changed on second logout")
	}
}

func TestLogout_UnknownTokenIsNoop(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.Logout(context.Background(), "never-issued"); err != nil {
		t.Errorf("Logout unknown token: %v", err)
	}
	if err := f.svc.Logout(context.Background(), ""); err != nil {
		t.Errorf("Logout empty token: %v", err)
	}
}

func TestLogin_ConcurrentSessionsUnbounded(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t, "alice@x.com", "Secret123")

	ctx := context.Background()
	r1, err := f.svc.Login(ctx, "alice@x.com", "Secret123", ClientInfo{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	r2, err := f.svc.Login(ctx, "alice@x.com", "Secret123", ClientInfo{})
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if r1.RefreshToken == r2.RefreshToken {
		t.Fatal("two logins issued the same refresh token")
	}
	// Both sessions stay valid; no device cap.
	if _, err := f.svc.Refresh(ctx, r1.RefreshToken); err != nil {
		t.Errorf("Refresh first session: %v", err)
	}
	if _, err := f.svc.Refresh(ctx, r2.RefreshToken); err != nil {
		t.Errorf("Refresh second session: %v", err)
	}
}

func TestRegister_RejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := []struct {
		name  string
		email string
		pass  string
	}{
		{"empty email", "", "Secret123"},
		{"bad email", "not-an-email", "Secret123"},
		{"short password", "dave@x.com", "short"},
		{"overlong password", "erin@x.com", strings.Repeat("a", 73)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, RegisterParams{Email: tc.email, Password: tc.pass})
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("want ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestRefresh_MismatchedStoredHashRejected(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t, "alice@x.com", "Secret123")

	// A row that the lookup finds but whose stored fingerprint does not match
	// the presented token must be treated as invalid.
	token, _ := security.GenerateRefreshToken()
	now := time.Now().UTC()
	bad := &sessiondomain.Session{
		ID:               "tampered",
		AccountID:        "acc-x",
		RefreshTokenHash: security.HashRefreshToken("some-other-token"),
		CreatedAt:        now,
		ExpiresAt:        now.Add(time.Hour),
	}
	f.sessions.mu.Lock()
	f.sessions.byHash[security.HashRefreshToken(token)] = bad
	f.sessions.byID[bad.ID] = bad
	f.sessions.mu.Unlock()

	if _, err := f.svc.Refresh(context.Background(), token); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("want ErrInvalidRefreshToken, got %v", err)
	}
	if err := f.svc.Logout(context.Background(), token); err != nil {
		t.Errorf("Logout on tampered row: %v", err)
	}
	if bad.RevokedAt != nil {
		t.Error("tampered row must not be revoked via a non-matching token")
	}
}
