package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	accountdomain "contaplus/backend/internal/account/domain"
	companydomain "contaplus/backend/internal/company/domain"
	"contaplus/backend/internal/mail"
	profiledomain "contaplus/backend/internal/profile/domain"
	"contaplus/backend/internal/security"
	sessiondomain "contaplus/backend/internal/session/domain"
)

// Sentinel errors for the auth service; the handler maps them to HTTP statuses.
var (
	ErrInvalidInput             = errors.New("invalid input")
	ErrEmailAlreadyRegistered   = errors.New("email already registered")
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrEmailNotVerified         = errors.New("email not verified")
	ErrInvalidRefreshToken      = errors.New("invalid refresh token")
	ErrRefreshTokenRevoked      = errors.New("refresh token revoked")
	ErrRefreshTokenExpired      = errors.New("refresh token expired")
	ErrInvalidVerificationToken = errors.New("invalid verification token")
	ErrVerificationTokenExpired = errors.New("verification token expired")
)

// ClientInfo is the request metadata recorded on the session for audit.
type ClientInfo struct {
	UserAgent string
	IP        string
}

// LoginResult holds the outcome of a successful Login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccountID    string
	CompanyID    string
	Role         accountdomain.Role
}

// RegisterResult holds the ids created by Register.
type RegisterResult struct {
	AccountID string
	ProfileID string
	CompanyID string
	Email     string
}

// RegisterParams are the inputs to Register.
type RegisterParams struct {
	Email           string
	Password        string
	FirstName       string
	PaternalSurname string
	MaternalSurname string
}

// AccountRepo is the minimal account repository needed by the auth service.
type AccountRepo interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Account, error)
	GetByEmail(ctx context.Context, email string) (*accountdomain.Account, error)
	GetByVerificationToken(ctx context.Context, tokenHash string) (*accountdomain.Account, error)
	Create(ctx context.Context, a *accountdomain.Account) error
	MarkEmailVerified(ctx context.Context, id string, at time.Time) error
}

// ProfileRepo is the minimal profile repository needed by the auth service.
type ProfileRepo interface {
	GetByID(ctx context.Context, id string) (*profiledomain.Profile, error)
	Create(ctx context.Context, p *profiledomain.Profile) error
}

// CompanyRepo is the minimal company repository needed by the auth service.
type CompanyRepo interface {
	Create(ctx context.Context, c *companydomain.Company) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetByRefreshTokenHash(ctx context.Context, hash string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Revoke(ctx context.Context, id string) error
}

// AuthService implements register, email verification, login, refresh, and logout.
type AuthService struct {
	accountRepo AccountRepo
	profileRepo ProfileRepo
	companyRepo CompanyRepo
	sessionRepo SessionRepo
	hasher      *security.Hasher
	tokens      *security.TokenProvider
	mailer      mail.Mailer
	refreshTTL  time.Duration
	verifyTTL   time.Duration
	now         func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	accountRepo AccountRepo,
	profileRepo ProfileRepo,
	companyRepo CompanyRepo,
	sessionRepo SessionRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	mailer mail.Mailer,
	refreshTTL, verifyTTL time.Duration,
) *AuthService {
	return &AuthService{
		accountRepo: accountRepo,
		profileRepo: profileRepo,
		companyRepo: companyRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		tokens:      tokens,
		mailer:      mailer,
		refreshTTL:  refreshTTL,
		verifyTTL:   verifyTTL,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an empty company, a profile, and an unverified admin account
// with the given email and password, then dispatches the verification mail.
// The account cannot log in until the email is verified.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (*RegisterResult, error) {
	email := strings.TrimSpace(strings.ToLower(p.Email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(p.Password); err != nil {
		return nil, err
	}
	existing, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}

	now := s.now()
	company := &companydomain.Company{
		ID:        uuid.New().String(),
		CreatedAt: now,
	}
	if err := s.companyRepo.Create(ctx, company); err != nil {
		return nil, err
	}
	profile := &profiledomain.Profile{
		ID:              uuid.New().String(),
		CompanyID:       company.ID,
		FirstName:       strings.TrimSpace(p.FirstName),
		PaternalSurname: strings.TrimSpace(p.PaternalSurname),
		MaternalSurname: strings.TrimSpace(p.MaternalSurname),
		CreatedAt:       now,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(p.Password)
	if err != nil {
		return nil, err
	}
	verifyToken, err := security.GenerateVerificationToken()
	if err != nil {
		return nil, err
	}
	verifyExpires := now.Add(s.verifyTTL)
	account := &accountdomain.Account{
		ID:                    uuid.New().String(),
		Email:                 email,
		PasswordHash:          hashed,
		Role:                  accountdomain.RoleAdmin,
		ProfileID:             profile.ID,
		VerificationTokenHash: security.HashVerificationToken(verifyToken),
		VerificationExpiresAt: &verifyExpires,
		CreatedAt:             now,
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	// Best effort: a lost mail is recoverable, a lost registration is not.
	_ = s.mailer.SendVerification(ctx, email, verifyToken)

	return &RegisterResult{
		AccountID: account.ID,
		ProfileID: profile.ID,
		CompanyID: company.ID,
		Email:     email,
	}, nil
}

// VerifyEmail consumes a pending verification token and marks the account's
// email as verified. The token is single use.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidVerificationToken
	}
	account, err := s.accountRepo.GetByVerificationToken(ctx, security.HashVerificationToken(token))
	if err != nil {
		return "", err
	}
	if account == nil {
		return "", ErrInvalidVerificationToken
	}
	now := s.now()
	if account.VerificationExpiresAt == nil || account.VerificationExpiresAt.Before(now) {
		return "", ErrVerificationTokenExpired
	}
	if err := s.accountRepo.MarkEmailVerified(ctx, account.ID, now); err != nil {
		return "", err
	}
	return account.Email, nil
}

// Login authenticates with email/password, creates a session, and returns the
// token pair. The raw refresh token is disclosed here exactly once.
func (s *AuthService) Login(ctx context.Context, email, password string, client ClientInfo) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(account.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !account.Verified() {
		return nil, ErrEmailNotVerified
	}

	companyID, err := s.companyIDFor(ctx, account)
	if err != nil {
		return nil, err
	}

	refreshToken, err := security.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	sess := &sessiondomain.Session{
		ID:               uuid.New().String(),
		AccountID:        account.ID,
		RefreshTokenHash: security.HashRefreshToken(refreshToken),
		UserAgent:        client.UserAgent,
		IP:               client.IP,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.refreshTTL),
	}
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, err
	}

	accessToken, _, err := s.tokens.IssueAccess(account.ID, companyID, int16(account.Role))
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccountID:    account.ID,
		CompanyID:    companyID,
		Role:         account.Role,
	}, nil
}

// Refresh exchanges a still-valid refresh token for a new access token. The
// refresh token itself is not rotated or extended; role and company are
// re-derived from the live account so refreshed tokens carry current claims.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrInvalidRefreshToken
	}
	sess, err := s.sessionRepo.GetByRefreshTokenHash(ctx, security.HashRefreshToken(refreshToken))
	if err != nil {
		return "", err
	}
	if sess == nil || !security.RefreshTokenHashEqual(refreshToken, sess.RefreshTokenHash) {
		return "", ErrInvalidRefreshToken
	}
	switch sess.StateAt(s.now()) {
	case sessiondomain.StateRevoked:
		return "", ErrRefreshTokenRevoked
	case sessiondomain.StateExpired:
		return "", ErrRefreshTokenExpired
	}

	account, err := s.accountRepo.GetByID(ctx, sess.AccountID)
	if err != nil {
		return "", err
	}
	if account == nil {
		return "", ErrInvalidRefreshToken
	}
	companyID, err := s.companyIDFor(ctx, account)
	if err != nil {
		return "", err
	}
	accessToken, _, err := s.tokens.IssueAccess(account.ID, companyID, int16(account.Role))
	if err != nil {
		return "", err
	}
	return accessToken, nil
}

// Logout revokes the session behind the given refresh token. Unknown or empty
// tokens are a no-op; revoking an already revoked session is not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	sess, err := s.sessionRepo.GetByRefreshTokenHash(ctx, security.HashRefreshToken(refreshToken))
	if err != nil {
		return err
	}
	if sess == nil || !security.RefreshTokenHashEqual(refreshToken, sess.RefreshTokenHash) {
		return nil
	}
	return s.sessionRepo.Revoke(ctx, sess.ID)
}

// companyIDFor resolves the company an account belongs to via its profile.
// Accounts without a profile (or profiles without a company) yield "".
func (s *AuthService) companyIDFor(ctx context.Context, account *accountdomain.Account) (string, error) {
	if account.ProfileID == "" {
		return "", nil
	}
	profile, err := s.profileRepo.GetByID(ctx, account.ProfileID)
	if err != nil {
		return "", err
	}
	if profile == nil {
		return "", nil
	}
	return profile.CompanyID, nil
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	if len(password) > 72 {
		return fmt.Errorf("%w: password must be at most 72 characters", ErrInvalidInput)
	}
	return nil
}
