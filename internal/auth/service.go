package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/promptlab/internal/store"
)

// DefaultDelay is the simulated network delay of SignIn and SignUp.
const DefaultDelay = 500 * time.Millisecond

// MinPasswordLength is the shortest accepted password, in characters.
const MinPasswordLength = 6

// Demo account credentials. The demo account always exists.
const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "demo123"
	DemoUserID   = "demo-user-001"
	DemoName     = "Demo User"
)

// User is a signed-in identity.
type User struct {
	ID    string `json:"id" yaml:"id"`
	Email string `json:"email" yaml:"email"`
	Name  string `json:"name" yaml:"name"`
}

// Session is the persisted sign-in state.
type Session struct {
	User          *User `json:"user"`
	Authenticated bool  `json:"authenticated"`
}

// account is a registered user as stored under the accounts record.
type account struct {
	User         User   `json:"user"`
	PasswordHash string `json:"password_hash"`
}

// RecordStore holds named JSON documents. store.Store implements it.
type RecordStore interface {
	GetRecord(ctx context.Context, name string, dst any) error
	PutRecord(ctx context.Context, name string, v any) error
	DeleteRecord(ctx context.Context, name string) error
}

// SignUpInput is the sign-up form. The min tag on Password must follow
// MinPasswordLength.
type SignUpInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"min=6"`
	Confirm  string `validate:"eqfield=Password"`
	Name     string
}

// Service signs users in and out.
//
// Thread-safety: safe for concurrent use.
type Service struct {
	records RecordStore
	delay   time.Duration
	now     func() time.Time
	cost    int
	logger  *slog.Logger
	input   *validator.Validate

	mu      sync.Mutex
	session Session
}

// Option configures a Service.
type Option func(*Service)

// WithDelay sets the simulated network delay. Zero disables waiting.
func WithDelay(d time.Duration) Option {
	return func(s *Service) {
		s.delay = d
	}
}

// WithClock sets the time source used for new user ids.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithBcryptCost sets the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService restores the persisted session and returns a service.
func NewService(ctx context.Context, records RecordStore, opts ...Option) (*Service, error) {
	s := &Service{
		records: records,
		delay:   DefaultDelay,
		now:     time.Now,
		cost:    bcrypt.DefaultCost,
		logger:  slog.Default(),
		input:   validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	var sess Session
	err := records.GetRecord(ctx, store.RecordSession, &sess)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
	case err != nil:
		return nil, fmt.Errorf("load session: %w", err)
	default:
		if sess.User == nil {
			sess.Authenticated = false
		}
		s.session = sess
	}
	return s, nil
}

// SignIn authenticates email and password.
//
// Registered accounts are checked first, then the demo account. Any mismatch
// fails with ErrInvalidCredentials.
func (s *Service) SignIn(ctx context.Context, email, password string) (User, error) {
	if err := s.wait(ctx); err != nil {
		return User{}, err
	}

	email = normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.loadAccounts(ctx)
	if err != nil {
		return User{}, err
	}

	var user *User
	if acct, ok := accounts[email]; ok &&
		bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) == nil {
		user = &acct.User
	} else if email == DemoEmail && password == DemoPassword {
		user = &User{ID: DemoUserID, Email: DemoEmail, Name: DemoName}
	}

	if user == nil {
		s.logger.Info("sign in rejected", "email", email)
		return User{}, ErrInvalidCredentials
	}

	if err := s.setSession(ctx, Session{User: user, Authenticated: true}); err != nil {
		return User{}, err
	}
	s.logger.Info("signed in", "user_id", user.ID)
	return *user, nil
}

// signUpError maps validation failures to the form's fixed messages. A
// password mismatch wins over a short password, which wins over a bad email.
func signUpError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("sign up: %w", err)
	}

	failed := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		failed[fe.Field()] = true
	}
	switch {
	case failed["Confirm"]:
		return ErrPasswordMismatch
	case failed["Password"]:
		return ErrPasswordTooShort
	default:
		return ErrInvalidEmail
	}
}

// SignUp registers a new account and signs it in.
//
// The form is validated before any delay: passwords must match, be at least
// MinPasswordLength characters, and the email must be well formed. The demo
// email and existing emails fail with ErrEmailTaken.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (User, error) {
	in.Email = normalizeEmail(in.Email)

	if err := s.input.Struct(in); err != nil {
		return User{}, signUpError(err)
	}

	if err := s.wait(ctx); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.loadAccounts(ctx)
	if err != nil {
		return User{}, err
	}
	if _, taken := accounts[in.Email]; taken || in.Email == DemoEmail {
		return User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("sign up: hash password: %w", err)
	}

	user := User{
		ID:    fmt.Sprintf("user-%d", s.now().UnixMilli()),
		Email: in.Email,
		Name:  in.Name,
	}
	accounts[in.Email] = account{User: user, PasswordHash: string(hash)}
	if err := s.records.PutRecord(ctx, store.RecordAccounts, accounts); err != nil {
		return User{}, fmt.Errorf("sign up: %w", err)
	}

	if err := s.setSession(ctx, Session{User: &user, Authenticated: true}); err != nil {
		return User{}, err
	}
	s.logger.Info("signed up", "user_id", user.ID)
	return user, nil
}

// SignOut clears the session. Signing out while signed out is not an error.
func (s *Service) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.records.DeleteRecord(ctx, store.RecordSession); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	s.session = Session{}
	s.logger.Info("signed out")
	return nil
}

// Current returns the signed-in user, if any.
func (s *Service) Current() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.Authenticated || s.session.User == nil {
		return User{}, false
	}
	return *s.session.User, true
}

// setSession persists sess and makes it current. Caller must hold s.mu.
func (s *Service) setSession(ctx context.Context, sess Session) error {
	if err := s.records.PutRecord(ctx, store.RecordSession, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.session = sess
	return nil
}

// loadAccounts reads the registered accounts keyed by email.
// Caller must hold s.mu.
func (s *Service) loadAccounts(ctx context.Context) (map[string]account, error) {
	accounts := map[string]account{}
	err := s.records.GetRecord(ctx, store.RecordAccounts, &accounts)
	if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	return accounts, nil
}

func (s *Service) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
