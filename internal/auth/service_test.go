package auth

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/promptlab/internal/store"
)

var signupTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func openRecords(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestService(t *testing.T, records RecordStore) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), records,
		WithDelay(0),
		WithBcryptCost(bcrypt.MinCost),
		WithClock(func() time.Time { return signupTime }),
	)
	require.NoError(t, err)
	return svc
}

func validSignUp() SignUpInput {
	return SignUpInput{
		Email:    "ada@example.com",
		Password: "secret1",
		Confirm:  "secret1",
		Name:     "Ada",
	}
}

func TestSignIn_DemoAccount(t *testing.T) {
	svc := newTestService(t, openRecords(t))

	user, err := svc.SignIn(context.Background(), DemoEmail, DemoPassword)
	require.NoError(t, err)

	assert.Equal(t, User{ID: "demo-user-001", Email: "demo@example.com", Name: "Demo User"}, user)
	current, ok := svc.Current()
	assert.True(t, ok)
	assert.Equal(t, user, current)
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	svc := newTestService(t, openRecords(t))

	_, err := svc.SignIn(context.Background(), DemoEmail, "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "Invalid email or password", err.Error())

	_, ok := svc.Current()
	assert.False(t, ok)
}

func TestSignUp_CreatesAndSignsIn(t *testing.T) {
	svc := newTestService(t, openRecords(t))

	user, err := svc.SignUp(context.Background(), validSignUp())
	require.NoError(t, err)

	assert.Equal(t, "user-1709294400000", user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "Ada", user.Name)

	current, ok := svc.Current()
	require.True(t, ok)
	assert.Equal(t, user, current)
}

func TestSignUp_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SignUpInput)
		want   error
		msg    string
	}{
		{
			name:   "passwords differ",
			mutate: func(in *SignUpInput) { in.Confirm = "other12" },
			want:   ErrPasswordMismatch,
			msg:    "Passwords do not match",
		},
		{
			name:   "too short",
			mutate: func(in *SignUpInput) { in.Password, in.Confirm = "abc", "abc" },
			want:   ErrPasswordTooShort,
			msg:    "Password must be at least 6 characters",
		},
		{
			name:   "bad email",
			mutate: func(in *SignUpInput) { in.Email = "not-an-email" },
			want:   ErrInvalidEmail,
		},
		{
			name:   "demo email",
			mutate: func(in *SignUpInput) { in.Email = "Demo@Example.com" },
			want:   ErrEmailTaken,
			msg:    "Email already registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, openRecords(t))
			in := validSignUp()
			tt.mutate(&in)

			_, err := svc.SignUp(context.Background(), in)
			require.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidationError(err))
			if tt.msg != "" {
				assert.Equal(t, tt.msg, err.Error())
			}

			_, ok := svc.Current()
			assert.False(t, ok, "no state change on validation failure")
		})
	}
}

func TestSignUp_MismatchCheckedBeforeLength(t *testing.T) {
	svc := newTestService(t, openRecords(t))

	_, err := svc.SignUp(context.Background(), SignUpInput{Email: "a@b.co", Password: "abc", Confirm: "abd"})
	require.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestSignUp_EveryFieldInvalidReportsMismatch(t *testing.T) {
	svc := newTestService(t, openRecords(t))

	_, err := svc.SignUp(context.Background(), SignUpInput{Email: "nope", Password: "ab", Confirm: "cd"})
	require.ErrorIs(t, err, ErrPasswordMismatch)

	_, err = svc.SignUp(context.Background(), SignUpInput{Email: "nope", Password: "ab", Confirm: "ab"})
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestSignUp_PasswordLengthCountsCharacters(t *testing.T) {
	svc := newTestService(t, openRecords(t))

	// Five two-byte characters are ten bytes but still too short.
	_, err := svc.SignUp(context.Background(), SignUpInput{Email: "a@b.co", Password: "ééééé", Confirm: "ééééé"})
	require.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = svc.SignUp(context.Background(), SignUpInput{Email: "a@b.co", Password: "éééééé", Confirm: "éééééé"})
	require.NoError(t, err)
}

func TestSignUpInput_MinTagFollowsMinPasswordLength(t *testing.T) {
	field, ok := reflect.TypeOf(SignUpInput{}).FieldByName("Password")
	require.True(t, ok)
	assert.Equal(t, "min="+strconv.Itoa(MinPasswordLength), field.Tag.Get("validate"))
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	svc := newTestService(t, openRecords(t))
	_, err := svc.SignUp(context.Background(), validSignUp())
	require.NoError(t, err)

	_, err = svc.SignUp(context.Background(), validSignUp())
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestAccountsSurviveRestart(t *testing.T) {
	records := openRecords(t)
	ctx := context.Background()

	first := newTestService(t, records)
	_, err := first.SignUp(ctx, validSignUp())
	require.NoError(t, err)
	require.NoError(t, first.SignOut(ctx))

	second := newTestService(t, records)
	_, ok := second.Current()
	require.False(t, ok)

	user, err := second.SignIn(ctx, "ADA@example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)

	_, err = second.SignIn(ctx, "ada@example.com", "wrong-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSessionSurvivesRestart(t *testing.T) {
	records := openRecords(t)
	ctx := context.Background()

	first := newTestService(t, records)
	_, err := first.SignIn(ctx, DemoEmail, DemoPassword)
	require.NoError(t, err)

	second := newTestService(t, records)
	user, ok := second.Current()
	require.True(t, ok)
	assert.Equal(t, DemoUserID, user.ID)
}

func TestPasswordsAreHashed(t *testing.T) {
	records := openRecords(t)
	svc := newTestService(t, records)
	_, err := svc.SignUp(context.Background(), validSignUp())
	require.NoError(t, err)

	var accounts map[string]account
	require.NoError(t, records.GetRecord(context.Background(), store.RecordAccounts, &accounts))
	hash := accounts["ada@example.com"].PasswordHash
	assert.NotEqual(t, "secret1", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret1")))
}

func TestSignOut(t *testing.T) {
	svc := newTestService(t, openRecords(t))
	ctx := context.Background()
	_, err := svc.SignIn(ctx, DemoEmail, DemoPassword)
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx))
	_, ok := svc.Current()
	assert.False(t, ok)

	require.NoError(t, svc.SignOut(ctx), "signing out twice is fine")
}

func TestSignIn_ContextCancelledDuringDelay(t *testing.T) {
	svc, err := NewService(context.Background(), openRecords(t), WithDelay(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.SignIn(ctx, DemoEmail, DemoPassword)
	require.True(t, errors.Is(err, context.Canceled))
}
