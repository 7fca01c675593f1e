package registration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/foreverweb/auth-api/internal/domain"
	"github.com/foreverweb/auth-api/internal/infrastructure/memory"
	"github.com/foreverweb/auth-api/internal/pkg/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendOTP(to, displayName, code string) error {
	return m.Called(to, displayName, code).Error(0)
}

// captureMailer records the last code instead of sending it.
type captureMailer struct {
	mu       sync.Mutex
	lastCode string
	sent     int
}

func (m *captureMailer) SendOTP(to, displayName, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCode = code
	m.sent++
	return nil
}

func (m *captureMailer) code() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCode
}

// --- builder ---

func newTestService(t *testing.T, ml mailer) (Service, *memory.AccountRepo, *PendingStore) {
	t.Helper()
	repo := memory.NewAccountRepo()
	pendings := NewPendingStore()
	svc := NewService(ServiceDeps{
		AccountRepo:  repo,
		PendingStore: pendings,
		Mailer:       ml,
		Hasher:       hash.New(hash.DefaultIterations),
		OTPTTL:       10 * time.Minute,
	})
	return svc, repo, pendings
}

// --- CheckUsername ---

func TestCheckUsername(t *testing.T) {
	svc, repo, _ := newTestService(t, &captureMailer{})
	ctx := context.Background()

	require.NoError(t, svc.CheckUsername(ctx, "nova"))

	err := svc.CheckUsername(ctx, "ab")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	require.NoError(t, repo.Create(ctx, &domain.Account{Username: "nova"}))
	err = svc.CheckUsername(ctx, "Nova") // case-insensitive
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

// --- Request ---

func TestRequest_Validation(t *testing.T) {
	svc, _, pendings := newTestService(t, &captureMailer{})
	ctx := context.Background()

	for _, req := range []RegisterRequest{
		{},
		{Username: "nova", Email: "nova@x.io"},              // missing password
		{Username: "nova", Password: "Secret1!"},            // missing email
		{Username: "no", Email: "n@x.io", Password: "pw"},   // username too short
		{Username: "nova", Email: "bad", Password: "pw123"}, // malformed email
	} {
		err := svc.Request(ctx, req)
		assert.True(t, errors.Is(err, domain.ErrValidation), "req %+v", req)
	}
	_, ok := pendings.Get("nova")
	assert.False(t, ok)
}

func TestRequest_CommittedUsernameTaken(t *testing.T) {
	svc, repo, _ := newTestService(t, &captureMailer{})
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.Account{Username: "nova"}))

	err := svc.Request(ctx, RegisterRequest{Username: "Nova", Email: "n@x.io", Password: "Secret1!"})
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestRequest_DeliveryFailureLeavesNoPending(t *testing.T) {
	ml := &mockMailer{}
	ml.On("SendOTP", "nova@x.io", "nova", mock.Anything).Return(errors.New("smtp down"))
	svc, _, pendings := newTestService(t, ml)

	err := svc.Request(context.Background(), RegisterRequest{Username: "nova", Email: "nova@x.io", Password: "Secret1!"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDelivery))

	_, ok := pendings.Get("nova")
	assert.False(t, ok, "a failed delivery must not orphan a pending record")
	ml.AssertExpectations(t)
}

func TestRequest_ReplacesPriorPending(t *testing.T) {
	ml := &captureMailer{}
	svc, _, pendings := newTestService(t, ml)
	ctx := context.Background()

	require.NoError(t, svc.Request(ctx, RegisterRequest{Username: "nova", Email: "a@x.io", Password: "first"}))
	firstCode := ml.code()
	require.NoError(t, svc.Request(ctx, RegisterRequest{Username: "NOVA", Email: "b@x.io", Password: "second"}))

	p, ok := pendings.Get("nova")
	require.True(t, ok)
	assert.Equal(t, "b@x.io", p.Email)
	assert.Equal(t, 2, ml.sent)
	if firstCode != ml.code() {
		// first code was superseded together with the record
		_, err := svc.Confirm(ctx, ConfirmRequest{Username: "nova", OTPCode: firstCode})
		assert.True(t, errors.Is(err, domain.ErrInvalidCredential))
	}
}

// --- Confirm ---

func TestConfirm_NoPending(t *testing.T) {
	svc, _, _ := newTestService(t, &captureMailer{})
	_, err := svc.Confirm(context.Background(), ConfirmRequest{Username: "ghost", OTPCode: "123456"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestConfirm_MismatchKeepsPending(t *testing.T) {
	ml := &captureMailer{}
	svc, _, pendings := newTestService(t, ml)
	ctx := context.Background()
	require.NoError(t, svc.Request(ctx, RegisterRequest{Username: "nova", Email: "n@x.io", Password: "Secret1!"}))

	wrong := "000000"
	if ml.code() == wrong {
		wrong = "000001"
	}
	_, err := svc.Confirm(ctx, ConfirmRequest{Username: "nova", OTPCode: wrong})
	assert.True(t, errors.Is(err, domain.ErrInvalidCredential))

	// retry with the correct code still works
	acct, err := svc.Confirm(ctx, ConfirmRequest{Username: "nova", OTPCode: ml.code()})
	require.NoError(t, err)
	assert.Equal(t, "nova", acct.Username)
	_, ok := pendings.Get("nova")
	assert.False(t, ok)
}

func TestConfirm_ExpiredClearsPending(t *testing.T) {
	ml := &captureMailer{}
	svc, _, pendings := newTestService(t, ml)
	ctx := context.Background()
	require.NoError(t, svc.Request(ctx, RegisterRequest{Username: "nova", Email: "n@x.io", Password: "Secret1!"}))

	p, ok := pendings.Get("nova")
	require.True(t, ok)
	p.OTPExpiry = time.Now().Add(-time.Second)

	_, err := svc.Confirm(ctx, ConfirmRequest{Username: "nova", OTPCode: ml.code()})
	assert.True(t, errors.Is(err, domain.ErrExpired))
	_, ok = pendings.Get("nova")
	assert.False(t, ok, "expiry is a terminal outcome")
}

func TestConfirm_InvalidPin(t *testing.T) {
	ml := &captureMailer{}
	svc, _, pendings := newTestService(t, ml)
	ctx := context.Background()
	require.NoError(t, svc.Request(ctx, RegisterRequest{Username: "nova", Email: "n@x.io", Password: "Secret1!"}))

	for _, pin := range []string{"12", "1234567", "12a4"} {
		_, err := svc.Confirm(ctx, ConfirmRequest{Username: "nova", OTPCode: ml.code(), Pin: pin})
		assert.True(t, errors.Is(err, domain.ErrValidation), "pin %q", pin)
	}
	// pending survives a pin validation failure; retry succeeds
	_, ok := pendings.Get("nova")
	require.True(t, ok)
	acct, err := svc.Confirm(ctx, ConfirmRequest{Username: "nova", OTPCode: ml.code(), Pin: "4821"})
	require.NoError(t, err)
	assert.True(t, acct.PinEnabled)
	assert.True(t, strings.HasPrefix(acct.PinHash, "pbkdf2$"))
}

func TestConfirm_HappyPath(t *testing.T) {
	ml := &captureMailer{}
	svc, repo, pendings := newTestService(t, ml)
	ctx := context.Background()

	require.NoError(t, svc.Request(ctx, RegisterRequest{Username: "Nova", Email: "nova@x.io", Password: "Secret1!"}))
	acct, err := svc.Confirm(ctx, ConfirmRequest{Username: "Nova", OTPCode: ml.code()})
	require.NoError(t, err)

	assert.Equal(t, "nova", acct.Username)
	assert.Equal(t, "nova@x.io", acct.Email)
	assert.True(t, strings.HasPrefix(acct.PublicID, "FW-"))
	assert.True(t, strings.HasPrefix(acct.PasswordHash, "pbkdf2$"))
	assert.False(t, acct.PinEnabled)

	exists, err := repo.Exists(ctx, "nova")
	require.NoError(t, err)
	assert.True(t, exists)
	_, ok := pendings.Get("nova")
	assert.False(t, ok)

	// the committed username now rejects a fresh registration
	err = svc.Request(ctx, RegisterRequest{Username: "nova", Email: "other@x.io", Password: "pw1234"})
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestConfirm_ConcurrentSingleWinner(t *testing.T) {
	ml := &captureMailer{}
	svc, repo, _ := newTestService(t, ml)
	ctx := context.Background()
	require.NoError(t, svc.Request(ctx, RegisterRequest{Username: "nova", Email: "n@x.io", Password: "Secret1!"}))
	code := ml.code()

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Confirm(ctx, ConfirmRequest{Username: "nova", OTPCode: code})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict),
			"unexpected loser error: %v", err)
	}
	assert.Equal(t, 1, winners)

	exists, err := repo.Exists(ctx, "nova")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReaper_SweepsExpired(t *testing.T) {
	pendings := NewPendingStore()
	pendings.Put(&domain.PendingRegistration{Username: "stale", OTPExpiry: time.Now().Add(-time.Minute)})
	pendings.Put(&domain.PendingRegistration{Username: "fresh", OTPExpiry: time.Now().Add(time.Minute)})

	removed := pendings.Sweep(time.Now())
	assert.Equal(t, 1, removed)
	_, ok := pendings.Get("stale")
	assert.False(t, ok)
	_, ok = pendings.Get("fresh")
	assert.True(t, ok)
}
