package otp

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/staff-directory-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockOTPStore struct{ mock.Mock }

func (m *mockOTPStore) Put(ctx context.Context, rec *domain.OTPRecord) error {
	return m.Called(ctx, rec).Error(0)
}
func (m *mockOTPStore) LatestByEmail(ctx context.Context, email string) (*domain.OTPRecord, error) {
	args := m.Called(ctx, email)
	if r, _ := args.Get(0).(*domain.OTPRecord); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockOTPStore) Delete(ctx context.Context, email, otpID string) error {
	return m.Called(ctx, email, otpID).Error(0)
}
func (m *mockOTPStore) BumpAttempts(ctx context.Context, email, otpID string) error {
	return m.Called(ctx, email, otpID).Error(0)
}
func (m *mockOTPStore) DeleteExpired(ctx context.Context, email string, now int64) error {
	return m.Called(ctx, email, now).Error(0)
}

func newTestService(store otpStore, now time.Time) *service {
	return &service{store: store, ttl: 60 * time.Second, now: func() time.Time { return now }}
}

// --- Generate ---

func TestGenerate_FormatAndRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code, err := Generate()
		require.NoError(t, err)
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err, "code must be numeric: %q", code)
		assert.GreaterOrEqual(t, n, 0)
		assert.LessOrEqual(t, n, 999999)
	}
}

// --- Issue ---

func TestIssue_StoresRecordWithSixtySecondTTL(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store := &mockOTPStore{}
	store.On("DeleteExpired", mock.Anything, "a@b.com", now.Unix()).Return(nil)

	var stored *domain.OTPRecord
	store.On("Put", mock.Anything, mock.AnythingOfType("*domain.OTPRecord")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.OTPRecord) }).
		Return(nil)

	svc := newTestService(store, now)
	rec, err := svc.Issue(context.Background(), "a@b.com")

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, rec, stored)
	assert.Equal(t, "a@b.com", stored.Email)
	assert.Len(t, stored.Code, 6)
	assert.NotEmpty(t, stored.OTPID)
	assert.Equal(t, now.Unix()+60, stored.ExpiresAt)
	assert.Equal(t, 0, stored.Attempts)
	store.AssertExpectations(t)
}

func TestIssue_SweepFailureDoesNotBlockIssuance(t *testing.T) {
	now := time.Now()
	store := &mockOTPStore{}
	store.On("DeleteExpired", mock.Anything, "a@b.com", mock.Anything).Return(errors.New("boom"))
	store.On("Put", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(store, now)
	_, err := svc.Issue(context.Background(), "a@b.com")
	require.NoError(t, err)
}

func TestIssue_StoreFailure(t *testing.T) {
	now := time.Now()
	store := &mockOTPStore{}
	store.On("DeleteExpired", mock.Anything, "a@b.com", mock.Anything).Return(nil)
	store.On("Put", mock.Anything, mock.Anything).Return(errors.New("dynamo down"))

	svc := newTestService(store, now)
	_, err := svc.Issue(context.Background(), "a@b.com")
	require.Error(t, err)
	assert.ErrorContains(t, err, "store otp record")
}

// --- Verify ---

func TestVerify_NoRecord_ReturnsNotFound(t *testing.T) {
	store := &mockOTPStore{}
	store.On("LatestByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)

	svc := newTestService(store, time.Now())
	err := svc.Verify(context.Background(), "a@b.com", "123456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestVerify_StoreOutageIsNotNotFound(t *testing.T) {
	store := &mockOTPStore{}
	store.On("LatestByEmail", mock.Anything, "a@b.com").
		Return(nil, errors.New("dynamo: connection refused"))

	svc := newTestService(store, time.Now())
	err := svc.Verify(context.Background(), "a@b.com", "123456")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
	assert.ErrorContains(t, err, "connection refused")
}

func TestVerify_CorrectCode_ConsumesRecord(t *testing.T) {
	now := time.Now()
	store := &mockOTPStore{}
	store.On("LatestByEmail", mock.Anything, "a@b.com").Return(&domain.OTPRecord{
		OTPID: "01A", Email: "a@b.com", Code: "123456", ExpiresAt: now.Add(30 * time.Second).Unix(),
	}, nil)
	store.On("Delete", mock.Anything, "a@b.com", "01A").Return(nil)

	svc := newTestService(store, now)
	require.NoError(t, svc.Verify(context.Background(), "a@b.com", "123456"))
	store.AssertExpectations(t)
}

func TestVerify_ExpiredRecord_LazilyDeleted(t *testing.T) {
	now := time.Now()
	store := &mockOTPStore{}
	store.On("LatestByEmail", mock.Anything, "a@b.com").Return(&domain.OTPRecord{
		OTPID: "01A", Email: "a@b.com", Code: "123456", ExpiresAt: now.Unix(), // expiry == now is already expired
	}, nil)
	store.On("Delete", mock.Anything, "a@b.com", "01A").Return(nil)

	svc := newTestService(store, now)
	err := svc.Verify(context.Background(), "a@b.com", "123456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExpired))
	store.AssertCalled(t, "Delete", mock.Anything, "a@b.com", "01A")
}

func TestVerify_WrongCode_KeepsRecordForRetry(t *testing.T) {
	now := time.Now()
	store := &mockOTPStore{}
	store.On("LatestByEmail", mock.Anything, "a@b.com").Return(&domain.OTPRecord{
		OTPID: "01A", Email: "a@b.com", Code: "123456", Attempts: 0, ExpiresAt: now.Add(30 * time.Second).Unix(),
	}, nil)
	store.On("BumpAttempts", mock.Anything, "a@b.com", "01A").Return(nil)

	svc := newTestService(store, now)
	err := svc.Verify(context.Background(), "a@b.com", "654321")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_AttemptLimit_DestroysRecord(t *testing.T) {
	now := time.Now()
	store := &mockOTPStore{}
	store.On("LatestByEmail", mock.Anything, "a@b.com").Return(&domain.OTPRecord{
		OTPID: "01A", Email: "a@b.com", Code: "123456", Attempts: maxAttempts - 1, ExpiresAt: now.Add(30 * time.Second).Unix(),
	}, nil)
	store.On("Delete", mock.Anything, "a@b.com", "01A").Return(nil)

	svc := newTestService(store, now)
	err := svc.Verify(context.Background(), "a@b.com", "654321")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTooManyAttempts))
	store.AssertNotCalled(t, "BumpAttempts", mock.Anything, mock.Anything, mock.Anything)
}

// --- end-to-end lifecycle against an in-memory store ---

// memStore is a thread-safe in-memory otpStore with the same latest-wins
// query semantics as the DynamoDB table (max otp_id per email).
type memStore struct {
	mu   sync.Mutex
	recs map[string]*domain.OTPRecord // keyed by email+otpID
}

func newMemStore() *memStore { return &memStore{recs: map[string]*domain.OTPRecord{}} }

func (m *memStore) Put(_ context.Context, rec *domain.OTPRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.recs[rec.Email+"/"+rec.OTPID] = &cp
	return nil
}

func (m *memStore) LatestByEmail(_ context.Context, email string) (*domain.OTPRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, r := range m.recs {
		if r.Email == email {
			ids = append(ids, r.OTPID)
		}
	}
	if len(ids) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Strings(ids)
	rec := *m.recs[email+"/"+ids[len(ids)-1]]
	return &rec, nil
}

func (m *memStore) Delete(_ context.Context, email, otpID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, email+"/"+otpID)
	return nil
}

func (m *memStore) BumpAttempts(_ context.Context, email, otpID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.recs[email+"/"+otpID]; ok {
		r.Attempts++
	}
	return nil
}

func (m *memStore) DeleteExpired(_ context.Context, email string, now int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, r := range m.recs {
		if r.Email == email && r.ExpiresAt <= now {
			delete(m.recs, k)
		}
	}
	return nil
}

func TestLifecycle_IssueVerifyConsume(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := &service{store: store, ttl: 60 * time.Second, now: func() time.Time { return now }}
	ctx := context.Background()

	rec, err := svc.Issue(ctx, "user@example.com")
	require.NoError(t, err)

	// Verify at t+30s with the right code succeeds and consumes the record.
	now = now.Add(30 * time.Second)
	require.NoError(t, svc.Verify(ctx, "user@example.com", rec.Code))

	// The same code again finds nothing.
	err = svc.Verify(ctx, "user@example.com", rec.Code)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestLifecycle_ExpiryThenLazyCleanup(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := &service{store: store, ttl: 60 * time.Second, now: func() time.Time { return now }}
	ctx := context.Background()

	rec, err := svc.Issue(ctx, "user@example.com")
	require.NoError(t, err)

	// Exactly at createdAt+60s the record is expired and gets swept.
	now = now.Add(60 * time.Second)
	err = svc.Verify(ctx, "user@example.com", rec.Code)
	assert.True(t, errors.Is(err, domain.ErrExpired))

	// The sweep means the next attempt sees no record at all.
	err = svc.Verify(ctx, "user@example.com", rec.Code)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestLifecycle_LatestRecordWins(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := &service{store: store, ttl: 60 * time.Second, now: func() time.Time { return now }}
	ctx := context.Background()

	first, err := svc.Issue(ctx, "user@example.com")
	require.NoError(t, err)
	second, err := svc.Issue(ctx, "user@example.com")
	require.NoError(t, err)
	require.NotEqual(t, first.OTPID, second.OTPID)

	// The earlier code is dead the moment a later record exists, even though
	// its row is still there and still unexpired.
	if first.Code != second.Code {
		err = svc.Verify(ctx, "user@example.com", first.Code)
		assert.True(t, errors.Is(err, domain.ErrBadRequest))
	}

	require.NoError(t, svc.Verify(ctx, "user@example.com", second.Code))
}
