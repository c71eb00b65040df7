package accounts

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-id/meridian/internal/platform/httpx"
)

// ============================================================================
// MOCK DEPENDENCIES
// ============================================================================

type stubRepo struct {
	accounts map[string]Account

	findCalls   int
	saveCalls   int
	createCalls int

	lastCriterion Criterion
	lastSaved     *Account

	findErr   error
	saveErr   error
	createErr error
}

func newStubRepo(seed ...Account) *stubRepo {
	repo := &stubRepo{accounts: make(map[string]Account)}
	for _, a := range seed {
		repo.accounts[a.ID] = a
	}
	return repo
}

func (r *stubRepo) FindOne(ctx context.Context, c Criterion) (*Account, error) {
	r.findCalls++
	r.lastCriterion = c
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, a := range r.accounts {
		if (c.Field == "id" && a.ID == c.Value) || (c.Field == "email" && a.Email == c.Value) {
			found := a
			return &found, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (r *stubRepo) FindByID(ctx context.Context, id string) (*Account, error) {
	return r.FindOne(ctx, Criterion{Field: "id", Value: id})
}

func (r *stubRepo) Create(ctx context.Context, a Account) error {
	r.createCalls++
	if r.createErr != nil {
		return r.createErr
	}
	r.accounts[a.ID] = a
	return nil
}

func (r *stubRepo) Save(ctx context.Context, a Account) error {
	r.saveCalls++
	if r.saveErr != nil {
		return r.saveErr
	}
	saved := a
	r.lastSaved = &saved
	r.accounts[a.ID] = a
	return nil
}

func (r *stubRepo) List(ctx context.Context, limit, offset int) ([]Account, int, error) {
	var out []Account
	for _, a := range r.accounts {
		out = append(out, a)
	}
	return out, len(out), nil
}

type stubHasher struct{}

func (stubHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

type stubEnqueuer struct {
	calls     int
	accountID string
	reason    string
	err       error
}

func (e *stubEnqueuer) EnqueueAccountDeactivated(ctx context.Context, accountID, reason string) error {
	e.calls++
	e.accountID = accountID
	e.reason = reason
	return e.err
}

func newTestService(repo Repository, tasks TaskEnqueuer) *Service {
	return NewService(repo, stubHasher{}, tasks, slog.Default())
}

func strptr(s string) *string { return &s }

func seedAccount() Account {
	return Account{
		ID:           "valid-id",
		Email:        "john@example.com",
		FirstName:    "John",
		LastName:     "Doe",
		PhoneNumber:  strptr("0987654321"),
		PasswordHash: "hashed:secret",
		IsActive:     true,
		UserType:     UserTypeUser,
		AttemptsLeft: 3,
	}
}

// ============================================================================
// CREATE
// ============================================================================

func TestCreateAccount(t *testing.T) {
	repo := newStubRepo()
	service := newTestService(repo, nil)

	account, err := service.Create(context.Background(), CreateAccountRequest{
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		Password:  "supersecret",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, account.ID)
	assert.Equal(t, "hashed:supersecret", account.PasswordHash)
	assert.True(t, account.IsActive)
	assert.Equal(t, UserTypeUser, account.UserType)
	assert.Equal(t, 1, repo.createCalls)
}

// ============================================================================
// GET RECORD (raw read path)
// ============================================================================

func TestGetRecordLooksUpByEmail(t *testing.T) {
	repo := newStubRepo(seedAccount())
	service := newTestService(repo, nil)

	account, err := service.GetRecord(context.Background(), IdentifierOptions{
		Identifier:     "john@example.com",
		IdentifierType: IdentifierTypeEmail,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.findCalls)
	assert.Equal(t, Criterion{Field: "email", Value: "john@example.com"}, repo.lastCriterion)
	// The raw read path returns the stored record verbatim.
	assert.Equal(t, "hashed:secret", account.PasswordHash)
}

func TestGetRecordLooksUpByID(t *testing.T) {
	repo := newStubRepo(seedAccount())
	service := newTestService(repo, nil)

	_, err := service.GetRecord(context.Background(), IdentifierOptions{
		Identifier:     "valid-id",
		IdentifierType: IdentifierTypeID,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.findCalls)
	assert.Equal(t, Criterion{Field: "id", Value: "valid-id"}, repo.lastCriterion)
}

func TestGetRecordRejectsBadIdentifier(t *testing.T) {
	repo := newStubRepo(seedAccount())
	service := newTestService(repo, nil)

	_, err := service.GetRecord(context.Background(), IdentifierOptions{Identifier: "", IdentifierType: IdentifierTypeEmail})
	assert.ErrorIs(t, err, httpx.ErrInvalidArgument)

	_, err = service.GetRecord(context.Background(), IdentifierOptions{Identifier: "x", IdentifierType: "phone"})
	assert.ErrorIs(t, err, httpx.ErrInvalidArgument)

	assert.Equal(t, 0, repo.findCalls)
}

func TestGetRecordMissingAccountIsNotFound(t *testing.T) {
	repo := newStubRepo()
	service := newTestService(repo, nil)

	_, err := service.GetRecord(context.Background(), IdentifierOptions{
		Identifier:     "ghost@example.com",
		IdentifierType: IdentifierTypeEmail,
	})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestGetRecordPropagatesStorageFailure(t *testing.T) {
	repo := newStubRepo()
	repo.findErr = assert.AnError
	service := newTestService(repo, nil)

	_, err := service.GetRecord(context.Background(), IdentifierOptions{
		Identifier:     "john@example.com",
		IdentifierType: IdentifierTypeEmail,
	})
	assert.ErrorIs(t, err, assert.AnError)
}

// ============================================================================
// UPDATE
// ============================================================================

func TestUpdateMissingIDFailsBeforeRepository(t *testing.T) {
	repo := newStubRepo(seedAccount())
	service := newTestService(repo, nil)

	_, err := service.Update(context.Background(), "", UpdateAccountRequest{}, Principal{ID: "valid-id", UserType: UserTypeUser})
	assert.ErrorIs(t, err, httpx.ErrInvalidArgument)
	assert.Equal(t, 0, repo.findCalls)
	assert.Equal(t, 0, repo.saveCalls)
}

func TestUpdateUnknownTargetIsNotFound(t *testing.T) {
	repo := newStubRepo(seedAccount())
	service := newTestService(repo, nil)

	_, err := service.Update(context.Background(), "missing-id", UpdateAccountRequest{}, Principal{ID: "missing-id", UserType: UserTypeUser})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
	assert.Equal(t, 1, repo.findCalls)
	assert.Equal(t, 0, repo.saveCalls)
}

func TestUpdateByStrangerIsForbidden(t *testing.T) {
	repo := newStubRepo(seedAccount())
	service := newTestService(repo, nil)

	_, err := service.Update(context.Background(), "valid-id", UpdateAccountRequest{FirstName: strptr("Eve")}, Principal{ID: "other-id", UserType: UserTypeUser})
	assert.ErrorIs(t, err, httpx.ErrForbidden)
	assert.Equal(t, 1, repo.findCalls)
	assert.Equal(t, 0, repo.saveCalls)
}

func TestUpdateBySelfMergesAndPersists(t *testing.T) {
	repo := newStubRepo(seedAccount())
	service := newTestService(repo, nil)

	account, err := service.Update(context.Background(), "valid-id", UpdateAccountRequest{
		FirstName:   strptr("Jane"),
		LastName:    strptr("Doe"),
		PhoneNumber: strptr("1234567890"),
	}, Principal{ID: "valid-id", UserType: UserTypeUser})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.findCalls)
	assert.Equal(t, 1, repo.saveCalls)
	assert.Equal(t, "valid-id", account.ID)
	assert.Equal(t, "Jane Doe", account.DisplayName())
	assert.Equal(t, "1234567890", *account.PhoneNumber)

	// Unspecified fields keep their stored values.
	require.NotNil(t, repo.lastSaved)
	assert.Equal(t, "john@example.com", repo.lastSaved.Email)
	assert.Equal(t, "hashed:secret", repo.lastSaved.PasswordHash)
	assert.Equal(t, UserTypeUser, repo.lastSaved.UserType)
	assert.True(t, repo.lastSaved.IsActive)
}

func TestUpdateBySuperAdmin(t *testing.T) {
	repo := newStubRepo(seedAccount())
	service := newTestService(repo, nil)

	account, err := service.Update(context.Background(), "valid-id", UpdateAccountRequest{
		FirstName: strptr("Janet"),
	}, Principal{ID: "admin-id", UserType: UserTypeSuperAdmin})
	require.NoError(t, err)
	assert.Equal(t, "Janet", account.FirstName)
	assert.Equal(t, 1, repo.saveCalls)
}

func TestUpdateIgnoresEmptyFields(t *testing.T) {
	repo := newStubRepo(seedAccount())
	service := newTestService(repo, nil)

	account, err := service.Update(context.Background(), "valid-id", UpdateAccountRequest{
		FirstName:   strptr(""),
		PhoneNumber: strptr(""),
	}, Principal{ID: "valid-id", UserType: UserTypeUser})
	require.NoError(t, err)
	assert.Equal(t, "John", account.FirstName)
	assert.Equal(t, "0987654321", *account.PhoneNumber)
}

func TestUpdateSaveFailurePropagatesClassification(t *testing.T) {
	repo := newStubRepo(seedAccount())
	repo.saveErr = httpx.ErrConflict
	service := newTestService(repo, nil)

	_, err := service.Update(context.Background(), "valid-id", UpdateAccountRequest{
		FirstName: strptr("Jane"),
	}, Principal{ID: "valid-id", UserType: UserTypeUser})
	assert.ErrorIs(t, err, httpx.ErrConflict)
}

// ============================================================================
// DEACTIVATE
// ============================================================================

func TestDeactivateRequiresConfirmation(t *testing.T) {
	repo := newStubRepo(seedAccount())
	service := newTestService(repo, nil)

	_, err := service.Deactivate(context.Background(), "valid-id", DeactivateAccountRequest{Confirmation: false, Reason: "leaving"})
	assert.ErrorIs(t, err, httpx.ErrInvalidArgument)
	assert.Equal(t, 0, repo.findCalls)
	assert.Equal(t, 0, repo.saveCalls)
}

func TestDeactivateUnknownAccountIsNotFound(t *testing.T) {
	repo := newStubRepo(seedAccount())
	service := newTestService(repo, nil)

	_, err := service.Deactivate(context.Background(), "missing-id", DeactivateAccountRequest{Confirmation: true})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
	assert.Equal(t, 0, repo.saveCalls)
}

func TestDeactivateFlipsOnlyActiveFlag(t *testing.T) {
	seed := seedAccount()
	repo := newStubRepo(seed)
	enqueuer := &stubEnqueuer{}
	service := newTestService(repo, enqueuer)

	account, err := service.Deactivate(context.Background(), "valid-id", DeactivateAccountRequest{Confirmation: true, Reason: "user request"})
	require.NoError(t, err)

	assert.False(t, account.IsActive)
	require.NotNil(t, repo.lastSaved)
	assert.False(t, repo.lastSaved.IsActive)

	// Every other field stays byte-identical.
	expected := seed
	expected.IsActive = false
	assert.Equal(t, expected, *repo.lastSaved)

	assert.Equal(t, 1, enqueuer.calls)
	assert.Equal(t, "valid-id", enqueuer.accountID)
	assert.Equal(t, "user request", enqueuer.reason)
}

func TestDeactivateSurvivesEnqueueFailure(t *testing.T) {
	repo := newStubRepo(seedAccount())
	enqueuer := &stubEnqueuer{err: assert.AnError}
	service := newTestService(repo, enqueuer)

	account, err := service.Deactivate(context.Background(), "valid-id", DeactivateAccountRequest{Confirmation: true})
	require.NoError(t, err)
	assert.False(t, account.IsActive)
}

// ============================================================================
// REDACTED READ PATH
// ============================================================================

func TestGetRedactedMissingIDIsInvalid(t *testing.T) {
	repo := newStubRepo(seedAccount())
	service := newTestService(repo, nil)

	_, err := service.GetRedacted(context.Background(), "")
	assert.ErrorIs(t, err, httpx.ErrInvalidArgument)
	assert.Equal(t, 0, repo.findCalls)
}

func TestGetRedactedUnknownIsNotFound(t *testing.T) {
	repo := newStubRepo()
	service := newTestService(repo, nil)

	_, err := service.GetRedacted(context.Background(), "missing-id")
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestRedactedViewOmitsPasswordHash(t *testing.T) {
	view := seedAccount().Redacted()
	assert.Equal(t, "valid-id", view.ID)
	assert.Equal(t, "john@example.com", view.Email)
	// AccountView has no password field at all; the projection is structural.
	record := seedAccount().Record()
	assert.Equal(t, "hashed:secret", record.PasswordHash)
}
