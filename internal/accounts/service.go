package accounts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/meridian-id/meridian/internal/platform/httpx"
)

// TaskEnqueuer submits follow-up work after a state transition. Implemented
// by the jobs client; nil disables follow-ups.
type TaskEnqueuer interface {
	EnqueueAccountDeactivated(ctx context.Context, accountID, reason string) error
}

// Service handles account business logic.
type Service struct {
	repo   Repository
	hasher PasswordHasher
	tasks  TaskEnqueuer
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo Repository, hasher PasswordHasher, tasks TaskEnqueuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, hasher: hasher, tasks: tasks, logger: logger}
}

// Create registers a new account. New accounts start active with the USER role.
func (s *Service) Create(ctx context.Context, req CreateAccountRequest) (*Account, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	account := Account{
		ID:           uuid.NewString(),
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hash,
		IsActive:     true,
		UserType:     UserTypeUser,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &account, nil
}

// GetRecord resolves the identifier and returns the stored record verbatim,
// password hash included. This is the trusted internal read path; public
// callers go through GetRedacted instead. Repository errors propagate
// unchanged, a missing record is an explicit not-found.
func (s *Service) GetRecord(ctx context.Context, opts IdentifierOptions) (*Account, error) {
	criterion, err := ResolveIdentifier(opts)
	if err != nil {
		return nil, err
	}
	return s.repo.FindOne(ctx, criterion)
}

// Update applies the partial field set to the target account on behalf of the
// principal. Exactly one read is issued, and one write unless a validation or
// policy check short-circuits first. The existence check deliberately precedes
// the policy check.
func (s *Service) Update(ctx context.Context, targetID string, req UpdateAccountRequest, principal Principal) (*Account, error) {
	if targetID == "" {
		return nil, fmt.Errorf("%w: missing user id", httpx.ErrInvalidArgument)
	}

	account, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if !CanMutate(principal, account.ID) {
		return nil, fmt.Errorf("%w: not allowed to modify this account", httpx.ErrForbidden)
	}

	// Only recognized, non-empty fields override the stored values.
	if req.FirstName != nil && *req.FirstName != "" {
		account.FirstName = *req.FirstName
	}
	if req.LastName != nil && *req.LastName != "" {
		account.LastName = *req.LastName
	}
	if req.PhoneNumber != nil && *req.PhoneNumber != "" {
		account.PhoneNumber = req.PhoneNumber
	}

	if err := s.repo.Save(ctx, *account); err != nil {
		return nil, fmt.Errorf("save account: %w", err)
	}
	return account, nil
}

// Deactivate transitions the target account to inactive. The transition is
// one-way; no reactivation path exists here. The reason is not validated, it
// is carried to the follow-up job for bookkeeping.
func (s *Service) Deactivate(ctx context.Context, targetID string, req DeactivateAccountRequest) (*Account, error) {
	if !req.Confirmation {
		return nil, fmt.Errorf("%w: deactivation not confirmed", httpx.ErrInvalidArgument)
	}

	account, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	account.IsActive = false
	if err := s.repo.Save(ctx, *account); err != nil {
		return nil, fmt.Errorf("save account: %w", err)
	}

	if s.tasks != nil {
		if err := s.tasks.EnqueueAccountDeactivated(ctx, account.ID, req.Reason); err != nil {
			s.logger.Warn("enqueue deactivation follow-up", slog.String("account_id", account.ID), slog.Any("error", err))
		}
	}
	return account, nil
}

// GetRedacted loads the account by id for the public-safe projection.
func (s *Service) GetRedacted(ctx context.Context, id string) (*Account, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: missing user id", httpx.ErrInvalidArgument)
	}
	return s.repo.FindByID(ctx, id)
}

// List returns a page of accounts with the total count.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Account, int, error) {
	return s.repo.List(ctx, limit, offset)
}
