package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/bidintell-inc/bidiq-engine/pkg/models"
	"github.com/bidintell-inc/bidiq-engine/pkg/oracle"
	"github.com/bidintell-inc/bidiq-engine/pkg/repositories"
)

// mockContractorRepo is a configurable ContractorRepository mock.
type mockContractorRepo struct {
	CreateFunc       func(ctx context.Context, contractor *models.Contractor) error
	GetByIDFunc      func(ctx context.Context, contractorID uuid.UUID) (*models.Contractor, error)
	SearchByNameFunc func(ctx context.Context, query string, limit int, includeUnapproved bool) ([]*models.Contractor, error)
	FindByAliasFunc  func(ctx context.Context, alias string, limit int) ([]*models.Contractor, error)
	GetByAliasFunc   func(ctx context.Context, alias string) (*models.Contractor, error)
	ListApprovedFunc func(ctx context.Context, limit int) ([]*repositories.ApprovedContractor, error)
	ApproveFunc      func(ctx context.Context, contractorID uuid.UUID, name string, approvedBy *uuid.UUID) error
	DeleteFunc       func(ctx context.Context, contractorID uuid.UUID) error
	AddAliasFunc     func(ctx context.Context, alias *models.ContractorAlias) error
	ListAliasesFunc  func(ctx context.Context, contractorID uuid.UUID) ([]*models.ContractorAlias, error)
	AliasOwnersFunc  func(ctx context.Context, aliases []string) (map[string]uuid.UUID, error)
	MoveAliasesFunc  func(ctx context.Context, fromID, toID uuid.UUID) (int64, error)

	CreateCalls      int
	DeleteCalls      int
	ApproveCalls     int
	MoveAliasesCalls int
}

func (m *mockContractorRepo) Create(ctx context.Context, contractor *models.Contractor) error {
	m.CreateCalls++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, contractor)
	}
	if contractor.ID == uuid.Nil {
		contractor.ID = uuid.New()
	}
	return nil
}

func (m *mockContractorRepo) GetByID(ctx context.Context, contractorID uuid.UUID) (*models.Contractor, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, contractorID)
	}
	return nil, nil
}

func (m *mockContractorRepo) SearchByName(ctx context.Context, query string, limit int, includeUnapproved bool) ([]*models.Contractor, error) {
	if m.SearchByNameFunc != nil {
		return m.SearchByNameFunc(ctx, query, limit, includeUnapproved)
	}
	return nil, nil
}

func (m *mockContractorRepo) FindByAlias(ctx context.Context, alias string, limit int) ([]*models.Contractor, error) {
	if m.FindByAliasFunc != nil {
		return m.FindByAliasFunc(ctx, alias, limit)
	}
	return nil, nil
}

func (m *mockContractorRepo) GetByAlias(ctx context.Context, alias string) (*models.Contractor, error) {
	if m.GetByAliasFunc != nil {
		return m.GetByAliasFunc(ctx, alias)
	}
	return nil, nil
}

func (m *mockContractorRepo) ListApproved(ctx context.Context, limit int) ([]*repositories.ApprovedContractor, error) {
	if m.ListApprovedFunc != nil {
		return m.ListApprovedFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockContractorRepo) Approve(ctx context.Context, contractorID uuid.UUID, name string, approvedBy *uuid.UUID) error {
	m.ApproveCalls++
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, contractorID, name, approvedBy)
	}
	return nil
}

func (m *mockContractorRepo) Delete(ctx context.Context, contractorID uuid.UUID) error {
	m.DeleteCalls++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, contractorID)
	}
	return nil
}

func (m *mockContractorRepo) AddAlias(ctx context.Context, alias *models.ContractorAlias) error {
	if m.AddAliasFunc != nil {
		return m.AddAliasFunc(ctx, alias)
	}
	return nil
}

func (m *mockContractorRepo) ListAliases(ctx context.Context, contractorID uuid.UUID) ([]*models.ContractorAlias, error) {
	if m.ListAliasesFunc != nil {
		return m.ListAliasesFunc(ctx, contractorID)
	}
	return nil, nil
}

func (m *mockContractorRepo) AliasOwners(ctx context.Context, aliases []string) (map[string]uuid.UUID, error) {
	if m.AliasOwnersFunc != nil {
		return m.AliasOwnersFunc(ctx, aliases)
	}
	return map[string]uuid.UUID{}, nil
}

func (m *mockContractorRepo) MoveAliases(ctx context.Context, fromID, toID uuid.UUID) (int64, error) {
	m.MoveAliasesCalls++
	if m.MoveAliasesFunc != nil {
		return m.MoveAliasesFunc(ctx, fromID, toID)
	}
	return 0, nil
}

var _ repositories.ContractorRepository = (*mockContractorRepo)(nil)

// mockReviewQueueRepo is a configurable ReviewQueueRepository mock.
type mockReviewQueueRepo struct {
	CreateFunc        func(ctx context.Context, item *models.ReviewQueueItem) error
	GetByIDFunc       func(ctx context.Context, itemID uuid.UUID) (*models.ReviewQueueItem, error)
	ListPendingFunc   func(ctx context.Context) ([]*models.ReviewQueueItem, error)
	CountByStatusFunc func(ctx context.Context) (*models.ReviewQueueStats, error)
	MarkResolvedFunc  func(ctx context.Context, itemID uuid.UUID, status string, resolvedBy *uuid.UUID, note string) error

	CreateCalls       int
	MarkResolvedCalls int
}

func (m *mockReviewQueueRepo) Create(ctx context.Context, item *models.ReviewQueueItem) error {
	m.CreateCalls++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, item)
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Status == "" {
		item.Status = models.StatusPending
	}
	return nil
}

func (m *mockReviewQueueRepo) GetByID(ctx context.Context, itemID uuid.UUID) (*models.ReviewQueueItem, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, itemID)
	}
	return nil, nil
}

func (m *mockReviewQueueRepo) ListPending(ctx context.Context) ([]*models.ReviewQueueItem, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx)
	}
	return nil, nil
}

func (m *mockReviewQueueRepo) CountByStatus(ctx context.Context) (*models.ReviewQueueStats, error) {
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx)
	}
	return &models.ReviewQueueStats{}, nil
}

func (m *mockReviewQueueRepo) MarkResolved(ctx context.Context, itemID uuid.UUID, status string, resolvedBy *uuid.UUID, note string) error {
	m.MarkResolvedCalls++
	if m.MarkResolvedFunc != nil {
		return m.MarkResolvedFunc(ctx, itemID, status, resolvedBy, note)
	}
	return nil
}

var _ repositories.ReviewQueueRepository = (*mockReviewQueueRepo)(nil)

// mockReferenceRepo is a configurable ReferenceRepository mock.
type mockReferenceRepo struct {
	AttachFunc            func(ctx context.Context, ref *models.ProjectContractorRef) error
	ReassignFunc          func(ctx context.Context, fromContractorID, toContractorID uuid.UUID) (int64, error)
	SeverFunc             func(ctx context.Context, contractorID uuid.UUID) (int64, error)
	CountByContractorFunc func(ctx context.Context, contractorID uuid.UUID) (int64, error)

	AttachCalls   int
	ReassignCalls int
	SeverCalls    int
}

func (m *mockReferenceRepo) Attach(ctx context.Context, ref *models.ProjectContractorRef) error {
	m.AttachCalls++
	if m.AttachFunc != nil {
		return m.AttachFunc(ctx, ref)
	}
	return nil
}

func (m *mockReferenceRepo) Reassign(ctx context.Context, fromContractorID, toContractorID uuid.UUID) (int64, error) {
	m.ReassignCalls++
	if m.ReassignFunc != nil {
		return m.ReassignFunc(ctx, fromContractorID, toContractorID)
	}
	return 0, nil
}

func (m *mockReferenceRepo) Sever(ctx context.Context, contractorID uuid.UUID) (int64, error) {
	m.SeverCalls++
	if m.SeverFunc != nil {
		return m.SeverFunc(ctx, contractorID)
	}
	return 0, nil
}

func (m *mockReferenceRepo) CountByContractor(ctx context.Context, contractorID uuid.UUID) (int64, error) {
	if m.CountByContractorFunc != nil {
		return m.CountByContractorFunc(ctx, contractorID)
	}
	return 0, nil
}

var _ repositories.ReferenceRepository = (*mockReferenceRepo)(nil)

// mockRosterService is a configurable RosterService mock.
type mockRosterService struct {
	RosterFunc func(ctx context.Context, orgID uuid.UUID) ([]oracle.RosterEntry, error)

	RosterCalls     int
	InvalidateCalls int
}

func (m *mockRosterService) Roster(ctx context.Context, orgID uuid.UUID) ([]oracle.RosterEntry, error) {
	m.RosterCalls++
	if m.RosterFunc != nil {
		return m.RosterFunc(ctx, orgID)
	}
	return nil, nil
}

func (m *mockRosterService) Invalidate(ctx context.Context, orgID uuid.UUID) {
	m.InvalidateCalls++
}

var _ RosterService = (*mockRosterService)(nil)
