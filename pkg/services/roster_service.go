package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bidintell-inc/bidiq-engine/pkg/oracle"
	"github.com/bidintell-inc/bidiq-engine/pkg/repositories"
)

// MaxRosterSize caps how many approved contractors are shown to the oracle.
const MaxRosterSize = 500

// RosterService serves the approved contractor roster used for duplicate
// analysis. Reads go through an optional Redis cache; any resolution that
// changes the approved set must invalidate it.
type RosterService interface {
	Roster(ctx context.Context, orgID uuid.UUID) ([]oracle.RosterEntry, error)
	Invalidate(ctx context.Context, orgID uuid.UUID)
}

type rosterService struct {
	contractorRepo repositories.ContractorRepository
	redis          *redis.Client
	ttl            time.Duration
	logger         *zap.Logger
}

// NewRosterService creates a new RosterService. redisClient may be nil, in
// which case every read goes to the database.
func NewRosterService(
	contractorRepo repositories.ContractorRepository,
	redisClient *redis.Client,
	ttl time.Duration,
	logger *zap.Logger,
) RosterService {
	return &rosterService{
		contractorRepo: contractorRepo,
		redis:          redisClient,
		ttl:            ttl,
		logger:         logger.Named("roster"),
	}
}

var _ RosterService = (*rosterService)(nil)

func rosterCacheKey(orgID uuid.UUID) string {
	return "bidiq:roster:" + orgID.String()
}

func (s *rosterService) Roster(ctx context.Context, orgID uuid.UUID) ([]oracle.RosterEntry, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, rosterCacheKey(orgID)).Bytes()
		if err == nil {
			var roster []oracle.RosterEntry
			if err := json.Unmarshal(cached, &roster); err == nil {
				return roster, nil
			}
			// Corrupt cache entry, fall through to the database.
			s.logger.Warn("Discarding unreadable roster cache entry", zap.String("org_id", orgID.String()))
		} else if err != redis.Nil {
			s.logger.Warn("Roster cache read failed", zap.Error(err))
		}
	}

	approved, err := s.contractorRepo.ListApproved(ctx, MaxRosterSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	roster := make([]oracle.RosterEntry, 0, len(approved))
	for _, ac := range approved {
		entry := oracle.RosterEntry{
			ID:      ac.Contractor.ID,
			Name:    ac.Contractor.Name,
			Aliases: ac.Aliases,
		}
		if ac.Contractor.City != nil {
			entry.City = *ac.Contractor.City
		}
		if ac.Contractor.Region != nil {
			entry.Region = *ac.Contractor.Region
		}
		roster = append(roster, entry)
	}

	if s.redis != nil {
		if data, err := json.Marshal(roster); err == nil {
			if err := s.redis.Set(ctx, rosterCacheKey(orgID), data, s.ttl).Err(); err != nil {
				s.logger.Warn("Roster cache write failed", zap.Error(err))
			}
		}
	}

	return roster, nil
}

func (s *rosterService) Invalidate(ctx context.Context, orgID uuid.UUID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, rosterCacheKey(orgID)).Err(); err != nil {
		s.logger.Warn("Roster cache invalidation failed",
			zap.String("org_id", orgID.String()),
			zap.Error(err))
	}
}
