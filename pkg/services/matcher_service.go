package services

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bidintell-inc/bidiq-engine/pkg/apperrors"
	"github.com/bidintell-inc/bidiq-engine/pkg/names"
	"github.com/bidintell-inc/bidiq-engine/pkg/oracle"
	"github.com/bidintell-inc/bidiq-engine/pkg/repositories"
)

// Tier limits for the first two search passes.
const (
	nameSearchLimit  = 10
	aliasSearchLimit = 5

	// Queries shorter than this never hit the database or the oracle.
	minQueryLen = 2
)

// Match sources, in tier order.
const (
	MatchSourceName  = "name"
	MatchSourceAlias = "alias"
	MatchSourceFuzzy = "fuzzy"
)

// MatchCandidate is one contractor a search query may refer to.
type MatchCandidate struct {
	ContractorID uuid.UUID `json:"contractor_id"`
	Name         string    `json:"name"`
	City         *string   `json:"city,omitempty"`
	Region       *string   `json:"region,omitempty"`
	Score        float64   `json:"score"`
	Source       string    `json:"source"`
	Reasoning    string    `json:"reasoning,omitempty"`
}

// SearchResult is what a contractor search returns. ExactMatch is true when
// a candidate's canonical name or a stored alias equals the normalized query.
// When no candidate is found, IsLikelyNew is true and SuggestedName carries
// the formatted form the caller should offer for submission.
type SearchResult struct {
	Matches       []MatchCandidate `json:"matches"`
	ExactMatch    bool             `json:"exact_match"`
	IsLikelyNew   bool             `json:"is_likely_new"`
	SuggestedName string           `json:"suggested_name"`
}

// MatcherService resolves free-text contractor names against the roster.
// Cheap tiers run first; the oracle is consulted only when direct lookups
// come up empty, and its unavailability degrades to "likely new" rather
// than an error.
type MatcherService interface {
	Search(ctx context.Context, orgID uuid.UUID, query string, includeUnapproved bool) (*SearchResult, error)
}

type matcherService struct {
	contractorRepo repositories.ContractorRepository
	roster         RosterService
	oracle         oracle.Oracle
	logger         *zap.Logger
}

// NewMatcherService creates a new MatcherService.
func NewMatcherService(
	contractorRepo repositories.ContractorRepository,
	roster RosterService,
	matchOracle oracle.Oracle,
	logger *zap.Logger,
) MatcherService {
	return &matcherService{
		contractorRepo: contractorRepo,
		roster:         roster,
		oracle:         matchOracle,
		logger:         logger.Named("matcher"),
	}
}

var _ MatcherService = (*matcherService)(nil)

func (s *matcherService) Search(ctx context.Context, orgID uuid.UUID, query string, includeUnapproved bool) (*SearchResult, error) {
	result := &SearchResult{Matches: []MatchCandidate{}}

	key := names.Key(query)
	if utf8.RuneCountInString(key) < minQueryLen {
		return result, nil
	}

	seen := make(map[uuid.UUID]bool)

	// Tier 1: substring match on canonical names.
	byName, err := s.contractorRepo.SearchByName(ctx, key, nameSearchLimit, includeUnapproved)
	if err != nil {
		return nil, err
	}
	for _, c := range byName {
		seen[c.ID] = true
		if names.Key(c.Name) == key {
			result.ExactMatch = true
		}
		result.Matches = append(result.Matches, MatchCandidate{
			ContractorID: c.ID,
			Name:         c.Name,
			City:         c.City,
			Region:       c.Region,
			Score:        1.0,
			Source:       MatchSourceName,
		})
	}

	// Tier 2: stored aliases equal to the normalized query. An alias hit is
	// exact by definition, even when tier 1 already produced the same row
	// via substring containment.
	byAlias, err := s.contractorRepo.FindByAlias(ctx, key, aliasSearchLimit)
	if err != nil {
		return nil, err
	}
	for _, c := range byAlias {
		result.ExactMatch = true
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		result.Matches = append(result.Matches, MatchCandidate{
			ContractorID: c.ID,
			Name:         c.Name,
			City:         c.City,
			Region:       c.Region,
			Score:        1.0,
			Source:       MatchSourceAlias,
		})
	}

	// Tier 2 only sees approved rows, so an unapproved provisional surfaced
	// by tier 1 still needs its aliases checked for exactness.
	if !result.ExactMatch && len(result.Matches) > 0 {
		owner, err := s.contractorRepo.GetByAlias(ctx, key)
		if err != nil {
			return nil, err
		}
		if owner != nil && seen[owner.ID] {
			result.ExactMatch = true
		}
	}

	if len(result.Matches) > 0 {
		return result, nil
	}

	// Tier 3: fuzzy comparison against the whole roster.
	roster, err := s.roster.Roster(ctx, orgID)
	if err != nil {
		return nil, err
	}

	verdict, err := s.oracle.FindMatches(ctx, oracle.MatchRequest{Query: query, Roster: roster})
	if err != nil {
		if errors.Is(err, apperrors.ErrOracleDegraded) {
			s.logger.Warn("Fuzzy matching unavailable, treating query as new",
				zap.String("query", query),
				zap.Error(err))
			result.IsLikelyNew = true
			result.SuggestedName = names.Normalize(query)
			return result, nil
		}
		return nil, err
	}

	rosterByID := make(map[uuid.UUID]oracle.RosterEntry, len(roster))
	for _, entry := range roster {
		rosterByID[entry.ID] = entry
	}

	for _, m := range verdict.Matches {
		candidate := MatchCandidate{
			ContractorID: m.ContractorID,
			Name:         m.Name,
			Score:        m.Score,
			Source:       MatchSourceFuzzy,
			Reasoning:    m.Reasoning,
		}
		if entry, ok := rosterByID[m.ContractorID]; ok {
			if entry.City != "" {
				candidate.City = &entry.City
			}
			if entry.Region != "" {
				candidate.Region = &entry.Region
			}
		}
		result.Matches = append(result.Matches, candidate)
	}
	result.IsLikelyNew = verdict.IsLikelyNew
	result.SuggestedName = verdict.SuggestedName

	return result, nil
}
