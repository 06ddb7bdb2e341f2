package oracle

import "context"

// MockOracle is a configurable mock for testing services that consume the
// oracle. Set the function fields to control behavior in tests.
type MockOracle struct {
	// FindMatchesFunc is called when FindMatches is invoked.
	// If nil, returns an empty likely-new response.
	FindMatchesFunc func(ctx context.Context, req MatchRequest) (*MatchResponse, error)

	// AnalyzeSubmissionFunc is called when AnalyzeSubmission is invoked.
	// If nil, returns a low-confidence new recommendation.
	AnalyzeSubmissionFunc func(ctx context.Context, req SubmissionRequest) (*SubmissionAnalysis, error)

	// Call tracking for verification
	FindMatchesCalls       int
	AnalyzeSubmissionCalls int
}

// NewMockOracle creates a new mock oracle.
func NewMockOracle() *MockOracle {
	return &MockOracle{}
}

// FindMatches implements Oracle.
func (m *MockOracle) FindMatches(ctx context.Context, req MatchRequest) (*MatchResponse, error) {
	m.FindMatchesCalls++
	if m.FindMatchesFunc != nil {
		return m.FindMatchesFunc(ctx, req)
	}
	return &MatchResponse{IsLikelyNew: true}, nil
}

// AnalyzeSubmission implements Oracle.
func (m *MockOracle) AnalyzeSubmission(ctx context.Context, req SubmissionRequest) (*SubmissionAnalysis, error) {
	m.AnalyzeSubmissionCalls++
	if m.AnalyzeSubmissionFunc != nil {
		return m.AnalyzeSubmissionFunc(ctx, req)
	}
	return &SubmissionAnalysis{Recommendation: "new", Confidence: 0.5}, nil
}

// Ensure MockOracle implements Oracle at compile time.
var _ Oracle = (*MockOracle)(nil)
