package dyntable

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "veriform/pkg/domain"
	"veriform/pkg/platform/sentinel"
)

type InMemorySuite struct {
	suite.Suite
	gateway *InMemory
	ctx     context.Context
}

func (s *InMemorySuite) SetupTest() {
	s.gateway = NewInMemory()
	s.ctx = context.Background()
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) newRow(candidateID id.CandidateID, fields map[string]string) *Row {
	now := time.Now().UTC().Truncate(time.Second)
	return &Row{
		ID:          uuid.New(),
		CandidateID: candidateID,
		Status:      "submitted",
		CreatedAt:   now,
		UpdatedAt:   now,
		Fields:      fields,
	}
}

func (s *InMemorySuite) TestUnitLifecycle() {
	s.Run("unknown unit reports not found", func() {
		_, err := s.gateway.UnitColumns(s.ctx, "missing")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("created unit carries baseline columns first", func() {
		s.Require().NoError(s.gateway.CreateUnit(s.ctx, "annexure_education", []string{"university_name"}))
		columns, err := s.gateway.UnitColumns(s.ctx, "annexure_education")
		s.Require().NoError(err)
		s.Equal(append(append([]string{}, BaselineColumns...), "university_name"), columns)
	})

	s.Run("recreation converges without error", func() {
		s.Require().NoError(s.gateway.CreateUnit(s.ctx, "annexure_education", []string{"other_field"}))
		columns, err := s.gateway.UnitColumns(s.ctx, "annexure_education")
		s.Require().NoError(err)
		s.NotContains(columns, "other_field", "losing a creation race must not widen")
	})

	s.Run("add column is idempotent", func() {
		s.Require().NoError(s.gateway.AddColumn(s.ctx, "annexure_education", "passing_year"))
		s.Require().NoError(s.gateway.AddColumn(s.ctx, "annexure_education", "passing_year"))
		columns, err := s.gateway.UnitColumns(s.ctx, "annexure_education")
		s.Require().NoError(err)
		s.Equal(len(BaselineColumns)+2, len(columns))
	})
}

func (s *InMemorySuite) TestRows() {
	candidateID := id.CandidateID(uuid.New())
	s.Require().NoError(s.gateway.CreateUnit(s.ctx, "annexure_address", []string{"city", "pincode"}))

	s.Run("insert then find returns an independent copy", func() {
		row := s.newRow(candidateID, map[string]string{"city": "Pune"})
		s.Require().NoError(s.gateway.Insert(s.ctx, "annexure_address", row))

		found, err := s.gateway.FindByCandidate(s.ctx, "annexure_address", candidateID)
		s.Require().NoError(err)
		s.Equal("Pune", found.Fields["city"])

		found.Fields["city"] = "mutated"
		again, err := s.gateway.FindByCandidate(s.ctx, "annexure_address", candidateID)
		s.Require().NoError(err)
		s.Equal("Pune", again.Fields["city"])
	})

	s.Run("second insert for the same candidate conflicts", func() {
		err := s.gateway.Insert(s.ctx, "annexure_address", s.newRow(candidateID, nil))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("insert into undeclared column is invalid state", func() {
		other := id.CandidateID(uuid.New())
		err := s.gateway.Insert(s.ctx, "annexure_address", s.newRow(other, map[string]string{"street": "x"}))
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("update touches only given fields and bumps updated_at", func() {
		at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		n, err := s.gateway.Update(s.ctx, "annexure_address", candidateID, map[string]string{"pincode": "411001"}, at)
		s.Require().NoError(err)
		s.Equal(int64(1), n)

		found, err := s.gateway.FindByCandidate(s.ctx, "annexure_address", candidateID)
		s.Require().NoError(err)
		s.Equal("Pune", found.Fields["city"])
		s.Equal("411001", found.Fields["pincode"])
		s.Equal(at, found.UpdatedAt)
	})

	s.Run("update of absent candidate affects zero rows", func() {
		n, err := s.gateway.Update(s.ctx, "annexure_address", id.CandidateID(uuid.New()), map[string]string{"city": "z"}, time.Now())
		s.Require().NoError(err)
		s.Zero(n)
	})
}
