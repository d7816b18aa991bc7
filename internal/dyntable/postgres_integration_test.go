//go:build integration

package dyntable_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"veriform/internal/dyntable"
	id "veriform/pkg/domain"
	"veriform/pkg/platform/sentinel"
	"veriform/pkg/platform/tx"
	"veriform/pkg/testutil/containers"
)

type PostgresGatewaySuite struct {
	suite.Suite
	pg      *containers.PostgresContainer
	gateway *dyntable.Postgres
	ctx     context.Context
}

func (s *PostgresGatewaySuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.gateway = dyntable.NewPostgres(s.pg.DB, dyntable.References{})
	s.ctx = context.Background()
}

func (s *PostgresGatewaySuite) SetupTest() {
	s.Require().NoError(s.pg.DropTables(s.ctx,
		"annexure_education", "annexure_employment", "annexure_race"))
}

func TestPostgresGatewaySuite(t *testing.T) {
	suite.Run(t, new(PostgresGatewaySuite))
}

func (s *PostgresGatewaySuite) newRow(candidateID id.CandidateID, fields map[string]string) *dyntable.Row {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &dyntable.Row{
		ID:          uuid.New(),
		CandidateID: candidateID,
		Status:      "submitted",
		CreatedAt:   now,
		UpdatedAt:   now,
		Fields:      fields,
	}
}

func (s *PostgresGatewaySuite) TestCreateAndWiden() {
	s.Run("missing unit reports not found", func() {
		_, err := s.gateway.UnitColumns(s.ctx, "annexure_education")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("create places baseline columns before declared fields", func() {
		s.Require().NoError(s.gateway.CreateUnit(s.ctx, "annexure_education",
			[]string{"university_name", "passing_year"}))

		columns, err := s.gateway.UnitColumns(s.ctx, "annexure_education")
		s.Require().NoError(err)
		s.Equal(dyntable.BaselineColumns, columns[:len(dyntable.BaselineColumns)])
		s.Contains(columns, "university_name")
		s.Contains(columns, "passing_year")
	})

	s.Run("recreate and re-add are idempotent", func() {
		s.Require().NoError(s.gateway.CreateUnit(s.ctx, "annexure_education", []string{"university_name"}))
		s.Require().NoError(s.gateway.AddColumn(s.ctx, "annexure_education", "roll_no"))
		s.Require().NoError(s.gateway.AddColumn(s.ctx, "annexure_education", "roll_no"))

		columns, err := s.gateway.UnitColumns(s.ctx, "annexure_education")
		s.Require().NoError(err)
		count := 0
		for _, col := range columns {
			if col == "roll_no" {
				count++
			}
		}
		s.Equal(1, count)
	})

	s.Run("rejects unnormalized identifiers", func() {
		err := s.gateway.CreateUnit(s.ctx, `annexure_"bad"`, nil)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)

		s.Require().NoError(s.gateway.CreateUnit(s.ctx, "annexure_employment", nil))
		err = s.gateway.AddColumn(s.ctx, "annexure_employment", "Bad-Column")
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})
}

func (s *PostgresGatewaySuite) TestConcurrentCreation() {
	g, ctx := errgroup.WithContext(s.ctx)
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			return s.gateway.CreateUnit(ctx, "annexure_race", []string{"field_a", "field_b"})
		})
	}
	s.Require().NoError(g.Wait(), "concurrent creators must all converge")

	columns, err := s.gateway.UnitColumns(s.ctx, "annexure_race")
	s.Require().NoError(err)
	s.Contains(columns, "field_a")
	s.Contains(columns, "field_b")
}

func (s *PostgresGatewaySuite) TestRows() {
	s.Require().NoError(s.gateway.CreateUnit(s.ctx, "annexure_education",
		[]string{"university_name", "passing_year"}))
	candidateID := id.CandidateID(uuid.New())

	s.Run("insert then find round-trips dynamic fields", func() {
		row := s.newRow(candidateID, map[string]string{"university_name": "Pune University"})
		s.Require().NoError(s.gateway.Insert(s.ctx, "annexure_education", row))

		found, err := s.gateway.FindByCandidate(s.ctx, "annexure_education", candidateID)
		s.Require().NoError(err)
		s.Equal(row.ID, found.ID)
		s.Equal(candidateID, found.CandidateID)
		s.Equal("submitted", found.Status)
		s.Equal("Pune University", found.Fields["university_name"])
		s.NotContains(found.Fields, "passing_year", "NULL columns stay out of the field map")
	})

	s.Run("duplicate candidate insert conflicts", func() {
		err := s.gateway.Insert(s.ctx, "annexure_education", s.newRow(candidateID, nil))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("insert into missing unit reports not found", func() {
		err := s.gateway.Insert(s.ctx, "annexure_missing", s.newRow(id.CandidateID(uuid.New()), nil))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("update rewrites only the given fields", func() {
		at := time.Now().UTC().Truncate(time.Microsecond)
		n, err := s.gateway.Update(s.ctx, "annexure_education", candidateID,
			map[string]string{"passing_year": "2018"}, at)
		s.Require().NoError(err)
		s.Equal(int64(1), n)

		found, err := s.gateway.FindByCandidate(s.ctx, "annexure_education", candidateID)
		s.Require().NoError(err)
		s.Equal("Pune University", found.Fields["university_name"])
		s.Equal("2018", found.Fields["passing_year"])
		s.WithinDuration(at, found.UpdatedAt, time.Second)
	})

	s.Run("update of unknown candidate affects zero rows", func() {
		n, err := s.gateway.Update(s.ctx, "annexure_education", id.CandidateID(uuid.New()),
			map[string]string{"passing_year": "1999"}, time.Now())
		s.Require().NoError(err)
		s.Zero(n)
	})

	s.Run("widened column is immediately writable", func() {
		s.Require().NoError(s.gateway.AddColumn(s.ctx, "annexure_education", "grade"))
		n, err := s.gateway.Update(s.ctx, "annexure_education", candidateID,
			map[string]string{"grade": "A"}, time.Now().UTC())
		s.Require().NoError(err)
		s.Equal(int64(1), n)
	})
}

func (s *PostgresGatewaySuite) TestTransactionScopedWrites() {
	s.Require().NoError(s.gateway.CreateUnit(s.ctx, "annexure_education", []string{"university_name"}))
	candidateID := id.CandidateID(uuid.New())

	dbTx, err := s.pg.DB.BeginTx(s.ctx, nil)
	s.Require().NoError(err)
	txCtx := tx.WithTx(s.ctx, dbTx)

	s.Require().NoError(s.gateway.Insert(txCtx, "annexure_education", s.newRow(candidateID, nil)))

	found, err := s.gateway.FindByCandidate(txCtx, "annexure_education", candidateID)
	s.Require().NoError(err)
	s.Equal(candidateID, found.CandidateID)

	s.Require().NoError(dbTx.Rollback())

	_, err = s.gateway.FindByCandidate(s.ctx, "annexure_education", candidateID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound, "rolled-back insert must not be visible")
}

func (s *PostgresGatewaySuite) TestConcurrentUniqueInsert() {
	s.Require().NoError(s.gateway.CreateUnit(s.ctx, "annexure_education", []string{"university_name"}))
	candidateID := id.CandidateID(uuid.New())

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			results <- s.gateway.Insert(s.ctx, "annexure_education", s.newRow(candidateID, nil))
		}()
	}
	first, second := <-results, <-results

	// Exactly one insert wins; the loser sees the unique violation as a
	// conflict it can retry as an update.
	if first == nil {
		s.Require().ErrorIs(second, sentinel.ErrConflict)
	} else {
		s.Require().ErrorIs(first, sentinel.ErrConflict)
		s.Require().NoError(second)
	}
}
