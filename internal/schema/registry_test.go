package schema

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veriform/internal/schema/cache"
	"veriform/internal/schema/store"
	id "veriform/pkg/domain"
	dErrors "veriform/pkg/domain-errors"
)

const educationSchema = `{
	"db_table": "education_check",
	"rows": [
		{"inputs": [
			{"name": "university_name", "label": "University", "type": "text"},
			{"name": "passing_year", "label": "Passing Year", "type": "number"}
		]},
		{"inputs": [
			{"name": "roll_no", "label": "Roll No", "type": "text"},
			{"name": "university_name", "label": "University (repeat)", "type": "text"}
		]}
	]
}`

type RegistrySuite struct {
	suite.Suite
	source *store.InMemory
	ctx    context.Context
}

func (s *RegistrySuite) SetupTest() {
	s.source = store.NewInMemory()
	s.source.Put("education", educationSchema)
	s.ctx = context.Background()
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) TestLoadSchema() {
	registry := NewRegistry(s.source)

	s.Run("parses table and ordered deduplicated fields", func() {
		schema, err := registry.LoadSchema(s.ctx, "education")
		s.Require().NoError(err)
		s.Equal(id.ServiceID("education"), schema.ServiceID)
		s.Equal("education_check", schema.Table)
		s.Equal([]string{"university_name", "passing_year", "roll_no"}, schema.FieldNames())
	})

	s.Run("unknown service is not found", func() {
		_, err := registry.LoadSchema(s.ctx, "aadhaar")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.False(dErrors.HasCode(err, dErrors.CodeSchemaCorrupt))
	})

	s.Run("unparseable text is schema corrupt, not not-found", func() {
		s.source.Put("broken", `{"db_table": "x", "rows": [`)
		_, err := registry.LoadSchema(s.ctx, "broken")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeSchemaCorrupt))
		s.False(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("schema without storage unit is corrupt", func() {
		s.source.Put("no-table", `{"rows": [{"inputs": [{"name": "a"}]}]}`)
		_, err := registry.LoadSchema(s.ctx, "no-table")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeSchemaCorrupt))
	})

	s.Run("schema without inputs is corrupt", func() {
		s.source.Put("no-inputs", `{"db_table": "x", "rows": []}`)
		_, err := registry.LoadSchema(s.ctx, "no-inputs")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeSchemaCorrupt))
	})

	s.Run("empty service id is invalid input", func() {
		_, err := registry.LoadSchema(s.ctx, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("escaped quotes in schema text are unwrapped before parsing", func() {
		s.source.Put("escaped", `{\"db_table\": \"address_check\", \"rows\": [{\"inputs\": [{\"name\": \"city\"}]}]}`)
		schema, err := registry.LoadSchema(s.ctx, "escaped")
		s.Require().NoError(err)
		s.Equal("address_check", schema.Table)
		s.Equal([]string{"city"}, schema.FieldNames())
	})
}

func (s *RegistrySuite) TestCache() {
	s.Run("second load is served from cache", func() {
		registry := NewRegistry(s.source, WithCache(cache.NewInMemory(time.Minute)))

		first, err := registry.LoadSchema(s.ctx, "education")
		s.Require().NoError(err)

		// Swapping the stored text must not be visible while the entry lives.
		s.source.Put("education", `{"db_table": "changed", "rows": [{"inputs": [{"name": "a"}]}]}`)
		second, err := registry.LoadSchema(s.ctx, "education")
		s.Require().NoError(err)
		s.Equal(first.Table, second.Table)
	})

	s.Run("expired entry falls through to the source", func() {
		registry := NewRegistry(s.source, WithCache(cache.NewInMemory(time.Nanosecond)))

		_, err := registry.LoadSchema(s.ctx, "education")
		s.Require().NoError(err)

		s.source.Put("education", `{"db_table": "changed", "rows": [{"inputs": [{"name": "a"}]}]}`)
		time.Sleep(time.Millisecond)
		schema, err := registry.LoadSchema(s.ctx, "education")
		s.Require().NoError(err)
		s.Equal("changed", schema.Table)
	})

	s.Run("without a cache every load hits the source", func() {
		registry := NewRegistry(s.source)
		_, err := registry.LoadSchema(s.ctx, "education")
		s.Require().NoError(err)

		s.source.Put("education", `{"db_table": "changed", "rows": [{"inputs": [{"name": "a"}]}]}`)
		schema, err := registry.LoadSchema(s.ctx, "education")
		s.Require().NoError(err)
		s.Equal("changed", schema.Table)
	})

	s.Run("failed parses are never cached", func() {
		registry := NewRegistry(s.source, WithCache(cache.NewInMemory(time.Minute)))
		s.source.Put("flaky", `not json`)
		_, err := registry.LoadSchema(s.ctx, "flaky")
		s.Require().Error(err)

		s.source.Put("flaky", `{"db_table": "x", "rows": [{"inputs": [{"name": "a"}]}]}`)
		schema, err := registry.LoadSchema(s.ctx, "flaky")
		s.Require().NoError(err)
		s.Equal("x", schema.Table)
	})
}

func (s *RegistrySuite) TestServices() {
	s.source.Put("address", `{}`)
	registry := NewRegistry(s.source)
	services, err := registry.Services(s.ctx)
	s.Require().NoError(err)
	s.Equal([]id.ServiceID{"address", "education"}, services)
}
