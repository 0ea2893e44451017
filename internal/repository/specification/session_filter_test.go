package specification

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"ai-tutoring-be/internal/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionFilterValidate(t *testing.T) {
	tests := []struct {
		name    string
		filter  SessionFilter
		wantErr bool
	}{
		{"empty filter", SessionFilter{}, false},
		{"known command", SessionFilter{CommandTypes: []string{"solve", "essay"}}, false},
		{"unknown command", SessionFilter{CommandTypes: []string{"hack"}}, true},
		{"all range", SessionFilter{DateRange: "all"}, false},
		{"week range", SessionFilter{DateRange: "week"}, false},
		{"bad range", SessionFilter{DateRange: "fortnight"}, true},
		{"search at limit", SessionFilter{Search: strings.Repeat("s", 500)}, false},
		{"search over limit", SessionFilter{Search: strings.Repeat("s", 501)}, true},
		{"multibyte search at limit", SessionFilter{Search: strings.Repeat("ж", 500)}, false},
		{"multibyte search over limit", SessionFilter{Search: strings.Repeat("ж", 501)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.IsValidation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSessionFilterSanitize(t *testing.T) {
	f := SessionFilter{
		Search:       strings.Repeat("q", 600),
		DateRange:    "fortnight",
		CommandTypes: []string{"solve", "hack", "essay"},
	}.Sanitize()

	assert.Len(t, f.Search, 500)
	assert.Equal(t, "all", f.DateRange)
	assert.Equal(t, []string{"solve", "essay"}, f.CommandTypes)
}

func TestSessionFilterSanitizeKeepsValidUTF8(t *testing.T) {
	f := SessionFilter{Search: strings.Repeat("ж", 600)}.Sanitize()

	assert.True(t, utf8.ValidString(f.Search))
	assert.Equal(t, 500, utf8.RuneCountInString(f.Search))
	assert.Equal(t, strings.Repeat("ж", 500), f.Search)
}

func TestPageRequestValidate(t *testing.T) {
	assert.NoError(t, PageRequest{Page: 1, Limit: 100}.Validate(100))
	assert.Error(t, PageRequest{Page: 0, Limit: 10}.Validate(100))
	assert.Error(t, PageRequest{Page: 1, Limit: 0}.Validate(100))
	assert.Error(t, PageRequest{Page: 1, Limit: 101}.Validate(100))
	assert.Error(t, PageRequest{Page: 1, Limit: 10, SortOrder: "sideways"}.Validate(100))
	assert.NoError(t, PageRequest{Page: 1, Limit: 10, SortOrder: "asc"}.Validate(100))
}

func TestPageRequestSanitize(t *testing.T) {
	p := PageRequest{Page: -3, Limit: 9999, SortOrder: "sideways"}.Sanitize(200, 50)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 200, p.Limit)
	assert.Equal(t, "", p.SortOrder)

	p = PageRequest{}.Sanitize(200, 50)
	assert.Equal(t, 50, p.Limit)
}

func TestBuildSessionSpecs(t *testing.T) {
	userId := uuid.New()
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	t.Run("base specs only", func(t *testing.T) {
		specs := BuildSessionSpecs(userId, SessionFilter{}, now)
		require.Len(t, specs, 2)
		assert.IsType(t, ByUserID{}, specs[0])
		assert.IsType(t, NotHidden{}, specs[1])
	})

	t.Run("all range adds no cutoff", func(t *testing.T) {
		specs := BuildSessionSpecs(userId, SessionFilter{DateRange: "all"}, now)
		assert.Len(t, specs, 2)
	})

	t.Run("full filter", func(t *testing.T) {
		specs := BuildSessionSpecs(userId, SessionFilter{
			Search:       "integrals",
			DateRange:    "week",
			CommandTypes: []string{"solve"},
		}, now)
		require.Len(t, specs, 5)

		var cutoff UpdatedSince
		var variants HasCommandVariant
		for _, s := range specs {
			switch v := s.(type) {
			case UpdatedSince:
				cutoff = v
			case HasCommandVariant:
				variants = v
			}
		}
		assert.Equal(t, now.Add(-7*24*time.Hour), cutoff.Cutoff)
		assert.Contains(t, variants.Variants, "/solve")
		assert.Contains(t, variants.Variants, "/реши")
	})
}

func TestBuildOrder(t *testing.T) {
	assert.Equal(t, OrderBy{Field: "updated_at", Desc: true},
		BuildOrder(PageRequest{}, "updated_at", true))
	assert.Equal(t, OrderBy{Field: "updated_at", Desc: false},
		BuildOrder(PageRequest{SortOrder: "asc"}, "updated_at", true))
	assert.Equal(t, OrderBy{Field: "created_at", Desc: true},
		BuildOrder(PageRequest{SortBy: "created_at", SortOrder: "desc"}, "updated_at", false))
}

func TestBuildPagination(t *testing.T) {
	p := BuildPagination(PageRequest{Page: 3, Limit: 20})
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, 40, p.Offset)
}
