package specification

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"ai-tutoring-be/internal/constant"
	"ai-tutoring-be/internal/pkg/apperror"

	"github.com/google/uuid"
)

// SessionFilter is the caller-facing filter spec for session listing/search.
type SessionFilter struct {
	Search       string
	DateRange    string // hour | day | week | month | year | all
	CommandTypes []string
}

// PageRequest carries pagination and ordering. SortOrder is asc or desc.
type PageRequest struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

var dateRangeDurations = map[string]time.Duration{
	"hour":  time.Hour,
	"day":   24 * time.Hour,
	"week":  7 * 24 * time.Hour,
	"month": 30 * 24 * time.Hour,
	"year":  365 * 24 * time.Hour,
}

// Validate is the strict variant: it rejects unknown command tags, oversized
// search text and out-of-range pagination with descriptive errors before any
// query executes.
func (f SessionFilter) Validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(f.Search)) > constant.MaxSearchQueryLength {
		return apperror.Validation("search", "search text exceeds maximum length")
	}
	if f.DateRange != "" && f.DateRange != "all" {
		if _, ok := dateRangeDurations[f.DateRange]; !ok {
			return apperror.Validation("dateRange",
				"dateRange must be one of: hour, day, week, month, year, all")
		}
	}
	for _, tag := range f.CommandTypes {
		if !constant.IsKnownCommandType(tag) {
			return apperror.Validation("commandTypes",
				fmt.Sprintf("unknown command type %q", tag))
		}
	}
	return nil
}

func (p PageRequest) Validate(maxLimit int) error {
	if p.Page < 1 {
		return apperror.Validation("page", "page must be >= 1")
	}
	if p.Limit < 1 || p.Limit > maxLimit {
		return apperror.Validation("limit",
			fmt.Sprintf("limit must be between 1 and %d", maxLimit))
	}
	if p.SortOrder != "" && p.SortOrder != "asc" && p.SortOrder != "desc" {
		return apperror.Validation("sortOrder", "sortOrder must be asc or desc")
	}
	return nil
}

// Sanitize is the lenient variant used at the public-facing boundary: invalid
// values are clamped or stripped to safe defaults instead of failing.
func (f SessionFilter) Sanitize() SessionFilter {
	out := SessionFilter{}
	search := strings.TrimSpace(f.Search)
	if utf8.RuneCountInString(search) > constant.MaxSearchQueryLength {
		// Rune boundary, never a byte slice: the result must stay valid UTF-8.
		search = string([]rune(search)[:constant.MaxSearchQueryLength])
	}
	out.Search = search

	if f.DateRange == "all" {
		out.DateRange = "all"
	} else if _, ok := dateRangeDurations[f.DateRange]; ok {
		out.DateRange = f.DateRange
	} else {
		out.DateRange = "all"
	}

	for _, tag := range f.CommandTypes {
		if constant.IsKnownCommandType(tag) {
			out.CommandTypes = append(out.CommandTypes, tag)
		}
	}
	return out
}

func (p PageRequest) Sanitize(maxLimit, defaultLimit int) PageRequest {
	out := p
	if out.Page < 1 {
		out.Page = 1
	}
	if out.Limit < 1 {
		out.Limit = defaultLimit
	}
	if out.Limit > maxLimit {
		out.Limit = maxLimit
	}
	if out.SortOrder != "asc" && out.SortOrder != "desc" {
		out.SortOrder = ""
	}
	return out
}

// BuildSessionSpecs translates a validated filter into query predicates.
// The returned specs never include ordering or pagination; combine with
// BuildOrder and BuildPagination.
func BuildSessionSpecs(userId uuid.UUID, f SessionFilter, now time.Time) []Specification {
	specs := []Specification{
		ByUserID{UserID: userId},
		NotHidden{},
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		specs = append(specs, SessionTextSearch{Query: search})
	}
	if d, ok := dateRangeDurations[f.DateRange]; ok {
		specs = append(specs, UpdatedSince{Cutoff: now.Add(-d)})
	}
	if len(f.CommandTypes) > 0 {
		variants := make([]string, 0, len(f.CommandTypes)*4)
		for _, tag := range f.CommandTypes {
			variants = append(variants, constant.CommandVariants[tag]...)
		}
		specs = append(specs, HasCommandVariant{Variants: variants})
	}
	return specs
}

// BuildOrder maps a sort request to an order-by clause. defaultDesc controls
// the direction when no explicit order is requested.
func BuildOrder(p PageRequest, defaultField string, defaultDesc bool) OrderBy {
	field := p.SortBy
	if field == "" {
		field = defaultField
	}
	desc := defaultDesc
	if p.SortOrder == "asc" {
		desc = false
	} else if p.SortOrder == "desc" {
		desc = true
	}
	return OrderBy{Field: field, Desc: desc}
}

func BuildPagination(p PageRequest) Pagination {
	return Pagination{Limit: p.Limit, Offset: (p.Page - 1) * p.Limit}
}
