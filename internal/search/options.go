package search

import (
	"fmt"

	"github.com/kitbuilder587/tavily-go/internal/domain"
)

type Depth string

const (
	DepthBasic    Depth = "basic"
	DepthAdvanced Depth = "advanced"
)

func (d Depth) IsValid() bool {
	return d == "" || d == DepthBasic || d == DepthAdvanced
}

type Topic string

const (
	TopicGeneral Topic = "general"
	TopicNews    Topic = "news"
	TopicFinance Topic = "finance"
)

func (t Topic) IsValid() bool {
	switch t {
	case "", TopicGeneral, TopicNews, TopicFinance:
		return true
	}
	return false
}

type TimeRange string

const (
	TimeRangeDay   TimeRange = "day"
	TimeRangeWeek  TimeRange = "week"
	TimeRangeMonth TimeRange = "month"
	TimeRangeYear  TimeRange = "year"
)

func (r TimeRange) IsValid() bool {
	switch r {
	case "", TimeRangeDay, TimeRangeWeek, TimeRangeMonth, TimeRangeYear:
		return true
	}
	return false
}

const (
	DefaultMaxResults = 5
	DefaultDaysBack   = 7
	DefaultMaxTokens  = 4000
)

// SearchOptions - настройки одного поиска. Нулевые значения означают
// дефолт сервиса: depth=basic, topic=general, max_results=5, days=7.
type SearchOptions struct {
	SearchDepth       Depth     `json:"search_depth,omitempty"`
	Topic             Topic     `json:"topic,omitempty"`
	TimeRange         TimeRange `json:"time_range,omitempty"`
	DaysBack          int       `json:"days,omitempty"` // only sent for topic=news
	MaxResults        int       `json:"max_results,omitempty"`
	IncludeDomains    []string  `json:"include_domains,omitempty"`
	ExcludeDomains    []string  `json:"exclude_domains,omitempty"`
	IncludeAnswer     bool      `json:"include_answer,omitempty"`
	IncludeRawContent bool      `json:"include_raw_content,omitempty"`
	IncludeImages     bool      `json:"include_images,omitempty"`
}

func (o SearchOptions) Validate() error {
	if !o.SearchDepth.IsValid() {
		return domain.NewValidationError("search_depth", fmt.Sprintf("unknown value %q", o.SearchDepth))
	}
	if !o.Topic.IsValid() {
		return domain.NewValidationError("topic", fmt.Sprintf("unknown value %q", o.Topic))
	}
	if !o.TimeRange.IsValid() {
		return domain.NewValidationError("time_range", fmt.Sprintf("unknown value %q", o.TimeRange))
	}
	if o.DaysBack < 0 {
		return domain.NewValidationError("days", "must be non-negative")
	}
	if o.MaxResults < 0 {
		return domain.NewValidationError("max_results", "must be non-negative")
	}
	return nil
}

type Category string

var allowedCategories = map[Category]struct{}{
	"About": {}, "Authentication": {}, "Blog": {}, "Blogs": {}, "Careers": {},
	"Community": {}, "Contact": {}, "Developer": {}, "Developers": {},
	"Documentation": {}, "Downloads": {}, "E-Commerce": {}, "Enterprise": {},
	"Events": {}, "Media": {}, "Partners": {}, "People": {}, "Pricing": {},
	"Privacy": {}, "Solutions": {}, "Status": {}, "Terms": {},
}

func (c Category) IsValid() bool {
	_, ok := allowedCategories[c]
	return ok
}

func (r MapRequest) Validate() error {
	if r.URL == "" {
		return domain.NewValidationError("url", "required")
	}
	for name, v := range map[string]*int{"max_depth": r.MaxDepth, "max_breadth": r.MaxBreadth, "limit": r.Limit} {
		if v != nil && *v < 0 {
			return domain.NewValidationError(name, "must be non-negative")
		}
	}
	for _, c := range r.Categories {
		if !c.IsValid() {
			return domain.NewValidationError("categories", fmt.Sprintf("unknown category %q", c))
		}
	}
	return nil
}

func (r CrawlRequest) Validate() error {
	if err := r.MapRequest.Validate(); err != nil {
		return err
	}
	if !r.ExtractDepth.IsValid() {
		return domain.NewValidationError("extract_depth", fmt.Sprintf("unknown value %q", r.ExtractDepth))
	}
	return nil
}

func (r ExtractRequest) Validate() error {
	if len(r.URLs) == 0 {
		return domain.NewValidationError("urls", "at least one url is required")
	}
	if !r.ExtractDepth.IsValid() {
		return domain.NewValidationError("extract_depth", fmt.Sprintf("unknown value %q", r.ExtractDepth))
	}
	return nil
}
