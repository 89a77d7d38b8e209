package model

import (
	"fmt"
	"time"
)

// NewsStory is a single headline from the news endpoints.
type NewsStory struct {
	Category string
	Time     time.Time
	Headline string
	Image    string
	Related  string
	Source   string
	Summary  string
	URL      string
}

// NewsScope selects top stories or company news for one symbol.
type NewsScope struct {
	Symbol Symbol // empty for top stories
}

// TopStories is the general market news scope.
var TopStories = NewsScope{}

// CompanyNews returns the scope for a single symbol.
func CompanyNews(symbol Symbol) NewsScope {
	return NewsScope{Symbol: symbol}
}

// IsTopStories reports whether the scope is the general feed.
func (s NewsScope) IsTopStories() bool { return s.Symbol == "" }

func (s NewsScope) String() string {
	if s.IsTopStories() {
		return "top stories"
	}
	return fmt.Sprintf("company:%s", s.Symbol)
}

// SearchResult is one match from symbol lookup.
type SearchResult struct {
	Description   string
	DisplaySymbol string
	Symbol        string
	Type          string
}
