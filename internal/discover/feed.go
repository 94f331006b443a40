package discover

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
)

const maxPerFeed = 50

// FeedSource reads an RSS/Atom search feed (for example Google News)
// and mines its item titles.
type FeedSource struct {
	urlTemplate string
	parser      *gofeed.Parser
}

// NewFeedSource creates a feed source. urlTemplate holds one %s for the query.
func NewFeedSource(urlTemplate string) *FeedSource {
	return &FeedSource{urlTemplate: urlTemplate, parser: gofeed.NewParser()}
}

func (f *FeedSource) Name() string { return "feed" }

func (f *FeedSource) IsConfigured() bool {
	return strings.Contains(f.urlTemplate, "%s")
}

func (f *FeedSource) Discover(ctx context.Context, info brand.CompanyInfo) ([]string, error) {
	feedURL := fmt.Sprintf(f.urlTemplate, url.QueryEscape(info.Name+" vs"))
	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	var titles []string
	for _, item := range feed.Items {
		if len(titles) >= maxPerFeed {
			break
		}
		if title := strings.TrimSpace(item.Title); title != "" {
			titles = append(titles, title)
		}
	}

	logrus.WithFields(logrus.Fields{"feed": feed.Title, "items": len(titles)}).Debug("Parsed search feed")
	return candidatesFromHeadlines(titles, info.Name), nil
}
