package catalog

import (
	"fmt"
	"time"
)

// Feed is one tracked RSS source.
type Feed struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Link         string     `json:"link"`
	SubscribedAt *time.Time `json:"subscribed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Subscribed reports whether the feed is actively subscribed.
func (f Feed) Subscribed() bool {
	return f.SubscribedAt != nil
}

// DecodeFeeds converts the rows of a feed selection into typed feeds.
func DecodeFeeds(rs ResultSet) ([]Feed, error) {
	feeds := make([]Feed, 0, len(rs.Rows))
	for i, row := range rs.Rows {
		f, err := decodeFeed(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		feeds = append(feeds, f)
	}
	return feeds, nil
}

func decodeFeed(row Row) (Feed, error) {
	var f Feed
	var err error

	if f.ID, err = asInt(row["id"]); err != nil {
		return Feed{}, fmt.Errorf("id: %w", err)
	}
	f.Title = asString(row["title"])
	f.Link = asString(row["link"])

	if f.SubscribedAt, err = asTime(row["subscribed_at"]); err != nil {
		return Feed{}, fmt.Errorf("subscribed_at: %w", err)
	}
	created, err := asTime(row["created_at"])
	if err != nil {
		return Feed{}, fmt.Errorf("created_at: %w", err)
	}
	if created != nil {
		f.CreatedAt = *created
	}
	return f, nil
}

// DecodeCount reads the single count column of a countFeeds result.
func DecodeCount(rs ResultSet) (int64, error) {
	if len(rs.Rows) != 1 {
		return 0, fmt.Errorf("expected 1 row, got %d", len(rs.Rows))
	}
	return asInt(rs.Rows[0]["count"])
}

func asInt(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

func asTime(v any) (*time.Time, error) {
	var raw string
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &t, nil
	case string:
		raw = t
	case []byte:
		raw = string(t)
	default:
		return nil, fmt.Errorf("unexpected type %T", v)
	}

	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed, nil
		}
	}
	return nil, fmt.Errorf("unparseable time %q", raw)
}
