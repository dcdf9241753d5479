package domain

import (
	"log/slog"
	"strings"
	"time"
)

// Topic is the creative brief a post is written from.
type Topic struct {
	Title              string `json:"title"`
	Hook               string `json:"hook"`
	Angle              string `json:"angle"`
	EngagementQuestion string `json:"engagement_question"`
}

// ContentBody is the post copy. CharacterCount is measured after generation;
// WithinLimit reports the comparison against the platform budget, nothing is
// truncated.
type ContentBody struct {
	Text           string `json:"content"`
	Platform       string `json:"platform"`
	CharacterCount int    `json:"character_count"`
	WithinLimit    bool   `json:"within_limit"`
}

// HashtagSet holds the tags for a post. TotalPrimary always equals len(Primary).
type HashtagSet struct {
	Primary         []string `json:"primary_hashtags"`
	Alternative     []string `json:"alternative_hashtags"`
	Strategy        string   `json:"strategy"`
	ReachPrediction string   `json:"reach_prediction"`
	TotalPrimary    int      `json:"total_primary"`
}

// Parameters are the generation inputs recorded alongside a post.
type Parameters struct {
	Niche       string   `json:"niche"`
	Audience    string   `json:"audience"`
	Tone        string   `json:"tone"`
	Platform    string   `json:"platform"`
	SEOKeywords []string `json:"seo_keywords"`
}

// Post is a complete generated post. A Post with Ready=false carries only
// Error and GeneratedAt.
type Post struct {
	ID          string       `json:"post_id,omitempty"`
	GeneratedAt Timestamp    `json:"generation_timestamp"`
	Parameters  *Parameters  `json:"parameters,omitempty"`
	Topic       *Topic       `json:"topic,omitempty"`
	Content     *ContentBody `json:"content,omitempty"`
	Hashtags    *HashtagSet  `json:"hashtags,omitempty"`
	Ready       bool         `json:"ready_to_post"`
	Error       string       `json:"error,omitempty"`
}

// IndexEntry is the projection of a Post kept by the in-memory store.
type IndexEntry struct {
	ID        string
	Platform  string
	Niche     string
	Title     string
	Content   string
	Hashtags  []string
	Timestamp time.Time
	Location  string
}

// Entry projects p into an index entry stored at location.
func (p Post) Entry(location string) IndexEntry {
	e := IndexEntry{
		ID:        p.ID,
		Timestamp: p.GeneratedAt.Time,
		Location:  location,
	}
	if p.Parameters != nil {
		e.Platform = p.Parameters.Platform
		e.Niche = p.Parameters.Niche
	}
	if p.Topic != nil {
		e.Title = p.Topic.Title
	}
	if p.Content != nil {
		e.Content = p.Content.Text
	}
	if p.Hashtags != nil {
		e.Hashtags = append([]string(nil), p.Hashtags.Primary...)
	}
	return e
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp marshals as RFC 3339 and also reads zone-less ISO-8601 values,
// which are interpreted in local time. Unrecognised values decode to the zero
// time so the rest of the record is still usable.
type Timestamp struct {
	time.Time
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Time.Format(time.RFC3339Nano) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		var (
			parsed time.Time
			err    error
		)
		if layout == time.RFC3339Nano {
			parsed, err = time.Parse(layout, s)
		} else {
			parsed, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	slog.Warn("domain: unrecognised timestamp, leaving it unset", "value", s)
	t.Time = time.Time{}
	return nil
}
