package models

import (
	"bytes"
	"encoding/json"
)

// Shapes for the Reddit comment-tree and listing endpoints. Only the fields
// we read are declared; everything else in the payload is ignored.

type RedditListing struct {
	Kind string            `json:"kind"`
	Data RedditListingData `json:"data"`
}

type RedditListingData struct {
	After    string        `json:"after"`
	Children []RedditThing `json:"children"`
}

type RedditThing struct {
	Kind string          `json:"kind"` // t1 = comment, t3 = link, more = collapsed tail
	Data RedditThingData `json:"data"`
}

type RedditThingData struct {
	ID         string  `json:"id"`
	Author     string  `json:"author"`
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	Selftext   string  `json:"selftext"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc"`
	Ups        int     `json:"ups"`

	// Replies is "" for leaf comments and a nested listing otherwise,
	// so it cannot be typed directly.
	Replies json.RawMessage `json:"replies,omitempty"`
}

// ReplyListing decodes the replies field when it holds a nested listing.
// Returns false for leaf comments (empty string or absent).
func (d RedditThingData) ReplyListing() (RedditListing, bool) {
	raw := bytes.TrimSpace(d.Replies)
	if len(raw) == 0 || raw[0] != '{' {
		return RedditListing{}, false
	}
	var listing RedditListing
	if err := json.Unmarshal(raw, &listing); err != nil {
		return RedditListing{}, false
	}
	return listing, true
}
