package scraper

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Trimmed shape of the comments endpoint: post listing first, then the
// comment tree with one nested reply, one short comment, one deleted comment
// and a "more" stub.
const threadFixture = `[
  {
    "kind": "Listing",
    "data": {
      "children": [
        {"kind": "t3", "data": {"id": "post1", "title": "Thread title", "selftext": "body", "permalink": "/r/golang/comments/post1/thread_title/"}}
      ]
    }
  },
  {
    "kind": "Listing",
    "data": {
      "children": [
        {
          "kind": "t1",
          "data": {
            "id": "c1",
            "author": "alice",
            "body": "This release is genuinely great work",
            "permalink": "/r/golang/comments/post1/thread_title/c1/",
            "created_utc": 1756300000,
            "replies": {
              "kind": "Listing",
              "data": {
                "children": [
                  {
                    "kind": "t1",
                    "data": {
                      "id": "c2",
                      "author": "bob",
                      "body": "Strongly disagree, it broke everything for me",
                      "permalink": "/r/golang/comments/post1/thread_title/c2/",
                      "created_utc": 1756300100,
                      "replies": ""
                    }
                  }
                ]
              }
            }
          }
        },
        {"kind": "t1", "data": {"id": "c3", "author": "carol", "body": "+1", "permalink": "/r/golang/comments/post1/thread_title/c3/", "created_utc": 1756300200, "replies": ""}},
        {"kind": "t1", "data": {"id": "c4", "author": "[deleted]", "body": "[deleted]", "permalink": "/r/golang/comments/post1/thread_title/c4/", "created_utc": 1756300300, "replies": ""}},
        {"kind": "more", "data": {"id": "more1"}}
      ]
    }
  }
]`

func TestParseThreadComments(t *testing.T) {
	items, err := ParseThreadComments([]byte(threadFixture))
	if err != nil {
		t.Fatalf("ParseThreadComments failed: %v", err)
	}

	// c3 is below the length filter, c4 is deleted, the more stub is not a
	// comment; c2 follows its parent c1.
	var gotIDs []string
	for _, item := range items {
		gotIDs = append(gotIDs, item.Source.ItemID)
	}
	if diff := cmp.Diff([]string{"c1", "c2"}, gotIDs); diff != "" {
		t.Fatalf("item ids mismatch (-want +got):\n%s", diff)
	}

	first := items[0]
	if first.Author != "alice" {
		t.Errorf("author = %q, want alice", first.Author)
	}
	if first.Source.URL != "https://www.reddit.com/r/golang/comments/post1/thread_title/c1/" {
		t.Errorf("url = %q", first.Source.URL)
	}
	if first.CollectedAt.Unix() != 1756300000 {
		t.Errorf("collected_at = %v", first.CollectedAt)
	}
}

func TestParseThreadCommentsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "<html>rate limited</html>"},
		{name: "single listing", data: `[{"kind": "Listing", "data": {"children": []}}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseThreadComments([]byte(tt.data)); err == nil {
				t.Fatal("ParseThreadComments succeeded, want error")
			}
		})
	}
}

func TestThreadPermalink(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "full thread url",
			url:  "https://www.reddit.com/r/golang/comments/abc123/title/",
			want: "/r/golang/comments/abc123/title/",
		},
		{
			name:    "x url rejected",
			url:     "https://x.com/u/status/1",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := threadPermalink(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("got %q, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("threadPermalink failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
