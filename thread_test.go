package graw

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/jamesprial/go-reddit-listings/pkg/types"
)

func moreJSON(parent string, children ...string) string {
	return thingJSON("more", fmt.Sprintf(`{"id":"m","name":"t1_m","parent_id":%q,"count":%d,"children":["%s"]}`, parent, len(children), strings.Join(children, `","`)))
}

// threadJSON renders a thread response holding submission abc.
func threadJSON(comments ...string) string {
	return fmt.Sprintf("[%s,%s]", listingJSON("", submissionJSON("abc")), listingJSON("", comments...))
}

func withReplies(comment string, replies ...string) string {
	return strings.Replace(comment, `"replies":""`, `"replies":`+listingJSON("", replies...), 1)
}

func TestGetThread_ResolvesMoreComments(t *testing.T) {
	hidden := map[string]string{
		"b": commentJSON("b", "t3_abc"),
		"c": commentJSON("c", "t1_a"),
		"d": commentJSON("d", "t1_b"),
		"e": commentJSON("e", "t1_c"),
	}
	// c comes back with a placeholder of its own.
	extra := map[string]string{"c": moreJSON("t1_c", "e")}

	api := newFakeAPI(t)
	api.handle("/comments/abc.json", threadJSON(
		withReplies(commentJSON("a", "t3_abc"), moreJSON("t1_a", "c")),
		moreJSON("t3_abc", "b", "d"),
	))
	api.handleFunc("/api/morechildren.json", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("link_id") != "t3_abc" || q.Get("api_type") != "json" {
			t.Errorf("unexpected morechildren query %v", q)
		}
		var things []string
		for _, id := range strings.Split(q.Get("children"), ",") {
			things = append(things, hidden[id])
			if more, ok := extra[id]; ok {
				things = append(things, more)
			}
		}
		fmt.Fprintf(w, `{"json":{"errors":[],"data":{"things":[%s]}}}`, strings.Join(things, ","))
	})
	c := api.client()

	thread, err := c.GetThread(t.Context(), "abc")
	if err != nil {
		t.Fatalf("GetThread returned error: %v", err)
	}
	if thread.Submission.Title != "post abc" {
		t.Errorf("title = %q", thread.Submission.Title)
	}

	tree := NewCommentTree(thread.Comments)
	if got := tree.Count(); got != 5 {
		t.Errorf("Count = %d, want 5", got)
	}
	if got := tree.Placeholders(); len(got) != 0 {
		t.Errorf("expected no placeholders, got %d", len(got))
	}

	wantParent := map[string]string{"t1_c": "t1_a", "t1_d": "t1_b", "t1_e": "t1_c"}
	for child, parent := range wantParent {
		p := tree.GetByFullname(parent)
		if p == nil {
			t.Fatalf("parent %s missing", parent)
		}
		found := false
		for _, r := range p.Children() {
			found = found || r.Name == child
		}
		if !found {
			t.Errorf("%s is not attached under %s", child, parent)
		}
	}
	if got := len(thread.TopLevel()); got != 2 {
		t.Errorf("top level = %d, want 2", got)
	}

	if got := api.requests()[0].Query.Get("limit"); got != "1500" {
		t.Errorf("thread limit = %q, want 1500", got)
	}
}

func TestGetSubmission(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("/comments/abc.json", threadJSON())
	c := api.client()

	s, err := c.GetSubmission(t.Context(), "abc")
	if err != nil {
		t.Fatalf("GetSubmission returned error: %v", err)
	}
	if s.Name != "t3_abc" || s.GetKind() != types.KindLink {
		t.Errorf("unexpected submission %+v", s)
	}
	if got := api.requests()[0].Query.Get("limit"); got != "0" {
		t.Errorf("limit = %q, want 0", got)
	}
}

func TestGetThread_InvalidID(t *testing.T) {
	c := newFakeAPI(t).client()
	if _, err := c.GetThread(t.Context(), "t3_abc"); err == nil {
		t.Error("expected error for a prefixed id")
	}
}
