package commands

import (
	"bytes"
	"reflect"
	"testing"

	"byproduct-catalog/internal/chatstream"
	"byproduct-catalog/internal/model"
)

func TestParseQuery(t *testing.T) {
	q, err := parseQuery([]string{" rice bran "}, []string{"cid=c1, c2", "aid=a1", "cid=c3", "fid="})
	if err != nil {
		t.Fatalf("parseQuery: %v", err)
	}
	if q.Keyword != "rice bran" {
		t.Fatalf("keyword = %q", q.Keyword)
	}
	want := map[model.FacetKey][]string{
		model.FacetCategory:    {"c1", "c2", "c3"},
		model.FacetApplication: {"a1"},
		model.FacetForm:        nil,
	}
	for key, ids := range want {
		if !reflect.DeepEqual(q.SelectedIDs(key), ids) && !(len(ids) == 0 && len(q.SelectedIDs(key)) == 0) {
			t.Fatalf("%s = %v, want %v", key, q.SelectedIDs(key), ids)
		}
	}
}

func TestParseQueryErrors(t *testing.T) {
	for _, facet := range []string{"cid", "xid=1"} {
		if _, err := parseQuery(nil, []string{facet}); err == nil {
			t.Fatalf("expected %q to be rejected", facet)
		}
	}
}

func TestAnswerPrinterPrintsDeltas(t *testing.T) {
	var buf bytes.Buffer
	p := &answerPrinter{w: &buf}

	greeting := model.ChatMessage{ID: "g", Role: model.RoleAssistant, Content: chatstream.Greeting}
	user := model.ChatMessage{ID: "u", Role: model.RoleUser, Content: "okara?"}
	answer := func(content string) []model.ChatMessage {
		return []model.ChatMessage{greeting, user, {ID: "a", Role: model.RoleAssistant, Content: content}}
	}

	p.update([]model.ChatMessage{greeting})
	p.update(answer(""))
	p.update(answer("We "))
	p.update(answer("We carry "))
	p.update(answer("We carry okara."))
	p.finish()

	if buf.String() != "We carry okara.\n" {
		t.Fatalf("got %q", buf.String())
	}
}
