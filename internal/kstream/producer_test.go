package kstream

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"byproduct-catalog/internal/model"
)

func TestSearchAppliedMessage(t *testing.T) {
	evt := model.SearchApplied{
		Keyword:      "bran",
		Facets:       map[model.FacetKey][]string{model.FacetCategory: {"c1"}},
		Epoch:        7,
		ProductCount: 2,
	}
	msg, err := searchAppliedMessage(evt)
	if err != nil {
		t.Fatalf("searchAppliedMessage: %v", err)
	}
	if string(msg.Key) != "bran" {
		t.Fatalf("key = %q", msg.Key)
	}

	var got model.SearchApplied
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("value is not JSON: %v", err)
	}
	if got.Epoch != 7 || got.ProductCount != 2 || got.Facets[model.FacetCategory][0] != "c1" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestChatTurnMessage(t *testing.T) {
	msg, err := chatTurnMessage(model.ChatTurn{TurnID: "t-1", Question: "q?", Answer: "a", Failed: true})
	if err != nil {
		t.Fatalf("chatTurnMessage: %v", err)
	}
	if string(msg.Key) != "t-1" {
		t.Fatalf("key = %q", msg.Key)
	}
	var got map[string]any
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("value is not JSON: %v", err)
	}
	if got["failed"] != true {
		t.Fatalf("unexpected payload %v", got)
	}
}

func TestWriterReportsDeliveryFailures(t *testing.T) {
	log, hook := test.NewNullLogger()
	w := kafkaWriter("localhost:9092", TopicChatTurns, log)
	if !w.Async || w.Completion == nil {
		t.Fatal("async writer must report deliveries through Completion")
	}

	w.Completion([]kafka.Message{{}, {}}, nil)
	if len(hook.AllEntries()) != 0 {
		t.Fatalf("successful delivery logged %d entries", len(hook.AllEntries()))
	}

	w.Completion([]kafka.Message{{}, {}}, errors.New("leader not available"))
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.WarnLevel {
		t.Fatalf("expected a warning, got %+v", entry)
	}
	if entry.Data["topic"] != TopicChatTurns || entry.Data["messages"] != 2 {
		t.Fatalf("unexpected fields %v", entry.Data)
	}
}
