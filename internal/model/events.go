package model

// SearchApplied is emitted after a search response has been applied to the
// controller state. It is published to Kafka topic catalog.search.applied.
type SearchApplied struct {
	Keyword      string                `json:"keyword"`
	Facets       map[FacetKey][]string `json:"facets"`
	Epoch        uint64                `json:"epoch"`
	ProductCount int                   `json:"product_count"`
	Timestamp    string                `json:"timestamp"` // RFC3339Nano, UTC
}

// ChatTurn is emitted once an assistant answer has finished streaming.
// It is published to Kafka topic catalog.chat.turns.
type ChatTurn struct {
	TurnID    string `json:"turn_id"` // id of the assistant message
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Failed    bool   `json:"failed"`
	Timestamp string `json:"timestamp"`
}
