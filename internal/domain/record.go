package domain

// ScoutingRecord is one normalized observation of a team in a match. Values are
// int64, float64, bool, string, or nil, and the key set is a subset of the
// descriptor's columns.
type ScoutingRecord map[string]any

// Keys returns the record's field names in no particular order.
func (r ScoutingRecord) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	return keys
}

// Clone returns a shallow copy of the record.
func (r ScoutingRecord) Clone() ScoutingRecord {
	out := make(ScoutingRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// SinkStatus is the outcome string a sink reports for a successful write.
type SinkStatus string

// Sink outcomes.
const (
	StatusCreated   SinkStatus = "created"
	StatusAppended  SinkStatus = "appended"
	StatusRewritten SinkStatus = "rewritten"
	StatusInserted  SinkStatus = "inserted"
)

// Submission sources.
const (
	SourceJSON = "json"
	SourceForm = "form"
	SourceScan = "scan"
)
