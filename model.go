package wrs

import (
	"encoding/json"
	"strings"
)

const modelSuffix = "model"

// Column describes a field of a model.
type Column struct {
	Name string
	// Default produces the value of the column when the parsed data has
	// none.
	Default func() any
	// Hidden columns are kept on records but stripped when a record is sent
	// to a client.
	Hidden bool
}

// Model is a named set of columns used to parse client data into records.
type Model struct {
	name    string
	columns []Column
}

// NewModel creates a model.
func NewModel(name string, columns ...Column) *Model {
	return &Model{name: name, columns: columns}
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.name
}

// Columns returns the columns of the model.
func (m *Model) Columns() []Column {
	return m.columns
}

// Parse builds a record from a map, filling missing values from column
// defaults. Keys that are not columns are ignored.
func (m *Model) Parse(data map[string]any) *Record {
	record := &Record{model: m, values: make(map[string]any, len(m.columns))}
	for _, column := range m.columns {
		value, ok := data[column.Name]
		if (!ok || value == nil) && column.Default != nil {
			value = column.Default()
		}
		record.values[column.Name] = value
	}
	return record
}

// Decode parses JSON object data into a record.
func (m *Model) Decode(data json.RawMessage) (*Record, error) {
	values := map[string]any{}
	if len(data) != 0 {
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, err
		}
	}
	return m.Parse(values), nil
}

// Record is a parsed instance of a model.
type Record struct {
	model  *Model
	values map[string]any
}

var _ Sendable = &Record{}

// Model returns the model of the record.
func (r *Record) Model() *Model {
	return r.model
}

// Get returns the value of a column.
func (r *Record) Get(column string) any {
	return r.values[column]
}

// Set changes the value of a column. Names that are not columns are ignored.
func (r *Record) Set(column string, value any) {
	for _, c := range r.model.columns {
		if c.Name == column {
			r.values[column] = value
			return
		}
	}
}

// Sendable returns the record values without hidden columns.
func (r *Record) Sendable() any {
	values := make(map[string]any, len(r.values))
	for _, column := range r.model.columns {
		if column.Hidden {
			continue
		}
		values[column.Name] = r.values[column.Name]
	}
	return values
}

// MarshalJSON encodes every column, hidden ones included.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.values)
}

func modelKey(name string) string {
	return strings.TrimSuffix(strings.ToLower(name), modelSuffix)
}
