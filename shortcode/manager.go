package shortcode

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/surly-sh/surly/datastore"
)

// Record maps a shortcode to its target URL. The code is duplicated into the
// value for convenience; the target is opaque to this package, which never
// validates URL well-formedness.
type Record struct {
	Shortcode string `json:"shortcode"`
	Target    string `json:"target"`
	Creator   string `json:"creator"`
	Timestamp int64  `json:"timestamp"`
}

// Manager creates, resolves and deletes shortcode records against the
// shortcodes table.
type Manager struct {
	table *datastore.Table
}

// NewManager returns a Manager over the given shortcodes table.
func NewManager(table *datastore.Table) *Manager {
	return &Manager{table: table}
}

// Create allocates a fresh unique code for target and persists the record.
// A length below 1 means DefaultCodeLength. It returns
// ErrCollisionExhausted when no free code could be found within the attempt
// budget.
//
// Two callers racing on the same candidate code can both pass the occupancy
// check before either writes; the physical store then resolves the race as
// last-write-wins. Given the code-space size that is an accepted risk, not
// something this method guards against.
func (m *Manager) Create(target, creator string, length int, prefix string) (Record, error) {
	if length < 1 {
		length = DefaultCodeLength
	}

	code, err := AllocateUnique(length, prefix, m.table.Contains, DefaultAttempts)
	if err != nil {
		return Record{}, err
	}

	record := Record{
		Shortcode: code,
		Target:    target,
		Creator:   creator,
		Timestamp: time.Now().Unix(),
	}

	value, err := json.Marshal(record)
	if err != nil {
		return Record{}, fmt.Errorf("can't encode the shortcode record: %v", err)
	}

	if err := m.table.Write(code, value); err != nil {
		return Record{}, err
	}

	return record, nil
}

// Resolve returns the record stored under code. An unknown code is reported
// through the second return value, never as an error.
func (m *Manager) Resolve(code string) (Record, bool, error) {
	value, ok, err := m.table.Read(code)
	if err != nil || !ok {
		return Record{}, false, err
	}

	var record Record
	if err := json.Unmarshal(value, &record); err != nil {
		return Record{}, false, fmt.Errorf("can't decode the shortcode record: %v", err)
	}
	return record, true, nil
}

// Delete removes the record stored under code, reporting whether one
// existed. The read before the delete is what makes that report possible;
// the delete primitive alone can't tell "deleted" from "was already absent".
func (m *Manager) Delete(code string) (bool, error) {
	ok, err := m.table.Contains(code)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if err := m.table.Remove(code); err != nil {
		return false, err
	}
	return true, nil
}
