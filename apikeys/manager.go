// Package apikeys handles operations on API keys: creating, reading and
// deleting account records, and answering yes/no authorization questions
// about them.
package apikeys

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/surly-sh/surly/datastore"
)

// Account ids are a fixed display length carved from a full-width random
// token: 24 hex characters keep 96 bits of the underlying 128, which is
// enough that practical collision probability is negligible.
const accountIDLength = 24

// Record is everything stored about one API key, keyed on the account id.
// Permissions maps operation names to granted (true) or explicitly denied
// (false); an operation missing from the map is neither, and authorization
// treats it the same as a denial.
type Record struct {
	AccountID   string          `json:"account_id"`
	APIKey      string          `json:"api_key"`
	Permissions map[string]bool `json:"permissions"`
	Name        string          `json:"name"`
	Timestamp   int64           `json:"timestamp"`
}

// Manager creates, reads, deletes and authorizes API key records against the
// api_keys table. That table must be uncached so every permission check sees
// the freshest grant/revoke state.
type Manager struct {
	table *datastore.Table
}

// NewManager returns a Manager over the given api_keys table.
func NewManager(table *datastore.Table) *Manager {
	return &Manager{table: table}
}

// Create builds and persists a new API key. Grants are applied before
// denials, so an operation named in both lists ends up denied. The secret is
// a full-width random token; the account id is a truncated one.
func (m *Manager) Create(name string, grant, deny []string) (Record, error) {
	permissions := make(map[string]bool)
	for _, op := range grant {
		permissions[op] = true
	}
	for _, op := range deny {
		permissions[op] = false
	}

	record := Record{
		AccountID:   newAccountID(),
		APIKey:      uuid.NewString(),
		Permissions: permissions,
		Name:        name,
		Timestamp:   time.Now().Unix(),
	}

	value, err := json.Marshal(record)
	if err != nil {
		return Record{}, fmt.Errorf("can't encode the API key record: %v", err)
	}

	if err := m.table.Write(record.AccountID, value); err != nil {
		return Record{}, err
	}

	return record, nil
}

// Info returns the record stored under accountID. It performs no
// authorization; that is the caller's responsibility at a higher layer.
func (m *Manager) Info(accountID string) (Record, bool, error) {
	value, ok, err := m.table.Read(accountID)
	if err != nil || !ok {
		return Record{}, false, err
	}

	var record Record
	if err := json.Unmarshal(value, &record); err != nil {
		return Record{}, false, fmt.Errorf("can't decode the API key record: %v", err)
	}
	return record, true, nil
}

// Delete removes the record stored under accountID, reporting whether one
// existed.
func (m *Manager) Delete(accountID string) (bool, error) {
	ok, err := m.table.Contains(accountID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if err := m.table.Remove(accountID); err != nil {
		return false, err
	}
	return true, nil
}

// CheckPermission reports whether the account exists, presented the right
// secret, and holds an explicit grant for operation. An explicit denial and
// a missing permissions entry both come back false; only the error return
// carries store failures.
func (m *Manager) CheckPermission(accountID, presentedKey, operation string) (bool, error) {
	record, ok, err := m.Info(accountID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if subtle.ConstantTimeCompare([]byte(record.APIKey), []byte(presentedKey)) != 1 {
		return false, nil
	}

	return record.Permissions[operation], nil
}

func newAccountID() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return token[:accountIDLength]
}
