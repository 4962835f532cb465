package stores

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/pocketbase/core"
)

// SessionsCollection is the PocketBase collection RecordStore writes to.
const SessionsCollection = "wizard_sessions"

// RecordStore keeps wizard state as rows of the wizard_sessions collection,
// one record per key.
type RecordStore struct {
	app core.App
}

func NewRecordStore(app core.App) *RecordStore {
	return &RecordStore{app: app}
}

func (s *RecordStore) find(key string) (*core.Record, error) {
	rec, err := s.app.FindFirstRecordByData(SessionsCollection, "key", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s %q: %w", SessionsCollection, key, err)
	}
	return rec, nil
}

func (s *RecordStore) GetItem(key string) (string, bool, error) {
	rec, err := s.find(key)
	if err != nil || rec == nil {
		return "", false, err
	}
	return rec.GetString("value"), true, nil
}

func (s *RecordStore) SetItem(key, value string) error {
	rec, err := s.find(key)
	if err != nil {
		return err
	}
	if rec == nil {
		col, err := s.app.FindCollectionByNameOrId(SessionsCollection)
		if err != nil {
			return fmt.Errorf("collection %s: %w", SessionsCollection, err)
		}
		rec = core.NewRecord(col)
		rec.Set("key", key)
	}
	rec.Set("value", value)
	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("save %s %q: %w", SessionsCollection, key, err)
	}
	return nil
}

func (s *RecordStore) RemoveItem(key string) error {
	rec, err := s.find(key)
	if err != nil || rec == nil {
		return err
	}
	if err := s.app.Delete(rec); err != nil {
		return fmt.Errorf("delete %s %q: %w", SessionsCollection, key, err)
	}
	return nil
}
