package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rentnerd/internal/logging"
	"rentnerd/internal/schema"
	"rentnerd/internal/types"
)

// =============================================================================
// ENTITY RECORDS (Create, Update, Delete, List)
// =============================================================================

// Create inserts a new record. A record matching one of the entity's
// identifier options is a duplicate and yields a storage fault.
func (s *LocalStore) Create(ctx context.Context, entity types.EntityType, fields map[string]string) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logging.StoreDebug("create: entity=%s fields=%d", entity, len(fields))

	if existing, err := s.findByIdentifier(ctx, entity, fields); err == nil && existing != nil {
		return types.Record{}, types.NewFault(types.FaultStorage,
			fmt.Sprintf("%s already exists with the same identifying fields", entity), nil)
	}

	rec := types.Record{
		ID:         uuid.NewString(),
		EntityType: entity,
		Fields:     fields,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	raw, err := json.Marshal(rec.Fields)
	if err != nil {
		return types.Record{}, types.NewFault(types.FaultStorage, "failed to encode fields", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (id, entity_type, fields, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, string(entity), string(raw), rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return types.Record{}, types.NewFault(types.FaultStorage, "insert failed", err)
	}

	logging.Store("created %s %s", entity, rec.ID)
	return rec, nil
}

// Update locates a record by identifier and overwrites the given fields.
func (s *LocalStore) Update(ctx context.Context, entity types.EntityType, identifier, fields map[string]string) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logging.StoreDebug("update: entity=%s identifier=%d fields=%d", entity, len(identifier), len(fields))

	rec, err := s.findByIdentifier(ctx, entity, identifier)
	if err != nil {
		return types.Record{}, err
	}
	if rec == nil {
		return types.Record{}, types.NewFault(types.FaultNotFound,
			fmt.Sprintf("no %s matches the given identifier", entity), nil)
	}

	for k, v := range fields {
		rec.Fields[k] = v
	}
	rec.UpdatedAt = time.Now().UTC()

	raw, err := json.Marshal(rec.Fields)
	if err != nil {
		return types.Record{}, types.NewFault(types.FaultStorage, "failed to encode fields", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE records SET fields = ?, updated_at = ? WHERE id = ?`,
		string(raw), rec.UpdatedAt, rec.ID,
	)
	if err != nil {
		return types.Record{}, types.NewFault(types.FaultStorage, "update failed", err)
	}

	logging.Store("updated %s %s", entity, rec.ID)
	return *rec, nil
}

// Delete removes a record by identifier and returns the deleted record.
func (s *LocalStore) Delete(ctx context.Context, entity types.EntityType, identifier map[string]string) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logging.StoreDebug("delete: entity=%s identifier=%d", entity, len(identifier))

	rec, err := s.findByIdentifier(ctx, entity, identifier)
	if err != nil {
		return types.Record{}, err
	}
	if rec == nil {
		return types.Record{}, types.NewFault(types.FaultNotFound,
			fmt.Sprintf("no %s matches the given identifier", entity), nil)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, rec.ID); err != nil {
		return types.Record{}, types.NewFault(types.FaultStorage, "delete failed", err)
	}

	logging.Store("deleted %s %s", entity, rec.ID)
	return *rec, nil
}

// List returns all records of one entity type, oldest first.
func (s *LocalStore) List(ctx context.Context, entity types.EntityType) ([]types.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entity_type, fields, created_at, updated_at FROM records
		 WHERE entity_type = ? ORDER BY created_at, id`,
		string(entity),
	)
	if err != nil {
		return nil, types.NewFault(types.FaultStorage, "list query failed", err)
	}
	defer rows.Close()

	var records []types.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}

	logging.StoreDebug("listed %d %s records", len(records), entity)
	return records, nil
}

// findByIdentifier scans the entity's records for one matching any complete
// identifier option present in the given field map. The dataset is small by
// design, so a table scan with in-code matching beats maintaining per-option
// unique indexes. Returns nil without error when nothing matches.
// Caller holds the lock.
func (s *LocalStore) findByIdentifier(ctx context.Context, entity types.EntityType, fields map[string]string) (*types.Record, error) {
	options, err := schema.IdentifierOptions(entity)
	if err != nil {
		return nil, err
	}

	// Keep only options the field map fully specifies.
	var usable [][]string
	for _, opt := range options {
		complete := true
		for _, key := range opt {
			if fields[key] == "" {
				complete = false
				break
			}
		}
		if complete {
			usable = append(usable, opt)
		}
	}
	if len(usable) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entity_type, fields, created_at, updated_at FROM records WHERE entity_type = ?`,
		string(entity),
	)
	if err != nil {
		return nil, types.NewFault(types.FaultStorage, "identifier query failed", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			continue
		}
		for _, opt := range usable {
			match := true
			for _, key := range opt {
				if rec.Fields[key] != fields[key] {
					match = false
					break
				}
			}
			if match {
				return &rec, nil
			}
		}
	}

	return nil, nil
}

// scanRecord decodes one row into a Record.
func scanRecord(rows *sql.Rows) (types.Record, error) {
	var rec types.Record
	var entity, raw string
	if err := rows.Scan(&rec.ID, &entity, &raw, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return types.Record{}, err
	}
	rec.EntityType = types.EntityType(entity)
	rec.Fields = make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &rec.Fields); err != nil {
		return types.Record{}, err
	}
	return rec, nil
}
