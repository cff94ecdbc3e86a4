package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/iliyamo/asset-management/internal/model"
)

const recordColumns = "mr.id, mr.asset_id, mr.maintenance_date, mr.maintenance_type, mr.performed_by, mr.notes, mr.status, mr.created_at"

// ownedRecordQuery matches a record only when its asset is assigned to the
// caller. Every single-record operation goes through it.
const ownedRecordQuery = `FROM maintenance_records mr
	JOIN assets a ON a.id = mr.asset_id
	WHERE mr.id = ? AND a.assigned_to = ?`

// MaintenanceRepo persists maintenance records. Access is always scoped by
// the assignee of the record's asset; "not yours" and "does not exist" both
// surface as ErrNotFound.
type MaintenanceRepo struct{ db *sql.DB }

func NewMaintenanceRepo(db *sql.DB) *MaintenanceRepo { return &MaintenanceRepo{db: db} }

func scanRecord(row interface{ Scan(...any) error }) (model.MaintenanceRecord, error) {
	var m model.MaintenanceRecord
	err := row.Scan(&m.ID, &m.AssetID, &m.MaintenanceDate, &m.MaintenanceType, &m.PerformedBy, &m.Notes, &m.Status, &m.CreatedAt)
	return m, err
}

func assetAssigned(ctx context.Context, q queryRower, assetID, uid uint64) (bool, error) {
	return exists(ctx, q, "SELECT 1 FROM assets WHERE id = ? AND assigned_to = ?", assetID, uid)
}

// ListForAsset returns the records of an asset assigned to uid.
func (r *MaintenanceRepo) ListForAsset(ctx context.Context, assetID, uid uint64) ([]model.MaintenanceRecord, error) {
	ok, err := assetAssigned(ctx, r.db, assetID, uid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM maintenance_records mr WHERE mr.asset_id = ? ORDER BY mr.id", assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.MaintenanceRecord{}
	for rows.Next() {
		m, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Create adds a record to m.AssetID when that asset is assigned to uid.
// m.ID and m.CreatedAt are populated on success.
func (r *MaintenanceRepo) Create(ctx context.Context, m *model.MaintenanceRecord, uid uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		ok, err := assetAssigned(ctx, tx, m.AssetID, uid)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO maintenance_records (asset_id, maintenance_date, maintenance_type, performed_by, notes, status)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			m.AssetID, m.MaintenanceDate, m.MaintenanceType, m.PerformedBy, m.Notes, m.Status)
		if err != nil {
			return fmt.Errorf("insert maintenance: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		m.ID = uint64(id)
		return tx.QueryRowContext(ctx, "SELECT created_at FROM maintenance_records WHERE id = ?", m.ID).Scan(&m.CreatedAt)
	})
}

// GetForAssignee fetches one record if its asset is assigned to uid.
func (r *MaintenanceRepo) GetForAssignee(ctx context.Context, id, uid uint64) (model.MaintenanceRecord, error) {
	m, err := scanRecord(r.db.QueryRowContext(ctx, "SELECT "+recordColumns+" "+ownedRecordQuery, id, uid))
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	return m, err
}

// UpdateForAssignee overwrites the editable fields of m.ID after verifying
// ownership inside the same transaction. m is refreshed from the store.
func (r *MaintenanceRepo) UpdateForAssignee(ctx context.Context, m *model.MaintenanceRecord, uid uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, "SELECT 1 "+ownedRecordQuery, m.ID, uid)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE maintenance_records
			 SET maintenance_date = ?, maintenance_type = ?, performed_by = ?, notes = ?, status = ?
			 WHERE id = ?`,
			m.MaintenanceDate, m.MaintenanceType, m.PerformedBy, m.Notes, m.Status, m.ID); err != nil {
			return fmt.Errorf("update maintenance: %w", err)
		}
		updated, err := scanRecord(tx.QueryRowContext(ctx,
			"SELECT "+recordColumns+" FROM maintenance_records mr WHERE mr.id = ?", m.ID))
		if err != nil {
			return err
		}
		*m = updated
		return nil
	})
}

// DeleteForAssignee removes a record whose asset is assigned to uid.
func (r *MaintenanceRepo) DeleteForAssignee(ctx context.Context, id, uid uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, "SELECT 1 "+ownedRecordQuery, id, uid)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM maintenance_records WHERE id = ?", id)
		return err
	})
}

// ListAll returns every record across all assets, newest maintenance first.
func (r *MaintenanceRepo) ListAll(ctx context.Context) ([]model.MaintenanceEntry, error) {
	return r.entries(ctx, `SELECT `+recordColumns+`, a.asset_name
		FROM maintenance_records mr
		JOIN assets a ON a.id = mr.asset_id
		ORDER BY mr.maintenance_date DESC, mr.id DESC`)
}

// ListForAssignee returns the records of every asset assigned to uid,
// newest maintenance first.
func (r *MaintenanceRepo) ListForAssignee(ctx context.Context, uid uint64) ([]model.MaintenanceEntry, error) {
	return r.entries(ctx, `SELECT `+recordColumns+`, a.asset_name
		FROM maintenance_records mr
		JOIN assets a ON a.id = mr.asset_id
		WHERE a.assigned_to = ?
		ORDER BY mr.maintenance_date DESC, mr.id DESC`, uid)
}

func (r *MaintenanceRepo) entries(ctx context.Context, q string, args ...any) ([]model.MaintenanceEntry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.MaintenanceEntry{}
	for rows.Next() {
		var (
			e    model.MaintenanceEntry
			name sql.NullString
		)
		m := &e.MaintenanceRecord
		if err := rows.Scan(&m.ID, &m.AssetID, &m.MaintenanceDate, &m.MaintenanceType, &m.PerformedBy, &m.Notes, &m.Status, &m.CreatedAt, &name); err != nil {
			return nil, err
		}
		e.AssetName = name.String
		if e.AssetName == "" {
			e.AssetName = "# " + strconv.FormatUint(m.AssetID, 10)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
