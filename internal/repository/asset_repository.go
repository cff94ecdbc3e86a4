package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/asset-management/internal/model"
)

const assetColumns = "id, asset_name, asset_type, serial_number, purchase_date, warranty_expiry, status, assigned_to"

// AssetRepo encapsulates all queries on the asset registry.
type AssetRepo struct {
	db *sql.DB
}

func NewAssetRepo(db *sql.DB) *AssetRepo {
	return &AssetRepo{db: db}
}

func scanAsset(row interface{ Scan(...any) error }) (model.Asset, error) {
	var (
		a                     model.Asset
		purchase, warranty, s sql.NullString
		assignee              sql.NullInt64
	)
	if err := row.Scan(&a.ID, &a.AssetName, &a.AssetType, &a.SerialNumber, &purchase, &warranty, &s, &assignee); err != nil {
		return a, err
	}
	a.PurchaseDate = stringPtr(purchase)
	a.WarrantyExpiry = stringPtr(warranty)
	a.Status = stringPtr(s)
	a.AssignedTo = uint64Ptr(assignee)
	return a, nil
}

func userExists(ctx context.Context, q queryRower, id *uint64) (bool, error) {
	if id == nil {
		return false, nil
	}
	return exists(ctx, q, "SELECT 1 FROM users WHERE id = ?", *id)
}

// Create inserts a new asset after confirming the assignee exists. A
// missing assignee yields ErrUserNotFound and nothing is written.
func (r *AssetRepo) Create(ctx context.Context, a *model.Asset) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		ok, err := userExists(ctx, tx, a.AssignedTo)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUserNotFound
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO assets (asset_name, asset_type, serial_number, purchase_date, warranty_expiry, status, assigned_to)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.AssetName, a.AssetType, a.SerialNumber,
			nullString(a.PurchaseDate), nullString(a.WarrantyExpiry), nullString(a.Status), nullUint64(a.AssignedTo))
		if err != nil {
			return fmt.Errorf("insert asset: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		a.ID = uint64(id)
		return nil
	})
}

// GetByID fetches any asset by id.
func (r *AssetRepo) GetByID(ctx context.Context, id uint64) (model.Asset, error) {
	a, err := scanAsset(r.db.QueryRowContext(ctx, "SELECT "+assetColumns+" FROM assets WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

// GetByIDForAssignee fetches an asset only if it is assigned to uid; an
// asset assigned elsewhere is reported as ErrNotFound.
func (r *AssetRepo) GetByIDForAssignee(ctx context.Context, id, uid uint64) (model.Asset, error) {
	a, err := scanAsset(r.db.QueryRowContext(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE id = ? AND assigned_to = ?", id, uid))
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

// ListAll returns every asset ordered by id.
func (r *AssetRepo) ListAll(ctx context.Context) ([]model.Asset, error) {
	return r.list(ctx, "SELECT "+assetColumns+" FROM assets ORDER BY id")
}

// ListByAssignee returns the assets assigned to uid ordered by id.
func (r *AssetRepo) ListByAssignee(ctx context.Context, uid uint64) ([]model.Asset, error) {
	return r.list(ctx, "SELECT "+assetColumns+" FROM assets WHERE assigned_to = ? ORDER BY id", uid)
}

func (r *AssetRepo) list(ctx context.Context, q string, args ...any) ([]model.Asset, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update overwrites every column of a.ID, including the assignee. It
// returns the assignee held before the write so callers can detect a
// reassignment. ErrNotFound is returned for an unknown asset and
// ErrUserNotFound for an unknown new assignee.
func (r *AssetRepo) Update(ctx context.Context, a *model.Asset) (previous *uint64, err error) {
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		var prev sql.NullInt64
		err := tx.QueryRowContext(ctx, "SELECT assigned_to FROM assets WHERE id = ?", a.ID).Scan(&prev)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		previous = uint64Ptr(prev)
		if a.AssignedTo != nil {
			ok, err := userExists(ctx, tx, a.AssignedTo)
			if err != nil {
				return err
			}
			if !ok {
				return ErrUserNotFound
			}
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE assets SET asset_name = ?, asset_type = ?, serial_number = ?, purchase_date = ?,
			 warranty_expiry = ?, status = ?, assigned_to = ? WHERE id = ?`,
			a.AssetName, a.AssetType, a.SerialNumber, nullString(a.PurchaseDate),
			nullString(a.WarrantyExpiry), nullString(a.Status), nullUint64(a.AssignedTo), a.ID)
		return err
	})
	return previous, err
}

// Delete removes an asset together with its maintenance history in one
// transaction.
func (r *AssetRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, "SELECT 1 FROM assets WHERE id = ?", id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM maintenance_records WHERE asset_id = ?", id); err != nil {
			return fmt.Errorf("delete maintenance: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM assets WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete asset: %w", err)
		}
		return nil
	})
}
