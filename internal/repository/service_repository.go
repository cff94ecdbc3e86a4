package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/asset-management/internal/model"
)

// ServiceRepo persists the service catalog and the requests made against it.
type ServiceRepo struct{ db *sql.DB }

func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{db: db} }

// List returns the whole catalog ordered by id.
func (r *ServiceRepo) List(ctx context.Context) ([]model.Service, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, service_name, description FROM services ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Service{}
	for rows.Next() {
		var (
			s    model.Service
			desc sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.ServiceName, &desc); err != nil {
			return nil, err
		}
		s.Description = stringPtr(desc)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create inserts a catalog entry; the store stamps created_at.
func (r *ServiceRepo) Create(ctx context.Context, s *model.Service) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO services (service_name, description) VALUES (?, ?)",
		s.ServiceName, nullString(s.Description))
	if err != nil {
		return fmt.Errorf("insert service: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return r.db.QueryRowContext(ctx, "SELECT created_at FROM services WHERE id = ?", s.ID).Scan(&s.CreatedAt)
}

// CreateRequest records that req.UserID asked for req.ServiceID. An unknown
// service yields ErrServiceNotFound and no row is inserted. On success the
// catalog fields and the request timestamp are filled in.
func (r *ServiceRepo) CreateRequest(ctx context.Context, req *model.ServiceRequest) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var desc sql.NullString
		err := tx.QueryRowContext(ctx, "SELECT service_name, description FROM services WHERE id = ?", req.ServiceID).
			Scan(&req.ServiceName, &desc)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrServiceNotFound
		}
		if err != nil {
			return err
		}
		req.Description = stringPtr(desc)
		res, err := tx.ExecContext(ctx, "INSERT INTO user_services (user_id, service_id) VALUES (?, ?)", req.UserID, req.ServiceID)
		if err != nil {
			return fmt.Errorf("insert request: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		req.ID = uint64(id)
		return tx.QueryRowContext(ctx, "SELECT created_at FROM user_services WHERE id = ?", req.ID).Scan(&req.RequestedAt)
	})
}

// ListRequestsByUser returns uid's requests joined with the catalog.
func (r *ServiceRepo) ListRequestsByUser(ctx context.Context, uid uint64) ([]model.ServiceRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT us.id, us.user_id, us.service_id, s.service_name, s.description, us.created_at
		 FROM user_services us
		 JOIN services s ON s.id = us.service_id
		 WHERE us.user_id = ?
		 ORDER BY us.id`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ServiceRequest{}
	for rows.Next() {
		var (
			sr   model.ServiceRequest
			desc sql.NullString
		)
		if err := rows.Scan(&sr.ID, &sr.UserID, &sr.ServiceID, &sr.ServiceName, &desc, &sr.RequestedAt); err != nil {
			return nil, err
		}
		sr.Description = stringPtr(desc)
		out = append(out, sr)
	}
	return out, rows.Err()
}
