package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kinesio/kinesio/internal/platform/db"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// -- User Repository --

type userRepoPG struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

func (r *userRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const userCols = `id, name, role, created_at, updated_at`

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO users (id, name, role) VALUES ($1, $2, $3)`,
		u.ID, u.Name, u.Role,
	)
	return err
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *userRepoPG) Update(ctx context.Context, u *User) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE users SET name=$2, updated_at=NOW() WHERE id = $1`,
		u.ID, u.Name,
	)
	return err
}

func (r *userRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

func (r *userRepoPG) List(ctx context.Context, role Role, limit, offset int) ([]*User, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+userCols+` FROM users WHERE role = $1 ORDER BY name LIMIT $2 OFFSET $3`, role, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, &u)
	}
	return result, total, rows.Err()
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// -- Profile Repository --

type profileRepoPG struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepoPG{pool: pool}
}

func (r *profileRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *profileRepoPG) Create(ctx context.Context, p *PatientProfile) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_profiles (user_id, current_medic_id) VALUES ($1, $2)`,
		p.UserID, p.CurrentMedicID,
	)
	return err
}

func (r *profileRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*PatientProfile, error) {
	var p PatientProfile
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT user_id, current_medic_id, created_at, updated_at
		FROM patient_profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.CurrentMedicID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT medic_id FROM patient_shares WHERE patient_user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var medicID uuid.UUID
		if err := rows.Scan(&medicID); err != nil {
			return nil, err
		}
		p.SharedWith = append(p.SharedWith, medicID)
	}
	return &p, rows.Err()
}

func (r *profileRepoPG) SetCurrentMedic(ctx context.Context, userID uuid.UUID, medicID *uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_profiles SET current_medic_id=$2, updated_at=NOW() WHERE user_id = $1`,
		userID, medicID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *profileRepoPG) AddShare(ctx context.Context, userID, medicID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_shares (patient_user_id, medic_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		userID, medicID,
	)
	return err
}

func (r *profileRepoPG) RemoveShare(ctx context.Context, userID, medicID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM patient_shares WHERE patient_user_id = $1 AND medic_id = $2`,
		userID, medicID,
	)
	return err
}

func (r *profileRepoPG) ListByMedic(ctx context.Context, medicID uuid.UUID) ([]*PatientProfile, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT DISTINCT p.user_id FROM patient_profiles p
		LEFT JOIN patient_shares s ON s.patient_user_id = p.user_id
		WHERE p.current_medic_id = $1 OR s.medic_id = $1
		ORDER BY p.user_id`, medicID)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reload each profile in full so the sharing set is populated the same
	// way GetByUserID populates it.
	var profiles []*PatientProfile
	for _, id := range ids {
		p, err := r.GetByUserID(ctx, id)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
