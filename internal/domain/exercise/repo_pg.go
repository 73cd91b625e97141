package exercise

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

func conn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

type homeworkRepoPG struct {
	pool *pgxpool.Pool
}

func NewHomeworkRepo(pool *pgxpool.Pool) HomeworkRepository {
	return &homeworkRepoPG{pool: pool}
}

func (r *homeworkRepoPG) Create(ctx context.Context, hw *Homework) error {
	if hw.ID == uuid.Nil {
		hw.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO homeworks (id, patient_id, from_date, to_date, periodicity)
		VALUES ($1, $2, $3, $4, $5)`,
		hw.ID, hw.PatientID, hw.FromDate, hw.ToDate, hw.Periodicity,
	)
	return err
}

func (r *homeworkRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Homework, error) {
	var hw Homework
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, patient_id, from_date, to_date, periodicity, created_at
		FROM homeworks WHERE id = $1`, id).
		Scan(&hw.ID, &hw.PatientID, &hw.FromDate, &hw.ToDate, &hw.Periodicity, &hw.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &hw, nil
}

func (r *homeworkRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Homework, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, patient_id, from_date, to_date, periodicity, created_at
		FROM homeworks WHERE patient_id = $1 ORDER BY from_date DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Homework
	for rows.Next() {
		var hw Homework
		if err := rows.Scan(&hw.ID, &hw.PatientID, &hw.FromDate, &hw.ToDate, &hw.Periodicity, &hw.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &hw)
	}
	return out, rows.Err()
}

func (r *homeworkRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM homeworks WHERE id = $1`, id)
	return err
}

func (r *homeworkRepoPG) AddExercise(ctx context.Context, ex *HomeworkExercise) error {
	if ex.ID == uuid.Nil {
		ex.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO homework_exercises (id, homework_id, date, session_number, status)
		VALUES ($1, $2, $3, $4, $5)`,
		ex.ID, ex.HomeworkID, ex.Date, ex.SessionNumber, ex.Status,
	)
	return err
}

func (r *homeworkRepoPG) ListExercises(ctx context.Context, homeworkID uuid.UUID) ([]*HomeworkExercise, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, homework_id, date, session_number, status
		FROM homework_exercises WHERE homework_id = $1 ORDER BY session_number`, homeworkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*HomeworkExercise
	for rows.Next() {
		var ex HomeworkExercise
		if err := rows.Scan(&ex.ID, &ex.HomeworkID, &ex.Date, &ex.SessionNumber, &ex.Status); err != nil {
			return nil, err
		}
		out = append(out, &ex)
	}
	return out, rows.Err()
}

func (r *homeworkRepoPG) SetExerciseStatus(ctx context.Context, id uuid.UUID, status ExerciseStatus) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE homework_exercises SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *homeworkRepoPG) GetExercise(ctx context.Context, id uuid.UUID) (*HomeworkExercise, error) {
	var ex HomeworkExercise
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, homework_id, date, session_number, status
		FROM homework_exercises WHERE id = $1`, id).
		Scan(&ex.ID, &ex.HomeworkID, &ex.Date, &ex.SessionNumber, &ex.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ex, nil
}

type videoRepoPG struct {
	pool *pgxpool.Pool
}

func NewVideoRepo(pool *pgxpool.Pool) VideoRepository {
	return &videoRepoPG{pool: pool}
}

func (r *videoRepoPG) Create(ctx context.Context, v *Video) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO videos (id, name, owner_medic_id, storage_key)
		VALUES ($1, $2, $3, $4)`,
		v.ID, v.Name, v.OwnerMedicID, v.StorageKey,
	)
	return err
}

func (r *videoRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Video, error) {
	var v Video
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, name, owner_medic_id, storage_key, created_at
		FROM videos WHERE id = $1`, id).
		Scan(&v.ID, &v.Name, &v.OwnerMedicID, &v.StorageKey, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *videoRepoPG) ListByOwner(ctx context.Context, medicID uuid.UUID) ([]*Video, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, name, owner_medic_id, storage_key, created_at
		FROM videos WHERE owner_medic_id = $1 ORDER BY name`, medicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Video
	for rows.Next() {
		var v Video
		if err := rows.Scan(&v.ID, &v.Name, &v.OwnerMedicID, &v.StorageKey, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

func (r *videoRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	return err
}
