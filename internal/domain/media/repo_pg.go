package media

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

type imageRepoPG struct {
	pool *pgxpool.Pool
}

func NewImageRepo(pool *pgxpool.Pool) ImageRepository {
	return &imageRepoPG{pool: pool}
}

func (r *imageRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const imageCols = `id, session_id, tag, encrypted_content, encrypted_thumbnail, created_at`

func (r *imageRepoPG) Create(ctx context.Context, img *Image) error {
	if img.ID == uuid.Nil {
		img.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO images (id, session_id, tag, encrypted_content, encrypted_thumbnail)
		VALUES ($1, $2, $3, $4, $5)`,
		img.ID, img.SessionID, img.Tag, img.EncryptedContent, img.EncryptedThumbnail,
	)
	return err
}

func (r *imageRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Image, error) {
	var img Image
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+imageCols+` FROM images WHERE id = $1`, id).
		Scan(&img.ID, &img.SessionID, &img.Tag, &img.EncryptedContent, &img.EncryptedThumbnail, &img.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *imageRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM images WHERE id = $1`, id)
	return err
}

func (r *imageRepoPG) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*Image, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+imageCols+` FROM images WHERE session_id = $1 ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []*Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.SessionID, &img.Tag, &img.EncryptedContent, &img.EncryptedThumbnail, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, &img)
	}
	return images, rows.Err()
}
