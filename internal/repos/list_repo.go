package repos

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/Craig-Turley/listsync/internal/db"
	"github.com/Craig-Turley/listsync/internal/oops"
	"github.com/Craig-Turley/listsync/pkg/common/entity"
	"github.com/Craig-Turley/listsync/pkg/common/list"
	"github.com/bwmarrin/snowflake"
)

type ListRepo interface {
	GetList(ctx context.Context, id snowflake.ID) (*list.List, error)
	SaveList(ctx context.Context, l *list.List) error
	DeleteList(ctx context.Context, l *list.List) error
	GetUnsyncedLists(ctx context.Context) ([]*list.List, error)
}

type SqlListRepo struct {
	store *db.DB
}

func NewSqlListRepo(conn *db.DB) *SqlListRepo {
	return &SqlListRepo{store: conn}
}

func (s *SqlListRepo) GetList(ctx context.Context, id snowflake.ID) (*list.List, error) {
	query := `
		SELECT id, mail_chimp_id, attributes
		FROM mail_chimp_lists
		WHERE id = ?
	`

	row := s.store.QueryRowContext(ctx, s.store.Rebind(query), id)
	l, err := scanList(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, oops.New(err, "failed to fetch list %d", id)
	}

	members, err := s.memberIds(ctx, id)
	if err != nil {
		return nil, err
	}

	return list.Restore(l.Id, l.MailChimpId, l.Attributes(), members), nil
}

func (s *SqlListRepo) memberIds(ctx context.Context, listId snowflake.ID) ([]snowflake.ID, error) {
	query := `
		SELECT id FROM mail_chimp_list_members
		WHERE list_id = ?
		ORDER BY id
	`

	rows, err := s.store.QueryContext(ctx, s.store.Rebind(query), listId)
	if err != nil {
		return nil, oops.New(err, "failed to fetch member ids of list %d", listId)
	}
	defer rows.Close()

	var ids []snowflake.ID
	for rows.Next() {
		var id snowflake.ID
		if err := rows.Scan(&id); err != nil {
			return nil, oops.New(err, "member id scan failed")
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, oops.New(err, "member id iteration failed")
	}

	return ids, nil
}

// SaveList inserts the list or overwrites the stored copy.
func (s *SqlListRepo) SaveList(ctx context.Context, l *list.List) error {
	attrs, err := json.Marshal(l.Attributes())
	if err != nil {
		return oops.New(err, "failed to encode list %d", l.Id)
	}

	var mailChimpId sql.NullString
	if l.MailChimpId != nil {
		mailChimpId = sql.NullString{String: *l.MailChimpId, Valid: true}
	}

	query := `
		INSERT INTO mail_chimp_lists (id, mail_chimp_id, name, attributes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			mail_chimp_id = excluded.mail_chimp_id,
			name = excluded.name,
			attributes = excluded.attributes,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	_, err = s.store.ExecContext(ctx, s.store.Rebind(query), l.Id, mailChimpId, l.Name(), string(attrs), now, now)
	if err != nil {
		return oops.New(err, "failed to save list %d", l.Id)
	}

	return nil
}

// DeleteList removes the list and its members in one transaction.
func (s *SqlListRepo) DeleteList(ctx context.Context, l *list.List) error {
	tx, err := s.store.BeginTx(ctx, nil)
	if err != nil {
		return oops.New(err, "failed to begin delete of list %d", l.Id)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.store.Rebind("DELETE FROM mail_chimp_list_members WHERE list_id = ?"), l.Id); err != nil {
		return oops.New(err, "failed to delete members of list %d", l.Id)
	}

	res, err := tx.ExecContext(ctx, s.store.Rebind("DELETE FROM mail_chimp_lists WHERE id = ?"), l.Id)
	if err != nil {
		return oops.New(err, "failed to delete list %d", l.Id)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return oops.New(err, "failed to commit delete of list %d", l.Id)
	}

	return nil
}

// GetUnsyncedLists returns lists that never got a MailChimp id.
func (s *SqlListRepo) GetUnsyncedLists(ctx context.Context) ([]*list.List, error) {
	query := `
		SELECT id, mail_chimp_id, attributes
		FROM mail_chimp_lists
		WHERE mail_chimp_id IS NULL
		ORDER BY id
	`

	rows, err := s.store.QueryContext(ctx, query)
	if err != nil {
		return nil, oops.New(err, "failed to query unsynced lists")
	}
	defer rows.Close()

	var lists []*list.List
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, oops.New(err, "unsynced list scan failed")
		}
		lists = append(lists, l)
	}

	if err := rows.Err(); err != nil {
		return nil, oops.New(err, "unsynced list iteration failed")
	}

	return lists, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanList(row scanner) (*list.List, error) {
	var (
		id          snowflake.ID
		mailChimpId sql.NullString
		rawAttrs    string
	)

	if err := row.Scan(&id, &mailChimpId, &rawAttrs); err != nil {
		return nil, err
	}

	attrs := entity.Attributes{}
	if err := json.Unmarshal([]byte(rawAttrs), &attrs); err != nil {
		return nil, err
	}

	var mcId *string
	if mailChimpId.Valid {
		mcId = &mailChimpId.String
	}

	return list.Restore(id, mcId, attrs, nil), nil
}
