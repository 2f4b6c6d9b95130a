package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Craig-Turley/listsync/internal/db"
	"github.com/Craig-Turley/listsync/internal/oops"
	"github.com/Craig-Turley/listsync/pkg/common/entity"
	"github.com/Craig-Turley/listsync/pkg/common/member"
	"github.com/bwmarrin/snowflake"
)

type MemberRepo interface {
	GetMember(ctx context.Context, id snowflake.ID) (*member.Member, error)
	SaveMember(ctx context.Context, m *member.Member) error
	DeleteMember(ctx context.Context, m *member.Member) error
	GetListMembers(ctx context.Context, listId snowflake.ID) ([]*member.Member, error)
}

type SqlMemberRepo struct {
	store *db.DB
}

func NewSqlMemberRepo(conn *db.DB) *SqlMemberRepo {
	return &SqlMemberRepo{store: conn}
}

const memberColumns = `id, list_id, email_address, first_name, last_name, address, phone_number, status`

func (s *SqlMemberRepo) GetMember(ctx context.Context, id snowflake.ID) (*member.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM mail_chimp_list_members WHERE id = ?`

	m, err := scanMember(s.store.QueryRowContext(ctx, s.store.Rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, oops.New(err, "failed to fetch member %d", id)
	}

	return m, nil
}

func (s *SqlMemberRepo) SaveMember(ctx context.Context, m *member.Member) error {
	attrs := m.Attributes()

	query := `
		INSERT INTO mail_chimp_list_members (` + memberColumns + `, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			email_address = excluded.email_address,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			address = excluded.address,
			phone_number = excluded.phone_number,
			status = excluded.status,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	_, err := s.store.ExecContext(ctx, s.store.Rebind(query),
		m.Id,
		m.ListId,
		m.EmailAddress(),
		nullable(attrs, member.FieldFirstName),
		nullable(attrs, member.FieldLastName),
		nullable(attrs, member.FieldAddress),
		nullable(attrs, member.FieldPhoneNumber),
		string(m.Status()),
		now,
		now,
	)
	if err != nil {
		return oops.New(err, "failed to save member %d", m.Id)
	}

	return nil
}

func (s *SqlMemberRepo) DeleteMember(ctx context.Context, m *member.Member) error {
	res, err := s.store.ExecContext(ctx, s.store.Rebind("DELETE FROM mail_chimp_list_members WHERE id = ?"), m.Id)
	if err != nil {
		return oops.New(err, "failed to delete member %d", m.Id)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *SqlMemberRepo) GetListMembers(ctx context.Context, listId snowflake.ID) ([]*member.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM mail_chimp_list_members WHERE list_id = ? ORDER BY id`

	rows, err := s.store.QueryContext(ctx, s.store.Rebind(query), listId)
	if err != nil {
		return nil, oops.New(err, "failed to query members of list %d", listId)
	}
	defer rows.Close()

	members := []*member.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, oops.New(err, "member scan failed")
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, oops.New(err, "member iteration failed")
	}

	return members, nil
}

func scanMember(row scanner) (*member.Member, error) {
	var (
		id, listId                                snowflake.ID
		email, status                             string
		firstName, lastName, address, phoneNumber sql.NullString
	)

	err := row.Scan(&id, &listId, &email, &firstName, &lastName, &address, &phoneNumber, &status)
	if err != nil {
		return nil, err
	}

	attrs := entity.Attributes{
		member.FieldEmailAddress: email,
		member.FieldStatus:       status,
	}
	restore(attrs, member.FieldFirstName, firstName)
	restore(attrs, member.FieldLastName, lastName)
	restore(attrs, member.FieldAddress, address)
	restore(attrs, member.FieldPhoneNumber, phoneNumber)

	return member.Restore(id, listId, attrs), nil
}

// nullable maps an unset or null attribute to SQL NULL.
func nullable(attrs entity.Attributes, name string) sql.NullString {
	v, ok := attrs[name]
	if !ok || v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: attrs.String(name), Valid: true}
}

func restore(attrs entity.Attributes, name string, v sql.NullString) {
	if v.Valid {
		attrs[name] = v.String
	}
}
