package repos_test

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/Craig-Turley/listsync/internal/db"
	"github.com/Craig-Turley/listsync/internal/repos"
	"github.com/Craig-Turley/listsync/pkg/common/list"
	"github.com/Craig-Turley/listsync/pkg/common/member"
	"github.com/Craig-Turley/listsync/pkg/idgen"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListRepo(t *testing.T) {
	listRepo := repos.NewSqlListRepo(sqlite3db)

	tests := []*list.List{
		list.New(map[string]any{"name": "Weekly Newsletter"}),
		list.New(map[string]any{"name": "Product Updates", "visibility": "prv", "use_archive_bar": true}),
		list.New(map[string]any{
			"name":    "Events",
			"contact": map[string]any{"company": "Acme", "city": "Sydney"},
		}).SetMailChimpId("abc123"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	for i, tc := range tests {
		if err := listRepo.SaveList(ctx, tc); err != nil {
			t.Fatalf("save list %d (%s): %v", i, tc.Name(), err)
		}
	}

	for i, tc := range tests {
		t.Run(fmt.Sprintf("%02d/%s", i, tc.Name()), func(t *testing.T) {
			got, err := listRepo.GetList(ctx, tc.Id)
			require.NoError(t, err)

			assert.Equal(t, tc.Id, got.Id)
			assert.Equal(t, tc.MailChimpId, got.MailChimpId)
			assert.Equal(t, tc.ToLocalView(), got.ToLocalView())
		})
	}

	t.Cleanup(func() {
		for _, tc := range tests {
			listRepo.DeleteList(ctx, tc)
		}
	})
}

func TestListRepoOverwrite(t *testing.T) {
	ctx := context.Background()
	listRepo := repos.NewSqlListRepo(sqlite3db)

	l := list.New(map[string]any{"name": "Before"})
	require.NoError(t, listRepo.SaveList(ctx, l))

	l.Fill(map[string]any{"name": "After"}).SetMailChimpId("xyz")
	require.NoError(t, listRepo.SaveList(ctx, l))

	got, err := listRepo.GetList(ctx, l.Id)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Name())
	require.NotNil(t, got.MailChimpId)
	assert.Equal(t, "xyz", *got.MailChimpId)

	require.NoError(t, listRepo.DeleteList(ctx, l))
}

func TestListRepoGetMissing(t *testing.T) {
	listRepo := repos.NewSqlListRepo(sqlite3db)

	_, err := listRepo.GetList(context.Background(), idgen.NewId())
	assert.ErrorIs(t, err, repos.ErrNotFound)
}

func TestListRepoDeleteCascadesMembers(t *testing.T) {
	ctx := context.Background()
	store := repos.NewSqlStore(sqlite3db)

	l := list.New(map[string]any{"name": "Cascade"})
	require.NoError(t, store.Lists.SaveList(ctx, l))

	m := member.New(l.Id, map[string]any{"email_address": "a@x.com", "status": "subscribed"})
	require.NoError(t, store.Members.SaveMember(ctx, m))

	got, err := store.Lists.GetList(ctx, l.Id)
	require.NoError(t, err)
	assert.True(t, got.HasMember(m.Id))

	require.NoError(t, store.Lists.DeleteList(ctx, l))

	_, err = store.Members.GetMember(ctx, m.Id)
	assert.ErrorIs(t, err, repos.ErrNotFound)

	err = store.Lists.DeleteList(ctx, l)
	assert.ErrorIs(t, err, repos.ErrNotFound)
}

func TestGetUnsyncedLists(t *testing.T) {
	ctx := context.Background()
	listRepo := repos.NewSqlListRepo(sqlite3db)

	synced := list.New(map[string]any{"name": "Synced"}).SetMailChimpId("abc123")
	unsynced := list.New(map[string]any{"name": "Unsynced"})
	require.NoError(t, listRepo.SaveList(ctx, synced))
	require.NoError(t, listRepo.SaveList(ctx, unsynced))
	t.Cleanup(func() {
		listRepo.DeleteList(ctx, synced)
		listRepo.DeleteList(ctx, unsynced)
	})

	lists, err := listRepo.GetUnsyncedLists(ctx)
	require.NoError(t, err)

	var ids []string
	for _, l := range lists {
		ids = append(ids, l.Id.String())
	}
	assert.Contains(t, ids, unsynced.Id.String())
	assert.NotContains(t, ids, synced.Id.String())
}

func newMockStore(t *testing.T) (*db.DB, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return db.Wrap(conn, db.DriverPostgres), mock
}

func TestListRepoFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")

	t.Run("get", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).WillReturnError(boom)

		_, err := repos.NewSqlListRepo(store).GetList(ctx, 1)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, repos.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("save", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO mail_chimp_lists")).WillReturnError(boom)

		err := repos.NewSqlListRepo(store).SaveList(ctx, list.New(map[string]any{"name": "x"}))
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete rolls back", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM mail_chimp_list_members WHERE list_id = $1")).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM mail_chimp_lists WHERE id = $1")).WillReturnError(boom)
		mock.ExpectRollback()

		err := repos.NewSqlListRepo(store).DeleteList(ctx, list.New(nil))
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
