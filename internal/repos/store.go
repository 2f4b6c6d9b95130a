package repos

import (
	"errors"

	"github.com/Craig-Turley/listsync/internal/db"
)

// ErrNotFound is returned by the Get methods when no row matches.
var ErrNotFound = errors.New("record not found")

type Storage struct {
	Lists   ListRepo
	Members MemberRepo
}

func NewSqlStore(conn *db.DB) *Storage {
	return &Storage{
		Lists:   NewSqlListRepo(conn),
		Members: NewSqlMemberRepo(conn),
	}
}
