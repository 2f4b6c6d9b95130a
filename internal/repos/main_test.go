package repos_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/Craig-Turley/listsync/internal/db"
	"github.com/Craig-Turley/listsync/pkg/idgen"
)

var sqlite3db *db.DB

func TestMain(m *testing.M) {
	if err := idgen.Init(1); err != nil {
		panic(fmt.Sprintf("Error initializing snowflake node %s", err))
	}

	var err error
	sqlite3db, err = db.NewSqliteDb(":memory:")
	if err != nil {
		panic(err)
	}

	if err := sqlite3db.Migrate(context.Background()); err != nil {
		panic(err)
	}

	code := m.Run()
	sqlite3db.Close()
	os.Exit(code)
}
