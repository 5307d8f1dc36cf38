package inmemdb_test

import (
	"testing"

	"github.com/trezcool/rollcall/storage/database/inmem"
	"github.com/trezcool/rollcall/tests"
)

func TestRepositories(t *testing.T) {
	testutil.RunRepositoryTests(t, func(t *testing.T) testutil.Repos {
		db := inmemdb.NewDB()
		return testutil.Repos{
			Students: inmemdb.NewStudentRepository(db),
			Teachers: inmemdb.NewTeacherRepository(db),
			Classes:  inmemdb.NewClassRepository(db),
			Alerts:   inmemdb.NewAlertRepository(db),
			Marks:    inmemdb.NewMarkRepository(db),
			Ledger:   inmemdb.NewLedger(db),
		}
	})
}
