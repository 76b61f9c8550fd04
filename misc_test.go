package seekpager

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret-key"

var testConfig = Config{SecretKey: testSecret}

type Post struct {
	ID        uint `gorm:"primaryKey"`
	Title     string
	Published bool
	CreatedAt time.Time
}

// testBaseTime keeps every created_at on whole seconds in UTC so sqlite
// compares them as equally formatted strings.
var testBaseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "mysql", db.Debug(), mock, nil
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "postgres", db.Debug(), mock, nil
}

// newGORMSQLite opens a private in-memory sqlite database holding posts
// 1..count; post i is published unless (i-1)%7 == 0 and was created i
// minutes after testBaseTime.
func newGORMSQLite(t *testing.T, count int) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&Post{}))

	posts := make([]Post, 0, count)
	for i := 1; i <= count; i++ {
		posts = append(posts, Post{
			ID:        uint(i),
			Title:     fmt.Sprintf("post %d", i),
			Published: (i-1)%7 != 0,
			CreatedAt: testBaseTime.Add(time.Duration(i) * time.Minute),
		})
	}

	if len(posts) > 0 {
		require.NoError(t, db.CreateInBatches(posts, 50).Error)
	}

	return db
}

func postIDs(posts []Post) []uint {
	ret := make([]uint, 0, len(posts))
	for _, p := range posts {
		ret = append(ret, p.ID)
	}

	return ret
}
