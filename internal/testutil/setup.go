package testutil

import (
	"fmt"
	"testing"

	"eventlink/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SetupTestDB 创建内存SQLite数据库并完成表结构迁移
// 每次调用使用独立的数据库名，测试之间互不影响，可安全并行
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "SetupTestDB: open")
	require.NoError(t, db.AutoMigrate(model.AllModels()...), "SetupTestDB: migrate")
	return db
}
