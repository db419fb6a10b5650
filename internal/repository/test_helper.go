package repository

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wfunc/slot-client/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 创建内存测试数据库并迁移全部模型
func TestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开内存数据库失败: %v", err)
	}

	err = db.AutoMigrate(
		&models.Round{},
		&models.WheelSpin{},
		&models.SessionStat{},
	)
	if err != nil {
		t.Fatalf("迁移测试表失败: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})

	return db
}

// CreateTestRound 构造一条测试回合记录
func CreateTestRound(roundID, sessionID string, bet, win string, playedAt time.Time) *models.Round {
	return &models.Round{
		RoundID:      roundID,
		SessionID:    sessionID,
		GameID:       "testgame",
		BetAmount:    decimal.RequireFromString(bet),
		WinAmount:    decimal.RequireFromString(win),
		Balance:      decimal.RequireFromString("100"),
		Grid:         `[["cherry","cherry","cherry"]]`,
		WinningLines: `[]`,
		PlayedAt:     playedAt,
	}
}
