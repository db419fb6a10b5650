package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/slot-client/internal/errors"
	"github.com/wfunc/slot-client/internal/models"
)

func TestRoundRepository_Create(t *testing.T) {
	db := TestDB(t)
	repo := NewRoundRepository(db)
	ctx := context.Background()

	round := CreateTestRound("r-1", "sess-1", "1", "2.5", time.Now())
	err := repo.Create(ctx, round)
	require.NoError(t, err)
	assert.NotZero(t, round.ID)

	found, err := repo.FindByRoundID(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", found.SessionID)
	assert.True(t, found.WinAmount.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, `[["cherry","cherry","cherry"]]`, found.Grid)
}

func TestRoundRepository_DuplicateRoundID(t *testing.T) {
	db := TestDB(t)
	repo := NewRoundRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, CreateTestRound("r-1", "sess-1", "1", "0", time.Now())))

	// 回合ID唯一，重复写入被拒绝
	err := repo.Create(ctx, CreateTestRound("r-1", "sess-1", "1", "0", time.Now()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDatabaseInsert))
}

func TestRoundRepository_FindByRoundIDNotFound(t *testing.T) {
	db := TestDB(t)
	repo := NewRoundRepository(db)

	_, err := repo.FindByRoundID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRoundRepository_FindBySessionPaginated(t *testing.T) {
	db := TestDB(t)
	repo := NewRoundRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		round := CreateTestRound(fmt.Sprintf("r-%d", i), "sess-1", "1", "0", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Create(ctx, round))
	}
	// 其他会话的记录不应混入
	require.NoError(t, repo.Create(ctx, CreateTestRound("other-1", "sess-2", "1", "0", time.Now())))

	p := NewPagination(1, 10)
	rounds, err := repo.FindBySession(ctx, "sess-1", p)
	require.NoError(t, err)
	assert.Len(t, rounds, 10)
	assert.Equal(t, int64(25), p.Total)
	assert.Equal(t, "r-24", rounds[0].RoundID, "按时间倒序")

	p = NewPagination(3, 10)
	rounds, err = repo.FindBySession(ctx, "sess-1", p)
	require.NoError(t, err)
	assert.Len(t, rounds, 5, "末页只剩余数")
}

func TestRoundRepository_RecentRounds(t *testing.T) {
	db := TestDB(t)
	repo := NewRoundRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		round := CreateTestRound(fmt.Sprintf("r-%d", i), "sess-1", "1", "0", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Create(ctx, round))
	}

	rounds, err := repo.RecentRounds(ctx, "sess-1", 3)
	require.NoError(t, err)
	require.Len(t, rounds, 3)
	assert.Equal(t, "r-4", rounds[0].RoundID)
	assert.Equal(t, "r-2", rounds[2].RoundID)
}

func TestWheelSpinRepository(t *testing.T) {
	db := TestDB(t)
	repo := NewWheelSpinRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Minute)
	outcomes := []string{"3spins", "x2", "500"}
	for i, outcome := range outcomes {
		spin := &models.WheelSpin{
			SessionID:      "sess-1",
			Outcome:        outcome,
			Segment:        i,
			WinAmount:      decimal.NewFromInt(int64(i * 10)),
			AccumulatedWin: decimal.NewFromInt(int64(i * 10)),
			SpunAt:         base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.Create(ctx, spin))
	}

	spins, err := repo.FindBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, spins, 3)
	assert.Equal(t, "3spins", spins[0].Outcome, "按旋转时间正序")
	assert.Equal(t, "500", spins[2].Outcome)
}

func TestSessionStatRepository_Accumulate(t *testing.T) {
	db := TestDB(t)
	repo := NewSessionStatRepository(db)
	ctx := context.Background()

	// 首次累计自动建档
	bet := decimal.RequireFromString("1")
	require.NoError(t, repo.Accumulate(ctx, "sess-1", bet, decimal.RequireFromString("5"), false))

	stat, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, stat.TotalBet.Equal(bet))
	assert.True(t, stat.TotalWin.Equal(decimal.RequireFromString("5")))
	assert.Equal(t, 1, stat.TotalRounds)
	assert.Equal(t, 0, stat.FreeSpins)
	assert.True(t, stat.PeakWin.Equal(decimal.RequireFromString("5")))

	// 免费旋转不计投注，计免费旋转次数
	require.NoError(t, repo.Accumulate(ctx, "sess-1", bet, decimal.RequireFromString("12"), true))

	stat, err = repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, stat.TotalBet.Equal(bet), "免费旋转不增加总投注")
	assert.True(t, stat.TotalWin.Equal(decimal.RequireFromString("17")))
	assert.Equal(t, 2, stat.TotalRounds)
	assert.Equal(t, 1, stat.FreeSpins)
	assert.True(t, stat.PeakWin.Equal(decimal.RequireFromString("12")), "峰值中奖更新")

	// 较小的中奖不回退峰值
	require.NoError(t, repo.Accumulate(ctx, "sess-1", bet, decimal.RequireFromString("3"), false))
	stat, err = repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, stat.PeakWin.Equal(decimal.RequireFromString("12")))
}

func TestSessionStatRepository_GetNotFound(t *testing.T) {
	db := TestDB(t)
	repo := NewSessionStatRepository(db)

	_, err := repo.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestPagination(t *testing.T) {
	p := NewPagination(0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
	assert.Equal(t, 0, p.Offset())

	p = NewPagination(3, 10)
	assert.Equal(t, 20, p.Offset())

	p = NewPagination(1, 500)
	assert.Equal(t, 100, p.PageSize, "页大小封顶")
}
