package repository

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/wfunc/slot-client/internal/errors"
	"github.com/wfunc/slot-client/internal/models"
	"gorm.io/gorm"
)

// isUniqueViolation 判断是否唯一索引冲突（同一回合重复落库）
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if stderrors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// RoundRepository 回合记录仓储接口
type RoundRepository interface {
	Create(ctx context.Context, round *models.Round) error
	FindByRoundID(ctx context.Context, roundID string) (*models.Round, error)
	FindBySession(ctx context.Context, sessionID string, p *Pagination) ([]*models.Round, error)
	RecentRounds(ctx context.Context, sessionID string, limit int) ([]*models.Round, error)
}

// WheelSpinRepository 转盘记录仓储接口
type WheelSpinRepository interface {
	Create(ctx context.Context, spin *models.WheelSpin) error
	FindBySession(ctx context.Context, sessionID string) ([]*models.WheelSpin, error)
}

// SessionStatRepository 会话统计仓储接口
type SessionStatRepository interface {
	Accumulate(ctx context.Context, sessionID string, bet, win decimal.Decimal, freeSpin bool) error
	Get(ctx context.Context, sessionID string) (*models.SessionStat, error)
}

// roundRepo 回合记录仓储实现
type roundRepo struct {
	*BaseRepo
}

// NewRoundRepository 创建回合记录仓储
func NewRoundRepository(db *gorm.DB) RoundRepository {
	return &roundRepo{BaseRepo: NewBaseRepo(db)}
}

// Create 写入回合记录
func (r *roundRepo) Create(ctx context.Context, round *models.Round) error {
	if err := r.db.WithContext(ctx).Create(round).Error; err != nil {
		if isUniqueViolation(err) {
			return errors.Newf(errors.ErrDatabaseInsert, "回合 %s 已落库", round.RoundID)
		}
		return errors.Wrap(err, errors.ErrDatabaseInsert)
	}
	return nil
}

// FindByRoundID 按回合ID查找
func (r *roundRepo) FindByRoundID(ctx context.Context, roundID string) (*models.Round, error) {
	var round models.Round
	err := r.db.WithContext(ctx).Where("round_id = ?", roundID).First(&round).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf(errors.ErrNotFound, "回合 %s 不存在", roundID)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &round, nil
}

// FindBySession 按会话分页查询（按时间倒序）
func (r *roundRepo) FindBySession(ctx context.Context, sessionID string, p *Pagination) ([]*models.Round, error) {
	var rounds []*models.Round

	query := r.db.WithContext(ctx).Model(&models.Round{}).Where("session_id = ?", sessionID)
	if err := query.Count(&p.Total).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}

	err := query.Order("played_at DESC").Scopes(Paginate(p)).Find(&rounds).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return rounds, nil
}

// RecentRounds 最近N个回合（按时间倒序）
func (r *roundRepo) RecentRounds(ctx context.Context, sessionID string, limit int) ([]*models.Round, error) {
	var rounds []*models.Round
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("played_at DESC").
		Limit(limit).
		Find(&rounds).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return rounds, nil
}

// wheelSpinRepo 转盘记录仓储实现
type wheelSpinRepo struct {
	*BaseRepo
}

// NewWheelSpinRepository 创建转盘记录仓储
func NewWheelSpinRepository(db *gorm.DB) WheelSpinRepository {
	return &wheelSpinRepo{BaseRepo: NewBaseRepo(db)}
}

// Create 写入转盘记录
func (r *wheelSpinRepo) Create(ctx context.Context, spin *models.WheelSpin) error {
	if err := r.db.WithContext(ctx).Create(spin).Error; err != nil {
		return errors.Wrap(err, errors.ErrDatabaseInsert)
	}
	return nil
}

// FindBySession 按会话查询全部转盘记录
func (r *wheelSpinRepo) FindBySession(ctx context.Context, sessionID string) ([]*models.WheelSpin, error) {
	var spins []*models.WheelSpin
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("spun_at ASC").
		Find(&spins).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return spins, nil
}

// sessionStatRepo 会话统计仓储实现
type sessionStatRepo struct {
	*BaseRepo
}

// NewSessionStatRepository 创建会话统计仓储
func NewSessionStatRepository(db *gorm.DB) SessionStatRepository {
	return &sessionStatRepo{BaseRepo: NewBaseRepo(db)}
}

// Accumulate 增量更新会话统计，没有记录时创建
func (r *sessionStatRepo) Accumulate(ctx context.Context, sessionID string, bet, win decimal.Decimal, freeSpin bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stat models.SessionStat
		err := tx.Where("session_id = ?", sessionID).First(&stat).Error
		if err != nil {
			if !stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Wrap(err, errors.ErrDatabaseQuery)
			}
			stat = models.SessionStat{SessionID: sessionID}
		}

		if !freeSpin {
			stat.TotalBet = stat.TotalBet.Add(bet)
		} else {
			stat.FreeSpins++
		}
		stat.TotalWin = stat.TotalWin.Add(win)
		stat.TotalRounds++
		if win.GreaterThan(stat.PeakWin) {
			stat.PeakWin = win
		}
		stat.LastPlayed = time.Now()

		if err := tx.Save(&stat).Error; err != nil {
			return errors.Wrap(err, errors.ErrDatabaseInsert)
		}
		return nil
	})
}

// Get 获取会话统计
func (r *sessionStatRepo) Get(ctx context.Context, sessionID string) (*models.SessionStat, error) {
	var stat models.SessionStat
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&stat).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf(errors.ErrNotFound, "会话 %s 无统计记录", sessionID)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &stat, nil
}
