package repository

import (
	"context"
	"time"

	"github.com/wfunc/slot-client/internal/game"
	"github.com/wfunc/slot-client/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Recorder 回合记录器。
// 订阅编排器事件，回合结算与转盘入账时落库。
// 纯观测：任何写入失败只记日志，绝不反馈到游戏流程。
type Recorder struct {
	rounds RoundRepository
	wheels WheelSpinRepository
	stats  SessionStatRepository
	bus    *game.Bus
	logger *zap.Logger
	gameID string
}

// NewRecorder 创建回合记录器并迁移表结构
func NewRecorder(db *gorm.DB, bus *game.Bus, gameID string, logger *zap.Logger, autoMigrate bool) (*Recorder, error) {
	if autoMigrate {
		if err := db.AutoMigrate(&models.Round{}, &models.WheelSpin{}, &models.SessionStat{}); err != nil {
			return nil, err
		}
	}

	return &Recorder{
		rounds: NewRoundRepository(db),
		wheels: NewWheelSpinRepository(db),
		stats:  NewSessionStatRepository(db),
		bus:    bus,
		logger: logger,
		gameID: gameID,
	}, nil
}

// Run 事件循环。阻塞直到上下文取消。
func (r *Recorder) Run(ctx context.Context) {
	events, cancel := r.bus.Subscribe(64)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			switch ev.Type {
			case game.EventRoundSettled:
				if rec, ok := ev.Payload.(*game.RoundRecord); ok {
					r.recordRound(ctx, rec)
				}
			case game.EventWheelCredited:
				if res, ok := ev.Payload.(*game.ActionSpinResult); ok {
					r.recordWheel(ctx, res)
				}
			}
		}
	}
}

// recordRound 回合落库并更新会话统计
func (r *Recorder) recordRound(ctx context.Context, rec *game.RoundRecord) {
	gridJSON, err := marshalJSON(rec.Grid)
	if err != nil {
		r.logger.Warn("回合网格序列化失败", zap.String("round_id", rec.RoundID), zap.Error(err))
		return
	}
	linesJSON, err := marshalJSON(rec.WinningLines)
	if err != nil {
		r.logger.Warn("中奖线序列化失败", zap.String("round_id", rec.RoundID), zap.Error(err))
		return
	}

	round := &models.Round{
		RoundID:       rec.RoundID,
		SessionID:     rec.SessionID,
		GameID:        r.gameID,
		BetAmount:     rec.BetAmount,
		WinAmount:     rec.WinAmount,
		Balance:       rec.Balance,
		Grid:          gridJSON,
		WinningLines:  linesJSON,
		FreeSpin:      rec.FreeSpin,
		FeatureSymbol: rec.FeatureSymbol,
		Expanded:      rec.Expanded,
		PlayedAt:      rec.PlayedAt,
	}

	if err := r.rounds.Create(ctx, round); err != nil {
		r.logger.Warn("回合记录写入失败", zap.String("round_id", rec.RoundID), zap.Error(err))
		return
	}

	if err := r.stats.Accumulate(ctx, rec.SessionID, rec.BetAmount, rec.WinAmount, rec.FreeSpin); err != nil {
		r.logger.Warn("会话统计更新失败", zap.String("session_id", rec.SessionID), zap.Error(err))
	}
}

// recordWheel 转盘入账落库
func (r *Recorder) recordWheel(ctx context.Context, res *game.ActionSpinResult) {
	spin := &models.WheelSpin{
		SessionID:       res.SessionID,
		Outcome:         res.Result.WheelResult,
		Segment:         game.SegmentForOutcome(res.Result.WheelResult),
		WinAmount:       res.Result.Win,
		AdditionalSpins: res.Result.AdditionalSpins,
		AccumulatedWin:  res.AccumulatedWin,
		SpunAt:          time.Now(),
	}

	if err := r.wheels.Create(ctx, spin); err != nil {
		r.logger.Warn("转盘记录写入失败", zap.String("session_id", res.SessionID), zap.Error(err))
	}
}

// marshalJSON 用统一的编解码器序列化为字符串
func marshalJSON(v interface{}) (string, error) {
	b, err := models.MarshalDoc(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
