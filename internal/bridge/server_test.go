package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wfunc/slot-client/internal/config"
)

func TestAutoplayDefaults(t *testing.T) {
	cfg := &config.AutoplayConfig{
		Spins:          25,
		StopOnAnyWin:   true,
		StopOnFeature:  true,
		SingleWinLimit: "50",
		LossLimit:      "",
	}

	s := autoplayDefaults(cfg)
	assert.Equal(t, 25, s.Spins)
	assert.True(t, s.StopOnAnyWin)
	assert.True(t, s.StopOnFeature)
	assert.Equal(t, "50", s.SingleWinLimit.String())
	assert.True(t, s.LossLimit.IsZero(), "空串阈值不启用")
}

func TestAutoplayDefaultsBadLimit(t *testing.T) {
	s := autoplayDefaults(&config.AutoplayConfig{Spins: 10, SingleWinLimit: "abc"})
	assert.Equal(t, 10, s.Spins)
	assert.True(t, s.SingleWinLimit.IsZero(), "解析失败视为不启用")
}
