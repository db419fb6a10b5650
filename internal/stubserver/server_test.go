package stubserver

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/slot-client/internal/errors"
	"github.com/wfunc/slot-client/internal/game"
	"github.com/wfunc/slot-client/internal/gameapi"
	"go.uber.org/zap"
)

// ServerTestSuite 用真实客户端走完整的HTTP往返
type ServerTestSuite struct {
	suite.Suite
	srv    *Server
	ts     *httptest.Server
	client *gameapi.Client
}

func (s *ServerTestSuite) SetupTest() {
	s.srv = New(Options{Seed: 42, Logger: zap.NewNop()})
	s.ts = httptest.NewServer(s.srv.httpSrv.Handler)
	s.client = gameapi.NewClient(s.ts.URL, zap.NewNop())
}

func (s *ServerTestSuite) TearDownTest() {
	s.ts.Close()
}

func (s *ServerTestSuite) TestPlayRoundTrip() {
	resp, err := s.client.Play(context.Background(), &game.SpinRequest{
		SessionID:     "sess-1",
		BetAmount:     decimal.RequireFromString("1"),
		NumPaylines:   game.NumPaylines,
		BetPerPayline: decimal.RequireFromString("0.2"),
		GameID:        "goldenfields",
	})
	s.Require().NoError(err)
	s.Len(resp.Grid, 5)
	s.True(resp.Balance.LessThanOrEqual(StartingBalance.Add(resp.LastWin)))
}

func (s *ServerTestSuite) TestPlayBadBet() {
	_, err := s.client.Play(context.Background(), &game.SpinRequest{
		SessionID: "sess-1",
		BetAmount: decimal.RequireFromString("3"),
	})
	s.Require().Error(err)
	s.True(errors.Is(err, errors.ErrInvalidParam), "无效投注返回400")
}

func (s *ServerTestSuite) TestSessionRoundTrip() {
	_, err := s.client.Play(context.Background(), &game.SpinRequest{
		SessionID: "sess-1",
		BetAmount: decimal.RequireFromString("1"),
	})
	s.Require().NoError(err)

	snap, err := s.client.GetSession(context.Background(), "sess-1")
	s.Require().NoError(err)
	s.Equal("sess-1", snap.SessionID)

	s.Require().NoError(s.client.ResetSession(context.Background(), "sess-1"))

	snap, err = s.client.GetSession(context.Background(), "sess-1")
	s.Require().NoError(err)
	s.True(snap.Balance.Equal(StartingBalance), "重置后余额回到初始值")
}

func (s *ServerTestSuite) TestFetchGameConfig() {
	cfg, err := s.client.FetchGameConfig(context.Background(), "goldenfields")
	s.Require().NoError(err)
	s.Equal("goldenfields", cfg.GameID)
	s.Equal(5, cfg.Reels)
	s.Len(cfg.Paylines, game.NumPaylines)
}

func (s *ServerTestSuite) TestFetchUnknownGame() {
	_, err := s.client.FetchGameConfig(context.Background(), "nope")
	s.Require().Error(err)
	s.True(errors.Is(err, errors.ErrNotFound))
}

func (s *ServerTestSuite) TestWheelWithoutSpins() {
	_, err := s.client.SpinActionGame(context.Background(), "sess-1")
	s.Require().Error(err)
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

// AuthTestSuite 开启令牌校验的服务器
type AuthTestSuite struct {
	suite.Suite
	srv *Server
	ts  *httptest.Server
}

func (s *AuthTestSuite) SetupTest() {
	s.srv = New(Options{Seed: 42, JWTSecret: "test-secret", Logger: zap.NewNop()})
	s.ts = httptest.NewServer(s.srv.httpSrv.Handler)
}

func (s *AuthTestSuite) TearDownTest() {
	s.ts.Close()
}

func (s *AuthTestSuite) TestRejectsMissingToken() {
	client := gameapi.NewClient(s.ts.URL, zap.NewNop())

	_, err := client.GetSession(context.Background(), "sess-1")
	s.Require().Error(err)
	s.True(errors.Is(err, errors.ErrSessionInvalid), "未带令牌返回401")
}

func (s *AuthTestSuite) TestRejectsBogusToken() {
	client := gameapi.NewClient(s.ts.URL, zap.NewNop(), gameapi.WithAuthToken("not-a-jwt"))

	_, err := client.GetSession(context.Background(), "sess-1")
	s.Require().Error(err)
	s.True(errors.Is(err, errors.ErrSessionInvalid))
}

func (s *AuthTestSuite) TestAcceptsIssuedToken() {
	token, err := s.srv.tokens.Issue("sess-1", "goldenfields")
	s.Require().NoError(err)

	client := gameapi.NewClient(s.ts.URL, zap.NewNop(), gameapi.WithAuthToken(token))

	snap, err := client.GetSession(context.Background(), "sess-1")
	s.Require().NoError(err)
	s.Equal("sess-1", snap.SessionID)
}

func TestAuthTestSuite(t *testing.T) {
	suite.Run(t, new(AuthTestSuite))
}
