package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ErrorsTestSuite 错误包测试套件
type ErrorsTestSuite struct {
	suite.Suite
}

// 测试创建新错误
func (suite *ErrorsTestSuite) TestNew() {
	// 测试基本错误创建
	err := New(ErrInvalidParam)
	suite.NotNil(err)
	suite.Equal(ErrInvalidParam, err.Code)
	suite.Equal("无效的参数", err.Message)
	suite.Empty(err.Details)

	// 测试带详情的错误
	err = New(ErrInsufficientBalance, "余额 1.50, 投注 2.00")
	suite.NotNil(err)
	suite.Equal(ErrInsufficientBalance, err.Code)
	suite.Equal("余额不足", err.Message)
	suite.Equal("余额 1.50, 投注 2.00", err.Details)

	// 测试多个详情
	err = New(ErrAPIRequest, "请求失败", "地址: localhost", "端口: 8080")
	suite.Equal("请求失败; 地址: localhost; 端口: 8080", err.Details)
}

// 测试格式化错误创建
func (suite *ErrorsTestSuite) TestNewf() {
	err := Newf(ErrAPIStatus, "状态码 %d: %s", 500, "internal error")
	suite.NotNil(err)
	suite.Equal(ErrAPIStatus, err.Code)
	suite.Equal("状态码 500: internal error", err.Details)
}

// 测试错误包装
func (suite *ErrorsTestSuite) TestWrap() {
	// 包装标准错误
	originalErr := errors.New("原始错误")
	wrappedErr := Wrap(originalErr, ErrAPIRequest)
	suite.NotNil(wrappedErr)
	suite.Equal(ErrAPIRequest, wrappedErr.Code)
	suite.Equal("原始错误", wrappedErr.Details)
	suite.Equal(originalErr, wrappedErr.Cause)

	// 包装nil错误
	nilErr := Wrap(nil, ErrUnknown)
	suite.Nil(nilErr)

	// 包装已有的AppError
	appErr := New(ErrSessionInvalid, "会话不存在")
	wrappedAppErr := Wrap(appErr, ErrInvalidParam, "额外信息")
	suite.Equal(ErrSessionInvalid, wrappedAppErr.Code) // 保留原始错误码
	suite.Contains(wrappedAppErr.Details, "额外信息")
}

// 测试格式化错误包装
func (suite *ErrorsTestSuite) TestWrapf() {
	originalErr := errors.New("连接超时")
	wrappedErr := Wrapf(originalErr, ErrAPIRequest, "请求 %s 失败", "/play")
	suite.NotNil(wrappedErr)
	suite.Equal(ErrAPIRequest, wrappedErr.Code)
	suite.Equal("请求 /play 失败", wrappedErr.Details)
	suite.Equal(originalErr, wrappedErr.Cause)
}

// 测试链式补充详情与原因
func (suite *ErrorsTestSuite) TestBuilders() {
	cause := errors.New("连接被拒绝")
	err := New(ErrAPIRequest).WithDetails("地址 localhost:8080").WithCause(cause)
	suite.Equal("地址 localhost:8080", err.Details)
	suite.Equal(cause, err.Cause)
	suite.Equal(cause, errors.Unwrap(err))

	// 没有详情时采用原因错误的消息
	err = New(ErrAPIRequest).WithCause(cause)
	suite.Equal("连接被拒绝", err.Details)
}

// 测试错误码判断
func (suite *ErrorsTestSuite) TestIs() {
	err := New(ErrSpinInProgress)
	suite.True(Is(err, ErrSpinInProgress))
	suite.False(Is(err, ErrNotFound))
	suite.False(Is(nil, ErrSpinInProgress))

	// 测试标准错误
	standardErr := errors.New("标准错误")
	suite.False(Is(standardErr, ErrUnknown))
}

// 测试获取错误码
func (suite *ErrorsTestSuite) TestGetCode() {
	// AppError
	appErr := New(ErrTokenExpired)
	suite.Equal(ErrTokenExpired, GetCode(appErr))

	// 标准错误
	standardErr := errors.New("标准错误")
	suite.Equal(ErrUnknown, GetCode(standardErr))

	// nil错误
	suite.Equal(ErrorCode(0), GetCode(nil))
}

// 测试致命错误判断
func (suite *ErrorsTestSuite) TestIsFatal() {
	suite.True(IsFatal(New(ErrConfigValidate)))
	suite.True(IsFatal(New(ErrConfigMissing)))
	suite.False(IsFatal(New(ErrAPIRequest)))
	suite.False(IsFatal(New(ErrInsufficientBalance)))
	suite.False(IsFatal(nil))
}

// 测试HTTP状态码映射
func (suite *ErrorsTestSuite) TestHTTPStatus() {
	suite.Equal(400, New(ErrInvalidBet).HTTPStatus())
	suite.Equal(402, New(ErrInsufficientBalance).HTTPStatus())
	suite.Equal(404, New(ErrSessionInvalid).HTTPStatus())
	suite.Equal(401, New(ErrTokenInvalid).HTTPStatus())
	suite.Equal(503, New(ErrDatabaseConnect).HTTPStatus())
	suite.Equal(500, New(ErrUnknown).HTTPStatus())
}

// 测试错误消息格式
func (suite *ErrorsTestSuite) TestError() {
	err := New(ErrInvalidBet)
	suite.Equal("[2001] 无效的投注金额", err.Error())

	err = New(ErrInvalidBet, "投注 0.00")
	suite.Equal("[2001] 无效的投注金额: 投注 0.00", err.Error())
}

// TestErrorsTestSuite 运行测试套件
func TestErrorsTestSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}
