package server

import (
	"errors"

	"github.com/shengyanli1982/slidegate/internal/constants"
)

// ErrServerAlreadyStarted 表示服务器重复启动
var ErrServerAlreadyStarted = errors.New(constants.ErrMsgServerAlreadyStarted)
