package svc

import "errors"

// ErrNoSources 错误：可用价格源不足两个
var ErrNoSources = errors.New("fewer than two price sources available")

// ErrStorageInitFailed 错误：存储初始化失败
var ErrStorageInitFailed = errors.New("storage initialization failed")
