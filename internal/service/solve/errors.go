package solve

import "errors"

// 业务错误码，handler 层映射为对应的 HTTP 状态和 {"error": CODE} 响应
var (
	ErrSessionNotFound       = errors.New("SESSION_NOT_FOUND")
	ErrSessionNotActive      = errors.New("SESSION_NOT_ACTIVE")
	ErrStepMismatch          = errors.New("STEP_MISMATCH")
	ErrQuotaExceeded         = errors.New("QUOTA_EXCEEDED")
	ErrDeviceNotFound        = errors.New("DEVICE_NOT_FOUND")
	ErrInvalidStatus         = errors.New("INVALID_STATUS")
	ErrInvalidStep           = errors.New("INVALID_STEP")
	ErrInvalidStepTransition = errors.New("INVALID_STEP_TRANSITION")
)
