package fleet

import "errors"

// Validation failures returned to callers. None of these are fatal; the
// tick loop never terminates on them.
var (
	ErrInvalidVendorTask = errors.New("task type not supported by robot vendor")
	ErrRobotBusy         = errors.New("robot cannot accept a task right now")
	ErrUnknownRobot      = errors.New("unknown robot id")
	ErrUnknownAlert      = errors.New("unknown alert id")
)
