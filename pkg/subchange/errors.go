package subchange

import "errors"

var ErrSubscribeFailed = errors.New("subchange: failed to subscribe to change stream")
