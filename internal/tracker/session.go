package tracker

import (
	"math/rand"
	"strconv"
	"time"
)

const (
	sessionSuffixLen = 9
	base36           = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// newSessionID is unique enough for one page session. It is not a secret.
func newSessionID(now time.Time) string {
	suffix := make([]byte, sessionSuffixLen)
	for i := range suffix {
		suffix[i] = base36[rand.Intn(len(base36))]
	}
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + string(suffix)
}
