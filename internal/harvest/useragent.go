package harvest

import (
	"strings"

	"github.com/corpix/uarand"
)

// RandomUserAgent makes every request pick a fresh browser user agent
const RandomUserAgent = "random"

func resolveUserAgent(ua string) string {
	if ua == "" || strings.EqualFold(ua, RandomUserAgent) {
		return uarand.GetRandom()
	}
	return ua
}
