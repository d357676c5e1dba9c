package denuncia

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	protocolPrefix     = "SOS"
	protocolDateLayout = "20060102"
	protocolSuffixLen  = 8
)

// newProtocol builds "SOS-<YYYYMMDD>-<8 uppercase hex>" where the suffix is
// the leading 32 bits of a random UUID.
func newProtocol(now time.Time) string {
	u := uuid.New()
	suffix := strings.ToUpper(hex.EncodeToString(u[:protocolSuffixLen/2]))
	return protocolPrefix + "-" + now.Format(protocolDateLayout) + "-" + suffix
}
