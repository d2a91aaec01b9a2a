package uploads

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"review-analyzer/internal/shared/util"
)

// ObjectKey builds "{userID}/{unixMillis}-{suffix}{.ext}". The extension of
// the original name is kept as-is and omitted when the name has none or it
// is not a plain alphanumeric extension.
func ObjectKey(userID, fileName string, now time.Time, suffix string) string {
	return fmt.Sprintf("%s/%d-%s%s", strings.Trim(userID, "/"), now.UnixMilli(), suffix, util.FileExt(fileName))
}

// RandomSuffix returns a short base36 token.
func RandomSuffix() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return strconv.FormatUint(binary.BigEndian.Uint64(b[:]), 36)
}
