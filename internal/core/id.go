package core

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns an identifier of the form jadwal_<unix millis>_<9 hex chars>.
// Uniqueness is probabilistic; collisions are not checked.
func NewID() string {
	return newIDAt(time.Now())
}

func newIDAt(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return "jadwal_" + strconv.FormatInt(t.UnixMilli(), 10) + "_" + suffix
}
