package engine

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// splitComplexString parses the engine's center_hp_str convention:
// "re,im" decimal strings, matching scheduler.NewFingerprint's own
// CenterStr rendering so a persisted/restored center round-trips
// through the same format the cache fingerprints it with.
func splitComplexString(s string) (re, im string, err error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return "", "", errors.Errorf("engine: center_hp_str %q is not \"re,im\"", s)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

// parseApproxZoom extracts a coarse float64 magnitude from zoom_hp_str
// purely to size the working precision budget (hpfloat.RequiredPrecisionBits
// only needs log2(zoom) to within a bit or two); the authoritative zoom
// value is later parsed at full precision via hpfloat.SetString.
func parseApproxZoom(zoomHPStr string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(zoomHPStr), 64)
	if err != nil || v <= 0 {
		return 1
	}
	return v
}
