package link

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver"
)

// ErrFirmware reports a vehicle firmware outside the accepted range.
var ErrFirmware = errors.New("incompatible vehicle firmware")

// CheckFirmware validates the version string from a Hello response against
// a semver constraint such as "~1.0". An empty constraint accepts anything.
func CheckFirmware(version, constraint string) error {
	if constraint == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid firmware constraint %q: %w", constraint, err)
	}
	v, err := semver.NewVersion(strings.TrimSpace(version))
	if err != nil {
		return fmt.Errorf("%w: version %q is not semver: %v", ErrFirmware, version, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: received version %s, require %s", ErrFirmware, version, constraint)
	}
	return nil
}
