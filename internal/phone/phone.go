// Package phone normalizes stored phone numbers to E.164 for the SMS
// channel. The pipeline is: parse the number as-is (covers numbers stored
// with a country code), then retry with a region inferred from the user's
// timezone, then retry with the configured default region.
package phone

import (
	"errors"
	"fmt"

	"github.com/nyaruka/phonenumbers"
)

var ErrNoNumber = errors.New("no phone number on file")

// Normalize returns raw in E.164 format.
// timezone is the user's IANA zone, used only for region inference.
func Normalize(raw, timezone, defaultRegion string) (string, error) {
	if raw == "" {
		return "", ErrNoNumber
	}

	// Numbers stored with an explicit country code parse without a region.
	if num, err := phonenumbers.Parse(raw, ""); err == nil && phonenumbers.IsValidNumber(num) {
		return phonenumbers.Format(num, phonenumbers.E164), nil
	}

	region := RegionForZone(timezone)
	if region == "" {
		region = defaultRegion
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", fmt.Errorf("parse %q as %s number: %w", raw, region, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("%q is not a valid %s number", raw, region)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
