package phone

import "strings"

// zoneRegions maps IANA zone names to ISO 3166-1 alpha-2 regions for the
// zones our user base actually reports. Only zones whose country is
// unambiguous are listed; anything else falls through to the default.
var zoneRegions = map[string]string{
	"Australia/Sydney":    "AU",
	"Australia/Melbourne": "AU",
	"Australia/Brisbane":  "AU",
	"Australia/Perth":     "AU",
	"Australia/Adelaide":  "AU",
	"Australia/Hobart":    "AU",
	"Australia/Darwin":    "AU",

	"Pacific/Auckland": "NZ",

	"Europe/London": "GB",
	"Europe/Dublin": "IE",
	"Europe/Paris":  "FR",
	"Europe/Berlin": "DE",
	"Europe/Madrid": "ES",
	"Europe/Rome":   "IT",

	"America/New_York":    "US",
	"America/Chicago":     "US",
	"America/Denver":      "US",
	"America/Phoenix":     "US",
	"America/Los_Angeles": "US",
	"America/Anchorage":   "US",
	"Pacific/Honolulu":    "US",
	"America/Toronto":     "CA",
	"America/Vancouver":   "CA",

	"Asia/Singapore": "SG",
	"Asia/Tokyo":     "JP",
	"Asia/Seoul":     "KR",
	"Asia/Kolkata":   "IN",
	"Asia/Dubai":     "AE",
}

// zonePrefixRegions covers whole prefixes whose zones all belong to one
// country, for zones missing from the exact table.
var zonePrefixRegions = map[string]string{
	"Australia/": "AU",
}

// RegionForZone infers an ISO region from an IANA zone name.
// Returns "" when no unambiguous inference exists.
func RegionForZone(zone string) string {
	if r, ok := zoneRegions[zone]; ok {
		return r
	}
	for prefix, r := range zonePrefixRegions {
		if strings.HasPrefix(zone, prefix) {
			return r
		}
	}
	return ""
}
