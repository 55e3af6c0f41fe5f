package timestamp

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/craybot/craybot/internal/logger"
	"github.com/sirupsen/logrus"
)

// Format is one Discord timestamp display style
type Format struct {
	Code  string
	Label string
}

// Formats lists the display styles in the order they are suggested
var Formats = []Format{
	{Code: "d", Label: "DD/MM/YYYY (e.g. 15/07/2025)"},
	{Code: "D", Label: "DD Month YYYY (e.g. 15 July 2025)"},
	{Code: "t", Label: "HH:MM (e.g. 10:20)"},
	{Code: "T", Label: "HH:MM:SS (e.g. 10:20:15)"},
	{Code: "f", Label: "DD Month YYYY HH:MM (e.g. 15 July 2025 10:20)"},
	{Code: "F", Label: "Day, DD Month YYYY HH:MM (e.g. Tuesday, 15 July 2025, 10:20)"},
	{Code: "R", Label: "In <x> <time unit> (e.g. In 2 hours)"},
}

// IsFormat reports whether code is a Discord timestamp style
func IsFormat(code string) bool {
	for _, f := range Formats {
		if f.Code == code {
			return true
		}
	}
	return false
}

// zoneinfoDirs are searched in order for zone names, like the time package does
var zoneinfoDirs = []string{
	"/usr/share/zoneinfo",
	"/usr/share/lib/zoneinfo",
	"/usr/lib/locale/TZ",
	"/etc/zoneinfo",
}

// fallbackZones is suggested when no zoneinfo directory is readable.
// Validation still accepts every name the embedded database knows.
var fallbackZones = []string{
	"Africa/Cairo", "Africa/Johannesburg", "Africa/Lagos", "Africa/Nairobi",
	"America/Anchorage", "America/Argentina/Buenos_Aires", "America/Bogota",
	"America/Chicago", "America/Denver", "America/Halifax", "America/Los_Angeles",
	"America/Mexico_City", "America/New_York", "America/Phoenix", "America/Sao_Paulo",
	"America/Toronto", "America/Vancouver", "Asia/Bangkok", "Asia/Dubai",
	"Asia/Hong_Kong", "Asia/Jakarta", "Asia/Kolkata", "Asia/Manila", "Asia/Seoul",
	"Asia/Shanghai", "Asia/Singapore", "Asia/Tokyo", "Atlantic/Reykjavik",
	"Australia/Adelaide", "Australia/Brisbane", "Australia/Perth", "Australia/Sydney",
	"Europe/Amsterdam", "Europe/Athens", "Europe/Berlin", "Europe/Dublin",
	"Europe/Helsinki", "Europe/Istanbul", "Europe/Lisbon", "Europe/London",
	"Europe/Madrid", "Europe/Moscow", "Europe/Paris", "Europe/Rome",
	"Europe/Stockholm", "Europe/Warsaw", "Pacific/Auckland", "Pacific/Honolulu", "UTC",
}

var (
	zoneNamesOnce sync.Once
	zoneNames     []string
)

// ZoneNames returns the sorted zone names known to the host, read once
func ZoneNames() []string {
	zoneNamesOnce.Do(func() {
		if dir := os.Getenv("ZONEINFO"); dir != "" {
			zoneNames = scanZoneinfo(dir)
		}
		for _, dir := range zoneinfoDirs {
			if len(zoneNames) > 0 {
				break
			}
			zoneNames = scanZoneinfo(dir)
		}
		if len(zoneNames) == 0 {
			zoneNames = append([]string(nil), fallbackZones...)
		}

		logger.WithFields(logrus.Fields{
			"module": Name,
			"zones":  len(zoneNames),
		}).Debug("zone-names-loaded")
	})
	return zoneNames
}

// scanZoneinfo collects the names of the TZif files under dir
func scanZoneinfo(dir string) []string {
	var names []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return nil
		}
		if d.IsDir() {
			// posix/ and right/ duplicate the main tree
			if rel == "posix" || rel == "right" {
				return filepath.SkipDir
			}
			return nil
		}
		if !isTZif(path) {
			return nil
		}
		if name := filepath.ToSlash(rel); IsZoneName(name) {
			names = append(names, name)
		}
		return nil
	})
	sort.Strings(names)
	return names
}

// IsZoneName reports whether name can be an IANA zone name. Host aliases and
// the duplicate posix/ and right/ trees are not.
func IsZoneName(name string) bool {
	switch name {
	case "", "Local", "localtime", "posixrules", "Factory":
		return false
	}
	first, _, _ := strings.Cut(name, "/")
	return first != "posix" && first != "right"
}

func isTZif(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := f.Read(magic); err != nil {
		return false
	}
	return bytes.Equal(magic, []byte("TZif"))
}

// MatchZones returns up to limit names containing query, case-insensitively
func MatchZones(names []string, query string, limit int) []string {
	query = strings.ToLower(query)
	var matches []string
	for _, name := range names {
		if len(matches) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(name), query) {
			matches = append(matches, name)
		}
	}
	return matches
}
