package platform

import (
	"strconv"
	"strings"
)

// parseOSVersion extracts major and minor from an NSProcessInfo version
// string such as "Version 14.2.1 (Build 23C71)".
func parseOSVersion(s string) (major, minor int, ok bool) {
	fields := strings.Fields(s)
	for i, f := range fields {
		if f != "Version" || i+1 >= len(fields) {
			continue
		}
		parts := strings.Split(fields[i+1], ".")
		var err error
		if major, err = strconv.Atoi(parts[0]); err != nil {
			return 0, 0, false
		}
		if len(parts) > 1 {
			if minor, err = strconv.Atoi(parts[1]); err != nil {
				return 0, 0, false
			}
		}
		return major, minor, true
	}
	return 0, 0, false
}

// supportsUserNotifications reports whether the UserNotifications
// framework exists on the OS described by version (10.14 or later).
func supportsUserNotifications(version string) bool {
	major, minor, ok := parseOSVersion(version)
	if !ok {
		return false
	}
	return major > 10 || (major == 10 && minor >= 14)
}
