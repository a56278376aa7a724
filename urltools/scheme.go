// Package urltools classifies source addresses: device paths, local files and network streams.
package urltools

import (
	"net/url"
	"runtime"
	"slices"
	"strings"
)

var networkSchemes = []string{
	"rtsp", "rtsps",
	"rtmp", "rtmps",
	"srt",
	"udp", "tcp", "rtp",
	"http", "https",
}

// Scheme returns the lowercased URL scheme of the address, or "" for plain paths.
func Scheme(address string) string {
	u, err := url.Parse(address)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

func IsNetworkStream(address string) bool {
	return slices.Contains(networkSchemes, Scheme(address))
}

// IsRTSP reports whether the address denotes an RTSP stream, the only
// protocol where a transport hint (udp/tcp) applies.
func IsRTSP(address string) bool {
	switch Scheme(address) {
	case "rtsp", "rtsps":
		return true
	default:
		return false
	}
}

func IsFile(address string) bool {
	switch Scheme(address) {
	case "file", "":
		return !IsDevice(address)
	default:
		return false
	}
}

func IsDevice(address string) bool {
	return strings.HasPrefix(address, "/dev/")
}

// DeviceFormatName returns the libav input format to use for a capture
// device path, since libav cannot detect a device format from its contents.
func DeviceFormatName(address string) string {
	if !IsDevice(address) || runtime.GOOS != "linux" {
		return ""
	}
	if strings.HasPrefix(address, "/dev/video") {
		return "v4l2"
	}
	return ""
}

// Redact hides the password of an address with user info, so it can be logged.
func Redact(address string) string {
	u, err := url.Parse(address)
	if err != nil || u.User == nil {
		return address
	}
	return u.Redacted()
}
