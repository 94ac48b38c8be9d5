package fingerprint

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Environment holds the locally observable characteristics that feed the
// hash. Zero-valued fields are treated as unavailable and skipped.
type Environment struct {
	UserAgent    string
	Locale       string
	ScreenWidth  int
	ScreenHeight int
	ColorDepth   int
	Timezone     string
	Platform     string
	CPUCores     int
}

// Components returns the available characteristics in hashing order.
func (e Environment) Components() []string {
	out := make([]string, 0, 7)
	if e.UserAgent != "" {
		out = append(out, e.UserAgent)
	}
	if e.Locale != "" {
		out = append(out, e.Locale)
	}
	if e.ScreenWidth > 0 && e.ScreenHeight > 0 {
		out = append(out, strconv.Itoa(e.ScreenWidth)+"x"+strconv.Itoa(e.ScreenHeight))
	}
	if e.ColorDepth > 0 {
		out = append(out, strconv.Itoa(e.ColorDepth))
	}
	if e.Timezone != "" {
		out = append(out, e.Timezone)
	}
	if e.Platform != "" {
		out = append(out, e.Platform)
	}
	if e.CPUCores > 0 {
		out = append(out, strconv.Itoa(e.CPUCores))
	}
	return out
}

// DetectEnvironment fills what a Go process can observe about its host.
// Display characteristics are left unset; the embedding client supplies them
// when it has a screen.
func DetectEnvironment(userAgent string) Environment {
	return Environment{
		UserAgent: userAgent,
		Locale:    detectLocale(),
		Timezone:  detectTimezone(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		CPUCores:  runtime.NumCPU(),
	}
}

func detectLocale() string {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := os.Getenv(name)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		// "en_US.UTF-8" -> "en-US"
		if i := strings.IndexAny(v, ".@"); i >= 0 {
			v = v[:i]
		}
		return strings.ReplaceAll(v, "_", "-")
	}
	return ""
}

func detectTimezone() string {
	if tz := os.Getenv("TZ"); tz != "" {
		return strings.TrimPrefix(tz, ":")
	}
	name := time.Local.String()
	if name == "Local" {
		return ""
	}
	return name
}
