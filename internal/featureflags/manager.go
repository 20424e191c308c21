// Package featureflags evaluates the FEATURE_FLAGS setting.
package featureflags

import (
	"hash/fnv"
	"maps"
	"strconv"
	"strings"
)

// Known flags.
const (
	LoadMore     = "load_more"
	RealtimePush = "realtime_push"
	ViewCache    = "view_cache"
)

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "load_more=on,view_cache=25%,realtime_push=off"
type Manager struct {
	flags map[string]string
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for pair := range strings.SplitSeq(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// Enabled reports whether a flag is on for the given session.
// Values are on/true/1, off/false/0, or N% for a deterministic per-session
// rollout. Unknown flags are off.
func (m *Manager) Enabled(name, sessionKey string) bool {
	if m == nil {
		return false
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, ok := strings.CutSuffix(value, "%")
	if !ok {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil || pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	if sessionKey == "" {
		return false
	}
	return rolloutBucket(name, sessionKey) < pct
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m.flags)
}

// Snapshot returns evaluated flag status for one session.
func (m *Manager) Snapshot(sessionKey string) map[string]bool {
	out := make(map[string]bool)
	if m == nil {
		return out
	}
	for name := range m.flags {
		out[name] = m.Enabled(name, sessionKey)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name, sessionKey string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + sessionKey))
	return int(h.Sum32() % 100)
}
