// Package featureflags evaluates per-user rollout flags from configuration.
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// TextPipeline gates the grammar/sentiment/hashtag decoration of new posts.
const TextPipeline = "text_pipeline"

// Manager holds flags parsed from a list such as "text_pipeline=25%,other=off".
type Manager struct {
	flags map[string]string
}

// NewManager parses a comma-separated name=value list. Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	flags := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name != "" && value != "" {
			flags[name] = value
		}
	}
	return &Manager{flags: flags}
}

// Enabled evaluates a flag for one user. Values are on/off/true/false/1/0 or "N%".
// A percentage buckets users deterministically; anonymous users are only in at 100%.
// Unset flags fall back to def.
func (m *Manager) Enabled(name string, userID uint, def bool) bool {
	if m == nil {
		return def
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return def
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pct, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
	if err != nil || !strings.HasSuffix(value, "%") {
		return def
	}
	switch {
	case pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return bucket(name, userID) < pct
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
