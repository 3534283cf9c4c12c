package mqtt

import "strings"

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "graywire"

// Topics builds graywire MQTT topics under a common prefix.
//
//	topics := mqtt.NewTopics("site-a/graywire")
//	topics.ServiceBuilt("db") // "site-a/graywire/registry/built/db"
type Topics struct {
	prefix string
}

// NewTopics returns builders rooted at prefix. Surrounding slashes are
// trimmed; an empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic root.
func (t Topics) Prefix() string {
	return t.prefix
}

// SystemStatus is the retained online/offline topic, also used for the LWT.
//
// Example: graywire/system/status
func (t Topics) SystemStatus() string {
	return t.prefix + "/system/status"
}

// ServiceBuilt carries one build event for the named service.
//
// Example: graywire/registry/built/db
func (t Topics) ServiceBuilt(name string) string {
	return t.prefix + "/registry/built/" + name
}

// AllServiceBuilds matches every ServiceBuilt topic.
//
// Example: graywire/registry/built/+
func (t Topics) AllServiceBuilds() string {
	return t.prefix + "/registry/built/+"
}

// CacheInvalidate receives source identifiers whose cached configuration
// should be dropped.
//
// Example: graywire/cache/invalidate
func (t Topics) CacheInvalidate() string {
	return t.prefix + "/cache/invalidate"
}
