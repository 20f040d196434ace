package permissions

import "strings"

// Capability is a bitfield representing a set of bot capabilities.
type Capability uint64

const (
	CapViewMessages      Capability = 1 << 0
	CapEditMessages      Capability = 1 << 1
	CapSendMessages      Capability = 1 << 2
	CapDeleteMessages    Capability = 1 << 3
	CapManagePermissions Capability = 1 << 4
	CapManageConfig      Capability = 1 << 5

	// Convenience sets
	CapAllMessages = CapViewMessages | CapEditMessages | CapSendMessages | CapDeleteMessages
	CapAll         = CapAllMessages | CapManagePermissions | CapManageConfig
)

// Has returns true if c contains all bits in caps.
func (c Capability) Has(caps Capability) bool { return c&caps == caps }

// Add returns c with the bits from caps set.
func (c Capability) Add(caps Capability) Capability { return c | caps }

// Remove returns c with the bits from caps cleared.
func (c Capability) Remove(caps Capability) Capability { return c &^ caps }

// capNames maps individual capability bits to their string names, in bit order.
var capNames = []struct {
	bit  Capability
	name string
}{
	{CapViewMessages, "VIEW_MESSAGES"},
	{CapEditMessages, "EDIT_MESSAGES"},
	{CapSendMessages, "SEND_MESSAGES"},
	{CapDeleteMessages, "DELETE_MESSAGES"},
	{CapManagePermissions, "MANAGE_PERMISSIONS"},
	{CapManageConfig, "MANAGE_CONFIG"},
}

// Parse returns the capability bit for a string name, or 0 if unknown.
func Parse(name string) Capability {
	for _, cn := range capNames {
		if cn.name == name {
			return cn.bit
		}
	}
	return 0
}

// Names returns the names of all individual capability bits set in c.
func (c Capability) Names() []string {
	var names []string
	for _, cn := range capNames {
		if c.Has(cn.bit) {
			names = append(names, cn.name)
		}
	}
	return names
}

// String returns a human-readable representation of the capability set,
// listing all set capability names separated by " | ".
func (c Capability) String() string {
	if c == 0 {
		return "NONE"
	}
	names := c.Names()
	if len(names) == 0 {
		return "UNKNOWN"
	}
	return strings.Join(names, " | ")
}

// HasAll reports whether resolved contains every bit of required. When it
// does not, the second return value lists the missing bits individually so
// callers can name them in an error message.
func HasAll(resolved, required Capability) (bool, []Capability) {
	if resolved.Has(required) {
		return true, nil
	}
	var missing []Capability
	for _, cn := range capNames {
		if required.Has(cn.bit) && !resolved.Has(cn.bit) {
			missing = append(missing, cn.bit)
		}
	}
	return false, missing
}
