package models

// Override is a per-target allow/deny capability pair layered atop an
// inherited base.
type Override struct {
	Allow uint64 `json:"allow"`
	Deny  uint64 `json:"deny"`
}

// IsZero reports whether the override grants and revokes nothing, which is
// equivalent to the entry being absent.
func (o Override) IsZero() bool { return o.Allow == 0 && o.Deny == 0 }

// GuildPermissionDoc holds all permission entries for one guild. Role entries
// are additive base capabilities; user entries are allow/deny overrides on top
// of the role-derived base.
type GuildPermissionDoc struct {
	Roles map[string]uint64   `json:"roles"`
	Users map[string]Override `json:"users"`
}

// NewGuildPermissionDoc returns an empty document with all maps allocated.
func NewGuildPermissionDoc() *GuildPermissionDoc {
	return &GuildPermissionDoc{
		Roles: make(map[string]uint64),
		Users: make(map[string]Override),
	}
}

// Normalize allocates any nil maps so mutation logic can index into the
// document without nil checks. Stored documents pass through here on read.
func (d *GuildPermissionDoc) Normalize() {
	if d.Roles == nil {
		d.Roles = make(map[string]uint64)
	}
	if d.Users == nil {
		d.Users = make(map[string]Override)
	}
}

// EntryCount returns the number of role and user entries in the document.
func (d *GuildPermissionDoc) EntryCount() int {
	return len(d.Roles) + len(d.Users)
}

// Prune removes entries that grant and revoke nothing.
func (d *GuildPermissionDoc) Prune() {
	for id, mask := range d.Roles {
		if mask == 0 {
			delete(d.Roles, id)
		}
	}
	for id, o := range d.Users {
		if o.IsZero() {
			delete(d.Users, id)
		}
	}
}

// ChannelPermissionDoc holds all permission overrides for one channel. A
// channel with no document inherits guild scope entirely. Thread channels
// never own a document; lookups redirect to the parent channel.
type ChannelPermissionDoc struct {
	Roles map[string]Override `json:"roles"`
	Users map[string]Override `json:"users"`
}

// NewChannelPermissionDoc returns an empty document with all maps allocated.
func NewChannelPermissionDoc() *ChannelPermissionDoc {
	return &ChannelPermissionDoc{
		Roles: make(map[string]Override),
		Users: make(map[string]Override),
	}
}

// Normalize allocates any nil maps so mutation logic can index into the
// document without nil checks.
func (d *ChannelPermissionDoc) Normalize() {
	if d.Roles == nil {
		d.Roles = make(map[string]Override)
	}
	if d.Users == nil {
		d.Users = make(map[string]Override)
	}
}

// EntryCount returns the number of role and user entries in the document.
func (d *ChannelPermissionDoc) EntryCount() int {
	return len(d.Roles) + len(d.Users)
}

// Prune removes entries that grant and revoke nothing.
func (d *ChannelPermissionDoc) Prune() {
	for id, o := range d.Roles {
		if o.IsZero() {
			delete(d.Roles, id)
		}
	}
	for id, o := range d.Users {
		if o.IsZero() {
			delete(d.Users, id)
		}
	}
}
