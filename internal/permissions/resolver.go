package permissions

import "github.com/message-manager-discord/backend/internal/models"

// Resolve computes the effective capability mask for a user in a guild,
// optionally narrowed to a channel. It is a pure function: no I/O, and
// identical inputs always produce identical output.
//
//  1. Platform administrators bypass every override and get CapAll.
//  2. Guild base: OR together the base masks of every role the user holds.
//  3. Guild user override: deny applied first, then allow, so a bit present
//     in both ends up allowed.
//  4. Channel role overrides: OR all denies together, OR all allows together,
//     then deny, then allow.
//  5. Channel user override: deny, then allow.
//
// Thread channels never own a document; callers must pass the parent
// channel's document (see guildstate.Provider.ResolveChannel).
func Resolve(userID string, roleIDs []string, guildDoc *models.GuildPermissionDoc, channelDoc *models.ChannelPermissionDoc, platformIsAdmin bool) Capability {
	if platformIsAdmin {
		return CapAll
	}

	var total Capability
	if guildDoc != nil {
		for _, roleID := range roleIDs {
			total = total.Add(Capability(guildDoc.Roles[roleID]))
		}
		if entry, ok := guildDoc.Users[userID]; ok {
			total = total.Remove(Capability(entry.Deny))
			total = total.Add(Capability(entry.Allow))
		}
	}

	if channelDoc == nil {
		return total
	}

	var roleAllow, roleDeny Capability
	for _, roleID := range roleIDs {
		if entry, ok := channelDoc.Roles[roleID]; ok {
			roleAllow = roleAllow.Add(Capability(entry.Allow))
			roleDeny = roleDeny.Add(Capability(entry.Deny))
		}
	}
	total = total.Remove(roleDeny)
	total = total.Add(roleAllow)

	if entry, ok := channelDoc.Users[userID]; ok {
		total = total.Remove(Capability(entry.Deny))
		total = total.Add(Capability(entry.Allow))
	}

	return total
}
