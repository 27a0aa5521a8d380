// Package platform abstracts the chat platform behind a small interface so
// the XP engine never handles platform-specific types directly.
package platform

import "context"

// VoiceParticipant is one member currently connected to a voice channel.
type VoiceParticipant struct {
	MemberID  string
	ChannelID string
	IsBot     bool
	SelfDeaf  bool
}

// Client is the engine's view of the chat platform. IDs are plain strings;
// the adapter owns all parsing.
type Client interface {
	// VoiceParticipants returns every member currently in a voice channel
	// of the guild, bots and deafened members included.
	VoiceParticipants(guildID string) []VoiceParticipant

	// AfkChannelID returns the guild's AFK channel ID, empty if none.
	AfkChannelID(guildID string) string

	// IsBoosted reports whether the member is boosting the guild.
	IsBoosted(guildID, memberID string) bool

	// MemberRoleIDs returns the member's current role IDs.
	MemberRoleIDs(ctx context.Context, guildID, memberID string) ([]string, error)

	// GrantRole adds a role to a member.
	GrantRole(ctx context.Context, guildID, memberID, roleID string) error

	// RoleName resolves a role's display name.
	RoleName(guildID, roleID string) (string, bool)

	// SendMessage sends a plain text message to a channel.
	SendMessage(ctx context.Context, channelID, content string) error
}
