package platform

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
)

// DisgoClient adapts a disgo bot client to the Client interface. Reads go
// through the gateway cache; writes go through REST.
type DisgoClient struct {
	client bot.Client
}

func NewDisgoClient(client bot.Client) *DisgoClient {
	return &DisgoClient{client: client}
}

var _ Client = (*DisgoClient)(nil)

func (c *DisgoClient) VoiceParticipants(guildID string) []VoiceParticipant {
	gid, err := snowflake.Parse(guildID)
	if err != nil {
		return nil
	}

	var participants []VoiceParticipant
	c.client.Caches().VoiceStatesForEach(gid, func(state discord.VoiceState) {
		if state.ChannelID == nil {
			return
		}
		isBot := false
		if member, ok := c.client.Caches().Member(gid, state.UserID); ok {
			isBot = member.User.Bot
		}
		participants = append(participants, VoiceParticipant{
			MemberID:  state.UserID.String(),
			ChannelID: state.ChannelID.String(),
			IsBot:     isBot,
			SelfDeaf:  state.SelfDeaf,
		})
	})
	return participants
}

func (c *DisgoClient) AfkChannelID(guildID string) string {
	gid, err := snowflake.Parse(guildID)
	if err != nil {
		return ""
	}
	guild, ok := c.client.Caches().Guild(gid)
	if !ok || guild.AfkChannelID == nil {
		return ""
	}
	return guild.AfkChannelID.String()
}

func (c *DisgoClient) IsBoosted(guildID, memberID string) bool {
	gid, err := snowflake.Parse(guildID)
	if err != nil {
		return false
	}
	mid, err := snowflake.Parse(memberID)
	if err != nil {
		return false
	}
	member, ok := c.client.Caches().Member(gid, mid)
	return ok && member.PremiumSince != nil
}

func (c *DisgoClient) MemberRoleIDs(ctx context.Context, guildID, memberID string) ([]string, error) {
	gid, err := snowflake.Parse(guildID)
	if err != nil {
		return nil, fmt.Errorf("invalid guild id %q: %w", guildID, err)
	}
	mid, err := snowflake.Parse(memberID)
	if err != nil {
		return nil, fmt.Errorf("invalid member id %q: %w", memberID, err)
	}

	var roleIDs []snowflake.ID
	if member, ok := c.client.Caches().Member(gid, mid); ok {
		roleIDs = member.RoleIDs
	} else {
		member, err := c.client.Rest().GetMember(gid, mid, rest.WithCtx(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch member %s: %w", memberID, err)
		}
		roleIDs = member.RoleIDs
	}

	ids := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		ids = append(ids, id.String())
	}
	return ids, nil
}

func (c *DisgoClient) GrantRole(ctx context.Context, guildID, memberID, roleID string) error {
	gid, err := snowflake.Parse(guildID)
	if err != nil {
		return fmt.Errorf("invalid guild id %q: %w", guildID, err)
	}
	mid, err := snowflake.Parse(memberID)
	if err != nil {
		return fmt.Errorf("invalid member id %q: %w", memberID, err)
	}
	rid, err := snowflake.Parse(roleID)
	if err != nil {
		return fmt.Errorf("invalid role id %q: %w", roleID, err)
	}
	return c.client.Rest().AddMemberRole(gid, mid, rid, rest.WithCtx(ctx))
}

func (c *DisgoClient) RoleName(guildID, roleID string) (string, bool) {
	gid, err := snowflake.Parse(guildID)
	if err != nil {
		return "", false
	}
	rid, err := snowflake.Parse(roleID)
	if err != nil {
		return "", false
	}
	role, ok := c.client.Caches().Role(gid, rid)
	if !ok {
		return "", false
	}
	return role.Name, true
}

func (c *DisgoClient) SendMessage(ctx context.Context, channelID, content string) error {
	cid, err := snowflake.Parse(channelID)
	if err != nil {
		return fmt.Errorf("invalid channel id %q: %w", channelID, err)
	}
	_, err = c.client.Rest().CreateMessage(cid,
		discord.NewMessageCreateBuilder().SetContent(content).Build(),
		rest.WithCtx(ctx))
	return err
}
