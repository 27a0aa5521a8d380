package commands

import "github.com/disgoorg/disgo/discord"

var Commands = []discord.ApplicationCommandCreate{
	Rank,
	Leaderboard,
	XpEvent,
	Rewards,
}
