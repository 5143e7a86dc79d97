package commands

import (
	"strings"

	"github.com/shse/warden/actor"
	"github.com/shse/warden/command"
)

type BanList struct {
	bans Bans
}

var _ command.Contract = (*BanList)(nil)

func NewBanList(bans Bans) *BanList {
	return &BanList{bans}
}

func (b *BanList) Name() string       { return "banlist" }
func (b *BanList) Permission() string { return "bukkit.command.ban.list" }
func (b *BanList) Usage() string      { return "/banlist" }

func (b *BanList) Execute(sender actor.Sender, alias string, args []string) (bool, error) {
	if len(args) != 0 {
		command.Reply(sender, command.MsgUsage, b.Usage())
		return false, nil
	}

	names := b.bans.Enumerate()
	command.Reply(sender, command.MsgBanList, len(names), strings.Join(names, ", "))

	return true, nil
}

func (b *BanList) Complete(sender actor.Sender, alias string, args []string) ([]string, error) {
	if err := command.ValidateInvocation(sender, alias, args); err != nil {
		return nil, err
	}

	return []string{}, nil
}
