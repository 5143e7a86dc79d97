package commands

import (
	"strings"

	"github.com/shse/warden/actor"
	"github.com/shse/warden/broadcast"
	"github.com/shse/warden/command"
)

type Kicker interface {
	// Kick disconnects name if online and reports whether it was.
	Kick(name string) bool
}

type Ban struct {
	bans      Bans
	directory Directory
	announcer broadcast.Announcer
	kicker    Kicker
}

var _ command.Contract = (*Ban)(nil)

func NewBan(bans Bans, directory Directory, announcer broadcast.Announcer, kicker Kicker) *Ban {
	return &Ban{bans, directory, announcer, kicker}
}

func (b *Ban) Name() string       { return "ban" }
func (b *Ban) Permission() string { return "bukkit.command.ban.player" }
func (b *Ban) Usage() string      { return "/ban <player>" }

func (b *Ban) Execute(sender actor.Sender, alias string, args []string) (bool, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		command.Reply(sender, command.MsgUsage, b.Usage())
		return false, nil
	}

	identity := b.directory.GetOrCreateOffline(args[0])

	if err := b.bans.SetBanned(identity.Name, true); err != nil {
		return false, err
	}

	b.kicker.Kick(identity.Name)
	b.announcer.Announce(broadcast.All, "Banning "+args[0])

	return true, nil
}

// Complete offers online actors that are not banned yet.
func (b *Ban) Complete(sender actor.Sender, alias string, args []string) ([]string, error) {
	if err := command.ValidateInvocation(sender, alias, args); err != nil {
		return nil, err
	}

	if len(args) != 1 {
		return []string{}, nil
	}

	var names []string

	for _, identity := range b.directory.Online() {
		if !identity.Banned {
			names = append(names, identity.Name)
		}
	}

	return matchPrefix(names, args[0]), nil
}

// KickerFunc adapts a function into a Kicker.
type KickerFunc func(name string) bool

func (f KickerFunc) Kick(name string) bool {
	return f(name)
}
