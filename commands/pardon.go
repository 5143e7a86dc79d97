// Package commands holds the built-in server commands.
package commands

import (
	"strings"

	"github.com/shse/warden/actor"
	"github.com/shse/warden/broadcast"
	"github.com/shse/warden/command"
)

type Bans interface {
	Contains(name string) bool
	Enumerate() []string
	SetBanned(name string, banned bool) error
}

type Directory interface {
	GetOrCreateOffline(name string) actor.Identity
	Online() []actor.Identity
}

// Pardon lets a banned actor back onto the server.
type Pardon struct {
	bans      Bans
	directory Directory
	announcer broadcast.Announcer
}

var _ command.Contract = (*Pardon)(nil)

func NewPardon(bans Bans, directory Directory, announcer broadcast.Announcer) *Pardon {
	return &Pardon{bans, directory, announcer}
}

func (p *Pardon) Name() string       { return "pardon" }
func (p *Pardon) Permission() string { return "bukkit.command.unban.player" }
func (p *Pardon) Usage() string      { return "/pardon <player>" }

// Execute succeeds whether or not the name was banned. The announcement
// repeats the name exactly as typed.
func (p *Pardon) Execute(sender actor.Sender, alias string, args []string) (bool, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		command.Reply(sender, command.MsgUsage, p.Usage())
		return false, nil
	}

	identity := p.directory.GetOrCreateOffline(args[0])

	if err := p.bans.SetBanned(identity.Name, false); err != nil {
		return false, err
	}

	p.announcer.Announce(broadcast.All, "Pardoned "+args[0])

	return true, nil
}

// Complete offers banned names for the first argument, in registry order.
func (p *Pardon) Complete(sender actor.Sender, alias string, args []string) ([]string, error) {
	if err := command.ValidateInvocation(sender, alias, args); err != nil {
		return nil, err
	}

	if len(args) != 1 {
		return []string{}, nil
	}

	return matchPrefix(p.bans.Enumerate(), args[0]), nil
}

func matchPrefix(names []string, prefix string) []string {
	prefix = strings.ToLower(prefix)
	matches := []string{}

	for _, name := range names {
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			matches = append(matches, name)
		}
	}

	return matches
}
