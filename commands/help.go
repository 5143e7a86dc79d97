package commands

import (
	"github.com/shse/warden/actor"
	"github.com/shse/warden/command"
	"github.com/shse/warden/permission"
)

type Lister interface {
	Commands() []command.Contract
}

// Help lists the usage of every command the sender may run.
type Help struct {
	catalog Lister
	oracle  permission.Oracle
}

var _ command.Contract = (*Help)(nil)

func NewHelp(catalog Lister, oracle permission.Oracle) *Help {
	return &Help{catalog, oracle}
}

func (h *Help) Name() string       { return "help" }
func (h *Help) Permission() string { return "" }
func (h *Help) Usage() string      { return "/help" }

func (h *Help) Execute(sender actor.Sender, alias string, args []string) (bool, error) {
	if len(args) != 0 {
		command.Reply(sender, command.MsgUsage, h.Usage())
		return false, nil
	}

	var usages []string

	for _, contract := range h.catalog.Commands() {
		allowed, err := h.oracle.Has(sender, contract.Permission())

		if err != nil {
			return false, err
		}

		if allowed {
			usages = append(usages, contract.Usage())
		}
	}

	command.Reply(sender, command.MsgHelpHeader)

	for _, usage := range usages {
		sender.SendMessage(usage)
	}

	return true, nil
}

func (h *Help) Complete(sender actor.Sender, alias string, args []string) ([]string, error) {
	if err := command.ValidateInvocation(sender, alias, args); err != nil {
		return nil, err
	}

	return []string{}, nil
}
