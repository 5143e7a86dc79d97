package commands

import (
	"github.com/pkg/errors"

	"github.com/shse/warden/broadcast"
	"github.com/shse/warden/command"
	"github.com/shse/warden/permission"
)

// Register adds the built-in commands and their aliases to catalog.
func Register(catalog *command.Catalog, oracle permission.Oracle, bans Bans, directory Directory, announcer broadcast.Announcer, kicker Kicker) error {
	builtins := []struct {
		contract command.Contract
		aliases  []string
	}{
		{NewPardon(bans, directory, announcer), []string{"unban"}},
		{NewBan(bans, directory, announcer, kicker), nil},
		{NewBanList(bans), nil},
		{NewHelp(catalog, oracle), []string{"?"}},
	}

	for _, builtin := range builtins {
		if err := catalog.Register(builtin.contract, builtin.aliases...); err != nil {
			return errors.Wrapf(err, "register %s", builtin.contract.Name())
		}
	}

	return nil
}
