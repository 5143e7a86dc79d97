package permission

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

type fileConfig struct {
	Operators []string               `toml:"operators"`
	Defaults  []string               `toml:"defaults"`
	Actors    map[string]actorConfig `toml:"actors"`
}

type actorConfig struct {
	Permissions []string `toml:"permissions"`
}

// Load reads a permission table such as:
//
//	operators = ["Notch"]
//	defaults  = ["bukkit.command.help"]
//
//	[actors.Steve]
//	permissions = ["bukkit.command.ban.*", "bukkit.command.unban.*"]
func Load(path string) (*Set, error) {
	var raw fileConfig

	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, errors.Wrap(err, "load permissions")
	}

	grants := make(map[string][]string, len(raw.Actors))

	for name, cfg := range raw.Actors {
		grants[name] = cfg.Permissions
	}

	return NewSet(raw.Operators, raw.Defaults, grants), nil
}
