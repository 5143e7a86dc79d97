package command

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var ErrAliasTaken = errors.New("alias already registered")

type Resolver interface {
	Resolve(alias string) (Contract, bool)
	Aliases() []string
}

// Catalog maps aliases to contracts. Aliases match case-insensitively and
// only exactly; there is no prefix dispatch.
type Catalog struct {
	mutex   sync.RWMutex
	aliases map[string]Contract
}

func NewCatalog() *Catalog {
	return &Catalog{aliases: make(map[string]Contract, 16)}
}

// Register adds c under its name and any extra aliases. Nothing is
// registered if one of them is taken.
func (c *Catalog) Register(contract Contract, aliases ...string) error {
	names := append([]string{contract.Name()}, aliases...)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, name := range names {
		if _, taken := c.aliases[strings.ToLower(name)]; taken {
			return errors.Wrap(ErrAliasTaken, name)
		}
	}

	for _, name := range names {
		c.aliases[strings.ToLower(name)] = contract
	}

	return nil
}

func (c *Catalog) Resolve(alias string) (Contract, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	contract, found := c.aliases[strings.ToLower(alias)]
	return contract, found
}

// Aliases returns every registered alias, sorted.
func (c *Catalog) Aliases() []string {
	c.mutex.RLock()
	aliases := make([]string, 0, len(c.aliases))

	for alias := range c.aliases {
		aliases = append(aliases, alias)
	}
	c.mutex.RUnlock()

	sort.Strings(aliases)
	return aliases
}

// Commands returns each contract once, sorted by name.
func (c *Catalog) Commands() []Contract {
	c.mutex.RLock()
	seen := make(map[string]Contract, len(c.aliases))

	for _, contract := range c.aliases {
		seen[contract.Name()] = contract
	}
	c.mutex.RUnlock()

	list := make([]Contract, 0, len(seen))

	for _, contract := range seen {
		list = append(list, contract)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})

	return list
}
