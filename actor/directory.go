package actor

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Identity is an actor known to the server, online or not. Banned is a view
// of the ban registry taken when the identity was read.
type Identity struct {
	ID     uuid.UUID
	Name   string
	Online bool
	Banned bool
}

type BanView interface {
	Contains(name string) bool
	Enumerate() []string
}

type Store interface {
	LoadIdentities(ctx context.Context) ([]Identity, error)
	SaveIdentity(ctx context.Context, identity Identity) error
}

type Directory struct {
	mutex   sync.RWMutex
	known   map[string]Identity
	bans    BanView
	store   Store
	timeout time.Duration
	logger  *zap.Logger
}

// OfflineID derives the stable identifier used for names that never
// authenticated.
func OfflineID(name string) uuid.UUID {
	return uuid.NewMD5(uuid.Nil, []byte("OfflinePlayer:"+Key(name)))
}

// Key is the case-insensitive form names are matched by.
func Key(name string) string {
	return strings.ToLower(name)
}

func NewDirectory(logger *zap.Logger, bans BanView, store Store, timeout time.Duration) *Directory {
	return &Directory{
		known:   make(map[string]Identity, 128),
		bans:    bans,
		store:   store,
		timeout: timeout,
		logger:  logger,
	}
}

func (d *Directory) Load(ctx context.Context) error {
	if d.store == nil {
		return nil
	}

	identities, err := d.store.LoadIdentities(ctx)

	if err != nil {
		return err
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	for _, identity := range identities {
		identity.Online = false
		d.known[Key(identity.Name)] = identity
	}

	return nil
}

// GetOrCreateOffline never fails: unknown names get a placeholder identity.
// A store fault only costs persistence and is logged.
func (d *Directory) GetOrCreateOffline(name string) Identity {
	d.mutex.Lock()
	identity, found := d.known[Key(name)]

	if !found {
		identity = Identity{ID: OfflineID(name), Name: name}
		d.known[Key(name)] = identity
	}
	d.mutex.Unlock()

	if !found {
		d.persist(identity)
	}

	return d.withBan(identity)
}

func (d *Directory) Lookup(name string) (Identity, bool) {
	d.mutex.RLock()
	identity, found := d.known[Key(name)]
	d.mutex.RUnlock()

	if !found {
		return Identity{}, false
	}

	return d.withBan(identity), true
}

func (d *Directory) SetOnline(name string, online bool) Identity {
	identity := d.GetOrCreateOffline(name)

	d.mutex.Lock()
	identity.Online = online
	stored := identity
	stored.Banned = false
	d.known[Key(name)] = stored
	d.mutex.Unlock()

	return identity
}

// Online returns the online identities sorted by name.
func (d *Directory) Online() []Identity {
	d.mutex.RLock()
	online := make([]Identity, 0, len(d.known))

	for _, identity := range d.known {
		if identity.Online {
			online = append(online, identity)
		}
	}
	d.mutex.RUnlock()

	sort.Slice(online, func(i, j int) bool {
		return Key(online[i].Name) < Key(online[j].Name)
	})

	for i := range online {
		online[i] = d.withBan(online[i])
	}

	return online
}

// ListBanned follows the ban registry's enumeration order.
func (d *Directory) ListBanned() []Identity {
	names := d.bans.Enumerate()
	banned := make([]Identity, 0, len(names))

	for _, name := range names {
		banned = append(banned, d.GetOrCreateOffline(name))
	}

	return banned
}

func (d *Directory) withBan(identity Identity) Identity {
	identity.Banned = d.bans.Contains(identity.Name)
	return identity
}

func (d *Directory) persist(identity Identity) {
	if d.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.store.SaveIdentity(ctx, identity); err != nil {
		d.logger.Error("Failed to persist identity", zap.String("name", identity.Name), zap.Error(err))
	}
}
