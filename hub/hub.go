// Package hub connects transport sessions to the command dispatcher. It
// tracks who is logged in on which connection and is the audience of
// broadcast announcements.
package hub

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/shse/warden/actor"
	"github.com/shse/warden/broadcast"
	"github.com/shse/warden/command"
	"github.com/shse/warden/permission"
	"github.com/shse/warden/transport"
)

const (
	commandLogin = "login"

	PermissionBroadcastAdmin = "bukkit.broadcast.admin"
)

var (
	ErrNameRequired    = errors.New("name required")
	ErrNameNotUnique   = errors.New("name is not unique")
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrAlreadyLoggedIn = errors.New("already logged in")
	ErrBanned          = errors.New("banned")
	ErrCommandFailed   = errors.New("command failed")
	ErrThrottled       = errors.New("too many commands")
)

type Dispatcher interface {
	Dispatch(sender actor.Sender, line string) bool
	CompleteLine(sender actor.Sender, line string) []string
}

type Directory interface {
	SetOnline(name string, online bool) actor.Identity
}

type Bans interface {
	Contains(name string) bool
}

type Limits struct {
	Rate  rate.Limit
	Burst int
}

type Hub struct {
	mutex      sync.RWMutex
	sessions   map[int]*session
	names      map[string]int
	unicast    transport.Unicast
	dispatcher Dispatcher
	directory  Directory
	bans       Bans
	oracle     permission.Oracle
	announcer  broadcast.Announcer
	console    actor.Sender
	limits     Limits
	logger     *zap.Logger
}

var (
	_ transport.CommandHandler = (*Hub)(nil)
	_ broadcast.Audience       = (*Hub)(nil)
)

type Options struct {
	Unicast    transport.Unicast
	Dispatcher Dispatcher
	Directory  Directory
	Bans       Bans
	Oracle     permission.Oracle
	Announcer  broadcast.Announcer
	Console    actor.Sender
	Limits     Limits
	Logger     *zap.Logger
}

func NewHub(options Options) *Hub {
	return &Hub{
		sessions:   make(map[int]*session, 128),
		names:      make(map[string]int, 128),
		unicast:    options.Unicast,
		dispatcher: options.Dispatcher,
		directory:  options.Directory,
		bans:       options.Bans,
		oracle:     options.Oracle,
		announcer:  options.Announcer,
		console:    options.Console,
		limits:     options.Limits,
		logger:     options.Logger,
	}
}

func (h *Hub) Connected(clientId int) {
	h.mutex.Lock()
	h.sessions[clientId] = &session{
		clientId: clientId,
		lang:     language.English,
		limiter:  rate.NewLimiter(h.limits.Rate, h.limits.Burst),
		unicast:  h.unicast,
	}
	h.mutex.Unlock()

	h.unicast.SendTo(clientId, "Welcome!")
}

func (h *Hub) Disconnected(clientId int) {
	h.mutex.Lock()
	s, found := h.sessions[clientId]

	if found {
		delete(h.sessions, clientId)

		if s.name != "" {
			delete(h.names, actor.Key(s.name))
		}
	}
	h.mutex.Unlock()

	if !found || s.name == "" {
		return
	}

	h.directory.SetOnline(s.name, false)
	h.announcer.Announce(broadcast.All, fmt.Sprintf("User %s left", s.name))
	h.logger.Info("Logged out", zap.String("name", s.name), zap.Int("client", clientId))
}

func (h *Hub) Command(c transport.Command) error {
	if c.Name == commandLogin {
		return h.login(c.ClientId, c.Args)
	}

	s, err := h.loggedIn(c.ClientId)

	if err != nil {
		return err
	}

	if !s.limiter.Allow() {
		command.Reply(s, command.MsgThrottled)
		return ErrThrottled
	}

	line := strings.Join(append([]string{c.Name}, c.Args...), " ")

	if !h.dispatcher.Dispatch(s, line) {
		return ErrCommandFailed
	}

	return nil
}

// Complete answers nothing until the session has logged in.
func (h *Hub) Complete(c transport.Command) []string {
	s, err := h.loggedIn(c.ClientId)

	if err != nil {
		return []string{}
	}

	line := strings.Join(append([]string{c.Name}, c.Args...), " ")

	return h.dispatcher.CompleteLine(s, line)
}

func (h *Hub) Observers(visibility broadcast.Visibility) []actor.Sender {
	var observers []actor.Sender

	if visibility != broadcast.ConsoleOnly {
		for _, s := range h.online() {
			if visibility == broadcast.Operators {
				if allowed, err := h.oracle.Has(s, PermissionBroadcastAdmin); err != nil || !allowed {
					continue
				}
			}

			observers = append(observers, s)
		}
	}

	if h.console != nil {
		observers = append(observers, h.console)
	}

	return observers
}

// Kick disconnects the session logged in as name.
func (h *Hub) Kick(name string) bool {
	h.mutex.RLock()
	clientId, found := h.names[actor.Key(name)]
	s := h.sessions[clientId]
	h.mutex.RUnlock()

	if !found || s == nil {
		return false
	}

	h.unicast.Kick(clientId, command.Localize(s, command.MsgKicked))
	h.logger.Info("Kicked", zap.String("name", s.name), zap.Int("client", clientId))

	return true
}

func (h *Hub) login(clientId int, args []string) error {
	if len(args) < 1 || len(args) > 2 || args[0] == "" {
		return ErrNameRequired
	}

	name := args[0]
	lang := language.English

	if len(args) == 2 {
		if tag, err := language.Parse(args[1]); err == nil {
			lang = tag
		}
	}

	// A ban landing after this check finds the name registered and kicks it.
	h.mutex.Lock()
	s, found := h.sessions[clientId]

	switch {
	case !found:
		h.mutex.Unlock()
		return ErrNotLoggedIn
	case s.name != "":
		h.mutex.Unlock()
		return ErrAlreadyLoggedIn
	case h.bans.Contains(name):
		h.mutex.Unlock()
		return ErrBanned
	}

	if _, taken := h.names[actor.Key(name)]; taken {
		h.mutex.Unlock()
		return ErrNameNotUnique
	}

	s.name = name
	s.lang = lang
	h.names[actor.Key(name)] = clientId
	h.mutex.Unlock()

	h.directory.SetOnline(name, true)
	h.announcer.Announce(broadcast.All, fmt.Sprintf("User %s joined", name))
	h.logger.Info("Logged in", zap.String("name", name), zap.Int("client", clientId))

	return nil
}

func (h *Hub) loggedIn(clientId int) (*session, error) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	s, found := h.sessions[clientId]

	if !found || s.name == "" {
		return nil, ErrNotLoggedIn
	}

	return s, nil
}

func (h *Hub) online() []*session {
	h.mutex.RLock()
	online := make([]*session, 0, len(h.names))

	for _, clientId := range h.names {
		online = append(online, h.sessions[clientId])
	}
	h.mutex.RUnlock()

	sort.Slice(online, func(i, j int) bool {
		return online[i].clientId < online[j].clientId
	})

	return online
}
