package hub

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/shse/warden/actor"
	"github.com/shse/warden/bans"
	"github.com/shse/warden/broadcast"
	"github.com/shse/warden/command"
	"github.com/shse/warden/commands"
	"github.com/shse/warden/permission"
	"github.com/shse/warden/transport"
)

type unicastMessage struct {
	clientId int
	message  string
}

type testUnicast struct {
	messages chan unicastMessage
	kicks    chan unicastMessage
}

func newTestUnicast() testUnicast {
	return testUnicast{
		make(chan unicastMessage, 100),
		make(chan unicastMessage, 10),
	}
}

func (u testUnicast) SendTo(clientId int, message string) {
	u.messages <- unicastMessage{clientId, message}
}

func (u testUnicast) Kick(clientId int, message string) {
	u.kicks <- unicastMessage{clientId, message}
}

func (u testUnicast) waitForMessage(t *testing.T, clientId int, data string) {
	timeout := time.After(3 * time.Second)

	for {
		select {
		case message := <-u.messages:
			fmt.Printf("Received message for %d: %s\n", message.clientId, message.message)

			if message.clientId == clientId && message.message == data {
				return
			}
		case <-timeout:
			t.Fatalf("message %q for %d not received", data, clientId)
		}
	}
}

type testHub struct {
	*Hub
	unicast  testUnicast
	registry *bans.Registry
}

func newTestHub(t *testing.T, oracle permission.Oracle, limits Limits, banned ...string) *testHub {
	ctx, cancel := context.WithCancel(context.Background())
	logger := zap.NewNop()
	registry := bans.NewRegistry(nil, time.Second)

	for _, name := range banned {
		require.NoError(t, registry.SetBanned(name, true))
	}

	directory := actor.NewDirectory(logger, registry, nil, time.Second)
	channel := broadcast.NewChannel(logger, 16)
	catalog := command.NewCatalog()
	u := newTestUnicast()

	var hub *Hub

	require.NoError(t, commands.Register(catalog, oracle, registry, directory, channel, commands.KickerFunc(func(name string) bool {
		return hub.Kick(name)
	})))

	hub = NewHub(Options{
		Unicast:    u,
		Dispatcher: command.NewDispatcher(catalog, oracle, logger, prometheus.NewRegistry()),
		Directory:  directory,
		Bans:       registry,
		Oracle:     oracle,
		Announcer:  channel,
		Console:    actor.NewConsole(io.Discard),
		Limits:     limits,
		Logger:     logger,
	})

	done := make(chan error, 1)

	go func() {
		done <- channel.Run(ctx, hub)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})

	return &testHub{hub, u, registry}
}

func unlimited() Limits {
	return Limits{rate.Inf, 1}
}

func (h *testHub) executeCommandAndExpectSuccess(t *testing.T, clientId int, name string, args ...string) {
	assert.Nil(t, h.Command(transport.Command{ClientId: clientId, Name: name, Args: args}))
}

func (h *testHub) executeCommandAndExpectError(t *testing.T, clientId int, name string, args ...string) error {
	err := h.Command(transport.Command{ClientId: clientId, Name: name, Args: args})
	assert.Error(t, err)
	return err
}

func TestSendsGreetingWhenConnected(t *testing.T) {
	h := newTestHub(t, permission.AllowAll, unlimited())

	h.Connected(1)

	assert.Equal(t, unicastMessage{1, "Welcome!"}, <-h.unicast.messages)
}

func TestNotifiesEveryoneAfterUserLoggedIn(t *testing.T) {
	h := newTestHub(t, permission.AllowAll, unlimited())

	h.Connected(1)
	h.Connected(2)
	h.executeCommandAndExpectSuccess(t, 1, "login", "john")
	h.executeCommandAndExpectSuccess(t, 2, "login", "alex")

	h.unicast.waitForMessage(t, 1, "User alex joined")
}

func TestNotifiesEveryoneAfterUserLeft(t *testing.T) {
	h := newTestHub(t, permission.AllowAll, unlimited())

	h.Connected(1)
	h.Connected(2)
	h.executeCommandAndExpectSuccess(t, 1, "login", "john")
	h.executeCommandAndExpectSuccess(t, 2, "login", "alex")

	h.Disconnected(1)

	h.unicast.waitForMessage(t, 2, "User john left")
}

func TestRejectsDuplicateName(t *testing.T) {
	h := newTestHub(t, permission.AllowAll, unlimited())

	h.Connected(1)
	h.Connected(2)
	h.executeCommandAndExpectSuccess(t, 1, "login", "john")

	assert.Equal(t, ErrNameNotUnique, h.executeCommandAndExpectError(t, 2, "login", "JOHN"))
}

func TestRejectsSecondLogin(t *testing.T) {
	h := newTestHub(t, permission.AllowAll, unlimited())

	h.Connected(1)
	h.executeCommandAndExpectSuccess(t, 1, "login", "john")

	assert.Equal(t, ErrAlreadyLoggedIn, h.executeCommandAndExpectError(t, 1, "login", "tom"))
}

func TestRejectsLoginWithoutName(t *testing.T) {
	h := newTestHub(t, permission.AllowAll, unlimited())

	h.Connected(1)

	assert.Equal(t, ErrNameRequired, h.executeCommandAndExpectError(t, 1, "login"))
}

func TestRejectsBannedLogin(t *testing.T) {
	h := newTestHub(t, permission.AllowAll, unlimited(), "Griefer")

	h.Connected(1)

	assert.Equal(t, ErrBanned, h.executeCommandAndExpectError(t, 1, "login", "griefer"))
}

func TestRequiresLoginBeforeCommands(t *testing.T) {
	h := newTestHub(t, permission.AllowAll, unlimited())

	h.Connected(1)

	assert.Equal(t, ErrNotLoggedIn, h.executeCommandAndExpectError(t, 1, "banlist"))
	assert.Equal(t, []string{}, h.Complete(transport.Command{ClientId: 1, Name: "pardon", Args: []string{""}}))
}

func TestPardonIsBroadcastToEveryone(t *testing.T) {
	h := newTestHub(t, permission.AllowAll, unlimited(), "Steve")

	h.Connected(1)
	h.Connected(2)
	h.executeCommandAndExpectSuccess(t, 1, "login", "notch")
	h.executeCommandAndExpectSuccess(t, 2, "login", "alex")

	h.executeCommandAndExpectSuccess(t, 1, "pardon", "Steve")

	assert.False(t, h.registry.Contains("Steve"))
	h.unicast.waitForMessage(t, 2, "Pardoned Steve")
}

func TestAcceptsSlashPrefixedCommands(t *testing.T) {
	h := newTestHub(t, permission.AllowAll, unlimited(), "Steve")

	h.Connected(1)
	h.executeCommandAndExpectSuccess(t, 1, "login", "notch")

	h.executeCommandAndExpectSuccess(t, 1, "/pardon", "Steve")

	assert.False(t, h.registry.Contains("Steve"))
	assert.Equal(t, []string{"pardon"}, h.Complete(transport.Command{ClientId: 1, Name: "/par", Args: []string{}}))
}

func TestHidesBanListFromUnprivilegedCompletion(t *testing.T) {
	h := newTestHub(t, permission.DenyAll, unlimited(), "Steve", "Stella")

	h.Connected(1)
	h.executeCommandAndExpectSuccess(t, 1, "login", "alex")

	assert.Equal(t, []string{}, h.Complete(transport.Command{ClientId: 1, Name: "par", Args: []string{}}))
	assert.Equal(t, []string{}, h.Complete(transport.Command{ClientId: 1, Name: "pardon", Args: []string{"st"}}))
}

// racingBans bans nobody, but kicks the logging in name from another
// goroutine the first time it is asked.
type racingBans struct {
	hub    **Hub
	name   string
	kicked chan bool
	once   sync.Once
}

func (b *racingBans) Contains(name string) bool {
	b.once.Do(func() {
		go func() {
			b.kicked <- (*b.hub).Kick(b.name)
		}()

		select {
		case <-b.kicked:
			b.kicked <- false
		case <-time.After(50 * time.Millisecond):
		}
	})

	return false
}

func TestBanDuringLoginStillKicks(t *testing.T) {
	logger := zap.NewNop()
	registry := bans.NewRegistry(nil, time.Second)
	u := newTestUnicast()

	var hub *Hub

	racing := &racingBans{hub: &hub, name: "griefer", kicked: make(chan bool, 1)}

	hub = NewHub(Options{
		Unicast:   u,
		Directory: actor.NewDirectory(logger, registry, nil, time.Second),
		Bans:      racing,
		Oracle:    permission.AllowAll,
		Announcer: broadcast.NewChannel(logger, 16),
		Limits:    unlimited(),
		Logger:    logger,
	})

	hub.Connected(1)
	assert.Nil(t, hub.Command(transport.Command{ClientId: 1, Name: "login", Args: []string{"griefer"}}))

	select {
	case kicked := <-racing.kicked:
		assert.True(t, kicked)
	case <-time.After(3 * time.Second):
		t.Fatal("kick did not finish")
	}

	assert.Equal(t, unicastMessage{1, "Banned by admin."}, <-u.kicks)
}

func TestFailedCommandReportsError(t *testing.T) {
	h := newTestHub(t, permission.AllowAll, unlimited())

	h.Connected(1)
	h.executeCommandAndExpectSuccess(t, 1, "login", "notch")

	assert.Equal(t, ErrCommandFailed, h.executeCommandAndExpectError(t, 1, "pardon"))
	h.unicast.waitForMessage(t, 1, "Usage: /pardon <player>")
}

func TestRepliesInSessionLanguage(t *testing.T) {
	h := newTestHub(t, permission.AllowAll, unlimited())

	h.Connected(1)
	h.executeCommandAndExpectSuccess(t, 1, "login", "hans", "de")

	h.executeCommandAndExpectError(t, 1, "pardon")
	h.unicast.waitForMessage(t, 1, "Verwendung: /pardon <player>")
}

func TestBanKicksOnlineActor(t *testing.T) {
	h := newTestHub(t, permission.AllowAll, unlimited())

	h.Connected(1)
	h.Connected(2)
	h.executeCommandAndExpectSuccess(t, 1, "login", "notch")
	h.executeCommandAndExpectSuccess(t, 2, "login", "griefer")

	h.executeCommandAndExpectSuccess(t, 1, "ban", "Griefer")

	assert.Equal(t, unicastMessage{2, "Banned by admin."}, <-h.unicast.kicks)
}

func TestThrottlesFloodingSession(t *testing.T) {
	h := newTestHub(t, permission.AllowAll, Limits{rate.Every(time.Hour), 2})

	h.Connected(1)
	h.executeCommandAndExpectSuccess(t, 1, "login", "notch")

	h.executeCommandAndExpectSuccess(t, 1, "banlist")
	h.executeCommandAndExpectSuccess(t, 1, "banlist")

	assert.Equal(t, ErrThrottled, h.executeCommandAndExpectError(t, 1, "banlist"))
}

func TestCompletesForLoggedInSession(t *testing.T) {
	h := newTestHub(t, permission.AllowAll, unlimited(), "Steve", "Alex", "Stella")

	h.Connected(1)
	h.executeCommandAndExpectSuccess(t, 1, "login", "notch")

	assert.Equal(t, []string{"Stella", "Steve"}, h.Complete(transport.Command{ClientId: 1, Name: "pardon", Args: []string{"st"}}))
	assert.Equal(t, []string{"pardon"}, h.Complete(transport.Command{ClientId: 1, Name: "par", Args: []string{}}))
}

func TestOperatorsVisibility(t *testing.T) {
	oracle := permission.NewSet([]string{"notch"}, nil, nil)
	h := newTestHub(t, oracle, unlimited())

	h.Connected(1)
	h.Connected(2)
	h.executeCommandAndExpectSuccess(t, 1, "login", "notch")
	h.executeCommandAndExpectSuccess(t, 2, "login", "alex")

	observers := h.Observers(broadcast.Operators)

	require.Len(t, observers, 2)
	assert.Equal(t, "notch", observers[0].Name())
	assert.Equal(t, actor.ConsoleName, observers[1].Name())

	consoleOnly := h.Observers(broadcast.ConsoleOnly)

	require.Len(t, consoleOnly, 1)
	assert.Equal(t, actor.ConsoleName, consoleOnly[0].Name())
}
