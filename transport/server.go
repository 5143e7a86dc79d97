package transport

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const MessageServerIsShuttingDown = "Server is shutting down"

type client struct {
	id       int
	conn     net.Conn
	messages chan string
	closing  chan struct{}
	gone     chan struct{}
}

func newClient(id int, conn net.Conn) client {
	return client{id, conn, make(chan string, 8), make(chan struct{}, 1), make(chan struct{})}
}

func (c client) close() {
	select {
	case c.closing <- struct{}{}:
	default:
	}
}

func (c client) send(message string) {
	select {
	case c.messages <- message:
	case <-c.gone:
	}
}

func (c client) receiveCommands(server *Server) {
	reader := bufio.NewReader(c.conn)

	for {
		text, err := reader.ReadString('\n')

		if err != nil {
			break
		}

		line := strings.TrimRight(text, "\r\n")

		if strings.HasPrefix(line, RequestCompletion) {
			parts := strings.Split(strings.TrimPrefix(line, RequestCompletion), " ")
			server.complete(Command{c.id, parts[0], parts[1:]})
			continue
		}

		parts := strings.Fields(line)

		if len(parts) == 0 {
			continue
		}

		server.execute(Command{c.id, parts[0], parts[1:]})
	}

	server.disconnected <- c
}

func (c client) deliverMessages() {
	defer close(c.gone)

	writer := bufio.NewWriter(c.conn)

	for {
		select {
		case <-c.closing:
		flushing:
			for {
				select {
				case message := <-c.messages:
					writer.WriteString(message + "\n")
				default:
					break flushing
				}
			}

			writer.Flush()
			c.conn.Close()
			return

		case message := <-c.messages:
			writer.WriteString(message + "\n")

		buffering:
			for {
				select {
				case message, ok := <-c.messages:
					if !ok {
						break buffering
					}

					writer.WriteString(message + "\n")
				default:
					break buffering
				}
			}

			writer.Flush()
		}
	}
}

type Server struct {
	closing      chan struct{}
	logger       *zap.Logger
	connections  sync.Map
	count        int
	handler      CommandHandler
	connected    chan client
	disconnected chan client
	done         chan struct{}
	clients      prometheus.Gauge
	commandTime  prometheus.Summary
}

func NewServer(logger *zap.Logger, metrics prometheus.Registerer) *Server {
	clients := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "connected_clients",
		Help: "Number of Connected clients."})

	commandTime := prometheus.NewSummary(prometheus.SummaryOpts{
		Name: "command_time",
		Help: "Command duration.",
	})

	metrics.MustRegister(clients)
	metrics.MustRegister(commandTime)

	return &Server{
		closing:      make(chan struct{}, 1),
		logger:       logger,
		connected:    make(chan client),
		disconnected: make(chan client),
		done:         make(chan struct{}, 1),
		clients:      clients,
		commandTime:  commandTime,
	}
}

func (s *Server) Close() {
	s.closing <- struct{}{}
	<-s.done
}

func (s *Server) Run(ctx context.Context, address string, handler CommandHandler) error {
	listener, err := net.Listen("tcp", address)

	if err != nil {
		return err
	}

	s.logger.Info("Server started", zap.String("address", address))

	var clientCounter = 0

	s.handler = handler

	go s.dispatch()

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()

		if ctx.Err() != nil {
			break
		}

		if err != nil {
			s.logger.Error("Failed to accept connection", zap.Error(err))
			continue
		}

		clientCounter++

		client := newClient(clientCounter, conn)

		s.connected <- client
	}

	listener.Close()
	s.Close()

	s.logger.Info("Shutdown completed")

	return nil
}

func (s *Server) SendTo(clientId int, data string) {
	value, found := s.connections.Load(clientId)

	if found {
		value.(client).send(data)
	}
}

func (s *Server) Kick(clientId int, message string) {
	value, found := s.connections.Load(clientId)

	if found {
		client := value.(client)
		client.send(message)
		client.close()
	}
}

// execute runs on the client's own goroutine, so sessions do not wait on
// each other.
func (s *Server) execute(command Command) {
	started := time.Now()
	err := s.handler.Command(command)

	if err != nil {
		s.SendTo(command.ClientId, ReplyError+err.Error())
	} else {
		s.SendTo(command.ClientId, ReplyOK)
	}

	s.commandTime.Observe(time.Since(started).Seconds())
}

func (s *Server) complete(command Command) {
	var reply strings.Builder

	reply.WriteString(ReplyCompletions)

	for _, suggestion := range s.handler.Complete(command) {
		reply.WriteString(" ")
		reply.WriteString(suggestion)
	}

	s.SendTo(command.ClientId, reply.String())
}

func (s *Server) shutdown() bool {
	if s.count == 0 {
		return false
	}

	client := <-s.disconnected
	s.connections.Delete(client.id)
	s.handler.Disconnected(client.id)
	s.count--

	return s.count != 0
}

func (s *Server) dispatch() {
	for {
		select {
		case client := <-s.connected:
			s.connections.Store(client.id, client)
			s.count++
			s.handler.Connected(client.id)
			go client.deliverMessages()
			go client.receiveCommands(s)
			s.clients.Inc()

		case client := <-s.disconnected:
			s.connections.Delete(client.id)
			s.count--
			s.handler.Disconnected(client.id)
			client.close()
			s.clients.Dec()

		case <-s.closing:
			s.connections.Range(func(key, value interface{}) bool {
				client := value.(client)
				client.send(MessageServerIsShuttingDown)
				client.close()
				return true
			})

			for s.shutdown() {
			}

			s.done <- struct{}{}
			return
		}
	}
}
