package transport

// Wire format, one line each way:
//
//	client: <name> <args...>        run a command, answered by ReplyOK or ReplyError
//	client: tab <partial line>      complete, answered by ReplyCompletions
//	server: any other line          a message for the client
const (
	RequestCompletion = "tab "
	ReplyOK           = "ok"
	ReplyError        = "error "
	ReplyCompletions  = "completions"
)

type Command struct {
	ClientId int
	Name     string
	Args     []string
}

type Unicast interface {
	SendTo(int, string)
	// Kick delivers message and then drops the client.
	Kick(clientId int, message string)
}

type CommandHandler interface {
	Command(Command) error
	Complete(Command) []string

	Connected(clientId int)
	Disconnected(clientId int)
}
