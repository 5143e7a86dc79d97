package actor

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/text/language"
)

const ConsoleName = "CONSOLE"

// Sender is anything that can issue a command and receive a direct reply.
type Sender interface {
	Name() string
	SendMessage(text string)
	Language() language.Tag
}

// Console is the server operator's sender. Replies go to out.
type Console struct {
	mutex sync.Mutex
	out   io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Name() string {
	return ConsoleName
}

func (c *Console) Language() language.Tag {
	return language.English
}

func (c *Console) SendMessage(text string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	fmt.Fprintln(c.out, text)
}
