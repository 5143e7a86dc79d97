package hub

import (
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/shse/warden/transport"
)

// session is a connected client; name stays empty until login and does not
// change afterwards.
type session struct {
	clientId int
	name     string
	lang     language.Tag
	limiter  *rate.Limiter
	unicast  transport.Unicast
}

func (s *session) Name() string {
	return s.name
}

func (s *session) Language() language.Tag {
	return s.lang
}

func (s *session) SendMessage(text string) {
	s.unicast.SendTo(s.clientId, text)
}
