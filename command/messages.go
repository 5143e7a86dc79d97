package command

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/shse/warden/actor"
)

const (
	MsgUnknownCommand   = "command.unknown"
	MsgPermissionDenied = "command.denied"
	MsgFailed           = "command.failed"
	MsgUsage            = "command.usage"
	MsgThrottled        = "command.throttled"
	MsgBanList          = "command.banlist"
	MsgHelpHeader       = "command.help.header"
	MsgKicked           = "command.kicked"
)

var supported = []language.Tag{language.English, language.German}

var matcher = language.NewMatcher(supported)

func init() {
	en := language.English

	message.SetString(en, MsgUnknownCommand, "Unknown command. Type \"help\" for help.")
	message.SetString(en, MsgPermissionDenied, "I'm sorry, but you do not have permission to perform this command. Please contact the server administrators if you believe that this is in error.")
	message.SetString(en, MsgFailed, "An internal error occurred while attempting to perform this command")
	message.SetString(en, MsgUsage, "Usage: %s")
	message.SetString(en, MsgThrottled, "You are sending commands too quickly")
	message.SetString(en, MsgBanList, "There are %d total banned players: %s")
	message.SetString(en, MsgHelpHeader, "Commands available to you:")
	message.SetString(en, MsgKicked, "Banned by admin.")

	de := language.German

	message.SetString(de, MsgUnknownCommand, "Unbekannter Befehl. Gib \"help\" ein, um Hilfe zu erhalten.")
	message.SetString(de, MsgPermissionDenied, "Du hast leider keine Berechtigung, diesen Befehl auszuführen. Wende dich an die Serveradministratoren, falls das ein Fehler ist.")
	message.SetString(de, MsgFailed, "Beim Ausführen dieses Befehls ist ein interner Fehler aufgetreten")
	message.SetString(de, MsgUsage, "Verwendung: %s")
	message.SetString(de, MsgThrottled, "Du sendest Befehle zu schnell")
	message.SetString(de, MsgBanList, "Es gibt insgesamt %d gesperrte Spieler: %s")
	message.SetString(de, MsgHelpHeader, "Verfügbare Befehle:")
	message.SetString(de, MsgKicked, "Von einem Administrator gesperrt.")
}

// Supported reports whether replies can be localized for tag.
func Supported(tag language.Tag) bool {
	_, _, confidence := matcher.Match(tag)
	return confidence != language.No
}

// Localize formats key in the sender's language, falling back to English.
func Localize(sender actor.Sender, key string, args ...interface{}) string {
	_, index, _ := matcher.Match(sender.Language())
	return message.NewPrinter(supported[index]).Sprintf(key, args...)
}

// Reply sends a localized message to sender.
func Reply(sender actor.Sender, key string, args ...interface{}) {
	sender.SendMessage(Localize(sender, key, args...))
}
