// Package command resolves typed command lines to implementations, gates them
// on the sender's permissions and runs or completes them.
//
// A Contract owns its usage message: when Execute reports an argument-shape
// failure it has already told the sender how to call it, and the Dispatcher
// adds nothing.
package command

import (
	"github.com/pkg/errors"

	"github.com/shse/warden/actor"
)

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidArgument  = errors.New("invalid argument")
)

type Contract interface {
	Name() string
	// Permission is empty when anyone may run the command.
	Permission() string
	Usage() string

	// Execute returns false when args do not fit the command. Any error is a
	// backing store fault; side effects may not have happened.
	Execute(sender actor.Sender, alias string, args []string) (bool, error)
	// Complete suggests values for the last element of args.
	Complete(sender actor.Sender, alias string, args []string) ([]string, error)
}

// ValidateInvocation rejects calls that arrive without a sender, alias or
// argument slice.
func ValidateInvocation(sender actor.Sender, alias string, args []string) error {
	switch {
	case sender == nil:
		return errors.Wrap(ErrInvalidArgument, "sender is required")
	case alias == "":
		return errors.Wrap(ErrInvalidArgument, "alias is required")
	case args == nil:
		return errors.Wrap(ErrInvalidArgument, "arguments are required")
	default:
		return nil
	}
}
