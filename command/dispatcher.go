package command

import (
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/shse/warden/actor"
	"github.com/shse/warden/permission"
)

const (
	outcomeOK          = "ok"
	outcomeUsage       = "usage"
	outcomeUnknown     = "unknown"
	outcomeDenied      = "denied"
	outcomeUnavailable = "unavailable"
)

// Dispatcher owns no state beyond its collaborators and is safe for
// concurrent use; each call runs to completion on the caller's goroutine.
type Dispatcher struct {
	catalog     Resolver
	oracle      permission.Oracle
	logger      *zap.Logger
	dispatched  *prometheus.CounterVec
	completions *prometheus.CounterVec
	duration    prometheus.Summary
}

func NewDispatcher(catalog Resolver, oracle permission.Oracle, logger *zap.Logger, metrics prometheus.Registerer) *Dispatcher {
	d := &Dispatcher{
		catalog: catalog,
		oracle:  oracle,
		logger:  logger,
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "command_dispatch_total",
			Help: "Dispatched command lines by command and outcome."},
			[]string{"command", "outcome"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "command_completions_total",
			Help: "Completion requests by command."},
			[]string{"command"}),
		duration: prometheus.NewSummary(prometheus.SummaryOpts{
			Name: "command_execute_time",
			Help: "Command execution duration.",
		}),
	}

	metrics.MustRegister(d.dispatched)
	metrics.MustRegister(d.completions)
	metrics.MustRegister(d.duration)

	return d
}

// Dispatch runs a typed line on behalf of sender. It returns false for every
// failure; the sender has always been told why.
func (d *Dispatcher) Dispatch(sender actor.Sender, line string) bool {
	alias, args := Tokenize(line)
	return d.Execute(sender, alias, args)
}

func (d *Dispatcher) Execute(sender actor.Sender, alias string, args []string) bool {
	contract, err := d.run(sender, alias, args)

	name := alias
	if contract != nil {
		name = contract.Name()
	}

	switch errors.Cause(err) {
	case nil:
		d.dispatched.WithLabelValues(name, outcomeOK).Inc()
		return true

	case ErrInvalidArgument:
		d.dispatched.WithLabelValues(name, outcomeUsage).Inc()

	case ErrUnknownCommand:
		d.dispatched.WithLabelValues("", outcomeUnknown).Inc()
		Reply(sender, MsgUnknownCommand)

	case ErrPermissionDenied:
		d.dispatched.WithLabelValues(name, outcomeDenied).Inc()
		Reply(sender, MsgPermissionDenied)

		d.logger.Info("Permission denied",
			zap.String("sender", sender.Name()),
			zap.String("command", name))

	default:
		d.dispatched.WithLabelValues(name, outcomeUnavailable).Inc()
		Reply(sender, MsgFailed)

		d.logger.Error("Command failed",
			zap.String("sender", sender.Name()),
			zap.String("command", name),
			zap.Strings("args", args),
			zap.Error(err))
	}

	return false
}

func (d *Dispatcher) run(sender actor.Sender, alias string, args []string) (Contract, error) {
	contract, found := d.catalog.Resolve(alias)

	if !found {
		return nil, errors.Wrap(ErrUnknownCommand, alias)
	}

	allowed, err := d.oracle.Has(sender, contract.Permission())

	if err != nil {
		return contract, errors.Wrap(err, "check permission")
	}

	if !allowed {
		return contract, errors.Wrap(ErrPermissionDenied, contract.Permission())
	}

	started := time.Now()
	ok, err := contract.Execute(sender, alias, args)
	d.duration.Observe(time.Since(started).Seconds())

	if err != nil {
		return contract, errors.Wrap(err, "execute")
	}

	if !ok {
		return contract, ErrInvalidArgument
	}

	return contract, nil
}

// Complete never fails: unknown aliases, commands the sender may not run and
// contract errors yield no suggestions.
func (d *Dispatcher) Complete(sender actor.Sender, alias string, args []string) []string {
	contract, found := d.catalog.Resolve(alias)

	if !found || !d.permits(sender, contract) {
		return []string{}
	}

	d.completions.WithLabelValues(contract.Name()).Inc()

	suggestions, err := contract.Complete(sender, alias, args)

	if err != nil {
		d.logger.Warn("Completion failed",
			zap.String("command", contract.Name()),
			zap.Error(err))

		return []string{}
	}

	return suggestions
}

// CompleteLine completes a partially typed line. While the alias is still
// being typed it suggests aliases the sender is allowed to run.
func (d *Dispatcher) CompleteLine(sender actor.Sender, line string) []string {
	alias, args, typingAlias := TokenizePartial(line)

	if !typingAlias {
		return d.Complete(sender, alias, args)
	}

	prefix := strings.ToLower(alias)
	suggestions := []string{}

	for _, candidate := range d.catalog.Aliases() {
		if !strings.HasPrefix(candidate, prefix) {
			continue
		}

		if contract, _ := d.catalog.Resolve(candidate); d.permits(sender, contract) {
			suggestions = append(suggestions, candidate)
		}
	}

	sort.Strings(suggestions)
	return suggestions
}

// permits treats an oracle fault as a denial; completion never reports one.
func (d *Dispatcher) permits(sender actor.Sender, contract Contract) bool {
	if sender == nil {
		return false
	}

	allowed, err := d.oracle.Has(sender, contract.Permission())

	return err == nil && allowed
}
