package routing

import (
	"regexp"
)

// View is a read-only, point-in-time set of active sandbox routing keys
// for one service. Implementations must be safe for concurrent use.
type View interface {
	Contains(id string) bool
	Version() uint64
}

type emptyView struct{}

func (emptyView) Contains(string) bool { return false }
func (emptyView) Version() uint64      { return 0 }

// EmptyView is the degraded view used when the registry is unavailable:
// no key counts as active, so baseline falls through to the fallback
// rule and nothing is dropped.
var EmptyView View = emptyView{}

// KeyClass is the tagged classification of a message's routing key
// against one consumer's service and registry view.
type KeyClass int

const (
	// KeyClassNone: no routing key, plain baseline traffic.
	KeyClassNone KeyClass = iota
	// KeyClassOwnServiceActive: key names an active sandbox of this
	// same service; a sibling queue owns the message.
	KeyClassOwnServiceActive
	// KeyClassOtherOrInactive: key is unknown, inactive, malformed, or
	// belongs to another service in the call chain.
	KeyClassOtherOrInactive
)

type Outcome int

const (
	OutcomeAccept Outcome = iota
	OutcomeSkip
)

func (o Outcome) String() string {
	if o == OutcomeSkip {
		return "skip"
	}
	return "accept"
}

// Rule names which entry of the decision table matched, for decision
// logs and metrics.
type Rule string

const (
	RuleSandboxMatch    Rule = "sandbox_match"
	RuleSandboxMismatch Rule = "sandbox_mismatch"
	RuleBaselineNoKey   Rule = "baseline_no_key"
	RuleActivePeer      Rule = "active_peer"
	RuleFallback        Rule = "fallback"
)

type Decision struct {
	Outcome Outcome
	Rule    Rule
}

func (d Decision) Accepted() bool {
	return d.Outcome == OutcomeAccept
}

// Routing keys follow the DNS-label shape the sandbox provisioner
// hands out. Anything else is treated as an unknown key, not an error.
var wellFormedKey = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,62}[a-z0-9])?$`)

func WellFormedKey(key string) bool {
	return wellFormedKey.MatchString(key)
}

// Classify derives the tagged key class from raw metadata plus a
// registry view, so the ordered rules below stay free of I/O.
func Classify(key string, view View) KeyClass {
	if key == "" {
		return KeyClassNone
	}
	if !WellFormedKey(key) {
		return KeyClassOtherOrInactive
	}
	if view == nil {
		view = EmptyView
	}
	if view.Contains(key) {
		return KeyClassOwnServiceActive
	}
	return KeyClassOtherOrInactive
}

// Decide runs the decision table for one delivered message. Rules are
// evaluated in order, first match wins:
//
//  1. a sandbox consumer accepts exactly its own routing key;
//  2. baseline accepts untagged messages;
//  3. baseline skips keys active for its own service, because the
//     sandbox's own queue binding already holds an independent copy;
//  4. baseline accepts everything else (other service's key, inactive
//     or unknown key) so multi-hop chains keep flowing.
//
// Decide is pure: same inputs, same decision, no side effects.
func Decide(id ConsumerIdentity, key string, view View) Decision {
	if id.Role == RoleSandbox {
		if key != "" && key == id.SandboxID {
			return Decision{Outcome: OutcomeAccept, Rule: RuleSandboxMatch}
		}
		return Decision{Outcome: OutcomeSkip, Rule: RuleSandboxMismatch}
	}

	switch Classify(key, view) {
	case KeyClassNone:
		return Decision{Outcome: OutcomeAccept, Rule: RuleBaselineNoKey}
	case KeyClassOwnServiceActive:
		return Decision{Outcome: OutcomeSkip, Rule: RuleActivePeer}
	default:
		return Decision{Outcome: OutcomeAccept, Rule: RuleFallback}
	}
}
