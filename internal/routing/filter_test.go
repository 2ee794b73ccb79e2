package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticView struct {
	ids     map[string]bool
	version uint64
}

func (v staticView) Contains(id string) bool { return v.ids[id] }
func (v staticView) Version() uint64         { return v.version }

func viewOf(ids ...string) staticView {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return staticView{ids: m, version: 1}
}

func TestWellFormedKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{name: "simple", key: "feature-x", want: true},
		{name: "single char", key: "a", want: true},
		{name: "digits", key: "rk-123", want: true},
		{name: "uppercase", key: "Feature-X", want: false},
		{name: "leading hyphen", key: "-feature", want: false},
		{name: "trailing hyphen", key: "feature-", want: false},
		{name: "spaces", key: "feature x", want: false},
		{name: "empty", key: "", want: false},
		{name: "too long", key: "a123456789012345678901234567890123456789012345678901234567890123", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WellFormedKey(tt.key))
		})
	}
}

func TestClassify(t *testing.T) {
	view := viewOf("feature-x")

	tests := []struct {
		name string
		key  string
		view View
		want KeyClass
	}{
		{name: "no key", key: "", view: view, want: KeyClassNone},
		{name: "active key", key: "feature-x", view: view, want: KeyClassOwnServiceActive},
		{name: "inactive key", key: "feature-y", view: view, want: KeyClassOtherOrInactive},
		{name: "malformed key", key: "NOT VALID", view: view, want: KeyClassOtherOrInactive},
		{name: "nil view degrades to empty", key: "feature-x", view: nil, want: KeyClassOtherOrInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.key, tt.view))
		})
	}
}

func TestDecideSandbox(t *testing.T) {
	sandbox := NewSandboxIdentity("orders", "feature-x", "feature-x-sbx")
	view := viewOf("feature-x", "feature-y")

	tests := []struct {
		name        string
		key         string
		wantOutcome Outcome
		wantRule    Rule
	}{
		{name: "own key", key: "feature-x", wantOutcome: OutcomeAccept, wantRule: RuleSandboxMatch},
		{name: "other sandbox key", key: "feature-y", wantOutcome: OutcomeSkip, wantRule: RuleSandboxMismatch},
		{name: "no key", key: "", wantOutcome: OutcomeSkip, wantRule: RuleSandboxMismatch},
		{name: "unknown key", key: "feature-z", wantOutcome: OutcomeSkip, wantRule: RuleSandboxMismatch},
		{name: "malformed key", key: "Bad Key!", wantOutcome: OutcomeSkip, wantRule: RuleSandboxMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(sandbox, tt.key, view)
			assert.Equal(t, tt.wantOutcome, d.Outcome)
			assert.Equal(t, tt.wantRule, d.Rule)
		})
	}
}

func TestDecideBaseline(t *testing.T) {
	baseline := NewBaselineIdentity("orders")
	view := viewOf("feature-x")

	tests := []struct {
		name        string
		key         string
		view        View
		wantOutcome Outcome
		wantRule    Rule
	}{
		{name: "no key", key: "", view: view, wantOutcome: OutcomeAccept, wantRule: RuleBaselineNoKey},
		{name: "active peer owns it", key: "feature-x", view: view, wantOutcome: OutcomeSkip, wantRule: RuleActivePeer},
		{name: "inactive key falls through", key: "feature-y", view: view, wantOutcome: OutcomeAccept, wantRule: RuleFallback},
		{name: "malformed key falls through", key: "Bad Key!", view: view, wantOutcome: OutcomeAccept, wantRule: RuleFallback},
		{name: "registry down, tagged traffic kept", key: "feature-x", view: EmptyView, wantOutcome: OutcomeAccept, wantRule: RuleFallback},
		{name: "registry down, untagged", key: "", view: EmptyView, wantOutcome: OutcomeAccept, wantRule: RuleBaselineNoKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(baseline, tt.key, tt.view)
			assert.Equal(t, tt.wantOutcome, d.Outcome)
			assert.Equal(t, tt.wantRule, d.Rule)
		})
	}
}

// With one baseline and the full set of active sandboxes sharing one
// registry view, every message lands on exactly one identity.
func TestExactlyOneAcceptance(t *testing.T) {
	baseline := NewBaselineIdentity("orders")
	sandboxA := NewSandboxIdentity("orders", "feature-a", "")
	sandboxB := NewSandboxIdentity("orders", "feature-b", "")
	identities := []ConsumerIdentity{baseline, sandboxA, sandboxB}
	view := viewOf("feature-a", "feature-b")

	keys := []string{"", "feature-a", "feature-b", "feature-unknown", "Other Service Key!"}
	for _, key := range keys {
		accepted := 0
		for _, id := range identities {
			if Decide(id, key, view).Accepted() {
				accepted++
			}
		}
		assert.Equalf(t, 1, accepted, "key %q accepted by %d identities", key, accepted)
	}
}

func TestDecideIsPure(t *testing.T) {
	baseline := NewBaselineIdentity("orders")
	view := viewOf("feature-x")

	first := Decide(baseline, "feature-x", view)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Decide(baseline, "feature-x", view))
	}
}
