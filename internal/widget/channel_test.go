package widget

import (
	"errors"
	"testing"

	"github.com/checkout-widget/internal/constants"
)

func newSelectorConfig() Configuration {
	return Configuration{
		EwalletChannels: []string{"GCASH", "MAYA"},
		BankChannels:    []string{"BPI", "BDO"},
		DefaultGroup:    constants.ChannelGroupEwallets,
	}
}

func TestChannelSelectorInitialState(t *testing.T) {
	selector := NewChannelSelector(newSelectorConfig())
	current := selector.CurrentSelection()
	if current.Group != constants.ChannelGroupEwallets || current.HasMethod() {
		t.Fatalf("unexpected initial selection: %+v", current)
	}

	bankFirst := newSelectorConfig()
	bankFirst.DefaultGroup = constants.ChannelGroupBank
	if got := NewChannelSelector(bankFirst).CurrentSelection().Group; got != constants.ChannelGroupBank {
		t.Fatalf("default group want BANK got %s", got)
	}
}

func TestChannelSelectorRemembersMethodPerGroup(t *testing.T) {
	selector := NewChannelSelector(newSelectorConfig())
	if err := selector.SelectMethod(constants.ChannelGroupEwallets, "MAYA"); err != nil {
		t.Fatalf("select ewallet failed: %v", err)
	}
	if err := selector.SelectGroup(constants.ChannelGroupBank); err != nil {
		t.Fatalf("select group failed: %v", err)
	}
	if current := selector.CurrentSelection(); current.Group != constants.ChannelGroupBank || current.Method != "" {
		t.Fatalf("bank group should have no method yet, got %+v", current)
	}
	if err := selector.SelectMethod(constants.ChannelGroupBank, "BDO"); err != nil {
		t.Fatalf("select bank failed: %v", err)
	}
	if err := selector.SelectGroup(constants.ChannelGroupEwallets); err != nil {
		t.Fatalf("select group failed: %v", err)
	}
	if current := selector.CurrentSelection(); current.Method != "MAYA" {
		t.Fatalf("ewallet method should be remembered, got %+v", current)
	}
	if got := selector.MethodFor(constants.ChannelGroupBank); got != "BDO" {
		t.Fatalf("bank method should be remembered, got %s", got)
	}
}

func TestChannelSelectorRejectsUnknownValues(t *testing.T) {
	selector := NewChannelSelector(newSelectorConfig())
	if err := selector.SelectGroup("CARDS"); !errors.Is(err, ErrChannelGroupInvalid) {
		t.Fatalf("expected ErrChannelGroupInvalid, got %v", err)
	}
	if err := selector.SelectMethod(constants.ChannelGroupEwallets, "BPI"); !errors.Is(err, ErrChannelNotOffered) {
		t.Fatalf("expected ErrChannelNotOffered, got %v", err)
	}
	if current := selector.CurrentSelection(); current.HasMethod() {
		t.Fatalf("rejected selection must not change state, got %+v", current)
	}
}

func TestChannelSelectorResetAndSubscribe(t *testing.T) {
	selector := NewChannelSelector(newSelectorConfig())
	var seen []Selection
	selector.Subscribe(func(selection Selection) {
		seen = append(seen, selection)
	})

	_ = selector.SelectMethod(constants.ChannelGroupEwallets, "GCASH")
	next := newSelectorConfig()
	next.DefaultGroup = constants.ChannelGroupBank
	selector.Reset(next)

	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
	if seen[0].Method != "GCASH" {
		t.Fatalf("first notification should carry GCASH, got %+v", seen[0])
	}
	if seen[1].Group != constants.ChannelGroupBank || seen[1].HasMethod() {
		t.Fatalf("reset should clear methods, got %+v", seen[1])
	}
	if selector.MethodFor(constants.ChannelGroupEwallets) != "" {
		t.Fatalf("reset should clear remembered ewallet method")
	}
}
