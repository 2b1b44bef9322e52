package dialog

// SlotName names one required field of the dining-suggestions intent.
type SlotName string

const (
	SlotLocation   SlotName = "Location"
	SlotCuisine    SlotName = "Cuisine"
	SlotDiningDate SlotName = "DiningDate"
	SlotDiningTime SlotName = "DiningTime"
	SlotNumPeople  SlotName = "NumPeople"
	SlotEmail      SlotName = "Email"
)

type slotPrompt struct {
	name   SlotName
	prompt string
}

var elicitationOrder = []slotPrompt{
	{SlotLocation, "Which city are you dining in? (e.g. Manhattan, Brooklyn, Chicago, Miami...)"},
	{SlotCuisine, "What cuisine would you like? (Indian/Chinese/Italian/Mexican/Japanese)"},
	{SlotDiningDate, "What date would you like to dine?"},
	{SlotDiningTime, "What time would you like to dine?"},
	{SlotNumPeople, "How many people are in your party?"},
	{SlotEmail, "What email should I send the suggestions to?"},
}

// ElicitationOrder returns the slot names in the order they are prompted for.
func ElicitationOrder() []SlotName {
	out := make([]SlotName, 0, len(elicitationOrder))
	for _, sp := range elicitationOrder {
		out = append(out, sp.name)
	}
	return out
}

// Prompt returns the fixed elicitation text for a slot.
func Prompt(name SlotName) string {
	for _, sp := range elicitationOrder {
		if sp.name == name {
			return sp.prompt
		}
	}
	return ""
}

type valueState uint8

const (
	stateUnset valueState = iota
	stateSet
	stateCleared
)

// Value is an optional slot value. The zero Value is unset.
type Value struct {
	raw   string
	state valueState
}

// Some returns a Value holding s.
func Some(s string) Value { return Value{raw: s, state: stateSet} }

// None returns a Value that was never set.
func None() Value { return Value{} }

// Cleared returns a Value that was explicitly emptied by the caller.
func Cleared() Value { return Value{state: stateCleared} }

func (v Value) Get() (string, bool) {
	if v.state != stateSet {
		return "", false
	}
	return v.raw, true
}

func (v Value) IsSet() bool     { return v.state == stateSet }
func (v Value) IsCleared() bool { return v.state == stateCleared }

// Slots maps slot names to collected values. Missing keys are unset.
type Slots map[SlotName]Value

// Get returns the value of a slot and whether it is set.
func (s Slots) Get(name SlotName) (string, bool) {
	return s[name].Get()
}

// Filled reports whether every slot in the elicitation order is set.
func (s Slots) Filled() bool {
	_, _, missing := s.NextMissing()
	return !missing
}

// NextMissing returns the first slot in elicitation order that has no value,
// along with its prompt.
func (s Slots) NextMissing() (SlotName, string, bool) {
	for _, sp := range elicitationOrder {
		if !s[sp.name].IsSet() {
			return sp.name, sp.prompt, true
		}
	}
	return "", "", false
}
