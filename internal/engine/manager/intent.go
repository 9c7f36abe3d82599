package manager

import (
	"fmt"
	"strings"
)

// Tab is the top-level view the render surface shows.
type Tab int

const (
	FeedTab Tab = iota
	ConnectionsTab
)

func (t Tab) String() string {
	if t == ConnectionsTab {
		return "CONNECTIONS"
	}
	return "FEED"
}

// ParseTab accepts a tab name in any case.
func ParseTab(name string) (Tab, error) {
	switch strings.ToUpper(name) {
	case "FEED":
		return FeedTab, nil
	case "CONNECTIONS":
		return ConnectionsTab, nil
	}
	return FeedTab, fmt.Errorf("unknown view %q", name)
}

// IntentKind enumerates the user actions the consumer understands.
type IntentKind int

const (
	TogglePause IntentKind = iota
	SetFilter
	Clear
	SwitchView
	ScrubLeft
	ScrubRight
	TogglePersistence
	SelectRecord
)

var intentNames = map[IntentKind]string{
	TogglePause:       "pause",
	SetFilter:         "filter",
	Clear:             "clear",
	SwitchView:        "view",
	ScrubLeft:         "scrub-left",
	ScrubRight:        "scrub-right",
	TogglePersistence: "record",
	SelectRecord:      "select",
}

func (k IntentKind) String() string {
	if name, ok := intentNames[k]; ok {
		return name
	}
	return fmt.Sprintf("intent(%d)", int(k))
}

// ParseIntentKind maps an action name back to its kind.
func ParseIntentKind(name string) (IntentKind, error) {
	for kind, n := range intentNames {
		if n == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

// Intent is one user action. Text carries the filter or view name; Index the
// record position for SelectRecord. An empty view name cycles the tabs.
type Intent struct {
	Kind  IntentKind
	Text  string
	Index int
}
