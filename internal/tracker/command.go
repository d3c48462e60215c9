package tracker

import "fmt"

// Command names.
const (
	CmdList        = "list"
	CmdAdd         = "add"
	CmdRemove      = "remove"
	CmdSubscribe   = "subscribe"
	CmdUnsubscribe = "unsubscribe"
	CmdImport      = "import"
)

// Command is one user request for a single invocation.
type Command struct {
	Name string
	Arg  string

	// SubscribedOnly restricts list to subscribed feeds.
	SubscribedOnly bool
}

// Options holds the option flags that can select a command implicitly.
type Options struct {
	Add         string
	Remove      string
	Subscribe   string
	Unsubscribe string
}

func (o Options) value(name string) string {
	switch name {
	case CmdAdd:
		return o.Add
	case CmdRemove:
		return o.Remove
	case CmdSubscribe:
		return o.Subscribe
	case CmdUnsubscribe:
		return o.Unsubscribe
	}
	return ""
}

// SelectCommand picks the command to run. An explicit name wins; otherwise
// the first option flag set (add, remove, subscribe, unsubscribe) decides,
// falling back to list.
func SelectCommand(explicit, arg string, opts Options) (Command, error) {
	if explicit != "" {
		switch explicit {
		case CmdList, CmdAdd, CmdRemove, CmdSubscribe, CmdUnsubscribe, CmdImport:
		default:
			return Command{}, fmt.Errorf("unknown command %q", explicit)
		}
		if arg == "" {
			arg = opts.value(explicit)
		}
		return Command{Name: explicit, Arg: arg}, nil
	}

	for _, name := range []string{CmdAdd, CmdRemove, CmdSubscribe, CmdUnsubscribe} {
		if v := opts.value(name); v != "" {
			return Command{Name: name, Arg: v}, nil
		}
	}
	return Command{Name: CmdList}, nil
}
