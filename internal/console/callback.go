package console

import (
	"errors"
	"strings"
)

const callbackPrefix = "mod"

// Callback actions.
const (
	actionToggle = "t"
	actionDelete = "d"
	actionReload = "r"
	actionPage   = "p"
	actionAdd    = "a"
)

var errInvalidCallback = errors.New("invalid callback data")

// callbackData is the payload of an inline button: "mod:<screen>:<action>:<arg>".
// The arg is an item id or a page number and may be empty.
type callbackData struct {
	Screen string
	Action string
	Arg    string
}

func (c callbackData) String() string {
	return strings.Join([]string{callbackPrefix, c.Screen, c.Action, c.Arg}, ":")
}

func parseCallbackData(data string) (callbackData, error) {
	parts := strings.SplitN(data, ":", 4)
	if len(parts) != 4 || parts[0] != callbackPrefix || parts[1] == "" || parts[2] == "" {
		return callbackData{}, errInvalidCallback
	}
	return callbackData{Screen: parts[1], Action: parts[2], Arg: parts[3]}, nil
}
