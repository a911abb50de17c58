// Package ui renders client events on a terminal.
package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"ics-chat/moderation"
	"ics-chat/protocol"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

var (
	infoStyle      = color.New(color.FgGreen)
	errorStyle     = color.New(color.FgRed, color.OpBold)
	noticeStyle    = color.New(color.FgYellow)
	senderStyle    = color.New(color.FgCyan, color.OpBold)
	timestampStyle = color.New(color.FgGray)
)

// Terminal implements contract.Presenter over a writer.
type Terminal struct {
	mu      sync.Mutex
	out     io.Writer
	colours bool
	filter  *moderation.Filter
}

// NewTerminal writes to out. A nil filter shows messages as received.
func NewTerminal(out io.Writer, colours bool, filter *moderation.Filter) *Terminal {
	return &Terminal{out: out, colours: colours, filter: filter}
}

func (t *Terminal) OnLoginResult(result protocol.LoginResult) {
	if result.OK() {
		t.line(infoStyle, result.Message)
		return
	}
	t.line(errorStyle, fmt.Sprintf("Login failed: %s", result.Message))
}

func (t *Terminal) OnConnectResult(result protocol.ConnectResult) {
	if result.OK() {
		t.line(infoStyle, result.Message)
		return
	}
	t.line(errorStyle, result.Message)
}

func (t *Terminal) OnPeerConnected(evt protocol.PeerConnected) {
	t.line(infoStyle, fmt.Sprintf("%s opened a chat with you", evt.From))
}

func (t *Terminal) OnGroupCreated(evt protocol.GroupCreated) {
	t.line(infoStyle, fmt.Sprintf("%s (%s)", evt.Message, evt.GroupID))
}

func (t *Terminal) OnIncoming(evt protocol.Incoming) {
	text, _ := t.filter.Apply(evt.Message)
	var b strings.Builder
	if evt.Timestamp != "" {
		b.WriteString(t.paint(timestampStyle, "["+evt.Timestamp+"] "))
	}
	b.WriteString(t.paint(senderStyle, evt.From))
	b.WriteString(": ")
	b.WriteString(text)

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, b.String())
}

func (t *Terminal) OnDisconnected(evt protocol.Disconnected) {
	t.line(noticeStyle, evt.Message)
}

func (t *Terminal) OnUserList(evt protocol.UserList) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(evt.Users) == 0 {
		fmt.Fprintln(t.out, t.paint(noticeStyle, "Nobody else is online"))
		return
	}
	table := tablewriter.NewWriter(t.out)
	table.SetHeader([]string{"#", "User"})
	table.SetBorder(false)
	for i, user := range evt.Users {
		table.Append([]string{strconv.Itoa(i + 1), user})
	}
	table.Render()
}

func (t *Terminal) OnError(message string) {
	t.line(errorStyle, message)
}

// Notice prints a local line that did not come from the server.
func (t *Terminal) Notice(message string) {
	t.line(noticeStyle, message)
}

func (t *Terminal) line(style color.Style, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, t.paint(style, text))
}

func (t *Terminal) paint(style color.Style, text string) string {
	if !t.colours {
		return text
	}
	return style.Render(text)
}
