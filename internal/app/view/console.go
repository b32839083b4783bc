package view

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"chatterbox/internal/app/color"
	"chatterbox/internal/app/render"
	"chatterbox/internal/app/user"
)

const (
	noticeStyle = "\x1b[2m"
	sentStyle   = "\x1b[1m"
)

// Console renders the chat to a terminal. Labels are colored with the sender's
// hue; bodies are the plain-text projection of the sanitized HTML.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	noColor bool
}

// NewConsole creates a Console writing to out.
func NewConsole(out io.Writer, noColor bool) *Console {
	return &Console{out: out, noColor: noColor}
}

func (c *Console) AppendMessage(u render.Unit) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if u.ShowLabel {
		label := render.StripControl(u.Sender.Name)
		if u.Class == render.ClassSent {
			label += " (you)"
		}
		fmt.Fprintln(c.out, c.paint(color.ANSI(u.Sender.Name), label+":"))
	}

	for _, line := range strings.Split(u.Text, "\n") {
		fmt.Fprintln(c.out, "  "+line)
	}
}

func (c *Console) AppendNotice(n render.Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out, c.paint(noticeStyle, "* "+n.Text))
}

func (c *Console) ReplaceRoster(users []user.User) {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, c.paint(color.ANSI(u.Name), render.StripControl(u.Name)))
	}

	fmt.Fprintln(c.out, c.paint(noticeStyle, fmt.Sprintf("* Online (%d): ", len(users)))+strings.Join(names, ", "))
}

func (c *Console) ReplaceFiles(files []render.FileEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(files) == 0 {
		fmt.Fprintln(c.out, c.paint(noticeStyle, "* No uploaded files"))
		return
	}

	fmt.Fprintln(c.out, c.paint(noticeStyle, fmt.Sprintf("* Uploaded files (%d):", len(files))))
	for _, f := range files {
		fmt.Fprintln(c.out, "    "+render.StripControl(f.Name))
	}
}

func (c *Console) AppendFile(f render.FileEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out, c.paint(sentStyle, "+ "+render.StripControl(f.Name)))
}

// Print writes local text such as command help, unstyled and without control characters.
func (c *Console) Print(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprint(c.out, render.StripControl(text))
}

// Notice shows a local notice on the terminal only.
func (c *Console) Notice(format string, args ...any) {
	c.AppendNotice(render.System(fmt.Sprintf(format, args...)))
}

func (c *Console) paint(style, s string) string {
	if c.noColor {
		return s
	}
	return style + s + color.ANSIReset
}
