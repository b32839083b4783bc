/*
Package render turns chat events into display units.

Message bodies are untrusted: every body goes through markdown conversion, then
an HTML sanitizing pass, and only then through syntax highlighting of its code
blocks. Notices never interpret their input as markup; every name they carry is
escaped.
*/
package render

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"

	"chatterbox/internal/app/user"
	"chatterbox/internal/pkg/logx"
)

const (
	ClassSent     = "sent"
	ClassReceived = "received"
	ClassSameUser = "same-user"
	ClassSystem   = "system"
)

// DownloadPath is the file store endpoint files are linked to.
const DownloadPath = "/download"

var codeLanguageClass = regexp.MustCompile(`^language-[\w+#.-]+$`)

// Unit is one rendered chat message.
type Unit struct {
	// Sender is the author, colored.
	Sender user.User `json:"sender"`

	// ShowLabel is false when the previous message came from the same sender.
	ShowLabel bool `json:"showLabel"`

	// Class is ClassSent for the current identity, ClassReceived otherwise.
	Class string `json:"class"`

	// HTML is the sanitized, highlighted message body.
	HTML string `json:"html"`

	// Text is a plain-text projection of HTML for terminals.
	Text string `json:"text"`

	// Markup is the complete chat bubble.
	Markup string `json:"markup"`
}

// NoticeKind classifies system notices.
type NoticeKind string

const (
	NoticeSystem NoticeKind = "system"
	NoticeJoin   NoticeKind = "join"
	NoticeLeave  NoticeKind = "leave"
	NoticeFile   NoticeKind = "file"
)

// Notice is a system line of the transcript.
type Notice struct {
	Kind   NoticeKind `json:"kind"`
	Text   string     `json:"text"`
	HTML   string     `json:"html"`
	Markup string     `json:"markup"`
}

// FileEntry is one entry of the uploaded files list.
type FileEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// NewFileEntry builds the list entry for an uploaded file name.
func NewFileEntry(name string) FileEntry {
	return FileEntry{Name: name, URL: DownloadURL(name)}
}

// DownloadURL returns the relative download link of name.
func DownloadURL(name string) string {
	return DownloadPath + "?" + url.Values{"file": {name}}.Encode()
}

// Renderer converts message bodies to safe HTML.
type Renderer struct {
	markdown    goldmark.Markdown
	policy      *bluemonday.Policy
	highlighter *Highlighter
}

// NewRenderer builds a Renderer with GFM markdown, the UGC sanitizing policy
// and the given code highlighter (nil disables highlighting).
func NewRenderer(highlighter *Highlighter) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		// raw HTML passes through conversion; the sanitizer is the single barrier
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(codeLanguageClass).OnElements("code")
	policy.RequireNoFollowOnLinks(true)

	return &Renderer{
		markdown:    md,
		policy:      policy,
		highlighter: highlighter,
	}
}

// Body converts a markdown message body to sanitized, highlighted HTML.
func (r *Renderer) Body(markdown string) string {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(markdown), &buf); err != nil {
		logx.Warn("Markdown conversion failed, rendering as text", "error", err.Error())
		buf.Reset()
		buf.WriteString("<p>" + html.EscapeString(markdown) + "</p>")
	}

	safe := r.policy.Sanitize(buf.String())

	if r.highlighter == nil {
		return strings.TrimSpace(safe)
	}

	highlighted, err := r.highlighter.CodeBlocks(safe)
	if err != nil {
		logx.Warn("Syntax highlighting failed, keeping plain code blocks", "error", err.Error())
		return strings.TrimSpace(safe)
	}

	return strings.TrimSpace(highlighted)
}

// Message renders a chat message. isCurrentUser selects the sent/received
// class; isSameUser hides the username label for consecutive messages.
func (r *Renderer) Message(username, body string, isCurrentUser, isSameUser bool) Unit {
	sender := user.New(username)
	bodyHTML := r.Body(body)

	class := ClassReceived
	if isCurrentUser {
		class = ClassSent
	}

	var markup strings.Builder
	markup.WriteString(`<div class="chat-message ` + class)
	if isSameUser {
		markup.WriteString(" " + ClassSameUser)
	}
	markup.WriteString(`">`)
	if !isSameUser {
		markup.WriteString(`<div class="username" style="color: ` + sender.Color + `;">`)
		markup.WriteString(html.EscapeString(username))
		markup.WriteString(`</div>`)
	}
	markup.WriteString(`<div class="message-content">` + bodyHTML + `</div></div>`)

	return Unit{
		Sender:    sender,
		ShowLabel: !isSameUser,
		Class:     class,
		HTML:      bodyHTML,
		Text:      PlainText(bodyHTML),
		Markup:    markup.String(),
	}
}

// System renders a client generated notice such as "You are now offline".
func System(text string) Notice {
	return notice(NoticeSystem, text, html.EscapeString(text))
}

// Joined renders the notice for a participant joining.
func Joined(username string) Notice {
	text := username + " joined the chat."
	return notice(NoticeJoin, text, html.EscapeString(text))
}

// Left renders the notice for a participant leaving.
func Left(username string) Notice {
	text := username + " left the chat."
	return notice(NoticeLeave, text, html.EscapeString(text))
}

// FileUploaded renders the notice for a participant uploading a file.
func FileUploaded(username, fileName string) Notice {
	text := username + " uploaded a file: " + fileName
	body := html.EscapeString(username) + " uploaded a file: " + FileLink(fileName)
	return notice(NoticeFile, text, body)
}

// FileLink renders a download anchor for fileName.
func FileLink(fileName string) string {
	escapedName := html.EscapeString(fileName)
	return `<a href="` + html.EscapeString(DownloadURL(fileName)) + `" download="` + escapedName + `">` + escapedName + `</a>`
}

func notice(kind NoticeKind, text, body string) Notice {
	return Notice{
		Kind:   kind,
		Text:   StripControl(text),
		HTML:   body,
		Markup: `<div class="chat-message ` + ClassSystem + `"><div class="message-content">` + body + `</div></div>`,
	}
}
