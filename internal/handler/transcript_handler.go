package handler

import (
	"html/template"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"chatterbox/internal/app/render"
	"chatterbox/internal/app/user"
	"chatterbox/internal/app/view"
	"chatterbox/internal/pkg/errs"
	"chatterbox/internal/pkg/resp"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// TranscriptOutput is the JSON shape of GET /api/transcript.
type TranscriptOutput struct {
	Identity string             `json:"identity"`
	Entries  []view.Entry       `json:"entries"`
	Roster   []user.User        `json:"roster"`
	Files    []render.FileEntry `json:"files"`
	ScrollTo uint64             `json:"scrollTo"`
}

// HandleTranscript returns the transcript entries after the optional "since"
// sequence number together with the roster and the files list.
func HandleTranscript(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var since uint64
		if v := r.URL.Query().Get("since"); v != "" {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			since = n
		}

		snap := deps.Transcript.Snapshot()
		entries := deps.Transcript.Since(since)
		if entries == nil {
			entries = []view.Entry{}
		}

		resp.RespondSuccess(w, r, TranscriptOutput{
			Identity: deps.Identity,
			Entries:  entries,
			Roster:   snap.Roster,
			Files:    snap.Files,
			ScrollTo: snap.ScrollTo,
		})
	}
}

// HandleHistory returns the most recent archived records.
func HandleHistory(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultHistoryLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 || n > maxHistoryLimit {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			limit = n
		}

		records, err := deps.Archive.Recent(r.Context(), limit)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to read transcript archive")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, records)
	}
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="5">
<title>{{.Identity}} - chatterbox</title>
<link rel="stylesheet" href="/static/highlight.css">
</head>
<body>
<header>Signed in as <span style="color: {{.SelfColor}};">{{.Identity}}</span></header>
<main id="chat-box">
{{range .Entries}}{{.}}
{{end}}<div id="end"></div>
</main>
<aside>
<h2>Online</h2>
<ul id="user-list">{{range .Roster}}<li style="color: {{.Color}};">{{.Name}}</li>{{end}}</ul>
<h2>Uploaded files</h2>
<ul id="uploaded-files">{{range .Files}}<li><a href="{{.URL}}" download="{{.Name}}">{{.Name}}</a></li>{{end}}</ul>
</aside>
</body>
</html>
`))

type pageData struct {
	Identity  string
	SelfColor template.CSS
	Entries   []template.HTML
	Roster    []rosterItem
	Files     []render.FileEntry
}

// rosterItem carries a derived color, which is always a plain hsl() value.
type rosterItem struct {
	Name  string
	Color template.CSS
}

// HandleTranscriptPage renders the transcript as HTML. Message and notice
// markup was sanitized when it was rendered; everything else is escaped by
// the template.
func HandleTranscriptPage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := deps.Transcript.Snapshot()

		data := pageData{
			Identity:  deps.Identity,
			SelfColor: template.CSS(user.New(deps.Identity).Color),
			Entries:   make([]template.HTML, 0, len(snap.Entries)),
			Roster:    make([]rosterItem, 0, len(snap.Roster)),
			Files:     snap.Files,
		}

		for _, u := range snap.Roster {
			data.Roster = append(data.Roster, rosterItem{Name: u.Name, Color: template.CSS(u.Color)})
		}

		for _, e := range snap.Entries {
			switch e.Kind {
			case view.EntryMessage:
				data.Entries = append(data.Entries, template.HTML(e.Message.Markup))
			case view.EntryNotice:
				data.Entries = append(data.Entries, template.HTML(e.Notice.Markup))
			}
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:")

		if err := pageTemplate.Execute(w, data); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to render transcript page")
		}
	}
}

// HandleHighlightCSS serves the stylesheet of the code highlighter.
func HandleHighlightCSS(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")

		if deps.Highlighter == nil {
			return
		}
		if err := deps.Highlighter.WriteCSS(w); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to write highlight stylesheet")
		}
	}
}
