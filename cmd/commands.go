package main

import "strings"

// CommandKind classifies one line typed in interactive mode.
type CommandKind int

const (
	CommandNone CommandKind = iota
	CommandMessage
	CommandUpload
	CommandDownload
	CommandFiles
	CommandHelp
	CommandQuit
	CommandUnknown
)

// Command is a parsed input line. Arg is the message text, the path or file
// name argument, or the unknown command word.
type Command struct {
	Kind CommandKind
	Arg  string
}

const helpText = `Commands:
  /upload <path>    upload a file to the chat server
  /download <name>  download an uploaded file
  /files            refresh the uploaded files list
  /help             show this help
  /quit             leave the chat
Any other line is sent as a message; markdown is supported.
A line starting with // is sent with a single leading slash.
`

func parseCommand(line string) Command {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Command{Kind: CommandNone}
	}

	if !strings.HasPrefix(trimmed, "/") {
		return Command{Kind: CommandMessage, Arg: trimmed}
	}
	if strings.HasPrefix(trimmed, "//") {
		return Command{Kind: CommandMessage, Arg: trimmed[1:]}
	}

	word, arg, _ := strings.Cut(trimmed, " ")
	arg = strings.TrimSpace(arg)

	switch word {
	case "/quit", "/exit":
		return Command{Kind: CommandQuit}
	case "/help":
		return Command{Kind: CommandHelp}
	case "/files":
		return Command{Kind: CommandFiles}
	case "/upload":
		if arg == "" {
			return Command{Kind: CommandHelp}
		}
		return Command{Kind: CommandUpload, Arg: arg}
	case "/download":
		if arg == "" {
			return Command{Kind: CommandHelp}
		}
		return Command{Kind: CommandDownload, Arg: arg}
	}

	return Command{Kind: CommandUnknown, Arg: word}
}
