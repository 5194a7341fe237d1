package telegram

import (
	"strings"

	"github.com/kitbuilder587/websearch/internal/search"
)

// ParseQueryCommand разбирает текст сообщения в запрос и, возможно, принудительного провайдера.
//
//	/search запрос   -> обычный поиск с fallback
//	/google запрос   -> только google (так же /brave, /xai)
//	обычный текст    -> обычный поиск
func ParseQueryCommand(text string) (query string, forced search.Identity) {
	text = strings.TrimSpace(text)

	if text == "" {
		return "", ""
	}

	if !strings.HasPrefix(text, "/") {
		return normalizeSpaces(text), ""
	}

	parts := strings.SplitN(text, " ", 2)
	command := strings.ToLower(parts[0])
	// /search@MyBot в группах
	if i := strings.Index(command, "@"); i > 0 {
		command = command[:i]
	}

	var rest string
	if len(parts) > 1 {
		rest = normalizeSpaces(parts[1])
	}

	if command == "/search" {
		return rest, ""
	}
	if id, ok := search.ParseIdentity(strings.TrimPrefix(command, "/")); ok {
		return rest, id
	}
	return normalizeSpaces(text), ""
}

// IsQueryCommand - команда, которая запускает поиск.
func IsQueryCommand(cmd string) bool {
	if cmd == "search" {
		return true
	}
	_, ok := search.ParseIdentity(cmd)
	return ok
}

func normalizeSpaces(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
