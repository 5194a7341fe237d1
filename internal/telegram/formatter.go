package telegram

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/kitbuilder587/websearch/internal/provider"
	"github.com/kitbuilder587/websearch/internal/search"
	"github.com/kitbuilder587/websearch/internal/tool"
)

// лимит длины сообщения в Telegram
const maxMessageLen = 4096

func FormatSearchResponse(p *tool.Payload) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>Результаты</b> (%s): %d\n",
		html.EscapeString(p.Provider),
		p.ResultCount,
	))

	if len(p.Results) == 0 {
		sb.WriteString("\nНичего не найдено.")
		return sb.String()
	}

	for i, r := range p.Results {
		title := r.Title
		if strings.TrimSpace(title) == "" {
			title = truncateURL(r.URL, 60)
		}
		sb.WriteString(fmt.Sprintf("\n%d. <a href=\"%s\">%s</a>\n",
			i+1,
			html.EscapeString(r.URL),
			html.EscapeString(title),
		))
		if r.Snippet != "" {
			sb.WriteString("   ")
			sb.WriteString(html.EscapeString(r.Snippet))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func FormatFailure(content string) string {
	return "<b>Поиск не удался</b>\n<pre>" + html.EscapeString(content) + "</pre>"
}

// FormatProviders: ● - настроен, ○ - нет, с подсказкой какие переменные выставить.
func FormatProviders(configured []search.Identity) string {
	ok := make(map[search.Identity]bool, len(configured))
	for _, id := range configured {
		ok[id] = true
	}

	var sb strings.Builder
	sb.WriteString("<b>Провайдеры поиска:</b>\n\n")

	for _, id := range search.KnownIdentities() {
		if ok[id] {
			sb.WriteString(fmt.Sprintf("● %s\n", id))
			continue
		}
		sb.WriteString("○ " + html.EscapeString(provider.Hint(id)) + "\n")
	}

	sb.WriteString(fmt.Sprintf("\nНастроено: %d из %d", len(configured), len(search.DefaultOrder)))
	return sb.String()
}

func SplitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var messages []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			messages = append(messages, text)
			break
		}

		splitPoint := findSafeSplitPoint(text, maxLen)
		if splitPoint <= 0 || splitPoint > len(text) {
			splitPoint = maxLen
		}

		messages = append(messages, text[:splitPoint])
		text = text[splitPoint:]
	}

	return messages
}

func findSafeSplitPoint(text string, maxLen int) int {
	// ищем пробел или перевод строки, не ломая HTML-теги
	for i := maxLen - 1; i > maxLen/2; i-- {
		if i >= len(text) {
			continue
		}
		if isInsideHTMLTag(text, i) {
			continue
		}

		if text[i] == '\n' || text[i] == ' ' {
			return i + 1
		}
	}

	// внутри тега - ищем конец
	if maxLen < len(text) && isInsideHTMLTag(text, maxLen) {
		for i := maxLen; i < len(text); i++ {
			if text[i] == '>' {
				for j := i + 1; j < len(text) && j < i+50; j++ {
					if text[j] == '\n' || text[j] == ' ' {
						return j + 1
					}
				}
				return i + 1
			}
		}
	}

	for i := maxLen - 1; i > 0; i-- {
		if text[i] == ' ' || text[i] == '\n' {
			return i + 1
		}
	}

	// не режем посреди UTF-8 последовательности
	i := maxLen
	for i > 0 && !utf8.RuneStart(text[i]) {
		i--
	}
	if i == 0 {
		return maxLen
	}
	return i
}

func isInsideHTMLTag(text string, pos int) bool {
	if pos >= len(text) || pos < 0 {
		return false
	}
	for i := pos; i >= 0; i-- {
		if text[i] == '>' {
			return false
		}
		if text[i] == '<' {
			return true
		}
	}
	return false
}

func truncateURL(url string, maxLen int) string {
	if utf8.RuneCountInString(url) <= maxLen {
		return url
	}
	return string([]rune(url)[:maxLen-3]) + "..."
}
