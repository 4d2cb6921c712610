package telegram

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Vodeneev/slipconv/internal/api"
)

// telegram rejects messages over 4096 characters
const maxMessageLen = 4000

const helpText = `🤖 *Slip Converter Bot*

Send a Sportybet booking code and get the same slip on Betpawa.

Example: 51GGAS

/help - Show this help message

*Note:* a conversion drives a real browser and may take a minute or two.`

var outcomeIcons = map[string]string{
	"applied":           "✅",
	"not_found":         "🔍",
	"ambiguous_market":  "❓",
	"transient_failure": "⚠️",
}

// FormatResult renders a successful conversion as Markdown messages.
func FormatResult(source string, res *api.ConvertResponse) []string {
	header := fmt.Sprintf("🎫 *%s* → *%s*\n%d of %d selections copied\n\n",
		escapeMarkdown(source), escapeMarkdown(res.ConvertedCode), res.ConfirmedCount, res.TotalEntries)
	return splitMessages(header, formatOutcomes(res.Outcomes))
}

// FormatError renders a failed conversion.
func FormatError(source string, err error) []string {
	var ce *ConvertError
	if !errors.As(err, &ce) {
		return []string{fmt.Sprintf("❌ Error: %s", escapeMarkdown(err.Error()))}
	}
	header := fmt.Sprintf("❌ *%s*: %s\n\n", escapeMarkdown(source), escapeMarkdown(describeKind(ce.Response.Kind, ce.Error())))
	return splitMessages(header, formatOutcomes(ce.Response.Outcomes))
}

func describeKind(kind, fallback string) string {
	switch kind {
	case "RequestInvalid":
		return "this does not look like a booking code"
	case "FeedEmpty":
		return "the code has no selections that can be converted"
	case "FeedUnavailable":
		return "Sportybet did not answer, try again later"
	case "ConversionFailed":
		return "none of the selections could be placed on Betpawa"
	case "SessionError":
		return "the Betpawa browser session failed, try again later"
	default:
		return fallback
	}
}

func formatOutcomes(outcomes []api.OutcomeView) []string {
	lines := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		icon, ok := outcomeIcons[o.Outcome]
		if !ok {
			icon = "•"
		}
		line := fmt.Sprintf("%s %d. %s | %s %s", icon, o.Index+1,
			escapeMarkdown(o.SourceEvent), escapeMarkdown(o.Market), escapeMarkdown(o.Selection))
		if o.Outcome != "applied" {
			line += fmt.Sprintf(" (%s)", escapeMarkdown(strings.ReplaceAll(o.Outcome, "_", " ")))
		}
		lines = append(lines, line+"\n")
	}
	return lines
}

// splitMessages packs lines under header into messages below the Telegram limit.
func splitMessages(header string, lines []string) []string {
	var (
		msgs    []string
		builder strings.Builder
	)
	builder.WriteString(header)
	for _, line := range lines {
		if builder.Len()+len(line) > maxMessageLen {
			msgs = append(msgs, builder.String())
			builder.Reset()
		}
		builder.WriteString(line)
	}
	if builder.Len() > 0 {
		msgs = append(msgs, builder.String())
	}
	return msgs
}

func escapeMarkdown(text string) string {
	// legacy Markdown only needs these
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return replacer.Replace(text)
}
