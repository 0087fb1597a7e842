package services

import (
	"strings"

	"infinicraft-backend/domain/core/entities"
	pkgerrors "infinicraft-backend/pkg/errors"
)

// FallbackSymbol is used when a generated reply carries no symbol
const FallbackSymbol = "🔮"

// SystemPrompt constrains the text generator to a single "<ResultName> <ResultSymbol>" line
const SystemPrompt = `You are the combination engine of an element crafting game.
The user gives you two elements as "<symbol> <name> + <symbol> <name>".
Invent the single element that results from combining them.
Reply with exactly "<ResultName> <ResultSymbol>" where ResultSymbol is one emoji.
Do not add any other text.`

// UserMessage renders the pair as "<symbol1> <name1> + <symbol2> <name2>"
func UserMessage(a, b *entities.Element) string {
	return a.Label() + " + " + b.Label()
}

// ParseReply splits a generator reply into name and symbol. The last token
// is the symbol and the preceding tokens form the name. A single-token reply
// becomes the name with FallbackSymbol.
func ParseReply(reply string) (name, symbol string, err error) {
	fields := strings.Fields(reply)
	switch len(fields) {
	case 0:
		return "", "", pkgerrors.NewGenerationFailedError("empty reply", nil)
	case 1:
		return fields[0], FallbackSymbol, nil
	default:
		last := len(fields) - 1
		return strings.Join(fields[:last], " "), fields[last], nil
	}
}
