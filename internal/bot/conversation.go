package bot

import (
	"fmt"
	"strings"
	"time"

	"financas/internal/core"
)

// step is where a chat currently is inside the record flow.
type step int

const (
	stepDescription step = iota
	stepCategory
	stepChannel
	stepAmount
	stepDate
)

// Reply is what the bot should send back after consuming one message.
// Options, when set, become a reply keyboard.
type Reply struct {
	Text    string
	Options []string
}

// Conversation is the in-flight record flow for one chat. It is a pure
// state machine so the flow can be exercised without the Telegram API.
type Conversation struct {
	kind  core.TransactionKind
	state step
	draft core.Transaction
}

// NewConversation starts the record flow for a kind.
func NewConversation(kind core.TransactionKind) (*Conversation, Reply) {
	c := &Conversation{kind: kind, draft: core.Transaction{Kind: kind}}
	noun := "receita"
	if kind == core.Expense {
		noun = "despesa"
	}
	return c, Reply{Text: fmt.Sprintf("Descreva a %s:", noun)}
}

// Advance consumes one user message. When the flow completes it returns
// the finished transaction with done=true; otherwise the reply prompts
// for the next field. Invalid input re-prompts without changing state.
func (c *Conversation) Advance(input string, now time.Time) (core.Transaction, Reply, bool) {
	input = strings.TrimSpace(input)

	switch c.state {
	case stepDescription:
		if input == "" {
			return core.Transaction{}, Reply{Text: "A descrição não pode ficar vazia. Tente novamente:"}, false
		}
		c.draft.Description = input
		c.state = stepCategory
		return core.Transaction{}, Reply{Text: "Escolha a categoria:", Options: c.kind.Categories()}, false

	case stepCategory:
		if !optionIn(c.kind.Categories(), input) {
			return core.Transaction{}, Reply{Text: "Categoria inválida. Escolha uma das opções:", Options: c.kind.Categories()}, false
		}
		c.draft.Category = input
		c.state = stepChannel
		prompt := "Qual a fonte da receita?"
		if c.kind == core.Expense {
			prompt = "Qual a forma de pagamento?"
		}
		return core.Transaction{}, Reply{Text: prompt, Options: c.kind.Channels()}, false

	case stepChannel:
		if !optionIn(c.kind.Channels(), input) {
			return core.Transaction{}, Reply{Text: "Opção inválida. Escolha uma das opções:", Options: c.kind.Channels()}, false
		}
		c.draft.Channel = input
		c.state = stepAmount
		return core.Transaction{}, Reply{Text: "Qual o valor? (ex: 1500.50)"}, false

	case stepAmount:
		cents, err := core.ParseDecimalToCents(input)
		if err != nil {
			return core.Transaction{}, Reply{Text: "Valor inválido. Informe um número positivo (ex: 1500.50):"}, false
		}
		c.draft.Amount = core.Money{Cents: cents}
		c.state = stepDate
		return core.Transaction{}, Reply{Text: "Qual a data? (Hoje ou DD/MM/AAAA)", Options: []string{"Hoje"}}, false

	case stepDate:
		date, err := ParseOccurredAt(input, now)
		if err != nil {
			return core.Transaction{}, Reply{Text: "Data inválida. Use Hoje ou DD/MM/AAAA (sem datas futuras):", Options: []string{"Hoje"}}, false
		}
		c.draft.OccurredAt = date
		return c.draft, Reply{}, true
	}

	return core.Transaction{}, Reply{Text: "Algo deu errado. Use /cancelar e comece de novo."}, false
}

// ParseOccurredAt accepts "Hoje" or a DD/MM/AAAA date not in the
// future relative to now.
func ParseOccurredAt(input string, now time.Time) (core.Date, error) {
	input = strings.TrimSpace(input)
	today := core.NewDate(now.Year(), int(now.Month()), now.Day())

	if strings.EqualFold(input, "hoje") {
		return today, nil
	}

	parsed, err := time.ParseInLocation("02/01/2006", input, time.UTC)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", input, err)
	}
	date := core.Date{Time: parsed}
	if date.After(today.Time) {
		return core.Date{}, core.ErrFutureDate
	}
	return date, nil
}

func optionIn(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}
