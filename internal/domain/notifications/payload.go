package notifications

// Payload is a Slack webhook message in Block Kit form.
type Payload struct {
	Text   string  `json:"text,omitempty"`
	Blocks []Block `json:"blocks,omitempty"`
}

type Block struct {
	Type   string `json:"type"`
	Text   *Text  `json:"text,omitempty"`
	Fields []Text `json:"fields,omitempty"`
}

type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func header(text string) Block {
	return Block{Type: "header", Text: &Text{Type: "plain_text", Text: text}}
}

func section(text string) Block {
	return Block{Type: "section", Text: &Text{Type: "mrkdwn", Text: text}}
}

func fields(pairs ...string) Block {
	b := Block{Type: "section"}
	for _, p := range pairs {
		b.Fields = append(b.Fields, Text{Type: "mrkdwn", Text: p})
	}
	return b
}

func divider() Block {
	return Block{Type: "divider"}
}
