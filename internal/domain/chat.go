package domain

const MessageTypeUnstructured = "unstructured"

// ChatMessage is the front-door message shape exchanged with the web client.
type ChatMessage struct {
	Type         string           `json:"type"`
	Unstructured UnstructuredText `json:"unstructured"`
}

type UnstructuredText struct {
	Text string `json:"text"`
}

// TextMessage wraps plain text into an unstructured ChatMessage.
func TextMessage(text string) ChatMessage {
	return ChatMessage{Type: MessageTypeUnstructured, Unstructured: UnstructuredText{Text: text}}
}
