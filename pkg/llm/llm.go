package llm

import "context"

// ParamType is the JSON schema type of a function parameter
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
)

// Param describes one function parameter
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
}

// FunctionDeclaration is a tool the model may call
type FunctionDeclaration struct {
	Name        string
	Description string
	Params      []Param
}

// FunctionCall is a tool invocation requested by the model
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// FunctionResult is the outcome of a tool invocation returned to the model
type FunctionResult struct {
	Name   string `json:"name"`
	Result string `json:"result"`
}

// Reply is one model turn
type Reply struct {
	Text  string
	Calls []FunctionCall
}

// Observer analyses a media file and answers with text
type Observer interface {
	Observe(ctx context.Context, uri, mimeType, prompt string) (string, error)
}

// Chat is a multi-turn conversation with function calling
type Chat interface {
	Send(ctx context.Context, message string) (*Reply, error)
	SendResults(ctx context.Context, results []FunctionResult) (*Reply, error)
}

// Agent starts conversations
type Agent interface {
	StartChat(system string, tools []FunctionDeclaration) Chat
}
