package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
)

// ErrEmptyResponse is returned when the model answers without candidates
var ErrEmptyResponse = errors.New("model returned no candidates")

// Vertex implements Observer and Agent on Gemini through Vertex AI
type Vertex struct {
	client  *genai.Client
	modelID string
}

var (
	_ Observer = (*Vertex)(nil)
	_ Agent    = (*Vertex)(nil)
)

// NewVertex connects to Vertex AI in the given project and region
func NewVertex(ctx context.Context, projectID, location, modelID string, opts ...option.ClientOption) (*Vertex, error) {
	client, err := genai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, fmt.Errorf("vertex ai init failed: %w", err)
	}
	return &Vertex{client: client, modelID: modelID}, nil
}

// ModelID returns the Gemini model in use
func (v *Vertex) ModelID() string {
	return v.modelID
}

// Close releases the client
func (v *Vertex) Close() error {
	return v.client.Close()
}

// Observe runs a single JSON-mode generation over a media file at
// temperature 0
func (v *Vertex) Observe(ctx context.Context, uri, mimeType, prompt string) (string, error) {
	model := v.client.GenerativeModel(v.modelID)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx,
		genai.FileData{MIMEType: mimeType, FileURI: uri},
		genai.Text(prompt),
	)
	if err != nil {
		return "", err
	}
	reply, err := toReply(resp)
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

// StartChat opens a function-calling conversation at temperature 0
func (v *Vertex) StartChat(system string, tools []FunctionDeclaration) Chat {
	model := v.client.GenerativeModel(v.modelID)
	model.SetTemperature(0)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if len(tools) > 0 {
		model.Tools = []*genai.Tool{toGenaiTool(tools)}
	}
	return &vertexChat{session: model.StartChat()}
}

type vertexChat struct {
	session *genai.ChatSession
}

func (c *vertexChat) Send(ctx context.Context, message string) (*Reply, error) {
	resp, err := c.session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return nil, err
	}
	return toReply(resp)
}

func (c *vertexChat) SendResults(ctx context.Context, results []FunctionResult) (*Reply, error) {
	parts := make([]genai.Part, 0, len(results))
	for _, r := range results {
		parts = append(parts, genai.FunctionResponse{
			Name:     r.Name,
			Response: map[string]any{"result": r.Result},
		})
	}
	resp, err := c.session.SendMessage(ctx, parts...)
	if err != nil {
		return nil, err
	}
	return toReply(resp)
}

func toGenaiTool(decls []FunctionDeclaration) *genai.Tool {
	tool := &genai.Tool{}
	for _, d := range decls {
		schema := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: make(map[string]*genai.Schema, len(d.Params)),
		}
		for _, p := range d.Params {
			schema.Properties[p.Name] = &genai.Schema{
				Type:        toGenaiType(p.Type),
				Description: p.Description,
			}
			if p.Required {
				schema.Required = append(schema.Required, p.Name)
			}
		}
		tool.FunctionDeclarations = append(tool.FunctionDeclarations, &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  schema,
		})
	}
	return tool
}

func toGenaiType(t ParamType) genai.Type {
	switch t {
	case TypeInteger:
		return genai.TypeInteger
	case TypeNumber:
		return genai.TypeNumber
	case TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

// toReply flattens the first candidate into text and function calls
func toReply(resp *genai.GenerateContentResponse) (*Reply, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}

	reply := &Reply{}
	var text []string
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text = append(text, string(p))
		case genai.FunctionCall:
			reply.Calls = append(reply.Calls, FunctionCall{Name: p.Name, Args: p.Args})
		}
	}
	reply.Text = strings.Join(text, "")
	return reply, nil
}
