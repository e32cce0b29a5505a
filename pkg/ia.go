package pkg

import (
	"blueprint"
	"blueprint/internal/graph"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type ollamaRawResponse struct {
	Model   string `json:"model"`
	Message struct {
		Content string `json:"content"`
	} `json:"message"` // C'est ici que se trouve le JSON structuré
	Done bool `json:"done"`
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaApiCall struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Format   map[string]any      `json:"format"`
	Options  map[string]any      `json:"options"`
}

func (slf *ollamaApiCall) new(model string, schema map[string]any, messages []ollamaChatMessage) *ollamaApiCall {
	return &ollamaApiCall{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Format:   schema,
		Options: map[string]any{
			"temperature": 0,
		},
	}
}

// call posts the chat request and returns the structured content emitted by
// the model. Any transport, timeout or provider failure maps to
// graph.ErrCollaboratorUnavailable so callers can tell "the assistant is
// down" apart from "the assistant proposed something invalid".
func (slf *ollamaApiCall) call(ctx context.Context) ([]byte, error) {
	host := blueprint.GetConfig().OllamaConfig.Host

	data, err := json.Marshal(slf)
	if err != nil {
		AssertNoError(err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("%s/api/chat", host),
		bytes.NewBuffer(data),
	)
	if err != nil {
		AssertNoError(err)
	}

	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", graph.ErrCollaboratorUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", graph.ErrCollaboratorUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", graph.ErrCollaboratorUnavailable, resp.StatusCode)
	}

	var raw ollamaRawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", graph.ErrCollaboratorUnavailable, err)
	}
	if !raw.Done {
		return nil, fmt.Errorf("%w: llama call not done", graph.ErrCollaboratorUnavailable)
	}

	return []byte(raw.Message.Content), nil
}

// PlannerMessage is one prior exchange in the conversation, oldest first.
type PlannerMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OllamaPlanResponse is the structured plan the model must emit: a
// narrative explanation plus zero or more primitive operations.
type OllamaPlanResponse struct {
	Explanation string            `json:"explanation"`
	Operations  []json.RawMessage `json:"operations"`
}

// GuessPlan
/* Asks the model to turn a free-form instruction into a mutation plan for
the given flowchart. Uses Ollama under the hood.
model: the LLM model to use. Can be nil. If so, the configured default is used.
userInput: the user's instruction
flowchartJSON: the current document, canonical wire format
chatContext: prior exchanges, oldest first, truncated to the configured limit */
func GuessPlan(ctx context.Context, model *string, userInput string, flowchartJSON string, chatContext []PlannerMessage) (OllamaPlanResponse, error) {
	if model == nil {
		model = ToPtr(blueprint.GetConfig().OllamaConfig.Model)
	}

	system := fmt.Sprintf(`Tu es un assistant expert en programmation visuelle de type blueprint. L'utilisateur édite un flowchart composé de noeuds typés reliés par des connexions execution ou data. Ton but est de traduire sa demande en une liste d'opérations primitives sur le document.

### OPÉRATIONS AUTORISÉES :
add_node, remove_node, add_connection, remove_connection, update_node_data, move_node, set_variable, remove_variable, add_comment, remove_comment, set_viewport

### RÈGLES :
- Ne référence que des noeuds et des pins qui existent dans le document (ou que tu viens de créer dans le même plan)
- Une connexion data respecte les types des pins; une connexion execution relie deux pins execution
- Si la demande ne nécessite aucune modification, renvoie une liste d'opérations vide et explique pourquoi

### DOCUMENT ACTUEL :
%s`, flowchartJSON)

	// Pour éviter des réponses IA trop longues on ne prend que les N derniers messages
	var messageLimit = blueprint.GetConfig().OllamaConfig.MessageLimit
	if len(chatContext) > messageLimit {
		chatContext = chatContext[len(chatContext)-messageLimit:]
	}

	messages := make([]ollamaChatMessage, 0, len(chatContext)+2)
	messages = append(messages, ollamaChatMessage{Role: "system", Content: system})
	for _, m := range chatContext {
		messages = append(messages, ollamaChatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, ollamaChatMessage{Role: "user", Content: userInput})

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"explanation": map[string]any{"type": "string"},
			"operations": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "object"},
			},
		},
		"required": []string{"explanation", "operations"},
	}

	ollamaCall := (&ollamaApiCall{}).new(*model, schema, messages)

	content, err := ollamaCall.call(ctx)
	if err != nil {
		return OllamaPlanResponse{}, err
	}

	var result OllamaPlanResponse
	if err := json.Unmarshal(content, &result); err != nil {
		return OllamaPlanResponse{}, fmt.Errorf("%w: response is not a plan object: %v", graph.ErrMalformedPlan, err)
	}

	return result, nil
}
