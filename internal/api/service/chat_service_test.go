package service

import (
	"blueprint/internal/api/handler/request"
	"blueprint/internal/graph"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubOllama fakes the chat completion endpoint and always answers with the
// given content as the structured message body.
func stubOllama(t *testing.T, content string) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.NotEmpty(t, payload["messages"])

		response := map[string]any{
			"model": payload["model"],
			"done":  true,
			"message": map[string]any{
				"role":    "assistant",
				"content": content,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
	t.Cleanup(server.Close)
	return server
}

func setupChatTest(t *testing.T, ollamaHost string) {
	t.Setenv("OLLAMA_HOST", ollamaHost)
	setupFlowchartTestDB(t)
}

func plannerContent(t *testing.T, explanation string, operations ...string) string {
	ops := make([]json.RawMessage, 0, len(operations))
	for _, op := range operations {
		ops = append(ops, json.RawMessage(op))
	}
	content, err := json.Marshal(map[string]any{
		"explanation": explanation,
		"operations":  ops,
	})
	require.NoError(t, err)
	return string(content)
}

func TestChat_AppliesProposedPlan(t *testing.T) {
	server := stubOllama(t, plannerContent(t, "J'ajoute un noeud print.", addPrintNodeOp))
	setupChatTest(t, server.URL)

	chatService := NewChatService()
	user := createTestUser(t)
	defer cleanupUser(t, user.ID)

	created, err := chatService.flowchartService.Create(user.ID, request.CreateFlowchartDTO{Name: "Chat applique"})
	require.NoError(t, err)
	defer cleanupFlowchart(t, created.ID)

	result, err := chatService.Chat(created.ID, user.ID, request.ChatDTO{Message: "ajoute un noeud print"})
	require.NoError(t, err, "Chat turn should commit the proposed plan")

	assert.Equal(t, "J'ajoute un noeud print.", result.Explanation)
	assert.Empty(t, result.Error)
	assert.Equal(t, 2, result.Flowchart.Version)
	assert.Len(t, result.Applied, 1)
	require.Len(t, result.Flowchart.Data.Nodes, 1)
	assert.Equal(t, "n1", result.Flowchart.Data.Nodes[0].ID)
}

func TestChat_EmptyPlanChangesNothing(t *testing.T) {
	server := stubOllama(t, plannerContent(t, "Le document contient déjà ce noeud."))
	setupChatTest(t, server.URL)

	chatService := NewChatService()
	user := createTestUser(t)
	defer cleanupUser(t, user.ID)

	created, err := chatService.flowchartService.Create(user.ID, request.CreateFlowchartDTO{Name: "Chat sans effet"})
	require.NoError(t, err)
	defer cleanupFlowchart(t, created.ID)

	result, err := chatService.Chat(created.ID, user.ID, request.ChatDTO{Message: "ne change rien"})
	require.NoError(t, err)

	assert.Empty(t, result.Applied)
	assert.Empty(t, result.Error)
	assert.Equal(t, 1, result.Flowchart.Version)

	fetched, err := chatService.flowchartService.GetByID(created.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fetched.Version)
}

func TestChat_MalformedPlanIsRejected(t *testing.T) {
	server := stubOllama(t, "je ne suis pas du JSON structuré")
	setupChatTest(t, server.URL)

	chatService := NewChatService()
	user := createTestUser(t)
	defer cleanupUser(t, user.ID)

	created, err := chatService.flowchartService.Create(user.ID, request.CreateFlowchartDTO{Name: "Chat malformé"})
	require.NoError(t, err)
	defer cleanupFlowchart(t, created.ID)

	_, err = chatService.Chat(created.ID, user.ID, request.ChatDTO{Message: "fais quelque chose"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, graph.ErrMalformedPlan))
}

func TestChat_UnknownOperationIsRejected(t *testing.T) {
	server := stubOllama(t, plannerContent(t, "J'invente une opération.", `{"op":"transmute_node","nodeId":"n1"}`))
	setupChatTest(t, server.URL)

	chatService := NewChatService()
	user := createTestUser(t)
	defer cleanupUser(t, user.ID)

	created, err := chatService.flowchartService.Create(user.ID, request.CreateFlowchartDTO{Name: "Chat op inconnue"})
	require.NoError(t, err)
	defer cleanupFlowchart(t, created.ID)

	result, err := chatService.Chat(created.ID, user.ID, request.ChatDTO{Message: "transmute"})
	require.NoError(t, err, "A rejected plan is still a completed chat turn")
	assert.Contains(t, result.Error, "malformed plan")
	assert.Empty(t, result.Applied)
	assert.Equal(t, 1, result.Flowchart.Version)

	fetched, err := chatService.flowchartService.GetByID(created.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fetched.Version)
}

func TestChat_InvalidPlanLeavesDocumentUntouched(t *testing.T) {
	badConnection := `{"op":"add_connection","connection":{"id":"c1","fromNodeId":"ghost","fromPinId":"out","toNodeId":"n1","toPinId":"n1-msg","type":"data"}}`
	server := stubOllama(t, plannerContent(t, "Je connecte deux noeuds.", addPrintNodeOp, badConnection))
	setupChatTest(t, server.URL)

	chatService := NewChatService()
	user := createTestUser(t)
	defer cleanupUser(t, user.ID)

	created, err := chatService.flowchartService.Create(user.ID, request.CreateFlowchartDTO{Name: "Chat plan invalide"})
	require.NoError(t, err)
	defer cleanupFlowchart(t, created.ID)

	result, err := chatService.Chat(created.ID, user.ID, request.ChatDTO{Message: "connecte ghost à n1"})
	require.NoError(t, err, "A rejected plan is still a completed chat turn")
	assert.Contains(t, result.Error, "invalid reference")
	assert.Empty(t, result.Applied)
	assert.Equal(t, 1, result.Flowchart.Version)
	assert.Empty(t, result.Flowchart.Data.Nodes)

	fetched, err := chatService.flowchartService.GetByID(created.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fetched.Version)
	assert.Empty(t, fetched.Data.Nodes)
}

func TestChat_CollaboratorUnavailable(t *testing.T) {
	// Nothing listens on this port
	setupChatTest(t, "http://127.0.0.1:1")

	chatService := NewChatService()
	user := createTestUser(t)
	defer cleanupUser(t, user.ID)

	created, err := chatService.flowchartService.Create(user.ID, request.CreateFlowchartDTO{Name: "Chat hors ligne"})
	require.NoError(t, err)
	defer cleanupFlowchart(t, created.ID)

	_, err = chatService.Chat(created.ID, user.ID, request.ChatDTO{Message: "ajoute un noeud"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, graph.ErrCollaboratorUnavailable))
}

func TestChat_HistoryIsKeptPerUser(t *testing.T) {
	server := stubOllama(t, plannerContent(t, "Rien à faire."))
	setupChatTest(t, server.URL)

	chatService := NewChatService()
	user := createTestUser(t)
	defer cleanupUser(t, user.ID)

	created, err := chatService.flowchartService.Create(user.ID, request.CreateFlowchartDTO{Name: "Chat historique"})
	require.NoError(t, err)
	defer cleanupFlowchart(t, created.ID)

	_, err = chatService.Chat(created.ID, user.ID, request.ChatDTO{Message: "bonjour"})
	require.NoError(t, err)

	history := chatService.loadHistory(created.ID, user.ID)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "bonjour", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)

	require.NoError(t, chatService.ClearHistory(created.ID, user.ID))
	assert.Empty(t, chatService.loadHistory(created.ID, user.ID))
}
