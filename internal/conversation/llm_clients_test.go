package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assistaura/leadchat/pkg/logging"
)

type mockConverse struct {
	input *bedrockruntime.ConverseInput
	out   *bedrockruntime.ConverseOutput
	err   error
}

func (m *mockConverse) Converse(ctx context.Context, params *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	m.input = params
	return m.out, m.err
}

func converseText(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: text}},
		}},
		StopReason: brtypes.StopReasonEndTurn,
		Usage: &brtypes.TokenUsage{
			InputTokens:  aws.Int32(120),
			OutputTokens: aws.Int32(30),
			TotalTokens:  aws.Int32(150),
		},
	}
}

func TestBedrockLLMClient_Complete(t *testing.T) {
	api := &mockConverse{out: converseText("We design logos.")}
	client := NewBedrockLLMClient(api, "anthropic.claude-3-haiku")

	resp, err := client.Complete(context.Background(), LLMRequest{
		System:      []string{"be brief", "  "},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: "prompt body"}},
		MaxTokens:   256,
		Temperature: 0.5,
	})
	require.NoError(t, err)

	assert.Equal(t, "We design logos.", resp.Text)
	assert.Equal(t, "bedrock", resp.Provider)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, int32(150), resp.Usage.TotalTokens)

	require.NotNil(t, api.input)
	assert.Equal(t, "anthropic.claude-3-haiku", aws.ToString(api.input.ModelId))
	require.Len(t, api.input.System, 1)
	require.Len(t, api.input.Messages, 1)
	assert.Equal(t, brtypes.ConversationRoleUser, api.input.Messages[0].Role)
	require.NotNil(t, api.input.InferenceConfig)
	assert.Equal(t, int32(256), aws.ToInt32(api.input.InferenceConfig.MaxTokens))
	assert.InDelta(t, 0.5, aws.ToFloat32(api.input.InferenceConfig.Temperature), 0.001)
}

func TestBedrockLLMClient_Errors(t *testing.T) {
	t.Run("missing model", func(t *testing.T) {
		client := NewBedrockLLMClient(&mockConverse{}, "")
		_, err := client.Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: ChatRoleUser, Content: "x"}}})
		assert.Error(t, err)
	})
	t.Run("unsupported role", func(t *testing.T) {
		client := NewBedrockLLMClient(&mockConverse{}, "m")
		_, err := client.Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: "tool", Content: "x"}}})
		assert.ErrorContains(t, err, "unsupported role")
	})
	t.Run("api error", func(t *testing.T) {
		client := NewBedrockLLMClient(&mockConverse{err: errors.New("throttled")}, "m")
		_, err := client.Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: ChatRoleUser, Content: "x"}}})
		assert.ErrorContains(t, err, "throttled")
	})
	t.Run("no text blocks", func(t *testing.T) {
		client := NewBedrockLLMClient(&mockConverse{out: converseText("  ")}, "m")
		_, err := client.Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: ChatRoleUser, Content: "x"}}})
		assert.Error(t, err)
	})
}

type namedLLM struct {
	name  string
	err   error
	calls int
}

func (n *namedLLM) Complete(context.Context, LLMRequest) (LLMResponse, error) {
	n.calls++
	if n.err != nil {
		return LLMResponse{}, n.err
	}
	return LLMResponse{Text: "from " + n.name, Provider: n.name}, nil
}

func TestFallbackLLMClient(t *testing.T) {
	logger := logging.New("error")

	t.Run("primary succeeds", func(t *testing.T) {
		primary, secondary := &namedLLM{name: "gemini"}, &namedLLM{name: "bedrock"}
		resp, err := NewFallbackLLMClient(primary, secondary, logger).Complete(context.Background(), LLMRequest{})
		require.NoError(t, err)
		assert.Equal(t, "gemini", resp.Provider)
		assert.Zero(t, secondary.calls)
	})
	t.Run("falls back", func(t *testing.T) {
		primary, secondary := &namedLLM{name: "gemini", err: errors.New("quota")}, &namedLLM{name: "bedrock"}
		resp, err := NewFallbackLLMClient(primary, secondary, logger).Complete(context.Background(), LLMRequest{})
		require.NoError(t, err)
		assert.Equal(t, "bedrock", resp.Provider)
	})
	t.Run("both fail", func(t *testing.T) {
		primary := &namedLLM{name: "gemini", err: errors.New("quota")}
		secondary := &namedLLM{name: "bedrock", err: errors.New("denied")}
		_, err := NewFallbackLLMClient(primary, secondary, logger).Complete(context.Background(), LLMRequest{})
		assert.ErrorContains(t, err, "denied")
	})
	t.Run("no fallback", func(t *testing.T) {
		primary := &namedLLM{name: "gemini", err: errors.New("quota")}
		_, err := NewFallbackLLMClient(primary, nil, logger).Complete(context.Background(), LLMRequest{})
		assert.ErrorContains(t, err, "quota")
	})
	t.Run("expired context skips fallback", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		primary := &namedLLM{name: "gemini", err: context.Canceled}
		secondary := &namedLLM{name: "bedrock"}
		_, err := NewFallbackLLMClient(primary, secondary, logger).Complete(ctx, LLMRequest{})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, secondary.calls)
	})
}

type stubGeminiModel struct {
	parts []genai.Part
	resp  *genai.GenerateContentResponse
	err   error
}

func (s *stubGeminiModel) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	s.parts = parts
	return s.resp, s.err
}

func TestGeminiLLMClient_Complete(t *testing.T) {
	model := &stubGeminiModel{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Role: "model", Parts: []genai.Part{genai.Text("Hello "), genai.Text("there")}},
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 10, CandidatesTokenCount: 2, TotalTokenCount: 12},
	}}
	var (
		gotReq    LLMRequest
		gotSystem []string
	)
	client := &GeminiLLMClient{modelID: defaultGeminiModel, newModel: func(req LLMRequest, system []string) geminiModel {
		gotReq, gotSystem = req, system
		return model
	}}

	resp, err := client.Complete(context.Background(), LLMRequest{
		Model:    "gemini-2.5-pro",
		Messages: []ChatMessage{{Role: ChatRoleSystem, Content: " be brief "}, {Role: ChatRoleUser, Content: "prompt"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", resp.Text)
	assert.Equal(t, "gemini", resp.Provider)
	assert.Equal(t, int32(12), resp.Usage.TotalTokens)
	assert.Equal(t, []genai.Part{genai.Text("prompt")}, model.parts)
	assert.Equal(t, "gemini-2.5-pro", gotReq.Model)
	assert.Equal(t, []string{"be brief"}, gotSystem)
}

func TestGeminiLLMClient_Errors(t *testing.T) {
	client := &GeminiLLMClient{newModel: func(LLMRequest, []string) geminiModel {
		return &stubGeminiModel{resp: &genai.GenerateContentResponse{}}
	}}
	_, err := client.Complete(context.Background(), LLMRequest{})
	assert.ErrorContains(t, err, "at least one message")

	_, err = client.Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: ChatRoleUser, Content: "x"}}})
	assert.ErrorContains(t, err, "no candidates")

	client.newModel = func(LLMRequest, []string) geminiModel { return &stubGeminiModel{err: errors.New("429")} }
	_, err = client.Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: ChatRoleUser, Content: "x"}}})
	assert.ErrorContains(t, err, "429")
}

func TestNewGeminiLLMClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiLLMClient(context.Background(), " ", "")
	assert.Error(t, err)
}
