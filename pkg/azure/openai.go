package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured エンドポイントまたはAPIキーが未設定
var ErrNotConfigured = errors.New("azure openai client is not configured")

const narrativeSystemPrompt = "You are a retail business analyst. Answer with plain prose, no markdown, no lists, at most two sentences. Never invent numbers that are not in the request."

// OpenAIClient はAzure OpenAI REST APIへのリクエストを管理します。
// endpoint にはAzure OpenAIのエンドポイント、またはリクエストを転送するプロキシのURLを設定します。
type OpenAIClient struct {
	endpoint       string
	apiKey         string
	apiVersion     string
	deploymentName string
	httpClient     *http.Client
}

// NewOpenAIClient は新しいAzure OpenAIクライアントを作成します。
// 呼び出しごとの期限はコンテキストで制御するため、timeout は接続全体の上限です。
func NewOpenAIClient(endpoint, apiKey, apiVersion, deploymentName string, timeout time.Duration) *OpenAIClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClient{
		endpoint:       strings.TrimSuffix(endpoint, "/"),
		apiKey:         apiKey,
		apiVersion:     apiVersion,
		deploymentName: deploymentName,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

// Configured はリクエストに必要な設定が揃っているかを返します。
func (c *OpenAIClient) Configured() bool {
	return c != nil && c.endpoint != "" && c.apiKey != "" && c.deploymentName != ""
}

// ChatMessage チャットメッセージ
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest チャット補完リクエスト
type ChatCompletionRequest struct {
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
	TopP        float32       `json:"top_p,omitempty"`
}

// ChatCompletionResponse チャット補完レスポンス（ナラティブ生成に使う項目のみ）
type ChatCompletionResponse struct {
	Choices []ChatChoice `json:"choices"`
}

// ChatChoice 補完候補
type ChatChoice struct {
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// Text 最初の候補の本文（前後の空白を除く）
func (r *ChatCompletionResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Choices[0].Message.Content)
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ChatCompletion チャット補完を実行
func (c *OpenAIClient) ChatCompletion(ctx context.Context, messages []ChatMessage, maxTokens int, temperature float32) (*ChatCompletionResponse, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, c.deploymentName, c.apiVersion)

	request := ChatCompletionRequest{
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        0.95,
	}

	var response ChatCompletionResponse
	if err := c.doRequest(ctx, url, request, &response); err != nil {
		return nil, fmt.Errorf("azure openai chat completion: %w", err)
	}
	return &response, nil
}

// GenerateNarrative 数値結果に添える短い説明文を生成します。
func (c *OpenAIClient) GenerateNarrative(ctx context.Context, prompt string) (string, error) {
	messages := []ChatMessage{
		{Role: "system", Content: narrativeSystemPrompt},
		{Role: "user", Content: prompt},
	}

	response, err := c.ChatCompletion(ctx, messages, 200, 0.4)
	if err != nil {
		return "", err
	}
	text := response.Text()
	if text == "" {
		return "", fmt.Errorf("empty completion from deployment %s", c.deploymentName)
	}
	return text, nil
}

// doRequest JSONをPOSTし、200以外はAPIのエラーメッセージ付きで返す
func (c *OpenAIClient) doRequest(ctx context.Context, url string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("status %d (%s): %s", resp.StatusCode, apiErr.Error.Code, apiErr.Error.Message)
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
