package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"recipe-importer/internal/core/ai/provider"
	"recipe-importer/internal/infrastructure/config"
	"recipe-importer/internal/pkg/common"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"
)

const anthropicVersion = "bedrock-2023-05-31"

// Invoker bedrockruntime.Client 中用到的方法
type Invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client 以 AWS Bedrock (Claude) 作為 AI 提供者
type Client struct {
	invoker   Invoker
	modelID   string
	maxTokens int
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type invokeRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	System           string    `json:"system,omitempty"`
	Messages         []message `json:"messages"`
	Temperature      float64   `json:"temperature,omitempty"`
}

type invokeResponse struct {
	Content []contentBlock `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewClient 以預設 AWS 憑證鏈建立 Bedrock 客戶端
func NewClient(ctx context.Context, cfg config.BedrockConfig) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	common.LogInfo("Bedrock client initialized",
		zap.String("model", cfg.ModelID),
		zap.String("region", cfg.Region),
	)
	return NewWithInvoker(bedrockruntime.NewFromConfig(awsCfg), cfg.ModelID, cfg.MaxTokens), nil
}

// NewWithInvoker 使用既有的 Invoker 建立客戶端
func NewWithInvoker(invoker Invoker, modelID string, maxTokens int) *Client {
	if maxTokens <= 0 {
		maxTokens = 400
	}
	return &Client{invoker: invoker, modelID: modelID, maxTokens: maxTokens}
}

// Model 回傳模型 ID
func (c *Client) Model() string {
	return c.modelID
}

// Generate 呼叫 InvokeModel 並合併回傳的文字區塊
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	body := invokeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        req.MaxTokens,
		System:           req.System,
		Temperature:      req.Temperature,
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = c.maxTokens
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, message{
			Role:    m.Role,
			Content: []contentBlock{{Type: "text", Text: m.Content}},
		})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	out, err := c.invoker.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, fmt.Errorf("Bedrock API error: %w", err)
	}

	var resp invokeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse Bedrock response: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	content := strings.TrimSpace(sb.String())
	if content == "" {
		return nil, fmt.Errorf("empty content in Bedrock response")
	}

	return &provider.Response{
		Content: content,
		Model:   c.modelID,
		Usage: provider.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}

// Close Bedrock 客戶端不持有需要釋放的資源
func (c *Client) Close() error {
	return nil
}

var _ provider.Provider = (*Client)(nil)
