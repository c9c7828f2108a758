package mcpclient

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"

	"github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/agentcore"
	apperrors "github.com/oluseyia/agentcore-deployer/internal/errors"
)

// signingService is the service name the gateway expects in the SigV4
// credential scope.
const signingService = "bedrock-agentcore"

const protocolVersion = "2024-11-05"

// GatewayURL builds the MCP endpoint for a gateway id in a region.
func GatewayURL(gatewayID, region string) string {
	return fmt.Sprintf("https://%s.gateway.bedrock-agentcore.%s.amazonaws.com/mcp", gatewayID, region)
}

// Client speaks MCP JSON-RPC to an AgentCore gateway, authenticating every
// request with SigV4 request signing. No static API key is involved.
type Client struct {
	httpClient  *http.Client
	signer      *v4.Signer
	credentials aws.CredentialsProvider
	endpoint    string
	region      string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithEndpoint overrides the gateway URL, for tests.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

func New(gatewayID, region string, credentials aws.CredentialsProvider, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		signer:      v4.NewSigner(),
		credentials: credentials,
		endpoint:    GatewayURL(gatewayID, region),
		region:      region,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      any    `json:"id"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// Initialize opens the MCP session. Gateways require it before tools/call.
func (c *Client) Initialize(ctx context.Context) (json.RawMessage, error) {
	params := map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    "agentcore-deployer",
			"version": "1.0.0",
		},
	}
	return c.call(ctx, "initialize", params, 0)
}

// ListTools lists the tools the gateway exposes across its targets.
func (c *Client) ListTools(ctx context.Context) (json.RawMessage, error) {
	return c.call(ctx, "tools/list", map[string]any{}, "list-tools")
}

// ExecuteQuery calls the Snowflake query tool on the named target. The
// gateway prefixes tool names with the target name.
func (c *Client) ExecuteQuery(ctx context.Context, targetName, sqlText string) (json.RawMessage, error) {
	params := map[string]any{
		"name": fmt.Sprintf("%s___%s", targetName, agentcore.ToolName),
		"arguments": map[string]any{
			"sql": sqlText,
		},
	}
	return c.call(ctx, "tools/call", params, 1)
}

func (c *Client) call(ctx context.Context, method string, params any, id any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: id})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to encode MCP request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to build MCP request")
	}
	req.Header.Set("Content-Type", "application/json")

	creds, err := c.credentials.Retrieve(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAuthError, "failed to resolve AWS credentials for request signing")
	}

	payloadHash := sha256.Sum256(body)
	if err := c.signer.SignHTTP(ctx, creds, req, hex.EncodeToString(payloadHash[:]), signingService, c.region, time.Now()); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAuthError, "failed to sign MCP request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodePlatformAPIError, "MCP call '%s' failed", method)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAPIError, "failed to read MCP response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Newf(apperrors.CodePlatformAPIError, "MCP call '%s' returned status %d: %s", method, resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAPIError, "failed to decode MCP response")
	}
	if rpcResp.Error != nil {
		return nil, apperrors.Wrapf(rpcResp.Error, apperrors.CodePlatformAPIError, "MCP call '%s' returned an error", method)
	}

	return rpcResp.Result, nil
}
