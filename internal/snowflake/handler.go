package snowflake

import (
	"context"
)

// DefaultQuery runs when an invocation omits the sql field.
const DefaultQuery = "SELECT current_version()"

// Event is the Lambda invocation payload.
type Event struct {
	SQL string `json:"sql"`
}

// Response echoes the executed query alongside its rows.
type Response struct {
	Query string  `json:"query"`
	Rows  [][]any `json:"rows"`
}

// Handler implements the query-forwarding contract: resolve credentials
// from the named secret, run the query, return every row.
type Handler struct {
	secrets    SecretsClientInterface
	secretName string
	executor   Executor
}

func NewHandler(secrets SecretsClientInterface, secretName string, executor Executor) *Handler {
	return &Handler{
		secrets:    secrets,
		secretName: secretName,
		executor:   executor,
	}
}

func (h *Handler) Handle(ctx context.Context, event Event) (Response, error) {
	query := event.SQL
	if query == "" {
		query = DefaultQuery
	}

	creds, err := LoadCredentials(ctx, h.secrets, h.secretName)
	if err != nil {
		return Response{}, err
	}

	rows, err := h.executor.Execute(ctx, creds, query)
	if err != nil {
		return Response{}, err
	}

	return Response{Query: query, Rows: rows}, nil
}
