// Package handler exposes post generation and the chat session over API
// Gateway proxy events.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"influencer-agent/internal/domain"
	"influencer-agent/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"

	// maxBodyBytes bounds request bodies accepted from API Gateway.
	maxBodyBytes = 16 << 10
)

type Posts interface {
	GeneratePost(ctx context.Context, in usecase.GenerateInput) (usecase.GenerateOutput, error)
	Post(ctx context.Context, id string) (domain.Post, error)
}

type Session interface {
	Chat(ctx context.Context, input string) string
	Clear()
	Suggestions(ctx context.Context, platform, niche string) string
	SearchRelated(ctx context.Context, query string) string
}

type Handler struct {
	posts   Posts
	session Session
}

func NewHandler(posts Posts, session Session) (*Handler, error) {
	if posts == nil {
		return nil, errors.New("handler: posts service must not be nil")
	}
	if session == nil {
		return nil, errors.New("handler: session must not be nil")
	}
	return &Handler{posts: posts, session: session}, nil
}

type generateRequest struct {
	Niche       string   `json:"niche"`
	Audience    string   `json:"audience"`
	Tone        string   `json:"tone"`
	Platform    string   `json:"platform"`
	SEOKeywords []string `json:"seo_keywords"`
}

type outcomesResponse struct {
	Topic    string `json:"topic"`
	Content  string `json:"content"`
	Hashtags string `json:"hashtags"`
}

type generateResponse struct {
	Post     domain.Post      `json:"post"`
	Outcomes outcomesResponse `json:"outcomes"`
	Degraded bool             `json:"degraded"`
	Saved    bool             `json:"saved"`
	Location string           `json:"location,omitempty"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type replyResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// Handle routes one API Gateway request. Failures are reported in the
// response; the returned error is always nil.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(event.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	log := slog.With("correlation_id", correlationID, "method", event.HTTPMethod, "path", event.Path)

	status, body := h.route(ctx, event)
	if status >= http.StatusInternalServerError {
		log.Error("handler: request failed", "status", status)
	} else {
		log.Info("handler: request served", "status", status)
	}
	return respond(status, correlationID, body), nil
}

func (h *Handler) route(ctx context.Context, event events.APIGatewayProxyRequest) (int, any) {
	path := strings.TrimRight(event.Path, "/")
	method := event.HTTPMethod
	if len(event.Body) > maxBodyBytes {
		return failure(&usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "request_too_large"})
	}

	switch {
	case path == "/posts" && method == http.MethodPost:
		return h.generate(ctx, event.Body)
	case path == "/posts/suggestions" && method == http.MethodGet:
		q := event.QueryStringParameters
		return http.StatusOK, replyResponse{Reply: h.session.Suggestions(ctx, q["platform"], q["niche"])}
	case path == "/posts/search" && method == http.MethodGet:
		query := strings.TrimSpace(event.QueryStringParameters["q"])
		if query == "" {
			return failure(&usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "empty_query"})
		}
		return http.StatusOK, replyResponse{Reply: h.session.SearchRelated(ctx, query)}
	case strings.HasPrefix(path, "/posts/") && method == http.MethodGet:
		id := event.PathParameters["id"]
		if id == "" {
			id = strings.TrimPrefix(path, "/posts/")
		}
		post, err := h.posts.Post(ctx, id)
		if err != nil {
			return failure(err)
		}
		return http.StatusOK, post
	case path == "/chat" && method == http.MethodPost:
		var req chatRequest
		if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
			return failure(&usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "invalid_json", Err: err})
		}
		if strings.TrimSpace(req.Message) == "" {
			return failure(&usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "empty_message"})
		}
		return http.StatusOK, replyResponse{Reply: h.session.Chat(ctx, req.Message)}
	case path == "/chat" && method == http.MethodDelete:
		h.session.Clear()
		return http.StatusNoContent, nil
	default:
		return http.StatusNotFound, errorResponse{Error: string(usecase.ErrorNotFound), Reason: "route_not_found"}
	}
}

func (h *Handler) generate(ctx context.Context, body string) (int, any) {
	var req generateRequest
	if strings.TrimSpace(body) != "" {
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			return failure(&usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "invalid_json", Err: err})
		}
	}
	out, err := h.posts.GeneratePost(ctx, usecase.GenerateInput{
		Niche:       req.Niche,
		Audience:    req.Audience,
		Tone:        req.Tone,
		Platform:    req.Platform,
		SEOKeywords: req.SEOKeywords,
	})
	if err != nil {
		return failure(err)
	}
	status := http.StatusCreated
	if !out.Saved() {
		status = http.StatusOK
	}
	return status, generateResponse{
		Post: out.Post,
		Outcomes: outcomesResponse{
			Topic:    out.Outcomes.Topic.String(),
			Content:  out.Outcomes.Content.String(),
			Hashtags: out.Outcomes.Hashtags.String(),
		},
		Degraded: out.Degraded(),
		Saved:    out.Saved(),
		Location: out.Location,
	}
}

func failure(err error) (int, any) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		slog.Error("handler: unexpected error", "err", err)
		return http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal), Reason: "unexpected_error"}
	}
	if ucErr.Err != nil {
		slog.Warn("handler: usecase error", "code", ucErr.Code, "reason", ucErr.Reason, "err", ucErr.Err)
	}
	return statusFor(ucErr.Code), errorResponse{Error: string(ucErr.Code), Reason: ucErr.Reason}
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorNotFound:
		return http.StatusNotFound
	case usecase.ErrorCancelled:
		return http.StatusServiceUnavailable
	case usecase.ErrorUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respond(status int, correlationID string, body any) events.APIGatewayProxyResponse {
	resp := events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{correlationHeader: correlationID},
	}
	if body == nil {
		return resp
	}
	raw, err := json.Marshal(body)
	if err != nil {
		resp.StatusCode = http.StatusInternalServerError
		raw = []byte(`{"error":"INTERNAL_ERROR","reason":"encode_error"}`)
	}
	resp.Headers["Content-Type"] = "application/json"
	resp.Body = string(raw)
	return resp
}

// headerValue looks up name ignoring case; API Gateway passes headers as sent.
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
