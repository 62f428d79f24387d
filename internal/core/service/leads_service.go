package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/royavalet/valet-site/internal/core/domain"
	"github.com/royavalet/valet-site/internal/core/ports"
	"github.com/royavalet/valet-site/internal/pkg/metrics"
)

const (
	msgContactSent  = "Thank you! Your message has been sent successfully."
	msgSubscribed   = "Successfully subscribed to our newsletter!"
	msgUnsubscribed = "You have been unsubscribed."
	msgSubmitFailed = "Something went wrong. Please try again."

	alreadySubscribed = "already subscribed"
)

// LeadsService submits the public lead-capture forms. None of its calls carry
// a token.
type LeadsService struct {
	client ports.BackendClient
	log    zerolog.Logger
}

func NewLeadsService(client ports.BackendClient, log zerolog.Logger) *LeadsService {
	return &LeadsService{client: client, log: log}
}

func (s *LeadsService) SubmitContact(ctx context.Context, in domain.ContactInput) (ports.SubmissionResult, error) {
	return s.submit(ctx, "contact", ports.EndpointContact, in, msgContactSent)
}

type subscribeRequest struct {
	Email  string `json:"email"`
	Source string `json:"source,omitempty"`
}

func (s *LeadsService) Subscribe(ctx context.Context, email, source string) (ports.SubmissionResult, error) {
	if source == "" {
		source = domain.SourceWebsiteFooter
	}
	res, err := s.submit(ctx, "subscribe", ports.EndpointEmailSubscribe, subscribeRequest{Email: email, Source: source}, msgSubscribed)
	if err != nil {
		return res, err
	}
	if res.Outcome != ports.OutcomeSuccess && strings.Contains(strings.ToLower(res.Message), alreadySubscribed) {
		res.Outcome = ports.OutcomeDuplicate
	}
	return res, nil
}

func (s *LeadsService) Unsubscribe(ctx context.Context, email string) (ports.SubmissionResult, error) {
	return s.submit(ctx, "unsubscribe", ports.EndpointEmailUnsubscribe, subscribeRequest{Email: email}, msgUnsubscribed)
}

func (s *LeadsService) submit(ctx context.Context, form, endpoint string, body any, okMsg string) (ports.SubmissionResult, error) {
	resp, err := s.client.Request(ctx, endpoint, ports.RequestOptions{Method: http.MethodPost, Body: body})
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(form, "error").Inc()
		s.log.Error().Err(err).Str("form", form).Msg("submission failed")
		return ports.SubmissionResult{}, err
	}

	res := classifySubmission(resp, okMsg)
	metrics.SubmissionsTotal.WithLabelValues(form, string(res.Outcome)).Inc()
	s.log.Info().Str("form", form).Str("outcome", string(res.Outcome)).Int("status", resp.Status).Msg("submission handled")
	return res, nil
}

// classifySubmission maps a backend answer onto what the form shows.
func classifySubmission(resp *ports.Response, okMsg string) ports.SubmissionResult {
	if resp.OK() {
		return ports.SubmissionResult{Outcome: ports.OutcomeSuccess, Message: orDefault(resp.Message(), okMsg)}
	}

	res := ports.SubmissionResult{Message: orDefault(resp.Message(), msgSubmitFailed)}
	switch resp.Category() {
	case ports.CategoryUnreachable:
		res.Outcome = ports.OutcomeUnreachable
	case ports.CategoryValidation:
		res.Outcome = ports.OutcomeInvalid
		if len(resp.Envelope.Errors) > 0 {
			res.Fields = make(map[string]string, len(resp.Envelope.Errors))
			for _, fe := range resp.Envelope.Errors {
				if _, seen := res.Fields[fe.Field]; !seen {
					res.Fields[fe.Field] = fe.Message
				}
			}
		}
	case ports.CategoryConflict:
		res.Outcome = ports.OutcomeConflict
	default:
		res.Outcome = ports.OutcomeRejected
	}
	return res
}
