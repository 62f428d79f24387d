package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/royavalet/valet-site/internal/core/domain"
	"github.com/royavalet/valet-site/internal/core/ports"
	"github.com/royavalet/valet-site/internal/pkg/metrics"
)

const (
	msgLeadDeleted         = "Contact has been deleted successfully."
	msgSubscriptionDeleted = "Email subscription has been deleted successfully."
)

// RecordsService reads and deletes leads and subscriptions for the admin
// console. Every call is authenticated with the token of the session in ctx.
type RecordsService struct {
	client   ports.BackendClient
	pageSize int
	log      zerolog.Logger
}

func NewRecordsService(client ports.BackendClient, pageSize int, log zerolog.Logger) *RecordsService {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &RecordsService{client: client, pageSize: pageSize, log: log}
}

func (s *RecordsService) PageSize() int { return s.pageSize }

func (s *RecordsService) ListLeads(ctx context.Context, page int) (domain.Page[domain.Lead], error) {
	return listPage[domain.Lead](ctx, s.client, ports.Paged(ports.EndpointContact, normalizePage(page), s.pageSize))
}

func (s *RecordsService) ListSubscriptions(ctx context.Context, page int) (domain.Page[domain.Subscription], error) {
	return listPage[domain.Subscription](ctx, s.client, ports.Paged(ports.EndpointEmailSubscriptions, normalizePage(page), s.pageSize))
}

func (s *RecordsService) DeleteLead(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", domain.ErrRecordNotFound
	}
	return s.delete(ctx, "lead", ports.ContactByID(id), msgLeadDeleted)
}

func (s *RecordsService) DeleteSubscription(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", domain.ErrRecordNotFound
	}
	return s.delete(ctx, "subscription", ports.EmailSubscriptionByID(id), msgSubscriptionDeleted)
}

func (s *RecordsService) delete(ctx context.Context, kind, endpoint, okMsg string) (string, error) {
	resp, err := s.client.Request(ctx, endpoint, ports.RequestOptions{Method: http.MethodDelete, IncludeAuth: true})
	if err != nil {
		metrics.RecordDeletionsTotal.WithLabelValues(kind, "failed").Inc()
		return "", err
	}
	if err := resp.Err(); err != nil {
		metrics.RecordDeletionsTotal.WithLabelValues(kind, "failed").Inc()
		return "", err
	}
	metrics.RecordDeletionsTotal.WithLabelValues(kind, "deleted").Inc()
	s.log.Info().Str("kind", kind).Str("endpoint", metrics.EndpointLabel(endpoint)).Msg("record deleted")
	return orDefault(resp.Message(), okMsg), nil
}

type overviewData struct {
	Contacts struct {
		Total   int `json:"total"`
		Pending int `json:"pending"`
	} `json:"contacts"`
	Emails struct {
		Total int `json:"total"`
	} `json:"emails"`
	Users struct {
		Total int `json:"total"`
	} `json:"users"`
}

func (s *RecordsService) Overview(ctx context.Context) (domain.Overview, error) {
	resp, err := s.client.Request(ctx, ports.EndpointDashboardOverview, ports.RequestOptions{IncludeAuth: true})
	if err != nil {
		return domain.Overview{}, err
	}
	if err := resp.Err(); err != nil {
		return domain.Overview{}, err
	}
	var d overviewData
	if err := resp.Decode(&d); err != nil {
		return domain.Overview{}, fmt.Errorf("dashboard overview: %w", err)
	}
	return domain.Overview{
		TotalContacts:   d.Contacts.Total,
		PendingContacts: d.Contacts.Pending,
		TotalEmails:     d.Emails.Total,
		TotalUsers:      d.Users.Total,
	}, nil
}

func listPage[T any](ctx context.Context, client ports.BackendClient, endpoint string) (domain.Page[T], error) {
	resp, err := client.Request(ctx, endpoint, ports.RequestOptions{IncludeAuth: true})
	if err != nil {
		return domain.Page[T]{}, err
	}
	if err := resp.Err(); err != nil {
		return domain.Page[T]{}, err
	}

	var items []T
	if len(resp.Envelope.Data) > 0 && string(resp.Envelope.Data) != "null" {
		if err := resp.Decode(&items); err != nil {
			return domain.Page[T]{}, fmt.Errorf("list %s: %w", metrics.EndpointLabel(endpoint), err)
		}
	}

	page := domain.Page[T]{Items: items, CurrentPage: 1, TotalPages: 1, TotalCount: len(items)}
	if p := resp.Envelope.Pagination; p != nil {
		page.CurrentPage = max(p.Current, 1)
		page.TotalPages = max(p.Pages, 0)
		page.TotalCount = max(p.Total, 0)
	}
	return page, nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
