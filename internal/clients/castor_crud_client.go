package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/udistrital/marketplace_mid/helpers"
	"github.com/udistrital/marketplace_mid/models"
	rootservices "github.com/udistrital/marketplace_mid/services"
)

const (
	postingResource      = "posting"
	proposalResource     = "proposal"
	deliverableResource  = "deliverable"
	statusChangeResource = "status_change"
)

// CastorCRUDClient implementa EntityStore contra el servicio CRUD.
// Las actualizaciones condicionales viajan en el header If-Match con la revisión esperada;
// el CRUD responde 409 o 412 cuando la revisión no coincide.
type CastorCRUDClient struct {
	baseURL string
	token   string
	timeout time.Duration
}

var _ EntityStore = (*CastorCRUDClient)(nil)

// NewCastorCRUD construye el cliente a partir de la configuración del MID.
func NewCastorCRUD(cfg rootservices.Config) *CastorCRUDClient {
	return &CastorCRUDClient{
		baseURL: cfg.CastorCRUDBaseURL,
		token:   cfg.OASBearerToken,
		timeout: cfg.RequestTimeout,
	}
}

func (c *CastorCRUDClient) GetPosting(ctx context.Context, id string) (*models.Posting, error) {
	var out models.Posting
	if err := c.get(ctx, postingResource, id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CastorCRUDClient) CreatePosting(ctx context.Context, p *models.Posting) (*models.Posting, error) {
	var out models.Posting
	if err := c.create(ctx, postingResource, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CastorCRUDClient) UpdatePosting(ctx context.Context, p *models.Posting, expectedRevision int64) (*models.Posting, error) {
	var out models.Posting
	body := *p
	body.Revision = expectedRevision
	if err := c.update(ctx, postingResource, p.Id, expectedRevision, &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CastorCRUDClient) GetProposal(ctx context.Context, id string) (*models.Proposal, error) {
	var out models.Proposal
	if err := c.get(ctx, proposalResource, id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CastorCRUDClient) CreateProposal(ctx context.Context, p *models.Proposal) (*models.Proposal, error) {
	var out models.Proposal
	if err := c.create(ctx, proposalResource, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CastorCRUDClient) UpdateProposal(ctx context.Context, p *models.Proposal, expectedRevision int64) (*models.Proposal, error) {
	var out models.Proposal
	body := *p
	body.Revision = expectedRevision
	if err := c.update(ctx, proposalResource, p.Id, expectedRevision, &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CastorCRUDClient) ListProposals(ctx context.Context, filter ProposalFilter) ([]models.Proposal, error) {
	filters := map[string]string{
		"PostingId": filter.PostingId,
		"WorkerId":  filter.WorkerId,
		"Status":    string(filter.Status),
		"sortby":    "CreatedAt",
		"order":     "asc",
	}
	var out []models.Proposal
	if err := c.list(ctx, proposalResource, filters, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CastorCRUDClient) GetDeliverable(ctx context.Context, id string) (*models.Deliverable, error) {
	var out models.Deliverable
	if err := c.get(ctx, deliverableResource, id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CastorCRUDClient) CreateDeliverable(ctx context.Context, d *models.Deliverable) (*models.Deliverable, error) {
	var out models.Deliverable
	if err := c.create(ctx, deliverableResource, d, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CastorCRUDClient) UpdateDeliverable(ctx context.Context, d *models.Deliverable, expectedRevision int64) (*models.Deliverable, error) {
	var out models.Deliverable
	body := *d
	body.Revision = expectedRevision
	if err := c.update(ctx, deliverableResource, d.Id, expectedRevision, &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CastorCRUDClient) DeleteDeliverable(ctx context.Context, id string, expectedRevision int64) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	endpoint := rootservices.BuildURL(c.baseURL, deliverableResource, url.PathEscape(id))
	headers := c.headers()
	headers["If-Match"] = strconv.FormatInt(expectedRevision, 10)
	err := helpers.DoJSONContext(ctx, http.MethodDelete, endpoint, headers, nil, nil, c.timeout, true)
	return mapCrudError(err)
}

func (c *CastorCRUDClient) ListDeliverables(ctx context.Context, postingID string) ([]models.Deliverable, error) {
	filters := map[string]string{
		"PostingId": postingID,
		"sortby":    "Version",
		"order":     "asc",
	}
	var out []models.Deliverable
	if err := c.list(ctx, deliverableResource, filters, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CastorCRUDClient) MaxDeliverableVersion(ctx context.Context, postingID string) (int, bool, error) {
	filters := map[string]string{
		"PostingId": postingID,
		"sortby":    "Version",
		"order":     "desc",
		"limit":     "1",
		"fields":    "Id,Version",
	}
	var out []models.Deliverable
	if err := c.list(ctx, deliverableResource, filters, &out); err != nil {
		return 0, false, err
	}
	if len(out) == 0 {
		return 0, false, nil
	}
	return out[0].Version, true, nil
}

func (c *CastorCRUDClient) AddStatusChange(ctx context.Context, change *models.StatusChange) error {
	var created map[string]interface{}
	return c.create(ctx, statusChangeResource, change, &created)
}

func (c *CastorCRUDClient) ListStatusChanges(ctx context.Context, postingID string) ([]models.StatusChange, error) {
	filters := map[string]string{
		"PostingId": postingID,
		"sortby":    "At",
		"order":     "asc",
	}
	var out []models.StatusChange
	if err := c.list(ctx, statusChangeResource, filters, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CastorCRUDClient) get(ctx context.Context, resource, id string, out interface{}) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	endpoint := rootservices.BuildURL(c.baseURL, resource, url.PathEscape(id))
	err := helpers.DoJSONContext(ctx, http.MethodGet, endpoint, c.headers(), nil, out, c.timeout, true)
	return mapCrudError(err)
}

func (c *CastorCRUDClient) create(ctx context.Context, resource string, in, out interface{}) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	endpoint := rootservices.BuildURL(c.baseURL, resource)
	err := helpers.DoJSONContext(ctx, http.MethodPost, endpoint, c.headers(), in, out, c.timeout, true)
	return mapCrudError(err)
}

func (c *CastorCRUDClient) update(ctx context.Context, resource, id string, expectedRevision int64, in, out interface{}) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	endpoint := rootservices.BuildURL(c.baseURL, resource, url.PathEscape(id))
	headers := c.headers()
	headers["If-Match"] = strconv.FormatInt(expectedRevision, 10)
	err := helpers.DoJSONContext(ctx, http.MethodPut, endpoint, headers, in, out, c.timeout, true)
	return mapCrudError(err)
}

func (c *CastorCRUDClient) list(ctx context.Context, resource string, filters map[string]string, out interface{}) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	endpoint := rootservices.BuildURL(c.baseURL, resource)
	if encoded := buildCrudFilters(filters).Encode(); encoded != "" {
		endpoint = endpoint + "?" + encoded
	}
	err := helpers.DoJSONContext(ctx, http.MethodGet, endpoint, c.headers(), nil, out, c.timeout, true)
	if helpers.IsHTTPError(err, http.StatusNotFound) {
		return nil
	}
	return mapCrudError(err)
}

func (c *CastorCRUDClient) headers() map[string]string {
	return rootservices.AddBearer(map[string]string{"Accept": "application/json"}, c.token)
}

// buildCrudFilters arma la query estilo CRUD: query=Campo:valor,... más limit/sortby/order/fields.
func buildCrudFilters(filters map[string]string) url.Values {
	values := url.Values{}
	if _, ok := filters["limit"]; !ok {
		values.Set("limit", "0")
	}

	var queryParts []string
	for key, value := range filters {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "limit", "offset", "fields", "sortby", "order":
			values.Set(key, trimmed)
			continue
		}
		queryParts = append(queryParts, fmt.Sprintf("%s:%s", key, trimmed))
	}
	if len(queryParts) > 0 {
		sort.Strings(queryParts)
		values.Set("query", strings.Join(queryParts, ","))
	}
	return values
}

func mapCrudError(err error) error {
	switch {
	case err == nil:
		return nil
	case helpers.IsHTTPError(err, http.StatusNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case helpers.IsHTTPError(err, http.StatusPreconditionFailed):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case helpers.IsHTTPError(err, http.StatusConflict):
		if strings.Contains(strings.ToLower(err.Error()), "duplic") {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return err
	}
}
