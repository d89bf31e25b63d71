// Package registry provides a client for the building membership registry:
// the system of record for units, their owners and voting delegations.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abrezinsky/ownervote/internal/logger"
)

// FlexString is a string type that can be unmarshaled from either a string or a number.
// The registry returns ownership shares as JSON numbers or as decimal strings
// depending on the building's import source.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler for FlexString
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}

	return fmt.Errorf("FlexString: cannot unmarshal %s", string(data))
}

// String returns the string value
func (f FlexString) String() string {
	return string(f)
}

// Unit is a unit as reported by the registry
type Unit struct {
	ID             string     `json:"id"`
	BuildingID     string     `json:"building_id"`
	Designation    string     `json:"unit_designation"`
	OwnershipShare FlexString `json:"ownership_share"`
}

// Resident links a user to a unit
type Resident struct {
	UnitID       string     `json:"unit_id"`
	UserID       string     `json:"user_id"`
	ResidentType string     `json:"resident_type"`
	MoveInDate   *time.Time `json:"move_in_date"`
	MoveOutDate  *time.Time `json:"move_out_date"`
}

// Delegation is a grant of rights from an owner to a delegate
type Delegation struct {
	ID             string     `json:"id"`
	OwnerUserID    string     `json:"owner_user_id"`
	DelegateUserID string     `json:"delegate_user_id"`
	UnitID         string     `json:"unit_id"`
	Scope          string     `json:"scope"`
	Status         string     `json:"status"`
	ExpiresAt      *time.Time `json:"expires_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// UnitListResponse is the response from the units endpoint
type UnitListResponse struct {
	Units []Unit `json:"units"`
}

// UnitResponse is the response from the single unit endpoint
type UnitResponse struct {
	Unit Unit `json:"unit"`
}

// ResidentListResponse is the response from the residents endpoint
type ResidentListResponse struct {
	Residents []Resident `json:"residents"`
}

// DelegationListResponse is the response from the delegation endpoints
type DelegationListResponse struct {
	Delegations []Delegation `json:"delegations"`
}

// ErrorResponse is the body the registry sends with non-2xx statuses
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// StatusError is returned when the registry answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("registry returned status %d: %s (%s)", e.StatusCode, e.Message, e.Code)
	}
	return fmt.Sprintf("registry returned status %d", e.StatusCode)
}

// IsNotFound reports whether err is a registry 404
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Client defines the interface for registry operations
type Client interface {
	// FetchUnits retrieves all units of a building
	FetchUnits(ctx context.Context, buildingID string) ([]Unit, error)
	// FetchUnit retrieves a single unit
	FetchUnit(ctx context.Context, unitID string) (*Unit, error)
	// FetchResidents retrieves all residency records of a building
	FetchResidents(ctx context.Context, buildingID string) ([]Resident, error)
	// FetchDelegations retrieves all delegations of a building
	FetchDelegations(ctx context.Context, buildingID string) ([]Delegation, error)
	// FetchUserDelegations retrieves the delegations granted to a user
	FetchUserDelegations(ctx context.Context, userID string) ([]Delegation, error)
	// BaseURL returns the configured registry base URL
	BaseURL() string
	// SetBaseURL updates the registry base URL
	SetBaseURL(url string)
	// SetToken configures the bearer token sent with every request
	SetToken(token string)
}

// HTTPClient is a real HTTP client for the registry
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        logger.Logger
}

// NewHTTPClient creates a new registry HTTP client
func NewHTTPClient(baseURL string, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// NewHTTPClientWithHTTPClient creates a new registry client with a custom http.Client
func NewHTTPClientWithHTTPClient(baseURL string, httpClient *http.Client, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

// BaseURL returns the configured registry base URL
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// SetBaseURL updates the registry base URL
func (c *HTTPClient) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// SetToken configures the bearer token sent with every request
func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

// doGet executes a GET against the registry and decodes the JSON body into response
func (c *HTTPClient) doGet(ctx context.Context, path string, response interface{}) error {
	reqURL := c.baseURL + path

	c.log.Debug("Registry request", "method", "GET", "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to registry: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("Registry response", "status", resp.StatusCode, "bytes", len(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode}
		var errResp ErrorResponse
		if json.Unmarshal(body, &errResp) == nil {
			se.Code = errResp.Error.Code
			se.Message = errResp.Error.Message
		}
		return se
	}

	if err := json.Unmarshal(body, response); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// FetchUnits retrieves all units of a building
func (c *HTTPClient) FetchUnits(ctx context.Context, buildingID string) ([]Unit, error) {
	var response UnitListResponse
	if err := c.doGet(ctx, "/buildings/"+url.PathEscape(buildingID)+"/units", &response); err != nil {
		return nil, err
	}
	return response.Units, nil
}

// FetchUnit retrieves a single unit
func (c *HTTPClient) FetchUnit(ctx context.Context, unitID string) (*Unit, error) {
	var response UnitResponse
	if err := c.doGet(ctx, "/units/"+url.PathEscape(unitID), &response); err != nil {
		return nil, err
	}
	return &response.Unit, nil
}

// FetchResidents retrieves all residency records of a building
func (c *HTTPClient) FetchResidents(ctx context.Context, buildingID string) ([]Resident, error) {
	var response ResidentListResponse
	if err := c.doGet(ctx, "/buildings/"+url.PathEscape(buildingID)+"/residents", &response); err != nil {
		return nil, err
	}
	return response.Residents, nil
}

// FetchDelegations retrieves all delegations of a building
func (c *HTTPClient) FetchDelegations(ctx context.Context, buildingID string) ([]Delegation, error) {
	var response DelegationListResponse
	if err := c.doGet(ctx, "/buildings/"+url.PathEscape(buildingID)+"/delegations", &response); err != nil {
		return nil, err
	}
	return response.Delegations, nil
}

// FetchUserDelegations retrieves the delegations granted to a user
func (c *HTTPClient) FetchUserDelegations(ctx context.Context, userID string) ([]Delegation, error) {
	var response DelegationListResponse
	if err := c.doGet(ctx, "/users/"+url.PathEscape(userID)+"/delegations", &response); err != nil {
		return nil, err
	}
	return response.Delegations, nil
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)
