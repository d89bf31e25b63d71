package registry

import (
	"context"
	"net/http"
	"time"
)

// MockClient is a mock registry client for testing
type MockClient struct {
	units          []Unit
	residents      []Resident
	delegations    []Delegation
	baseURL        string
	token          string
	unitsErr       error
	residentsErr   error
	delegationsErr error
	calls          int
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithUnits sets the units to return
func WithUnits(units []Unit) MockOption {
	return func(m *MockClient) {
		m.units = units
	}
}

// WithResidents sets the residents to return
func WithResidents(residents []Resident) MockOption {
	return func(m *MockClient) {
		m.residents = residents
	}
}

// WithDelegations sets the delegations to return
func WithDelegations(delegations []Delegation) MockOption {
	return func(m *MockClient) {
		m.delegations = delegations
	}
}

// WithUnitsError sets an error to return from FetchUnits and FetchUnit
func WithUnitsError(err error) MockOption {
	return func(m *MockClient) {
		m.unitsErr = err
	}
}

// WithResidentsError sets an error to return from FetchResidents
func WithResidentsError(err error) MockOption {
	return func(m *MockClient) {
		m.residentsErr = err
	}
}

// WithDelegationsError sets an error to return from the delegation fetches
func WithDelegationsError(err error) MockOption {
	return func(m *MockClient) {
		m.delegationsErr = err
	}
}

// WithBaseURL sets the base URL
func WithBaseURL(url string) MockOption {
	return func(m *MockClient) {
		m.baseURL = url
	}
}

// NewMockClient creates a new mock registry client with no data
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{
		baseURL: "http://mock-registry.local",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BaseURL returns the configured base URL
func (m *MockClient) BaseURL() string {
	return m.baseURL
}

// SetBaseURL updates the base URL
func (m *MockClient) SetBaseURL(url string) {
	m.baseURL = url
}

// SetToken records the token
func (m *MockClient) SetToken(token string) {
	m.token = token
}

// Token returns the last token set (for testing)
func (m *MockClient) Token() string {
	return m.token
}

// Calls returns how many fetches were made (for testing)
func (m *MockClient) Calls() int {
	return m.calls
}

// FetchUnits returns the configured units of the building
func (m *MockClient) FetchUnits(ctx context.Context, buildingID string) ([]Unit, error) {
	m.calls++
	if m.unitsErr != nil {
		return nil, m.unitsErr
	}
	var out []Unit
	for _, u := range m.units {
		if u.BuildingID == buildingID {
			out = append(out, u)
		}
	}
	return out, nil
}

// FetchUnit returns the configured unit or a 404 StatusError
func (m *MockClient) FetchUnit(ctx context.Context, unitID string) (*Unit, error) {
	m.calls++
	if m.unitsErr != nil {
		return nil, m.unitsErr
	}
	for _, u := range m.units {
		if u.ID == unitID {
			unit := u
			return &unit, nil
		}
	}
	return nil, &StatusError{StatusCode: http.StatusNotFound, Code: "not_found", Message: "unit not found"}
}

// FetchResidents returns the residents of the building's configured units
func (m *MockClient) FetchResidents(ctx context.Context, buildingID string) ([]Resident, error) {
	m.calls++
	if m.residentsErr != nil {
		return nil, m.residentsErr
	}
	inBuilding := m.unitSet(buildingID)
	var out []Resident
	for _, r := range m.residents {
		if inBuilding[r.UnitID] {
			out = append(out, r)
		}
	}
	return out, nil
}

// FetchDelegations returns the delegations on the building's configured units
func (m *MockClient) FetchDelegations(ctx context.Context, buildingID string) ([]Delegation, error) {
	m.calls++
	if m.delegationsErr != nil {
		return nil, m.delegationsErr
	}
	inBuilding := m.unitSet(buildingID)
	var out []Delegation
	for _, d := range m.delegations {
		if inBuilding[d.UnitID] {
			out = append(out, d)
		}
	}
	return out, nil
}

// FetchUserDelegations returns the delegations granted to the user
func (m *MockClient) FetchUserDelegations(ctx context.Context, userID string) ([]Delegation, error) {
	m.calls++
	if m.delegationsErr != nil {
		return nil, m.delegationsErr
	}
	var out []Delegation
	for _, d := range m.delegations {
		if d.DelegateUserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MockClient) unitSet(buildingID string) map[string]bool {
	set := make(map[string]bool)
	for _, u := range m.units {
		if u.BuildingID == buildingID {
			set[u.ID] = true
		}
	}
	return set
}

// MoveIn is a convenience for building owner Resident fixtures
func MoveIn(unitID, userID string) Resident {
	in := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return Resident{UnitID: unitID, UserID: userID, ResidentType: "owner", MoveInDate: &in}
}

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)
