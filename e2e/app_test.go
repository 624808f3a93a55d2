package e2e

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type expense struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Amount     float64 `json:"amount"`
	Date       string  `json:"date"`
	CategoryID *int64  `json:"categoryId"`
	Category   *struct {
		Name string `json:"name"`
	} `json:"category"`
}

type summary struct {
	TotalSpent    float64 `json:"totalSpent"`
	AveragePerDay float64 `json:"averagePerDay"`
	TopCategory   string  `json:"topCategory"`
}

// E2ETestSuite drives the running server through playwright's API request context.
type E2ETestSuite struct {
	suite.Suite
	pw  *playwright.Playwright
	api playwright.APIRequestContext
}

// SetupSuite runs once before all tests
func (suite *E2ETestSuite) SetupSuite() {
	pw, err := playwright.Run(&playwright.RunOptions{SkipInstallBrowsers: true})
	require.NoError(suite.T(), err, "could not launch playwright")
	suite.pw = pw

	api, err := pw.Request.NewContext(playwright.APIRequestNewContextOptions{
		BaseURL: playwright.String(appURL),
	})
	require.NoError(suite.T(), err, "could not create request context")
	suite.api = api
}

// TearDownSuite runs once after all tests
func (suite *E2ETestSuite) TearDownSuite() {
	if suite.api != nil {
		suite.api.Dispose()
	}
	if suite.pw != nil {
		suite.pw.Stop()
	}
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func (suite *E2ETestSuite) login(username, password string) string {
	resp, err := suite.api.Post("/api/auth/login", playwright.APIRequestContextPostOptions{
		Data: map[string]string{"username": username, "password": password},
	})
	require.NoError(suite.T(), err, "login request failed")
	require.Equal(suite.T(), http.StatusOK, resp.Status(), "login as %s", username)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(suite.T(), resp.JSON(&body))
	require.NotEmpty(suite.T(), body.Token)
	return body.Token
}

func (suite *E2ETestSuite) register(username string) {
	resp, err := suite.api.Post("/api/auth/register", playwright.APIRequestContextPostOptions{
		Data: map[string]string{"username": username, "email": username + "@example.com", "password": "pass-" + username},
	})
	require.NoError(suite.T(), err, "register request failed")
	require.Equal(suite.T(), http.StatusOK, resp.Status(), "register %s", username)
}

func (suite *E2ETestSuite) TestAdminBootstrap() {
	token := suite.login(adminUser, adminPassword)

	resp, err := suite.api.Get("/api/auth/me", playwright.APIRequestContextGetOptions{Headers: bearer(token)})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), http.StatusOK, resp.Status())

	var me struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	require.NoError(suite.T(), resp.JSON(&me))
	assert.Equal(suite.T(), adminUser, me.Username)
	assert.Equal(suite.T(), "admin", me.Role)
}

func (suite *E2ETestSuite) TestBadCredentials() {
	resp, err := suite.api.Post("/api/auth/login", playwright.APIRequestContextPostOptions{
		Data: map[string]string{"username": adminUser, "password": "wrong"},
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.Status())

	resp, err = suite.api.Get("/api/expenses")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.Status())
}

func (suite *E2ETestSuite) TestCompleteUserFlow() {
	suite.register("carol")
	token := suite.login("carol", "pass-carol")

	// Create
	var created expense
	for _, in := range []map[string]any{
		{"title": "Groceries", "amount": 20, "date": "2025-01-01", "categoryId": 1},
		{"title": "Lunch", "amount": 10, "date": "2025-01-02", "categoryId": 1},
		{"title": "Bus", "amount": 5, "date": "2025-01-02", "categoryId": 2},
	} {
		resp, err := suite.api.Post("/api/expenses", playwright.APIRequestContextPostOptions{
			Headers: bearer(token),
			Data:    in,
		})
		require.NoError(suite.T(), err)
		require.Equal(suite.T(), http.StatusCreated, resp.Status())
		require.NoError(suite.T(), resp.JSON(&created))
	}
	assert.Equal(suite.T(), "Bus", created.Title)
	require.NotNil(suite.T(), created.Category)
	assert.Equal(suite.T(), "Travel", created.Category.Name)

	// Summary
	resp, err := suite.api.Get("/api/expenses/summary", playwright.APIRequestContextGetOptions{Headers: bearer(token)})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), http.StatusOK, resp.Status())
	var s summary
	require.NoError(suite.T(), resp.JSON(&s))
	assert.Equal(suite.T(), summary{TotalSpent: 35, AveragePerDay: 17.5, TopCategory: "Food"}, s)

	// Update
	path := fmt.Sprintf("/api/expenses/%d", created.ID)
	resp, err = suite.api.Put(path, playwright.APIRequestContextPutOptions{
		Headers: bearer(token),
		Data:    map[string]any{"id": created.ID, "title": "Taxi", "amount": 25, "date": "2025-01-02", "categoryId": 2},
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusNoContent, resp.Status())

	// Filter
	resp, err = suite.api.Get("/api/expenses/filter?categoryId=2&minAmount=20", playwright.APIRequestContextGetOptions{Headers: bearer(token)})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), http.StatusOK, resp.Status())
	var filtered []expense
	require.NoError(suite.T(), resp.JSON(&filtered))
	require.Len(suite.T(), filtered, 1)
	assert.Equal(suite.T(), "Taxi", filtered[0].Title)

	resp, err = suite.api.Get("/api/expenses/filter?minAmount=10&maxAmount=5", playwright.APIRequestContextGetOptions{Headers: bearer(token)})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusBadRequest, resp.Status())

	// Another user cannot touch it
	suite.register("dave")
	other := suite.login("dave", "pass-dave")
	resp, err = suite.api.Delete(path, playwright.APIRequestContextDeleteOptions{Headers: bearer(other)})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusNotFound, resp.Status())

	// Delete
	resp, err = suite.api.Delete(path, playwright.APIRequestContextDeleteOptions{Headers: bearer(token)})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusNoContent, resp.Status())

	resp, err = suite.api.Get("/api/expenses", playwright.APIRequestContextGetOptions{Headers: bearer(token)})
	require.NoError(suite.T(), err)
	var remaining []expense
	require.NoError(suite.T(), resp.JSON(&remaining))
	assert.Len(suite.T(), remaining, 2)

	// Chart data
	resp, err = suite.api.Get("/api/expenses/chart-data", playwright.APIRequestContextGetOptions{Headers: bearer(token)})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), http.StatusOK, resp.Status())
	var chart struct {
		ByCategory []struct {
			Category string  `json:"category"`
			Amount   float64 `json:"amount"`
		} `json:"byCategory"`
		ByMonth []struct {
			Month  string  `json:"month"`
			Amount float64 `json:"amount"`
		} `json:"byMonth"`
	}
	require.NoError(suite.T(), resp.JSON(&chart))
	require.Len(suite.T(), chart.ByCategory, 1)
	assert.Equal(suite.T(), "Food", chart.ByCategory[0].Category)
	assert.Equal(suite.T(), 30.0, chart.ByCategory[0].Amount)
	assert.Len(suite.T(), chart.ByMonth, 6)
}

// TestE2ESuite runs the e2e test suite
func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
