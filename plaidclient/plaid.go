package plaidclient

import (
	"context"
	"fmt"

	"income-bridge/api/config"
	"income-bridge/api/logger"

	"github.com/plaid/plaid-go/v20/plaid"
	"go.uber.org/zap"
)

// PlaidClient implements Client against the Plaid API.
type PlaidClient struct {
	api *plaid.APIClient
	cfg *config.Config
}

func New(cfg *config.Config) *PlaidClient {
	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.PlaidClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.PlaidSecret)
	configuration.UseEnvironment(Environment(cfg.PlaidEnv))

	return &PlaidClient{
		api: plaid.NewAPIClient(configuration),
		cfg: cfg,
	}
}

// Environment maps the configured environment name to a Plaid base path.
func Environment(name string) plaid.Environment {
	if name == "production" {
		return plaid.Production
	}
	return plaid.Sandbox
}

func (c *PlaidClient) CreateIdentity(ctx context.Context, clientUserID string) (string, error) {
	req := plaid.NewUserCreateRequest(clientUserID)
	resp, _, err := c.api.PlaidApi.UserCreate(ctx).UserCreateRequest(*req).Execute()
	if err != nil {
		return "", plaidError("UserCreate", err)
	}
	return resp.GetUserToken(), nil
}

func (c *PlaidClient) CreateLinkToken(ctx context.Context, clientUserID, userToken string) (*LinkToken, error) {
	req := plaid.NewLinkTokenCreateRequest(
		c.cfg.ClientName,
		"en",
		[]plaid.CountryCode{plaid.COUNTRYCODE_US},
		plaid.LinkTokenCreateRequestUser{
			ClientUserId: clientUserID,
		},
	)
	req.SetProducts([]plaid.Products{plaid.PRODUCTS_INCOME_VERIFICATION})
	req.SetUserToken(userToken)
	if c.cfg.WebhookURL != "" {
		req.SetWebhook(c.cfg.WebhookURL)
	}
	if c.cfg.RedirectURI != "" {
		req.SetRedirectUri(c.cfg.RedirectURI)
	}

	bankIncome := plaid.NewLinkTokenCreateRequestIncomeVerificationBankIncome(c.cfg.BankIncomeDays)
	incomeVerification := plaid.NewLinkTokenCreateRequestIncomeVerification()
	incomeVerification.SetIncomeSourceTypes([]plaid.IncomeVerificationSourceType{
		plaid.INCOMEVERIFICATIONSOURCETYPE_BANK,
	})
	incomeVerification.SetBankIncome(*bankIncome)
	req.SetIncomeVerification(*incomeVerification)

	resp, _, err := c.api.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*req).Execute()
	if err != nil {
		return nil, plaidError("LinkTokenCreate", err)
	}

	return &LinkToken{
		LinkToken:  resp.GetLinkToken(),
		Expiration: resp.GetExpiration(),
		RequestID:  resp.GetRequestId(),
	}, nil
}

func (c *PlaidClient) ExchangeToken(ctx context.Context, publicToken string) (*ExchangeResult, error) {
	req := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := c.api.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*req).Execute()
	if err != nil {
		return nil, plaidError("ItemPublicTokenExchange", err)
	}
	return &ExchangeResult{
		AccessToken: resp.GetAccessToken(),
		ItemID:      resp.GetItemId(),
	}, nil
}

func (c *PlaidClient) GetIncome(ctx context.Context, userToken string, count int32) ([]float64, error) {
	req := plaid.NewCreditBankIncomeGetRequest()
	req.SetUserToken(userToken)
	options := plaid.NewCreditBankIncomeGetRequestOptions()
	options.SetCount(count)
	req.SetOptions(*options)

	resp, _, err := c.api.PlaidApi.CreditBankIncomeGet(ctx).CreditBankIncomeGetRequest(*req).Execute()
	if err != nil {
		return nil, plaidError("CreditBankIncomeGet", err)
	}

	bankIncome := resp.GetBankIncome()
	totals := make([]float64, 0, len(bankIncome))
	for _, report := range bankIncome {
		summary := report.GetBankIncomeSummary()
		totals = append(totals, float64(summary.GetTotalAmount()))
	}
	return totals, nil
}

// plaidError keeps the upstream error body when the SDK hands us one, so
// the caller sees Plaid's own message instead of a bare status code.
func plaidError(op string, err error) error {
	if plaidErr, ok := err.(*plaid.GenericOpenAPIError); ok {
		logger.Get().Error("plaid API error",
			zap.String("operation", op),
			zap.String("body", string(plaidErr.Body())))
		return fmt.Errorf("%s: %s", op, string(plaidErr.Body()))
	}
	logger.Get().Error("plaid request error",
		zap.String("operation", op),
		zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}
