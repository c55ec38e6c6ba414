// Package rest is the pull path: the same data and admin actions the socket
// serves, over plain HTTP for when the push path is down.
package rest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/gamevault/admin-connector/pkg/interfaces"
	"github.com/gamevault/admin-connector/pkg/logger"
	"github.com/gamevault/admin-connector/pkg/schema"
)

const (
	gamesBase       = "/api/admin/games"
	withdrawalsBase = "/api/admin/withdrawals"

	pathProfiles         = gamesBase + "/profiles"
	pathStatistics       = gamesBase + "/statistics"
	pathAssignID         = gamesBase + "/assign-gameid"
	pathApproveCredit    = gamesBase + "/approve-credit"
	pathDisapproveCredit = gamesBase + "/disapprove-credit"
	pathApproveRedeem    = gamesBase + "/approve-redeem"
	pathDisapproveRedeem = gamesBase + "/disapprove-redeem"

	pathPendingWithdrawals   = withdrawalsBase + "/pending"
	pathApproveWithdrawal    = withdrawalsBase + "/approve"
	pathDisapproveWithdrawal = withdrawalsBase + "/disapprove"
)

// ErrNoToken is returned when a call is attempted without a bearer credential.
var ErrNoToken = errors.New("authentication token not found")

// Client implements interfaces.RESTClient against the admin API.
type Client struct {
	http   *resty.Client
	tokens interfaces.TokenProvider
}

// NewClient builds a client rooted at baseURL with a per-call timeout.
func NewClient(baseURL string, timeout time.Duration, tokens interfaces.TokenProvider) *Client {
	c := resty.New().SetBaseURL(baseURL).SetTimeout(timeout)
	return &Client{http: c, tokens: tokens}
}

var _ interfaces.RESTClient = (*Client)(nil)

func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	token, ok := c.tokens.Token()
	if !ok {
		return nil, ErrNoToken
	}
	return c.http.R().SetContext(ctx).SetAuthToken(token), nil
}

// httpError turns a non-2xx response into an error carrying the server's
// message when one is present in the body.
func httpError(r *resty.Response) error {
	var envelope schema.ActionResponse
	if err := json.Unmarshal(r.Body(), &envelope); err == nil && envelope.Message != "" {
		return errors.Errorf("%s: %s", r.Status(), envelope.Message)
	}
	return errors.New(r.Status())
}

// GetProfiles fetches the full game profile snapshot. A 2xx reply with
// success=false yields an empty snapshot, not an error; the server already
// said there is nothing to show.
func (c *Client) GetProfiles(ctx context.Context) ([]schema.GameProfile, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var payload schema.ProfilesPayload
	r, err := req.SetResult(&payload).Get(pathProfiles)
	if err != nil {
		return nil, errors.Wrap(err, "fetch game profiles")
	}
	if r.IsError() {
		return nil, errors.Wrap(httpError(r), "fetch game profiles")
	}
	if !payload.Success {
		logger.Debug("rest: profiles reply not successful: %s", payload.Message)
		return []schema.GameProfile{}, nil
	}
	return payload.ProfileList(), nil
}

// GetStatistics fetches the aggregate counters, substituting zeroes when the
// server reports no statistics.
func (c *Client) GetStatistics(ctx context.Context) (schema.Statistics, error) {
	req, err := c.request(ctx)
	if err != nil {
		return schema.Statistics{}, err
	}
	var payload schema.StatisticsPayload
	r, err := req.SetResult(&payload).Get(pathStatistics)
	if err != nil {
		return schema.Statistics{}, errors.Wrap(err, "fetch statistics")
	}
	if r.IsError() {
		return schema.Statistics{}, errors.Wrap(httpError(r), "fetch statistics")
	}
	if !payload.Success {
		return schema.Statistics{}, nil
	}
	return payload.Stats(), nil
}

// GetPendingWithdrawals fetches the pending withdrawal snapshot.
func (c *Client) GetPendingWithdrawals(ctx context.Context) ([]schema.Withdrawal, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var payload schema.WithdrawalsPayload
	r, err := req.SetResult(&payload).Get(pathPendingWithdrawals)
	if err != nil {
		return nil, errors.Wrap(err, "fetch pending withdrawals")
	}
	if r.IsError() {
		return nil, errors.Wrap(httpError(r), "fetch pending withdrawals")
	}
	if !payload.Success {
		if payload.Message != "" {
			return nil, errors.Errorf("fetch pending withdrawals: %s", payload.Message)
		}
		return nil, errors.New("failed to fetch pending withdrawals")
	}
	return payload.WithdrawalList(), nil
}

// post runs one mutating call and verifies the success envelope.
func (c *Client) post(ctx context.Context, path string, body any, fallbackMsg string) (schema.ActionResponse, error) {
	req, err := c.request(ctx)
	if err != nil {
		return schema.ActionResponse{}, err
	}
	var out schema.ActionResponse
	r, err := req.SetBody(body).SetResult(&out).Post(path)
	if err != nil {
		return schema.ActionResponse{}, errors.Wrap(err, fallbackMsg)
	}
	if r.IsError() {
		return schema.ActionResponse{}, errors.Wrap(httpError(r), fallbackMsg)
	}
	if !out.Success {
		if out.Message != "" {
			return out, errors.Errorf("%s: %s", fallbackMsg, out.Message)
		}
		return out, errors.New(fallbackMsg)
	}
	return out, nil
}

// AssignGameID assigns a game id to a user's game profile.
func (c *Client) AssignGameID(ctx context.Context, userID, gameName, gameID string) (schema.ActionResponse, error) {
	body := schema.AssignGameIDRequest{UserID: userID, GameName: gameName, GameID: gameID}
	return c.post(ctx, pathAssignID, body, "failed to assign game id")
}

// ApproveCredit approves a pending credit request.
func (c *Client) ApproveCredit(ctx context.Context, userID, gameName string) (schema.ActionResponse, error) {
	body := schema.CreditActionRequest{UserID: userID, GameName: gameName}
	return c.post(ctx, pathApproveCredit, body, "failed to approve credit")
}

// DisapproveCredit rejects a pending credit request, refunding the user.
func (c *Client) DisapproveCredit(ctx context.Context, userID, gameName string) (schema.ActionResponse, error) {
	body := schema.CreditActionRequest{UserID: userID, GameName: gameName}
	return c.post(ctx, pathDisapproveCredit, body, "failed to disapprove credit")
}

// ApproveRedeem approves a pending redeem request.
func (c *Client) ApproveRedeem(ctx context.Context, userID, gameName string) (schema.ActionResponse, error) {
	body := schema.CreditActionRequest{UserID: userID, GameName: gameName}
	return c.post(ctx, pathApproveRedeem, body, "failed to approve redeem")
}

// DisapproveRedeem rejects a pending redeem request.
func (c *Client) DisapproveRedeem(ctx context.Context, userID, gameName string) (schema.ActionResponse, error) {
	body := schema.CreditActionRequest{UserID: userID, GameName: gameName}
	return c.post(ctx, pathDisapproveRedeem, body, "failed to disapprove redeem")
}

// ApproveWithdrawal approves a withdrawal, optionally recording the on-chain
// transaction hash.
func (c *Client) ApproveWithdrawal(ctx context.Context, w schema.Withdrawal, txHash string) (schema.ActionResponse, error) {
	body := schema.WithdrawalActionRequest{UserID: w.UserID, WithdrawalID: w.Key()}
	if txHash != "" {
		body.TxHash = &txHash
	}
	return c.post(ctx, pathApproveWithdrawal, body, "failed to approve withdrawal")
}

// DisapproveWithdrawal rejects a withdrawal.
func (c *Client) DisapproveWithdrawal(ctx context.Context, w schema.Withdrawal) (schema.ActionResponse, error) {
	body := schema.WithdrawalActionRequest{UserID: w.UserID, WithdrawalID: w.Key()}
	return c.post(ctx, pathDisapproveWithdrawal, body, "failed to disapprove withdrawal")
}
