package sdk

import (
	"context"
	"fmt"
	"github.com/everFinance/ledgersync/schema"
	"github.com/tidwall/gjson"
	"gopkg.in/h2non/gentleman.v2"
	gcontext "gopkg.in/h2non/gentleman.v2/context"
	"gopkg.in/h2non/gentleman.v2/plugins/timeout"
	"net/http"
	"time"
)

// Client talks to the chain and history APIs of a ledger node. Every call
// takes the endpoint base url so a failover invoker can pick it.
type Client struct {
	SCli *gentleman.Client
}

func New(reqTimeout time.Duration) *Client {
	cli := gentleman.New()
	if reqTimeout > 0 {
		cli.Use(timeout.Request(reqTimeout))
	}
	return &Client{SCli: cli}
}

func (c *Client) GetInfo(ctx context.Context, endpoint string) (schema.ChainInfo, error) {
	info := schema.ChainInfo{}
	err := c.post(ctx, endpoint, "/v1/chain/get_info", struct{}{}, &info)
	return info, err
}

func (c *Client) GetBalance(ctx context.Context, endpoint, publicKey, currencyCode string) (schema.RespBalance, error) {
	bal := schema.RespBalance{}
	body := map[string]string{"fio_public_key": publicKey}
	if currencyCode != "" {
		body["symbol"] = currencyCode
	}
	err := c.post(ctx, endpoint, "/v1/chain/get_fio_balance", body, &bal)
	return bal, err
}

func (c *Client) GetNames(ctx context.Context, endpoint, publicKey string) (schema.RespNames, error) {
	names := schema.RespNames{}
	err := c.post(ctx, endpoint, "/v1/chain/get_fio_names", map[string]string{"fio_public_key": publicKey}, &names)
	return names, err
}

func (c *Client) GetActions(ctx context.Context, endpoint, account string, pos, offset int64) (schema.RespActions, error) {
	acts := schema.RespActions{}
	body := map[string]interface{}{
		"account_name": account,
		"pos":          pos,
		"offset":       offset,
	}
	err := c.post(ctx, endpoint, "/v1/history/get_actions", body, &acts)
	return acts, err
}

func (c *Client) GetFee(ctx context.Context, endpoint, feeEndpoint, address string) (schema.RespFee, error) {
	fee := schema.RespFee{}
	body := map[string]string{"end_point": feeEndpoint, "fio_address": address}
	err := c.post(ctx, endpoint, "/v1/chain/get_fee", body, &fee)
	return fee, err
}

func (c *Client) AvailCheck(ctx context.Context, endpoint, name string) (schema.RespAvail, error) {
	avail := schema.RespAvail{}
	err := c.post(ctx, endpoint, "/v1/chain/avail_check", map[string]string{"fio_name": name}, &avail)
	return avail, err
}

func (c *Client) PushTransaction(ctx context.Context, endpoint string, req schema.ReqPushTx) (schema.RespPushTx, error) {
	res := schema.RespPushTx{}
	err := c.post(ctx, endpoint, "/v1/chain/push_transaction", req, &res)
	return res, err
}

// Call posts params to an arbitrary chain method and returns the raw body.
func (c *Client) Call(ctx context.Context, endpoint, method string, params interface{}) ([]byte, error) {
	if params == nil {
		params = struct{}{}
	}
	resp, err := c.send(ctx, endpoint, "/v1/chain/"+method, params)
	if err != nil {
		return nil, err
	}
	defer resp.Close()
	return resp.Bytes(), nil
}

func (c *Client) post(ctx context.Context, endpoint, path string, body, res interface{}) error {
	resp, err := c.send(ctx, endpoint, path, body)
	if err != nil {
		return err
	}
	defer resp.Close()
	if err = resp.JSON(res); err != nil {
		return fmt.Errorf("decode response failed; path: %s, err: %v", path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, endpoint, path string, body interface{}) (*gentleman.Response, error) {
	req := c.SCli.Request()
	req.URL(endpoint)
	req.AddPath(path)
	req.Method(http.MethodPost)
	req.JSON(body)
	req.UseRequest(func(gc *gcontext.Context, h gcontext.Handler) {
		gc.Request = gc.Request.WithContext(ctx)
		h.Next(gc)
	})

	resp, err := req.Send()
	if err != nil {
		return nil, err
	}
	if !resp.Ok {
		defer resp.Close()
		return nil, respError(resp.StatusCode, resp.Bytes())
	}
	return resp, nil
}

// respError classifies a non 2xx response: 400, 403 and 404 are deterministic
// rejections, everything else is treated as an endpoint outage.
func respError(statusCode int, body []byte) error {
	switch statusCode {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
		appErr := &schema.ApplicationError{
			Code:    statusCode,
			Message: gjson.GetBytes(body, "message").String(),
			Detail:  gjson.GetBytes(body, "fields.0.error").String(),
		}
		if appErr.Message == "" {
			appErr.Message = string(body)
		}
		if appErr.Detail == "" {
			appErr.Detail = gjson.GetBytes(body, "type").String()
		}
		return appErr
	default:
		return fmt.Errorf("resp failed; http code: %d, errMsg: %s", statusCode, string(body))
	}
}
