package ledgersync

import (
	"context"
	"github.com/everFinance/ledgersync/schema"
	"github.com/everFinance/ledgersync/sdk"
)

var _ Transport = (*sdk.Client)(nil)

// Transport performs one remote call against one endpoint. Implementations
// return *schema.ApplicationError for deterministic rejections and any other
// error for transport failures. sdk.Client is the HTTP implementation.
type Transport interface {
	GetInfo(ctx context.Context, endpoint string) (schema.ChainInfo, error)
	GetBalance(ctx context.Context, endpoint, publicKey, currencyCode string) (schema.RespBalance, error)
	GetNames(ctx context.Context, endpoint, publicKey string) (schema.RespNames, error)
	GetActions(ctx context.Context, endpoint, account string, pos, offset int64) (schema.RespActions, error)
	GetFee(ctx context.Context, endpoint, feeEndpoint, address string) (schema.RespFee, error)
	AvailCheck(ctx context.Context, endpoint, name string) (schema.RespAvail, error)
	PushTransaction(ctx context.Context, endpoint string, req schema.ReqPushTx) (schema.RespPushTx, error)
	Call(ctx context.Context, endpoint, method string, params interface{}) ([]byte, error)
}

// Keyring exposes the account identity owned by the key-management collaborator.
type Keyring interface {
	PublicKey() string
	Actor() string
}

// Signer signs a built spend. A nil Signer leaves transactions unsigned.
type Signer interface {
	Sign(ctx context.Context, tx schema.Transaction) (schema.Transaction, error)
}

type staticKeyring struct {
	publicKey string
	actor     string
}

func NewStaticKeyring(publicKey, actor string) Keyring {
	return staticKeyring{publicKey: publicKey, actor: actor}
}

func (k staticKeyring) PublicKey() string { return k.publicKey }
func (k staticKeyring) Actor() string     { return k.actor }
