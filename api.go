package ledgersync

import (
	"errors"
	"github.com/everFinance/ledgersync/common"
	"github.com/everFinance/ledgersync/schema"
	"github.com/gin-gonic/gin"
	"net/http"
)

func (s *LedgerSync) runAPI(port string) {
	r := s.router()
	if err := r.Run(port); err != nil {
		panic(err)
	}
}

func (s *LedgerSync) router() *gin.Engine {
	if s.engine != nil {
		return s.engine
	}
	r := gin.Default()
	r.Use(common.CORSMiddleware())
	if s.config.RateLimit > 0 {
		r.Use(common.LimiterMiddleware(s.config.RateLimit, "S", nil))
	}
	v1 := r.Group("/")
	{
		v1.GET("/info", s.getInfo)
		v1.GET("/balance/:currency", s.getBalance)
		v1.GET("/address", s.getAddress)
		v1.GET("/txs/:currency", s.getTxs)
		v1.GET("/names", s.getNames)
		v1.GET("/fee/:endpoint", s.getFee)
		v1.GET("/avail/:name", s.getAvail)
		v1.GET("/tasks", s.getTasks)

		v1.POST("/spend", s.makeSpend)
		v1.POST("/broadcast", s.broadcastTx)
		v1.POST("/resync", s.resync)
		v1.POST("/rpc/:method", s.rpc)
	}
	r.GET("/metrics", common.MetricHandler())
	s.engine = r
	return r
}

func (s *LedgerSync) getInfo(c *gin.Context) {
	st := s.cache.GetState()
	c.JSON(http.StatusOK, schema.RespInfo{
		BlockHeight:     st.BlockHeight,
		HighestTxHeight: st.HighestTxHeight,
		Active:          s.IsActive(),
		PublicKey:       s.keys.PublicKey(),
	})
}

func (s *LedgerSync) getBalance(c *gin.Context) {
	code := c.Param("currency")
	c.JSON(http.StatusOK, schema.RespBal{CurrencyCode: code, Balance: s.GetBalance(code)})
}

func (s *LedgerSync) getAddress(c *gin.Context) {
	c.JSON(http.StatusOK, schema.RespAddr{PublicAddress: s.GetFreshAddress()})
}

// getTxs serves the in-memory list, or a page of the sql archive when
// offset or limit are given and the archive is enabled.
func (s *LedgerSync) getTxs(c *gin.Context) {
	code := c.Param("currency")
	if s.wdb == nil || (c.Query("offset") == "" && c.Query("limit") == "") {
		c.JSON(http.StatusOK, s.GetTransactions(code))
		return
	}
	var page struct {
		Offset int `form:"offset"`
		Limit  int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&page); err != nil {
		errorResponse(c, err.Error())
		return
	}
	if page.Limit <= 0 || page.Limit > 100 {
		page.Limit = 100
	}
	txs, err := s.wdb.GetArchivedTxs(s.keys.Actor(), code, page.Offset, page.Limit)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, txs)
}

func (s *LedgerSync) getNames(c *gin.Context) {
	st := s.cache.GetState()
	c.JSON(http.StatusOK, gin.H{
		"addresses": st.Addresses,
		"domains":   st.Domains,
	})
}

func (s *LedgerSync) getFee(c *gin.Context) {
	fee, err := s.spender.Fee(c.Request.Context(), c.Param("endpoint"), c.Query("address"))
	if err != nil {
		s.remoteErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, schema.RespFee{Fee: fee.String()})
}

func (s *LedgerSync) getAvail(c *gin.Context) {
	ok, err := s.spender.IsAvailable(c.Request.Context(), c.Param("name"))
	if err != nil {
		s.remoteErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": ok})
}

func (s *LedgerSync) getTasks(c *gin.Context) {
	c.JSON(http.StatusOK, s.taskMg.GetTasks())
}

func (s *LedgerSync) makeSpend(c *gin.Context) {
	req := schema.SpendRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	tx, err := s.MakeSpend(c.Request.Context(), req)
	if err != nil {
		s.remoteErrorResponse(c, err)
		return
	}
	if tx, err = s.SignTx(c.Request.Context(), tx); err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (s *LedgerSync) broadcastTx(c *gin.Context) {
	tx := schema.Transaction{}
	if err := c.ShouldBindJSON(&tx); err != nil {
		errorResponse(c, err.Error())
		return
	}
	tx, err := s.BroadcastTx(c.Request.Context(), tx)
	if err != nil {
		s.remoteErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (s *LedgerSync) resync(c *gin.Context) {
	if err := s.Resync(); err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, "ok")
}

func (s *LedgerSync) rpc(c *gin.Context) {
	req := schema.ReqRpc{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	body, err := s.spender.Call(c.Request.Context(), c.Param("method"), req.Params)
	if err != nil {
		s.remoteErrorResponse(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// remoteErrorResponse renders a chain rejection as its canonical result,
// local precondition failures as bad requests and outages as 502.
func (s *LedgerSync) remoteErrorResponse(c *gin.Context, err error) {
	if res, ok := ErrorResult(err); ok {
		c.JSON(http.StatusBadRequest, res)
		return
	}
	var unavailable *UnavailableError
	if errors.As(err, &unavailable) {
		c.JSON(http.StatusBadGateway, schema.RespErr{Err: err.Error()})
		return
	}
	switch err {
	case schema.ErrInsufficientFunds, schema.ErrInvalidAmount, schema.ErrNullAddress,
		schema.ErrUnknownCurrency, schema.ErrNotBroadcastable:
		errorResponse(c, err.Error())
	default:
		internalErrorResponse(c, err.Error())
	}
}

func errorResponse(c *gin.Context, err string) {
	// client error
	c.JSON(http.StatusBadRequest, schema.RespErr{
		Err: err,
	})
}

func internalErrorResponse(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, schema.RespErr{
		Err: err,
	})
}
