package main

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/errors"
	"github.com/iov-one/bazaar/market"
	"github.com/iov-one/bazaar/x/feepolicy"
	"github.com/tendermint/tendermint/libs/log"
	"golang.org/x/time/rate"
)

// maxBodySize limits the size of a request payload.
const maxBodySize = 1 << 16

// NewRouter returns the HTTP API of the market.
func NewRouter(m *market.Engine, limiter *rate.Limiter, logger log.Logger) http.Handler {
	rt := http.NewServeMux()
	rt.Handle("/info", &InfoHandler{Market: m})
	rt.Handle("/mint", &MintHandler{Market: m})
	rt.Handle("/buy", &BuyHandler{Market: m})
	rt.Handle("/resell", &ResellHandler{Market: m})
	rt.Handle("/market", &MarketItemsHandler{Market: m})
	rt.Handle("/owned/", &OwnedItemsHandler{Market: m})
	rt.Handle("/created/", &CreatedItemsHandler{Market: m})
	rt.Handle("/assets/", &AssetsHandler{Market: m})
	rt.Handle("/balances/", &BalanceHandler{Market: m})
	rt.Handle("/", &DefaultHandler{})
	return &throttle{limiter: limiter, next: &requestLogger{logger: logger, next: &recovery{next: rt}}}
}

// throttle rejects requests above the allowed rate.
type throttle struct {
	limiter *rate.Limiter
	next    http.Handler
}

func (t *throttle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !t.limiter.Allow() {
		JSONErr(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
		return
	}
	t.next.ServeHTTP(w, r)
}

// requestLogger attaches a request scoped logger to the context.
type requestLogger struct {
	logger log.Logger
	next   http.Handler
}

func (l *requestLogger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := bazaar.WithLogger(r.Context(), l.logger)
	ctx = bazaar.WithLogInfo(ctx, "remote", r.RemoteAddr, "path", r.URL.Path)
	l.next.ServeHTTP(w, r.WithContext(ctx))
}

// recovery responds with an internal server error when next panics.
type recovery struct {
	next http.Handler
}

func (h *recovery) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := serveRecovered(h.next, w, r); err != nil {
		writeErr(w, r, err)
	}
}

func serveRecovered(next http.Handler, w http.ResponseWriter, r *http.Request) (err error) {
	defer errors.Recover(&err)
	next.ServeHTTP(w, r)
	return nil
}

type InfoHandler struct {
	Market *market.Engine
}

func (h *InfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := h.Market.Policy()
	JSONResp(w, http.StatusOK, struct {
		Version string            `json:"version"`
		Policy  *feepolicy.Policy `json:"policy"`
	}{
		Version: bazaar.Version(),
		Policy:  &p,
	})
}

type MintHandler struct {
	Market *market.Engine
}

func (h *MintHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req market.MintRequest
	if !decodePost(w, r, &req) {
		return
	}
	id, err := h.Market.Mint(r.Context(), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	JSONResp(w, http.StatusCreated, struct {
		AssetID uint64 `json:"asset_id"`
	}{AssetID: id})
}

type BuyHandler struct {
	Market *market.Engine
}

func (h *BuyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req market.BuyRequest
	if !decodePost(w, r, &req) {
		return
	}
	res, err := h.Market.Buy(r.Context(), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	JSONResp(w, http.StatusOK, res)
}

type ResellHandler struct {
	Market *market.Engine
}

func (h *ResellHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req market.ResellRequest
	if !decodePost(w, r, &req) {
		return
	}
	offer, err := h.Market.Resell(r.Context(), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	JSONResp(w, http.StatusCreated, offer)
}

type MarketItemsHandler struct {
	Market *market.Engine
}

func (h *MarketItemsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	items, err := h.Market.ListMarketItems(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	JSONResp(w, http.StatusOK, items)
}

type OwnedItemsHandler struct {
	Market *market.Engine
}

func (h *OwnedItemsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressFromPath(w, r)
	if !ok {
		return
	}
	items, err := h.Market.ListOwnedItems(r.Context(), addr)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	JSONResp(w, http.StatusOK, items)
}

type CreatedItemsHandler struct {
	Market *market.Engine
}

func (h *CreatedItemsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressFromPath(w, r)
	if !ok {
		return
	}
	items, err := h.Market.ListCreatedItems(r.Context(), addr)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	JSONResp(w, http.StatusOK, items)
}

// AssetsHandler serves /assets/{id} and /assets/{id}/history.
type AssetsHandler struct {
	Market *market.Engine
}

func (h *AssetsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	chunks := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/assets/"), "/"), "/")
	id, err := strconv.ParseUint(chunks[0], 10, 64)
	if err != nil || id == 0 {
		JSONErr(w, http.StatusNotFound, "asset id must be a positive number")
		return
	}

	switch {
	case len(chunks) == 1:
		asset, err := h.Market.GetAsset(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		JSONResp(w, http.StatusOK, asset)
	case len(chunks) == 2 && chunks[1] == "history":
		history, err := h.Market.ListingHistory(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		JSONResp(w, http.StatusOK, history)
	default:
		JSONErr(w, http.StatusNotFound, "not found")
	}
}

type BalanceHandler struct {
	Market *market.Engine
}

func (h *BalanceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressFromPath(w, r)
	if !ok {
		return
	}
	coins, err := h.Market.Balance(r.Context(), addr)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	JSONResp(w, http.StatusOK, coins)
}

type DefaultHandler struct{}

func (h *DefaultHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	JSONErr(w, http.StatusNotFound, "not found")
}

// decodePost reads a JSON encoded request body into dest. The response is
// written and false returned if that is not possible.
func decodePost(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if r.Method != http.MethodPost {
		JSONErr(w, http.StatusMethodNotAllowed, "POST required")
		return false
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(dest); err != nil {
		JSONErr(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		JSONErr(w, http.StatusMethodNotAllowed, "GET required")
		return false
	}
	return true
}

func addressFromPath(w http.ResponseWriter, r *http.Request) (bazaar.Address, bool) {
	if !requireGet(w, r) {
		return nil, false
	}
	addr, err := bazaar.ParseAddress(lastChunk(r.URL.Path))
	if err != nil {
		JSONErr(w, http.StatusBadRequest, "invalid address")
		return nil, false
	}
	return addr, true
}

// lastChunk returns last path chunk - everything after the last `/` character.
func lastChunk(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// writeErr responds with the status code matching the error kind. Details
// of internal failures are logged, not returned.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.HTTPStatus(err)
	logger := bazaar.GetLogger(r.Context())
	if code >= http.StatusInternalServerError {
		logger.Error("request failed", "err", err)
		JSONErr(w, code, http.StatusText(code))
		return
	}
	logger.Debug("request rejected", "err", err)
	JSONErr(w, code, err.Error())
}

// JSONResp write content as JSON encoded response.
func JSONResp(w http.ResponseWriter, code int, content interface{}) {
	b, err := json.MarshalIndent(content, "", "\t")
	if err != nil {
		code = http.StatusInternalServerError
		b = []byte(`{"errors":["Internal Server Error"]}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}

// JSONErr write single error as JSON encoded response.
func JSONErr(w http.ResponseWriter, code int, errText string) {
	JSONErrs(w, code, []string{errText})
}

// JSONErrs write multiple errors as JSON encoded response.
func JSONErrs(w http.ResponseWriter, code int, errs []string) {
	resp := struct {
		Errors []string `json:"errors"`
	}{
		Errors: errs,
	}
	JSONResp(w, code, resp)
}
