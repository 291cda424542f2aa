package validation

import (
	"strings"

	"swapdesk/internal/models"
)

// QuoteRequest checks the fields that do not depend on the chain.
func (v *Validator) QuoteRequest(req *models.QuoteRequest) {
	v.Required("sellToken", req.SellToken)
	v.Required("buyToken", req.BuyToken)

	hasSell := strings.TrimSpace(req.SellAmount) != ""
	hasBuy := strings.TrimSpace(req.BuyAmount) != ""
	switch {
	case !hasSell && !hasBuy:
		v.AddError("amount", "one of sellAmount or buyAmount is required")
	case hasSell && hasBuy:
		v.AddError("amount", "only one of sellAmount or buyAmount may be set")
	case hasSell:
		v.Amount("sellAmount", req.SellAmount)
	default:
		v.Amount("buyAmount", req.BuyAmount)
	}

	if req.SlippageBps != nil {
		v.Bps("slippageBps", *req.SlippageBps)
	}
	if req.GasPrice != "" {
		v.Amount("gasPrice", req.GasPrice)
	}
	v.Check(req.ChainID > 0, "chainId", "must be a positive integer")
}

// QuoteAddresses checks token and taker formats once the chain is known.
func (v *Validator) QuoteAddresses(req *models.QuoteRequest, vm string) {
	v.Address("sellToken", req.SellToken, vm)
	v.Address("buyToken", req.BuyToken, vm)
	if req.SellToken != "" && strings.EqualFold(req.SellToken, req.BuyToken) {
		v.AddError("buyToken", "must differ from sellToken")
	}
	if req.TakerAddress != "" {
		v.Address("takerAddress", req.TakerAddress, vm)
	}
}

// Allowance checks an allowance request for an EVM chain.
func (v *Validator) Allowance(req *models.AllowanceRequest) {
	v.Address("tokenAddress", req.TokenAddress, models.VMEVM)
	v.Address("ownerAddress", req.OwnerAddress, models.VMEVM)
	if req.Amount != "" {
		v.Amount("amount", req.Amount)
	}
}

// StatusUpdate checks a trade status change against the trade's chain VM.
func (v *Validator) StatusUpdate(upd *models.TradeStatusUpdate, vm string) {
	v.Check(upd.Status.Valid(), "status", "must be pending, completed or failed")
	if upd.Status == models.TradeStatusPending {
		v.Check(upd.TransactionHash != "", "transactionHash", "is required when status is pending")
	}
	if upd.TransactionHash != "" {
		v.Check(IsTxHash(upd.TransactionHash, vm), "transactionHash", "must be a valid transaction hash")
	}
}

// FeeRequest checks calculator input.
func (v *Validator) FeeRequest(req *models.FeeRequest) {
	_, ok := ParseBaseUnits(req.BuyAmount)
	v.Check(ok, "buyAmount", "must be a non-negative integer in base units")
	if req.SellAmount != "" {
		_, ok = ParseBaseUnits(req.SellAmount)
		v.Check(ok, "sellAmount", "must be a non-negative integer in base units")
	}
	if req.CustomFeeBps != nil {
		v.Bps("customFeeBps", *req.CustomFeeBps)
	}
}
