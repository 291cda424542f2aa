package models

// Where an allowance figure came from.
const (
	AllowanceSourceRPC         = "rpc"
	AllowanceSourcePlaceholder = "placeholder"
	AllowanceSourceNative      = "native"
)

// AllowanceRequest asks whether Owner must approve the aggregator before selling Token.
// Amount, when set, is the sell amount to cover instead of a full approval.
type AllowanceRequest struct {
	TokenAddress string `json:"tokenAddress" query:"tokenAddress"`
	OwnerAddress string `json:"ownerAddress" query:"ownerAddress"`
	ChainID      int64  `json:"chainId" query:"chainId"`
	Amount       string `json:"amount,omitempty" query:"amount"`
}

// ApprovalTransaction is an unsigned ERC-20 approve call.
type ApprovalTransaction struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

// AllowanceState is recomputed on every check and never stored.
type AllowanceState struct {
	Allowance           string               `json:"allowance"`
	IsApprovalNeeded    bool                 `json:"isApprovalNeeded"`
	AllowanceTarget     string               `json:"allowanceTarget"`
	ApprovalTransaction *ApprovalTransaction `json:"approvalTransaction,omitempty"`
	Source              string               `json:"source"`
}
