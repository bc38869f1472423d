// internal/domain/issuance/submission.go
package issuance

// Leg identifies one of the two ledger operations of an issuance.
type Leg string

const (
	LegFee  Leg = "fee"
	LegMint Leg = "mint"
)

// Outcome は 2 つの独立したレッグの組み合わせ結果。
type Outcome string

const (
	OutcomeBothConfirmed     Outcome = "both_confirmed"
	OutcomeFeeOnlyConfirmed  Outcome = "fee_only_confirmed"
	OutcomeMintOnlyConfirmed Outcome = "mint_only_confirmed"
	OutcomeNeitherConfirmed  Outcome = "neither_confirmed"
)

// Confirmation は確認待ちの三値結果。
type Confirmation string

const (
	ConfirmationConfirmed Confirmation = "confirmed"
	ConfirmationTimedOut  Confirmation = "timed_out"
	ConfirmationRejected  Confirmation = "rejected"
)

// LegReport は 1 レッグ分の結果。
// Submitted が空でない場合、ledger に送信済みの署名（確認できたかは Confirmation で判断）。
type LegReport struct {
	Leg          Leg          `json:"leg"`
	Submitted    string       `json:"submitted,omitempty"`
	Confirmation Confirmation `json:"confirmation,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// Confirmed reports whether the leg reached a confirmed state.
func (r LegReport) Confirmed() bool {
	return r.Submitted != "" && r.Confirmation == ConfirmationConfirmed
}

// SubmissionResult は saga の終端結果。生成後は変更しない。
type SubmissionResult struct {
	FeeSignature  string
	MintSignature string
	MintAddress   string
	Outcome       Outcome
	Fee           LegReport
	Mint          LegReport
}

// NewSubmissionResult derives signatures and outcome from the two leg reports.
// 確認できなかったレッグの署名は absent ("") になる。
func NewSubmissionResult(mintAddress string, fee, mint LegReport) SubmissionResult {
	res := SubmissionResult{
		MintAddress: mintAddress,
		Fee:         fee,
		Mint:        mint,
	}
	if fee.Confirmed() {
		res.FeeSignature = fee.Submitted
	}
	if mint.Confirmed() {
		res.MintSignature = mint.Submitted
	}
	res.Outcome = Classify(fee.Confirmed(), mint.Confirmed())
	return res
}

// Classify maps the two confirmation flags to an Outcome.
func Classify(feeConfirmed, mintConfirmed bool) Outcome {
	switch {
	case feeConfirmed && mintConfirmed:
		return OutcomeBothConfirmed
	case feeConfirmed:
		return OutcomeFeeOnlyConfirmed
	case mintConfirmed:
		return OutcomeMintOnlyConfirmed
	default:
		return OutcomeNeitherConfirmed
	}
}
