package ledger

import "errors"

// Operation errors. Every failed operation surfaces exactly one of these,
// leaves no side effects, and is safe to retry. Code maps each to the stable
// string the API and audit trail carry.
var (
	// Authorization.
	ErrUnauthorized   = errors.New("not authorized to perform this action")
	ErrNotWhitelisted = errors.New("wallet is not whitelisted")

	// Validation.
	ErrPropertyIDTooLong     = errors.New("property id is too long (max 64 characters)")
	ErrInvalidFundingGoal    = errors.New("invalid funding goal")
	ErrPlatformEquityTooHigh = errors.New("platform equity too high (max 50%)")
	ErrInvalidDeadline       = errors.New("invalid deadline")
	ErrInvalidTokenPrice     = errors.New("invalid token price")
	ErrInvalidTokenCount     = errors.New("invalid token count")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrAmountBelowMinimum    = errors.New("amount below minimum (1 token)")
	ErrInvalidFrequency      = errors.New("invalid distribution frequency")
	ErrInvalidWallet         = errors.New("invalid wallet address")

	// State preconditions.
	ErrPlatformInitialized    = errors.New("platform already initialized")
	ErrPlatformNotInitialized = errors.New("platform not initialized")
	ErrCampaignNotActive      = errors.New("campaign is not active")
	ErrCampaignExpired        = errors.New("campaign has expired")
	ErrCannotFinalizeYet      = errors.New("cannot finalize campaign yet")
	ErrCampaignNotCancelled   = errors.New("campaign is not cancelled")
	ErrCampaignNotFunded      = errors.New("campaign is not funded")
	ErrAlreadyRefunded        = errors.New("already refunded")
	ErrNothingToRefund        = errors.New("nothing to refund")
	ErrTokensAlreadyClaimed   = errors.New("tokens already claimed")
	ErrNoTokensToClaim        = errors.New("no tokens to claim")
	ErrNoDividends            = errors.New("no dividends to distribute")
	ErrNoTokensInCirculation  = errors.New("no tokens in circulation")
	ErrAlreadyClaimed         = errors.New("already claimed for this epoch")
	ErrNoTokensHeld           = errors.New("user holds no tokens")
	ErrNothingToClaim         = errors.New("no dividends to claim")

	// Arithmetic.
	ErrOverflow     = errors.New("arithmetic overflow")
	ErrDivideByZero = errors.New("division by zero")

	// Resources.
	ErrInsufficientTokens = errors.New("insufficient tokens available")
	ErrNotFound           = errors.New("record not found")
	ErrCampaignExists     = errors.New("campaign already exists")
	ErrPoolExists         = errors.New("dividend pool already exists")
)

var errorCodes = map[error]string{
	ErrUnauthorized:           "UNAUTHORIZED",
	ErrNotWhitelisted:         "NOT_WHITELISTED",
	ErrPropertyIDTooLong:      "PROPERTY_ID_TOO_LONG",
	ErrInvalidFundingGoal:     "INVALID_FUNDING_GOAL",
	ErrPlatformEquityTooHigh:  "PLATFORM_EQUITY_TOO_HIGH",
	ErrInvalidDeadline:        "INVALID_DEADLINE",
	ErrInvalidTokenPrice:      "INVALID_TOKEN_PRICE",
	ErrInvalidTokenCount:      "INVALID_TOKEN_COUNT",
	ErrInvalidAmount:          "INVALID_AMOUNT",
	ErrAmountBelowMinimum:     "AMOUNT_BELOW_MINIMUM",
	ErrInvalidFrequency:       "INVALID_FREQUENCY",
	ErrInvalidWallet:          "INVALID_WALLET",
	ErrPlatformInitialized:    "PLATFORM_ALREADY_INITIALIZED",
	ErrPlatformNotInitialized: "PLATFORM_NOT_INITIALIZED",
	ErrCampaignNotActive:      "CAMPAIGN_NOT_ACTIVE",
	ErrCampaignExpired:        "CAMPAIGN_EXPIRED",
	ErrCannotFinalizeYet:      "CANNOT_FINALIZE_YET",
	ErrCampaignNotCancelled:   "CAMPAIGN_NOT_CANCELLED",
	ErrCampaignNotFunded:      "CAMPAIGN_NOT_FUNDED",
	ErrAlreadyRefunded:        "ALREADY_REFUNDED",
	ErrNothingToRefund:        "NOTHING_TO_REFUND",
	ErrTokensAlreadyClaimed:   "TOKENS_ALREADY_CLAIMED",
	ErrNoTokensToClaim:        "NO_TOKENS_TO_CLAIM",
	ErrNoDividends:            "NO_DIVIDENDS_TO_DISTRIBUTE",
	ErrNoTokensInCirculation:  "NO_TOKENS_IN_CIRCULATION",
	ErrAlreadyClaimed:         "ALREADY_CLAIMED",
	ErrNoTokensHeld:           "NO_TOKENS_HELD",
	ErrNothingToClaim:         "NOTHING_TO_CLAIM",
	ErrOverflow:               "OVERFLOW",
	ErrDivideByZero:           "DIVIDE_BY_ZERO",
	ErrInsufficientTokens:     "INSUFFICIENT_TOKENS_AVAILABLE",
	ErrNotFound:               "NOT_FOUND",
	ErrCampaignExists:         "CAMPAIGN_EXISTS",
	ErrPoolExists:             "POOL_EXISTS",
}

// Code returns the stable error code for a ledger error, or "INTERNAL" for
// anything outside the taxonomy.
func Code(err error) string {
	for sentinel, code := range errorCodes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return "INTERNAL"
}
