package jwt

// Reason classifies a rejected token.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonMalformed
	ReasonSignature
	ReasonAlgorithm
	ReasonExpired
	ReasonNotYetValid
	ReasonIssuer
	ReasonAudience
	ReasonType
	ReasonClaims
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "valid"
	case ReasonMalformed:
		return "malformed"
	case ReasonSignature:
		return "invalid_signature"
	case ReasonAlgorithm:
		return "invalid_algorithm"
	case ReasonExpired:
		return "expired"
	case ReasonNotYetValid:
		return "not_yet_valid"
	case ReasonIssuer:
		return "invalid_issuer"
	case ReasonAudience:
		return "invalid_audience"
	case ReasonType:
		return "invalid_type"
	case ReasonClaims:
		return "missing_claims"
	default:
		return "unknown"
	}
}

// Result is Valid(Claims) or Invalid(Reason). Err holds the parser detail for
// logging and must not be sent to clients.
type Result struct {
	Claims *Claims
	Reason Reason
	Err    error
}

func (r Result) Valid() bool { return r.Reason == ReasonNone && r.Claims != nil }

func invalid(reason Reason, err error) Result {
	return Result{Reason: reason, Err: err}
}
