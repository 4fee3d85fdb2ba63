package request

import (
	"errors"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/shopspring/decimal"

	"github.com/vietanh2810/class-treasury-api/internal/domain"
)

const (
	maxDescriptionLength = 255
	maxStudentIDLength   = 64
	maxReferenceIDLength = 64

	// Upper snake case, and never the reserved REVERSAL marker.
	referenceTypePattern = `^(?!REVERSAL$)[A-Z][A-Z_]{1,31}$`
)

var (
	errAmountNotPositive    = errors.New("must be greater than zero")
	errAmountTooPrecise     = errors.New("must have at most 2 decimal places")
	errAmountTooLarge       = errors.New("must be no greater than " + domain.MaxAmount.StringFixed(2))
	errInvalidReferenceType = errors.New("must be upper snake case and not REVERSAL")
	referenceTypeExpression = regexp2.MustCompile(referenceTypePattern, regexp2.None)
)

type CreditRequest struct {
	Amount        decimal.Decimal `json:"amount" swaggertype:"string" example:"12.50"`
	Description   string          `json:"description" example:"Bake sale"`
	StudentID     *string         `json:"student_id,omitempty"`
	ReferenceID   *string         `json:"reference_id,omitempty"`
	ReferenceType *string         `json:"reference_type,omitempty" example:"EVENT"`
}

func (req *CreditRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Amount, validation.By(validAmount)),
		validation.Field(&req.Description, validation.Required, validation.Length(1, maxDescriptionLength)),
		validation.Field(&req.StudentID, validation.NilOrNotEmpty, validation.Length(1, maxStudentIDLength)),
		validation.Field(&req.ReferenceID, validation.NilOrNotEmpty, validation.Length(1, maxReferenceIDLength)),
		validation.Field(&req.ReferenceType, validation.By(validReferenceType)),
	)
}

type DebitRequest struct {
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"30.00"`
	Description string          `json:"description" example:"Field trip bus"`
}

func (req *DebitRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Amount, validation.By(validAmount)),
		validation.Field(&req.Description, validation.Required, validation.Length(1, maxDescriptionLength)),
	)
}

func validAmount(value interface{}) error {
	amount, _ := value.(decimal.Decimal)
	if !amount.IsPositive() {
		return errAmountNotPositive
	}
	if !amount.Equal(amount.Truncate(2)) {
		return errAmountTooPrecise
	}
	if amount.GreaterThan(domain.MaxAmount) {
		return errAmountTooLarge
	}

	return nil
}

func validReferenceType(value interface{}) error {
	v, isNil := validation.Indirect(value)
	if isNil {
		return nil
	}

	s, _ := v.(string)
	ok, err := referenceTypeExpression.MatchString(s)
	if err != nil || !ok {
		return errInvalidReferenceType
	}

	return nil
}
