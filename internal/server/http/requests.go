package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

const maxBodyBytes = 1 << 20

// bcrypt ignores everything past 72 bytes, so longer new passwords are
// refused instead of being silently truncated.
const (
	minPasswordLen = 6
	maxPasswordLen = 72
	maxNameLen     = 50
	maxEmailLen    = 254
	maxPhoneLen    = 16 // 15 digits of E.164 plus the leading +
)

type registerRequest struct {
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Password  string  `json:"password"`
	Phone     *string `json:"phone"`
}

func (r registerRequest) validate(region string) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, maxEmailLen), is.Email),
		validation.Field(&r.FirstName, validation.Required, notBlank, validation.Length(1, maxNameLen)),
		validation.Field(&r.LastName, validation.Required, notBlank, validation.Length(1, maxNameLen)),
		validation.Field(&r.Password, validation.Required, validation.Length(minPasswordLen, maxPasswordLen)),
		validation.Field(&r.Phone, phoneRules(region)...),
	)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 100)),
	)
}

type updateUserRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Password  *string `json:"password"`
	Phone     *string `json:"phone"`
	IsActive  *bool   `json:"isActive"`
}

func (r updateUserRequest) validate(region string) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.NilOrNotEmpty, validation.Length(3, maxEmailLen), is.Email),
		validation.Field(&r.FirstName, validation.NilOrNotEmpty, notBlank, validation.Length(1, maxNameLen)),
		validation.Field(&r.LastName, validation.NilOrNotEmpty, notBlank, validation.Length(1, maxNameLen)),
		validation.Field(&r.Password, validation.NilOrNotEmpty, validation.Length(minPasswordLen, maxPasswordLen)),
		validation.Field(&r.Phone, phoneRules(region)...),
	)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (r changePasswordRequest) validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(minPasswordLen, maxPasswordLen)),
	)
}

// notBlank rejects values made only of whitespace. Names are stored
// trimmed, so such a value would end up empty.
var notBlank = validation.By(func(value interface{}) error {
	var v string
	switch t := value.(type) {
	case string:
		v = t
	case *string:
		if t == nil {
			return nil
		}
		v = *t
	default:
		return nil
	}
	if v != "" && strings.TrimSpace(v) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

// phoneRules checks length always, and validity for region when one is
// configured.
func phoneRules(region string) []validation.Rule {
	rules := []validation.Rule{validation.Length(1, maxPhoneLen)}
	if region == "" {
		return rules
	}
	return append(rules, validation.By(func(value interface{}) error {
		p, _ := value.(*string)
		if p == nil || strings.TrimSpace(*p) == "" {
			return nil
		}
		if _, err := normalizePhone(region, *p); err != nil {
			return err
		}
		return nil
	}))
}

// normalizePhone parses number for region and returns its E.164 form.
func normalizePhone(region, number string) (string, error) {
	num, err := phonenumbers.Parse(number, region)
	if err != nil {
		return "", errors.New("must be a valid phone number")
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", errors.New("must be a valid phone number")
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// normalizePhonePtr is normalizePhone for optional input. Without a region
// the number is only trimmed. A blank number comes back as "", which clears
// the stored phone on update.
func normalizePhonePtr(region string, p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if region != "" && v != "" {
		if n, err := normalizePhone(region, v); err == nil {
			v = n
		}
	}
	return &v
}

// decode reads a JSON body into dst. Malformed input is a validation error.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", common.ErrorValidation)
	}
	return nil
}
