// Package validate holds client-side field checks. Failures are *errs.ValidationError values
// (joined with errors.Join when several fields fail) and never reach the server.
package validate

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/and161185/imageshop/internal/errs"
	"github.com/and161185/imageshop/internal/model"
)

var (
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	codeRe  = regexp.MustCompile(`^\d{6}$`)
)

// Email checks presence and shape.
func Email(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errs.Invalid("email", "Email is required")
	}
	if !emailRe.MatchString(email) {
		return errs.Invalid("email", "Please enter a valid email")
	}
	return nil
}

// Password requires 8+ characters with at least one letter and one digit.
func Password(field, pw string) error {
	if pw == "" {
		return errs.Invalid(field, "Password is required")
	}
	var letter, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if len([]rune(pw)) < 8 || !letter || !digit {
		return errs.Invalid(field, "Password must be 8+ chars and include letters and numbers")
	}
	return nil
}

// Name requires at least 2 characters after trimming.
func Name(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.Invalid("name", "Name is required")
	}
	if len([]rune(name)) < 2 {
		return errs.Invalid("name", "Name must be at least 2 characters")
	}
	return nil
}

// Code requires exactly six digits.
func Code(code string) error {
	if !codeRe.MatchString(strings.TrimSpace(code)) {
		return errs.Invalid("code", "Enter the 6-digit code")
	}
	return nil
}

func confirm(pw, again string) error {
	if pw != again {
		return errs.Invalid("confirmPassword", "Passwords do not match")
	}
	return nil
}

// Login checks the sign-in form.
func Login(req model.LoginRequest) error {
	var list []error
	list = append(list, Email(req.Email))
	if req.Password == "" {
		list = append(list, errs.Invalid("password", "Password is required"))
	}
	return errors.Join(list...)
}

// Register checks the registration form.
func Register(req model.RegisterRequest) error {
	return errors.Join(
		Name(req.Name),
		Email(req.Email),
		Password("password", req.Password),
		confirm(req.Password, req.ConfirmPassword),
	)
}

// CompleteRegistration checks the verification step.
func CompleteRegistration(req model.CompleteRegistrationRequest) error {
	return errors.Join(Email(req.Email), Code(req.Code))
}

// ChangePassword checks the password change form.
func ChangePassword(req model.ChangePasswordRequest) error {
	if strings.TrimSpace(req.CurrentPassword) == "" {
		return errs.Invalid("currentPassword", "Enter current password")
	}
	if err := Password("newPassword", req.NewPassword); err != nil {
		return err
	}
	return confirm(req.NewPassword, req.ConfirmPassword)
}

// TopUpAmount rejects non-positive amounts.
func TopUpAmount(amount model.Money) error {
	if amount <= 0 {
		return errs.Invalid("amount", "Amount must be greater than 0")
	}
	return nil
}

// Image checks an admin-authored image. Title and description are compared trimmed.
func Image(img model.Image) error {
	title := strings.TrimSpace(img.Title)
	desc := strings.TrimSpace(img.Description)
	switch {
	case title == "":
		return errs.Invalid("title", "Title is required")
	case len([]rune(title)) < 3:
		return errs.Invalid("title", "Title must be at least 3 characters")
	case desc != "" && len([]rune(desc)) < 10:
		return errs.Invalid("description", "Description must be at least 10 characters")
	case img.Price <= 0:
		return errs.Invalid("price", "Price must be greater than 0")
	case strings.TrimSpace(img.CategoryID) == "":
		return errs.Invalid("categoryId", "Category is required")
	}
	return nil
}

// EntityName checks a category or tag name.
func EntityName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errs.Invalid("name", "Name is required")
	}
	return nil
}

// Fields returns field -> message for every ValidationError inside err.
func Fields(err error) map[string]string {
	out := map[string]string{}
	collect(err, out)
	return out
}

func collect(err error, out map[string]string) {
	if err == nil {
		return
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range j.Unwrap() {
			collect(e, out)
		}
		return
	}
	var ve *errs.ValidationError
	if errors.As(err, &ve) {
		if _, dup := out[ve.Field]; !dup {
			out[ve.Field] = ve.Message
		}
	}
}
