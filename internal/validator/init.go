package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"ctchen222/solo-tictactoe/internal/bot"
	"ctchen222/solo-tictactoe/internal/gameplay"
)

var validate *validator.Validate

func init() {
	// Initialize validation
	validate = validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterGameValidations(validate); err != nil {
		panic(err)
	}
}

func GetValidator() *validator.Validate {
	return validate
}

// RegisterGameValidations adds the "mode" and "difficulty" tags. Gin's
// binding engine needs them too, so the server registers them there as well.
func RegisterGameValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("mode", isMode); err != nil {
		return fmt.Errorf("register mode validation: %w", err)
	}
	if err := v.RegisterValidation("difficulty", isDifficulty); err != nil {
		return fmt.Errorf("register difficulty validation: %w", err)
	}
	return nil
}

func isMode(fl validator.FieldLevel) bool {
	_, err := gameplay.ParseMode(fl.Field().String())
	return err == nil
}

func isDifficulty(fl validator.FieldLevel) bool {
	_, err := bot.ParseDifficulty(fl.Field().String())
	return err == nil
}
