package core

import (
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	notBlankTag  = "notblank"
	notBlankText = "this field cannot be blank"

	// ContactNoRegex matches 10 digit mobile numbers starting with 6-9.
	ContactNoRegex = regexp.MustCompile(`^[6-9]\d{9}$`)
	contactNoTag   = "contactno"
	contactNoText  = "Contact number must be 10 digits starting with 6-9."

	// EmailRegex is the permissive address pattern applied at registration.
	EmailRegex   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	emailAddrTag = "emailaddr"
	emailText    = "Invalid Email format."

	FullNameMinLen = 3
	fullNameTag    = "fullname"
	fullNameText   = "Full Name must be at least 3 characters."

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// NewValidator instantiates a validator and its English translator for use.
func NewValidator() (*validator.Validate, ut.Translator) {
	english := en.New()
	translator, _ := ut.New(english, english).GetTranslator("en")
	validate := validator.New()
	InitValidators(validate, translator)
	return validate, translator
}

// InitValidators registers default translations and the custom validators shared by every package.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(validate, translator, notBlankTag, notBlankText)

	_ = validate.RegisterValidation(contactNoTag, contactNoValidation)
	RegisterCustomTranslation(validate, translator, contactNoTag, contactNoText)

	_ = validate.RegisterValidation(emailAddrTag, emailAddrValidation)
	RegisterCustomTranslation(validate, translator, emailAddrTag, emailText)

	_ = validate.RegisterValidation(fullNameTag, fullNameValidation)
	RegisterCustomTranslation(validate, translator, fullNameTag, fullNameText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// TranslateAll flattens validation errors into their translated messages, keeping the field order.
func TranslateAll(err error, translator ut.Translator) []string {
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(vErrs))
	for _, vErr := range vErrs {
		msgs = append(msgs, vErr.Translate(translator))
	}
	return msgs
}

// Custom Global Validators

func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func contactNoValidation(fl validator.FieldLevel) bool {
	return ContactNoRegex.MatchString(fl.Field().String())
}

func emailAddrValidation(fl validator.FieldLevel) bool {
	return EmailRegex.MatchString(fl.Field().String())
}

// fullNameValidation checks the trimmed name length in characters.
func fullNameValidation(fl validator.FieldLevel) bool {
	return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= FullNameMinLen
}
