package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/nulzo/model-selector/pkg/schema"
)

// Validator wraps gin's validator engine with English messages and the
// selector's custom tags.
type Validator struct {
	trans ut.Translator
}

// New configures gin's binding engine. Call it once before serving.
func New() *Validator {
	v := &Validator{}

	engine, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return v
	}

	engine.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	locale := en.New()
	uni := ut.New(locale, locale)
	v.trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(engine, v.trans)

	_ = engine.RegisterValidation("capability", func(fl validator.FieldLevel) bool {
		_, err := schema.ParseCapability(fl.Field().String())
		return err == nil
	})
	_ = engine.RegisterTranslation("capability", v.trans,
		func(ut ut.Translator) error {
			return ut.Add("capability", "{0} must be a known capability", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("capability", fe.Field())
			return msg
		},
	)
	return v
}

// ParseError flattens binding errors into field -> message.
func (v *Validator) ParseError(err error) map[string]string {
	errMap := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errMap["body"] = "Invalid request body format. Please fix your payload."
		return errMap
	}

	for _, e := range validationErrors {
		ns := e.Namespace()
		if i := strings.Index(ns, "."); i != -1 {
			ns = ns[i+1:]
		}

		msg := e.Error()
		if v.trans != nil {
			msg = e.Translate(v.trans)
		}
		if e.Tag() == "oneof" {
			msg = fmt.Sprintf("must be one of [%s]", strings.ReplaceAll(e.Param(), " ", ", "))
		}
		errMap[ns] = msg
	}
	return errMap
}
