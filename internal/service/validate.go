package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var diopterPattern = regexp.MustCompile(`^[+-]?\d{1,2}(\.\d{1,2})?$`)

// recordValidator 记录类输入的校验器，自定义规则在初始化时注册
var recordValidator = newRecordValidator()

func newRecordValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("diopter", func(fl validator.FieldLevel) bool {
		value := strings.TrimSpace(fl.Field().String())
		return value == "" || diopterPattern.MatchString(value)
	})
	return v
}

// validateStruct 校验结构体并以 sentinel 包装错误
func validateStruct(input interface{}, sentinel error) error {
	if err := recordValidator.Struct(input); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("%w: %v", sentinel, err)
		}
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", sentinel, strings.Join(msgs, "; "))
	}
	return nil
}
