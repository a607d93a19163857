package handler

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"school-portal/backend/internal/academics"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators 向 gin 的校验引擎注册自定义标签，重复调用返回首次结果
//   - grade_letter: 成绩等级必须在等级表中
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin 校验引擎不是 validator/v10")
			return
		}
		if err := v.RegisterValidation("grade_letter", func(fl validator.FieldLevel) bool {
			return academics.IsValidLetter(fl.Field().String())
		}); err != nil {
			registerErr = fmt.Errorf("注册 grade_letter 校验失败: %w", err)
		}
	})
	return registerErr
}
