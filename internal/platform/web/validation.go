package web

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ginのフォームバインドで独自タグを使えるように登録する
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := RegisterValidations(v); err != nil {
			panic(err)
		}
	}
}

// RegisterValidations は独自のバリデーションタグを登録します。
//
//	maxbytes=N: 文字列のUTF-8バイト長がN以下（bcryptは72バイトまでしか扱えない）
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("maxbytes", maxBytes)
}

func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// Rule はバリデーション失敗をどの項目にどのメッセージで表示するかを表します。
type Rule struct {
	Field   string
	Message string
}

// Messages は "構造体フィールド名.タグ"（例: "Email.email"）からRuleへの対応表です。
type Messages map[string]Rule

// invalidInputMessage は対応表に無い失敗やバインド自体の失敗で表示するメッセージです。
const invalidInputMessage = "入力内容を確認してください"

// TranslateBindError はginのバインドエラーをフォーム項目ごとのエラーに変換します。
// validator以外のエラー（フォームの解析失敗など）はフォーム全体のエラーになります。
func TranslateBindError(err error, messages Messages) FieldErrors {
	errs := FieldErrors{}
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("form", invalidInputMessage)
		return errs
	}

	for _, fe := range verrs {
		if rule, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
			errs.Add(rule.Field, rule.Message)
			continue
		}
		if rule, ok := messages[fe.Field()]; ok {
			errs.Add(rule.Field, rule.Message)
			continue
		}
		errs.Add("form", invalidInputMessage)
	}
	return errs
}
