package middleware

import (
	"net/http"

	"github.com/provendata/pacertrack/internal/model"
)

// RequirePermission は認証済みユーザーの権限が許可セットに含まれる場合のみ
// リクエストを通過させるミドルウェアを返す。
// セッションミドルウェアの後段に配置すること。
//
// ゲートを通過できないリクエストには403とForbiddenエラーのみを返し、
// データは一切返さない。
func RequirePermission(allowed ...model.Permission) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := UserFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			if !user.Permission.In(allowed...) {
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
