package auth

import (
	"context"
	"errors"
	"time"

	"salesapi/internal/domain/model"
	"salesapi/internal/repository"
)

// ユーザー名またはパスワードが違う。
// どちらが違うかは呼び出し元にも漏らさない。
var ErrInvalidCredentials = errors.New("invalid credentials")

// 停止・凍結済みユーザー
var ErrUserInactive = errors.New("user is inactive")

// handlerからusecaseに渡す入力
type LoginInput struct {
	Username string
	Password string
}

// handlerがJSONにして返す
type LoginOutput struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

// JWTを発行する約束
type TokenIssuer interface {
	Issue(username string, role model.Role, now time.Time) (token string, expiresAt time.Time, err error)
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

type LoginUsecase struct {
	userRepo repository.UserRepository
	verifier PasswordVerifier
	issuer   TokenIssuer
	clock    Clock
}

func NewLoginUsecase(
	userRepo repository.UserRepository,
	verifier PasswordVerifier,
	issuer TokenIssuer,
	clock Clock,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo: userRepo,
		verifier: verifier,
		issuer:   issuer,
		clock:    clock,
	}
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, error) {
	var out LoginOutput

	// usernameでユーザー取得。未登録でもパスワード不一致と同じ失敗にする
	user, err := u.userRepo.FindByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return out, ErrInvalidCredentials
		}
		return out, err
	}

	// 停止ユーザーはログイン不可
	if user.Status != model.StatusActive {
		return out, ErrUserInactive
	}

	// パスワード照合
	if ok := u.verifier.Verify(in.Password, user.PasswordHash); !ok {
		return out, ErrInvalidCredentials
	}

	// AccessToken発行
	now := u.clock.Now()
	token, expiresAt, err := u.issuer.Issue(user.Username, user.Role, now)
	if err != nil {
		return out, err
	}

	out.AccessToken = token
	out.TokenType = "bearer"
	out.ExpiresIn = int(expiresAt.Sub(now) / time.Second)
	return out, nil
}
