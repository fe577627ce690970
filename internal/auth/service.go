package auth

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// UserStore は認証サービスが必要とするユーザー永続化のインターフェース。
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	StudentID string `json:"studentId"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FacultyID string `json:"facultyId"`
}

// Service はユーザー登録・ログインの認証サービス。
type Service struct {
	users  UserStore
	issuer *TokenIssuer
}

// NewService はServiceを生成する。
func NewService(users UserStore, issuer *TokenIssuer) *Service {
	return &Service{
		users:  users,
		issuer: issuer,
	}
}

// Register は新規ユーザーを登録する。
// 入力検証に失敗した場合はフィールド単位のメッセージを含む検証エラーを返す。
// メールアドレス・学籍番号の重複は一意制約違反としてデータ層から返る。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	if fields := validateRegisterInput(input); len(fields) > 0 {
		return nil, model.NewValidationError(fields...)
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.NewString(),
		StudentID:    strings.TrimSpace(input.StudentID),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         model.RoleStudent,
		FacultyID:    input.FacultyID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login はメールアドレスとパスワードで認証し、トークンを発行する。
// ユーザーの存在有無を漏らさないため、失敗理由は区別せず検証エラーとする。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", model.NewValidationError("email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil || !CheckPassword(user.PasswordHash, password) {
		return nil, "", model.NewValidationError("incorrect email or password")
	}

	token, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, token, nil
}

// CurrentUser はトークンの主体に対応するユーザーを返す。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewNotFoundError()
	}
	return user, nil
}

// validateRegisterInput は登録入力を検証し、フィールド単位のメッセージを返す。
func validateRegisterInput(input RegisterInput) []string {
	var fields []string

	if strings.TrimSpace(input.StudentID) == "" {
		fields = append(fields, "studentId is required")
	}
	if strings.TrimSpace(input.Email) == "" {
		fields = append(fields, "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		fields = append(fields, "email is not a valid address")
	}
	if len(input.Password) < 8 {
		fields = append(fields, "password must be at least 8 characters")
	}
	if strings.TrimSpace(input.FirstName) == "" {
		fields = append(fields, "firstName is required")
	}
	if strings.TrimSpace(input.LastName) == "" {
		fields = append(fields, "lastName is required")
	}

	return fields
}
