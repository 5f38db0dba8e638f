package otp

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cleanmatch/cleanmatch-backend/pkg/config"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
	pkgerrors "github.com/cleanmatch/cleanmatch-backend/pkg/errors"
	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
	"github.com/cleanmatch/cleanmatch-backend/pkg/mailer"
	"github.com/cleanmatch/cleanmatch-backend/pkg/metrics"
	"github.com/cleanmatch/cleanmatch-backend/pkg/security"
)

const (
	MailSubject       = "Your CleanMatch Verification Code"
	msgRateLimited    = "Too many OTP requests. Please try again later."
	msgInvalidCode    = "Invalid OTP code. Please check and try again."
	msgExpiredCode    = "OTP has expired. Please request a new code."
	msgSent           = "OTP sent successfully"
	msgVerified       = "OTP verified successfully"
	msgDeliveryFailed = "Failed to send OTP. Please try again."
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// IssueResult is returned after a code is sent.
type IssueResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ExpiresIn int    `json:"expiresIn"`
}

// VerifyResult is returned after a code is accepted.
type VerifyResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Service issues and verifies email one-time codes.
type Service interface {
	Issue(ctx context.Context, email, name string) (*IssueResult, error)
	Verify(ctx context.Context, email, code string) (*VerifyResult, error)
}

// ServiceParams wires the OTP service.
type ServiceParams struct {
	Repo    *Repository
	Tx      txRunner
	Mailer  mailer.Mailer
	Config  config.OTPConfig
	Metrics *metrics.OTPMetrics
	Logger  *logger.Logger
}

type service struct {
	repo    *Repository
	tx      txRunner
	mailer  mailer.Mailer
	cfg     config.OTPConfig
	metrics *metrics.OTPMetrics
	logg    *logger.Logger
	now     func() time.Time
	random  io.Reader
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("otp repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	cfg := params.Config
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.MaxIssues <= 0 {
		cfg.MaxIssues = 3
	}
	if cfg.IssueWindow <= 0 {
		cfg.IssueWindow = time.Hour
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		mailer:  params.Mailer,
		cfg:     cfg,
		metrics: params.Metrics,
		logg:    logg,
		now:     time.Now,
	}, nil
}

func (s *service) Issue(ctx context.Context, email, name string) (*IssueResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	code, err := security.GenerateOTP(s.random)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}
	hash, err := security.HashOTP(s.cfg.Pepper, email, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash otp")
	}

	now := s.now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		recent, err := repo.CountIssuedSince(ctx, email, now.Add(-s.cfg.IssueWindow))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count recent otps")
		}
		if recent >= int64(s.cfg.MaxIssues) {
			return pkgerrors.New(pkgerrors.CodeRateLimit, msgRateLimited)
		}
		if _, err := repo.SupersedeUnverified(ctx, email); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "supersede otps")
		}
		return repo.Create(ctx, &models.EmailOTP{
			Email:     email,
			CodeHash:  hash,
			ExpiresAt: now.Add(s.cfg.TTL),
			CreatedAt: now,
		})
	})
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeRateLimit) {
			s.metrics.IncRateLimited()
			return nil, err
		}
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store otp")
		}
		return nil, err
	}

	if err := s.mailer.Send(ctx, mailer.Message{
		To:      email,
		Subject: MailSubject,
		Body:    renderBody(name, code, s.cfg.TTL),
	}); err != nil {
		logCtx := s.logg.WithField(ctx, "email", email)
		s.logg.Error(logCtx, "otp.delivery_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDelivery, err, msgDeliveryFailed)
	}
	s.metrics.IncIssued()

	return &IssueResult{
		Success:   true,
		Message:   msgSent,
		ExpiresIn: int(s.cfg.TTL / time.Second),
	}, nil
}

func (s *service) Verify(ctx context.Context, email, code string) (*VerifyResult, error) {
	code = strings.TrimSpace(code)
	if strings.TrimSpace(email) == "" || code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Email and OTP are required")
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := security.HashOTP(s.cfg.Pepper, email, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash otp")
	}

	row, err := s.repo.FindLatestUnverified(ctx, email, hash)
	if err != nil {
		if db.IsNotFound(err) {
			s.metrics.IncVerify(metrics.OTPResultInvalid)
			return nil, pkgerrors.New(pkgerrors.CodeOTPInvalid, msgInvalidCode)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load otp")
	}
	if !security.EqualHashes(row.CodeHash, hash) {
		s.metrics.IncVerify(metrics.OTPResultInvalid)
		return nil, pkgerrors.New(pkgerrors.CodeOTPInvalid, msgInvalidCode)
	}
	if s.now().UTC().After(row.ExpiresAt) {
		s.metrics.IncVerify(metrics.OTPResultExpired)
		return nil, pkgerrors.New(pkgerrors.CodeOTPExpired, msgExpiredCode)
	}

	ok, err := s.repo.MarkVerified(ctx, row.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark otp verified")
	}
	if !ok {
		s.metrics.IncVerify(metrics.OTPResultInvalid)
		return nil, pkgerrors.New(pkgerrors.CodeOTPInvalid, msgInvalidCode)
	}
	s.metrics.IncVerify(metrics.OTPResultVerified)
	return &VerifyResult{Success: true, Message: msgVerified}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid email").WithDetails(map[string]string{"email": "must be a valid email"})
	}
	return email, nil
}

func renderBody(name, code string, ttl time.Duration) string {
	greeting := "Hi there,"
	if n := strings.TrimSpace(name); n != "" {
		greeting = fmt.Sprintf("Hi %s,", n)
	}
	return fmt.Sprintf("%s\n\nYour CleanMatch verification code is %s.\nIt expires in %d minutes.\n\nIf you did not request this code, you can ignore this email.\n",
		greeting, code, int(ttl/time.Minute))
}
