package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-management/internal/domain/apperror"
	"github.com/oksasatya/go-user-management/internal/domain/entity"
	repo "github.com/oksasatya/go-user-management/internal/domain/repository"
	"github.com/oksasatya/go-user-management/pkg/mailer"
	mailtpl "github.com/oksasatya/go-user-management/pkg/mailer/templates"
	"github.com/oksasatya/go-user-management/pkg/validation"
)

// Register signs up a new account. The first account in an empty store
// becomes a verified ADMIN; every other account starts ANONYMOUS and
// unverified, and a verification e-mail is enqueued.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	in.normalize()
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	role := entity.RoleAnonymous
	if count == 0 {
		role = entity.RoleAdmin
	}
	u, err := s.newUser(in, role)
	if err != nil {
		return nil, err
	}
	u.EmailVerified = role == entity.RoleAdmin

	if err := s.insert(ctx, u, in.Nickname == nil); err != nil {
		return nil, err
	}
	registrations.Add(1)
	s.logger.WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email, "role": u.Role}).Info("user registered")

	if !u.EmailVerified {
		s.sendVerification(ctx, u)
	}
	s.indexUser(ctx, u)
	return u, nil
}

// Login checks the lockout state first, then the credentials. Unknown
// e-mail, wrong password and unverified account are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, error) {
	email = validation.NormalizeEmail(email)
	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		loginFailures.Add(1)
		s.logger.WithField("email", email).Warn("login for unknown email")
		return TokenPair{}, apperror.ErrBadCredentials
	}
	if err != nil {
		return TokenPair{}, storeErr(err)
	}

	if err := s.lockout.Check(u.Lockout()); err != nil {
		s.logger.WithField("user_id", u.ID).Warn("login attempt on locked account")
		return TokenPair{}, err
	}

	if !s.hasher.Verify(u.PasswordHash, password) {
		loginFailures.Add(1)
		state, err := s.repo.RecordLoginFailure(ctx, u.ID, s.lockout.Threshold)
		if err != nil {
			return TokenPair{}, storeErr(err)
		}
		log := s.logger.WithFields(logrus.Fields{"user_id": u.ID, "failed_attempts": state.FailedAttempts})
		if state.IsLocked {
			lockouts.Add(1)
			log.Warn("account locked")
			s.sendLocked(ctx, u)
		} else {
			log.Warn("login failed")
		}
		return TokenPair{}, apperror.ErrBadCredentials
	}

	if !u.EmailVerified {
		loginFailures.Add(1)
		s.logger.WithField("user_id", u.ID).Warn("login for unverified account")
		return TokenPair{}, apperror.ErrBadCredentials
	}

	if err := s.repo.RecordLoginSuccess(ctx, u.ID); err != nil {
		return TokenPair{}, storeErr(err)
	}
	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", u.ID).Error("issue access token failed")
		return TokenPair{}, apperror.Internal(err)
	}
	loginSuccesses.Add(1)
	s.logger.WithField("user_id", u.ID).Info("user logged in")
	return TokenPair{AccessToken: token, AccessTokenExpiry: exp, TokenType: "bearer"}, nil
}

// VerifyEmail consumes a verification token. ANONYMOUS accounts are
// promoted to AUTHENTICATED; other roles are kept.
func (s *Service) VerifyEmail(ctx context.Context, id, token string) (*entity.User, error) {
	if s.verify == nil || token == "" {
		return nil, apperror.ErrInvalidVerifyToken
	}
	ok, err := s.verify.Consume(ctx, id, token)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", id).Error("verification token lookup failed")
		return nil, apperror.Internal(err)
	}
	if !ok {
		return nil, apperror.ErrInvalidVerifyToken
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	role := u.Role
	if role == entity.RoleAnonymous {
		role = entity.RoleAuthenticated
	}
	if err := s.repo.SetVerified(ctx, id, role); err != nil {
		return nil, storeErr(err)
	}
	u.EmailVerified, u.Role = true, role
	s.logger.WithField("user_id", id).Info("email verified")
	s.indexUser(ctx, u)
	return u, nil
}

func (s *Service) sendVerification(ctx context.Context, u *entity.User) {
	if s.verify == nil {
		return
	}
	token, err := s.verify.Issue(ctx, u.ID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", u.ID).Warn("issue verification token failed")
		return
	}
	link := s.verifyURL + "/" + u.ID + "/" + token
	opts := []mailtpl.Option{}
	if s.verifyTTL > 0 {
		opts = append(opts, mailtpl.WithExpiresIn(s.verifyTTL))
	}
	s.enqueue(ctx, u, mailtpl.VerifyEmail, mailtpl.NewVerifyEmailData(s.brand, displayName(u), u.Email, link, opts...))
}

func (s *Service) sendLocked(ctx context.Context, u *entity.User) {
	s.enqueue(ctx, u, mailtpl.AccountLocked, mailtpl.NewAccountLockedData(s.brand, displayName(u), u.Email))
}

func (s *Service) enqueue(ctx context.Context, u *entity.User, template string, data map[string]any) {
	if s.notifier == nil {
		return
	}
	job := mailer.EmailJob{To: u.Email, Template: template, Data: data}
	if err := s.notifier.Enqueue(ctx, job); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"user_id": u.ID, "template": template}).Warn("enqueue email failed")
	}
}

func displayName(u *entity.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Nickname
}
