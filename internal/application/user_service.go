package application

import (
	"context"
	"errors"
	"expvar"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-management/internal/domain/apperror"
	"github.com/oksasatya/go-user-management/internal/domain/entity"
	"github.com/oksasatya/go-user-management/internal/domain/policy"
	repo "github.com/oksasatya/go-user-management/internal/domain/repository"
	"github.com/oksasatya/go-user-management/pkg/helpers"
	mailtpl "github.com/oksasatya/go-user-management/pkg/mailer/templates"
	"github.com/oksasatya/go-user-management/pkg/validation"
)

const maxNicknameAttempts = 5

// Counters published on /debug/vars.
var (
	loginSuccesses = expvar.NewInt("user_login_successes")
	loginFailures  = expvar.NewInt("user_login_failures")
	lockouts       = expvar.NewInt("user_lockouts")
	registrations  = expvar.NewInt("user_registrations")
)

// Deps groups the collaborators of Service. Notifier, Search, Avatars and
// Verification are optional.
type Deps struct {
	Repo      repo.UserRepository
	Hasher    helpers.PasswordHasher
	Tokens    *helpers.TokenService
	Nicknames helpers.NicknameGenerator
	Validator *validation.Validator
	Lockout   policy.Lockout
	Logger    *logrus.Logger

	Notifier     Notifier
	Search       SearchIndex
	Avatars      AvatarStore
	Verification VerificationStore

	Brand           mailtpl.Brand
	VerifyEmailURL  string
	VerifyTokenTTL  time.Duration
	PageSizeDefault int
	PageSizeMax     int
}

type Service struct {
	repo      repo.UserRepository
	hasher    helpers.PasswordHasher
	tokens    *helpers.TokenService
	nicknames helpers.NicknameGenerator
	validate  *validation.Validator
	lockout   policy.Lockout
	logger    *logrus.Logger

	notifier Notifier
	search   SearchIndex
	avatars  AvatarStore
	verify   VerificationStore

	brand       mailtpl.Brand
	verifyURL   string
	verifyTTL   time.Duration
	pageDefault int
	pageMax     int
}

func NewService(d Deps) *Service {
	s := &Service{
		repo:        d.Repo,
		hasher:      d.Hasher,
		tokens:      d.Tokens,
		nicknames:   d.Nicknames,
		validate:    d.Validator,
		lockout:     d.Lockout,
		logger:      d.Logger,
		notifier:    d.Notifier,
		search:      d.Search,
		avatars:     d.Avatars,
		verify:      d.Verification,
		brand:       d.Brand,
		verifyURL:   strings.TrimRight(d.VerifyEmailURL, "/"),
		verifyTTL:   d.VerifyTokenTTL,
		pageDefault: d.PageSizeDefault,
		pageMax:     d.PageSizeMax,
	}
	if s.hasher == nil {
		s.hasher = helpers.NewBcryptHasher(0)
	}
	if s.nicknames == nil {
		s.nicknames = helpers.RandomNicknames{}
	}
	if s.validate == nil {
		s.validate = validation.New()
	}
	if s.lockout.Threshold < 1 {
		s.lockout = policy.NewLockout(0)
	}
	if s.logger == nil {
		s.logger = helpers.NewDiscardLogger()
	}
	if s.pageDefault <= 0 {
		s.pageDefault = 10
	}
	if s.pageMax < s.pageDefault {
		s.pageMax = max(100, s.pageDefault)
	}
	return s
}

func authorize(actor Actor, op policy.Operation, targetID string) error {
	if !policy.Allowed(actor.Role, op, actor.ID, targetID) {
		return apperror.ErrForbidden
	}
	return nil
}

// storeErr translates repository sentinels to domain errors.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return apperror.ErrUserNotFound
	case errors.Is(err, repo.ErrDuplicateEmail):
		return apperror.ErrEmailExists
	case errors.Is(err, repo.ErrDuplicateNickname):
		return apperror.ErrNicknameExists
	}
	return apperror.Internal(err)
}

// Create adds a user on behalf of an administrator. Created users are
// verified and AUTHENTICATED unless a role is given.
func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (*entity.User, error) {
	if err := authorize(actor, policy.OpCreateUser, ""); err != nil {
		return nil, err
	}
	in.normalize()
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	role := entity.RoleAuthenticated
	if in.Role != nil {
		role, _ = entity.ParseRole(*in.Role)
	}
	u, err := s.newUser(in.RegisterInput, role)
	if err != nil {
		return nil, err
	}
	u.EmailVerified = true
	if err := s.insert(ctx, u, in.Nickname == nil); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"user_id": u.ID, "actor_id": actor.ID, "role": u.Role}).Info("user created")
	s.indexUser(ctx, u)
	return u, nil
}

func (s *Service) Get(ctx context.Context, actor Actor, id string) (*entity.User, error) {
	if err := authorize(actor, policy.OpGetUser, id); err != nil {
		return nil, err
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return u, nil
}

// Me returns the caller's own profile.
func (s *Service) Me(ctx context.Context, actor Actor) (*entity.User, error) {
	if actor.ID == "" {
		return nil, apperror.ErrInvalidToken
	}
	u, err := s.repo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	return u, nil
}

func (s *Service) Update(ctx context.Context, actor Actor, id string, in UpdateInput) (*entity.User, error) {
	if err := authorize(actor, policy.OpUpdateUser, id); err != nil {
		return nil, err
	}
	if in.Role != nil {
		if err := authorize(actor, policy.OpChangeRole, id); err != nil {
			return nil, err
		}
	}
	if in.Password != nil {
		if err := authorize(actor, policy.OpChangePassword, id); err != nil {
			return nil, err
		}
	}
	if in.empty() {
		return nil, apperror.NewValidationError("payload", "at least one field must be provided")
	}
	in.normalize()
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	changed := map[string]string{}
	set := func(field string, dst *string, src *string) {
		if src != nil && *dst != *src {
			*dst = *src
			changed[field] = *src
		}
	}
	set("email", &u.Email, in.Email)
	set("nickname", &u.Nickname, in.Nickname)
	set("first_name", &u.FirstName, in.FirstName)
	set("last_name", &u.LastName, in.LastName)
	set("bio", &u.Bio, in.Bio)
	set("profile_picture_url", &u.ProfilePictureURL, in.ProfilePictureURL)
	set("github_profile_url", &u.GithubProfileURL, in.GithubProfileURL)
	set("linkedin_profile_url", &u.LinkedinProfileURL, in.LinkedinProfileURL)
	var newRole entity.Role
	if in.Role != nil {
		role, _ := entity.ParseRole(*in.Role)
		if role != u.Role {
			newRole = role
			changed["role"] = string(role)
		}
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		u.PasswordHash = hash
		changed["password"] = "changed"
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, storeErr(err)
	}
	if newRole != "" {
		if err := s.repo.SetRole(ctx, u.ID, newRole); err != nil {
			return nil, storeErr(err)
		}
		u.Role = newRole
	}
	s.logger.WithFields(logrus.Fields{"user_id": u.ID, "actor_id": actor.ID, "fields": len(changed)}).Info("user updated")
	s.indexUser(ctx, u)
	return u, nil
}

func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	if err := authorize(actor, policy.OpDeleteUser, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeErr(err)
	}
	s.logger.WithFields(logrus.Fields{"user_id": id, "actor_id": actor.ID}).Info("user deleted")
	if s.search != nil {
		if err := s.search.Remove(ctx, id); err != nil {
			s.logger.WithError(err).WithField("user_id", id).Warn("search index removal failed")
		}
	}
	return nil
}

// List returns users ordered by creation time. limit is clamped to the
// configured maximum; zero selects the default page size.
func (s *Service) List(ctx context.Context, actor Actor, skip, limit int) (Page, error) {
	if err := authorize(actor, policy.OpListUsers, ""); err != nil {
		return Page{}, err
	}
	if skip < 0 {
		return Page{}, apperror.NewValidationError("skip", "must be at least 0")
	}
	if limit < 0 {
		return Page{}, apperror.NewValidationError("limit", "must be at least 1")
	}
	if limit == 0 {
		limit = s.pageDefault
	}
	limit = min(limit, s.pageMax)

	users, total, err := s.repo.List(ctx, repo.ListOptions{Offset: skip, Limit: limit})
	if err != nil {
		return Page{}, storeErr(err)
	}
	return Page{Items: users, Total: total, Page: skip/limit + 1, Size: limit, Skip: skip}, nil
}

// Search runs a full-text query over the search index and loads the hits
// from the primary store. Without an index it returns no results.
func (s *Service) Search(ctx context.Context, actor Actor, query string, size int) ([]*entity.User, error) {
	if err := authorize(actor, policy.OpSearchUsers, ""); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.NewValidationError("q", "is required")
	}
	if size <= 0 {
		size = s.pageDefault
	}
	size = min(size, s.pageMax)
	out := []*entity.User{}
	if s.search == nil {
		return out, nil
	}
	ids, err := s.search.Search(ctx, query, size)
	if err != nil {
		s.logger.WithError(err).WithField("query", query).Warn("user search failed")
		return nil, apperror.Internal(err)
	}
	for _, id := range ids {
		u, err := s.repo.GetByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, storeErr(err)
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *Service) Unlock(ctx context.Context, actor Actor, id string) (*entity.User, error) {
	if err := authorize(actor, policy.OpUnlockUser, id); err != nil {
		return nil, err
	}
	if err := s.repo.Unlock(ctx, id); err != nil {
		return nil, storeErr(err)
	}
	s.logger.WithFields(logrus.Fields{"user_id": id, "actor_id": actor.ID}).Info("user unlocked")
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return u, nil
}

// UploadAvatar stores an image and points profile_picture_url at it.
func (s *Service) UploadAvatar(ctx context.Context, actor Actor, id string, r io.Reader, filename, contentType string) (*entity.User, error) {
	if err := authorize(actor, policy.OpUploadAvatar, id); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperror.NewValidationError("file", "must be an image")
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if s.avatars == nil {
		return nil, apperror.BadRequest("Avatar storage is not configured")
	}
	url, err := s.avatars.Upload(ctx, id, r, filename, contentType)
	if apperror.KindOf(err) == apperror.KindValidation {
		return nil, err
	}
	if err != nil {
		s.logger.WithError(err).WithField("user_id", id).Error("avatar upload failed")
		return nil, apperror.Internal(err)
	}
	u.ProfilePictureURL = url
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, storeErr(err)
	}
	s.indexUser(ctx, u)
	return u, nil
}

// newUser builds an unsaved user from validated input.
func (s *Service) newUser(in RegisterInput, role entity.Role) (*entity.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	u := &entity.User{
		ID:                 uuid.NewString(),
		Email:              in.Email,
		PasswordHash:       hash,
		FirstName:          in.FirstName,
		LastName:           in.LastName,
		Bio:                in.Bio,
		ProfilePictureURL:  in.ProfilePictureURL,
		GithubProfileURL:   in.GithubProfileURL,
		LinkedinProfileURL: in.LinkedinProfileURL,
		Role:               role,
	}
	if in.Nickname != nil {
		u.Nickname = *in.Nickname
	}
	return u, nil
}

// insert persists u. With generate set, a nickname is drawn from the
// generator and redrawn on collision.
func (s *Service) insert(ctx context.Context, u *entity.User, generate bool) error {
	if !generate {
		return storeErr(s.repo.Create(ctx, u))
	}
	for attempt := 0; attempt < maxNicknameAttempts; attempt++ {
		nick, err := s.nicknames.Generate()
		if err != nil {
			return apperror.Internal(err)
		}
		taken, err := s.repo.ExistsByNickname(ctx, nick)
		if err != nil {
			return storeErr(err)
		}
		if taken {
			continue
		}
		u.Nickname = nick
		err = s.repo.Create(ctx, u)
		if errors.Is(err, repo.ErrDuplicateNickname) {
			continue
		}
		return storeErr(err)
	}
	s.logger.WithField("email", u.Email).Error("nickname generation exhausted")
	return apperror.Internal(errors.New("could not generate a unique nickname"))
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) {
	if s.search == nil {
		return
	}
	if err := s.search.Index(ctx, u); err != nil {
		s.logger.WithError(err).WithField("user_id", u.ID).Warn("search index failed")
	}
}
