package user

import (
	"context"
	"net/mail"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/identity"
	"github.com/vishvavidya/traininghub/core/student"
)

var (
	// errors
	ErrNotFound           = &core.NotFoundError{Message: "user not found"}
	ErrInvalidCredentials = errors.New("Invalid username or password")
	ErrAccountDeactivated = core.NewForbiddenError("account deactivated")
	ErrDeleteSelf         = core.NewForbiddenError("you cannot delete your own account")
	ErrInvalidResetLink   = core.NewRulesError("Invalid password reset link", "the reset link is invalid or has expired")
)

type (
	// Store persists staff accounts.
	Store interface {
		identity.Sequence

		// Atomic runs fn inside a single transaction.
		Atomic(ctx context.Context, fn func(tx Store) error) error
		// CreateUser returns a core.DuplicateError when the email is taken.
		CreateUser(ctx context.Context, usr User) error
		// GetUser finds a User by ID or email and returns ErrNotFound when none matches.
		GetUser(ctx context.Context, idOrEmail string) (User, error)
		ListUsers(ctx context.Context, role string) ([]User, error)
		SetPassword(ctx context.Context, id string, hash []byte, at time.Time) error
		SetLastLogin(ctx context.Context, id string, at time.Time) error
		// UpdateUser saves the profile fields of usr and returns a core.DuplicateError when the email is taken.
		UpdateUser(ctx context.Context, usr User) error
		// DeleteUsers deletes the accounts of role among ids and returns how many were deleted.
		DeleteUsers(ctx context.Context, role string, ids ...string) (int, error)
	}

	// InternAuthenticator checks intern credentials.
	InternAuthenticator interface {
		Authenticate(ctx context.Context, studentID, pwd string) (student.LoginCredential, error)
	}

	Service struct {
		store      Store
		interns    InternAuthenticator
		mailSvc    core.EmailService
		validate   *validator.Validate
		translator ut.Translator
	}
)

func NewService(store Store, interns InternAuthenticator, mailSvc core.EmailService) *Service {
	validate, translator := newValidator()
	return &Service{
		store:      store,
		interns:    interns,
		mailSvc:    mailSvc,
		validate:   validate,
		translator: translator,
	}
}

func (svc *Service) validationError(err error) error {
	return core.NewRulesError("Validation failed", core.TranslateAll(err, svc.translator)...)
}

// CreateStaff creates a staff account with a generated ID & initial password, then emails the credentials.
func (svc *Service) CreateStaff(ctx context.Context, actor core.Actor, ns NewStaff) (Credentials, error) {
	ns.Clean()
	if err := svc.validate.Struct(ns); err != nil {
		return Credentials{}, svc.validationError(err)
	}
	kind := roleKinds[ns.Role]

	var creds Credentials
	err := svc.store.Atomic(ctx, func(tx Store) error {
		now := NowFunc().UTC()
		id, err := identity.NextID(ctx, tx, kind, now.Year())
		if err != nil {
			return errors.Wrap(err, "generating user id")
		}
		pwd, err := identity.InitialPassword(kind, ns.Name, ns.Contact, now.Year())
		if err != nil {
			return err
		}

		usr := User{
			ID:          id,
			Name:        ns.Name,
			Email:       ns.Email,
			Contact:     ns.Contact,
			Role:        ns.Role,
			Technology:  ns.Technology,
			IsActive:    true,
			CreatedBy:   actor.UserID,
			CreatorRole: actor.Role,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := usr.SetPassword(pwd); err != nil {
			return errors.Wrap(err, "hashing password")
		}
		if err := tx.CreateUser(ctx, usr); err != nil {
			if core.IsDuplicate(err) {
				return core.NewDuplicateError("A user with this email already exists")
			}
			return errors.Wrap(err, "inserting user")
		}
		creds = Credentials{User: usr, Password: pwd}
		return nil
	})
	if err != nil {
		return Credentials{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: creds.User.Name, Address: creds.User.Email}},
		Subject:      "Your account has been created",
		TemplateName: "staff_credentials",
		TemplateData: map[string]string{
			"Name":     creds.User.Name,
			"UserID":   creds.User.ID,
			"Password": creds.Password,
		},
	})
	return creds, nil
}

func (svc *Service) Get(ctx context.Context, idOrEmail string) (User, error) {
	return svc.store.GetUser(ctx, core.CleanString(idOrEmail))
}

// GetStaff finds a staff account of role by ID. It returns ErrNotFound for accounts of another role.
func (svc *Service) GetStaff(ctx context.Context, id, role string) (User, error) {
	return getStaff(ctx, svc.store, id, role)
}

func getStaff(ctx context.Context, store Store, id, role string) (User, error) {
	usr, err := store.GetUser(ctx, core.CleanString(id))
	if err != nil {
		return User{}, err
	}
	if role != "" && usr.Role != role {
		return User{}, ErrNotFound
	}
	return usr, nil
}

// Update edits the profile of the staff account id of role.
func (svc *Service) Update(ctx context.Context, actor core.Actor, id, role string, us UpdateStaff) (User, error) {
	us.Clean()
	if err := svc.validate.Struct(us); err != nil {
		return User{}, svc.validationError(err)
	}

	var usr User
	err := svc.store.Atomic(ctx, func(tx Store) error {
		var err error
		if usr, err = getStaff(ctx, tx, id, role); err != nil {
			return err
		}
		usr.Name = us.Name
		usr.Email = us.Email
		usr.Contact = us.Contact
		if us.Technology != "" {
			usr.Technology = us.Technology
		}
		usr.UpdatedBy = actor.UserID
		usr.UpdatedAt = NowFunc().UTC()

		if err := tx.UpdateUser(ctx, usr); err != nil {
			if core.IsDuplicate(err) {
				return core.NewDuplicateError("A user with this email already exists")
			}
			return errors.Wrap(err, "updating user")
		}
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return usr, nil
}

// Delete deletes the staff accounts of role among ids. Nobody may delete their own account.
// It returns ErrNotFound when none was deleted.
func (svc *Service) Delete(ctx context.Context, actor core.Actor, role string, ids ...string) error {
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		id = core.CleanString(id)
		if id == "" {
			continue
		}
		if id == actor.UserID {
			return ErrDeleteSelf
		}
		cleaned = append(cleaned, id)
	}
	if len(cleaned) == 0 {
		return ErrNotFound
	}

	n, err := svc.store.DeleteUsers(ctx, role, cleaned...)
	if err != nil {
		return errors.Wrap(err, "deleting users")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List lists the staff accounts of role, or all of them when role is empty.
func (svc *Service) List(ctx context.Context, role string) ([]User, error) {
	return svc.store.ListUsers(ctx, core.CleanString(role, true /* lower */))
}

// Login authenticates staff accounts first, by ID or email, then intern credentials.
func (svc *Service) Login(ctx context.Context, username, pwd string) (Identity, error) {
	username = core.CleanString(username)
	usr, err := svc.store.GetUser(ctx, username)
	switch {
	case err == nil:
		if err := usr.CheckPassword(pwd); err != nil {
			return Identity{}, ErrInvalidCredentials
		}
		if !usr.IsActive {
			return Identity{}, ErrAccountDeactivated
		}
		if err := svc.store.SetLastLogin(ctx, usr.ID, NowFunc().UTC()); err != nil {
			return Identity{}, errors.Wrap(err, "setting lastLogin")
		}
		return staffIdentity(usr), nil
	case !core.IsNotFound(err):
		return Identity{}, errors.Wrap(err, "finding user")
	}

	if svc.interns == nil {
		return Identity{}, ErrInvalidCredentials
	}
	cred, err := svc.interns.Authenticate(ctx, username, pwd)
	if err != nil {
		if errors.Cause(err) == student.ErrInvalidCredentials {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, err
	}
	return Identity{UserID: cred.StudentID, Name: cred.Name, Email: cred.Email, Role: cred.Role}, nil
}

// Refresh returns the current Identity behind a token subject, failing for deactivated or denied accounts.
func (svc *Service) Refresh(ctx context.Context, actor core.Actor) (Identity, error) {
	if actor.Role != RoleIntern {
		usr, err := svc.store.GetUser(ctx, actor.UserID)
		if err != nil {
			return Identity{}, err
		}
		if !usr.IsActive {
			return Identity{}, ErrAccountDeactivated
		}
		return staffIdentity(usr), nil
	}
	return Identity{UserID: actor.UserID, Role: actor.Role}, nil
}

func staffIdentity(usr User) Identity {
	return Identity{
		UserID:         usr.ID,
		Name:           usr.Name,
		Email:          usr.Email,
		Role:           usr.Role,
		CompanyName:    usr.CompanyName,
		CompanyWebsite: usr.CompanyWebsite,
	}
}

// Senders resolves the outbound email identity of staff members from their accounts.
type Senders struct {
	store Store
}

func NewSenders(store Store) *Senders {
	return &Senders{store: store}
}

func (s *Senders) SenderFor(ctx context.Context, actor core.Actor) (mail.Address, error) {
	if actor.UserID == "" {
		return mail.Address{}, errors.New("no acting user")
	}
	usr, err := s.store.GetUser(ctx, actor.UserID)
	if err != nil {
		return mail.Address{}, errors.Wrap(err, "finding sender")
	}
	return mail.Address{Name: usr.Name, Address: usr.Email}, nil
}

// RequestPasswordReset emails a password reset link to the active account owning email.
// It returns ErrNotFound when no such account exists.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.store.GetUser(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	token, err := makeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making token")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]string{
			"Name":  usr.Name,
			"UID":   EncodeUID(usr),
			"Token": token,
		},
	})
	return nil
}

// ResetPassword sets a new password from a password reset link.
func (svc *Service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	if err := svc.validate.Struct(data); err != nil {
		return svc.validationError(err)
	}
	id, err := decodeUID(data.UID)
	if err != nil {
		return ErrInvalidResetLink
	}
	usr, err := svc.store.GetUser(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return ErrInvalidResetLink
		}
		return err
	}
	if err := verifyToken(usr, data.Token); err != nil {
		return ErrInvalidResetLink
	}
	return svc.changePassword(ctx, usr, data.Password)
}

// SetPassword replaces the password of a staff account, bypassing the reset flow.
func (svc *Service) SetPassword(ctx context.Context, idOrEmail, pwd string) error {
	usr, err := svc.Get(ctx, idOrEmail)
	if err != nil {
		return err
	}
	return svc.changePassword(ctx, usr, pwd)
}

func (svc *Service) changePassword(ctx context.Context, usr User, pwd string) error {
	pc := passwordChange{Password: pwd, Name: usr.Name, Email: usr.Email, UserID: usr.ID}
	if err := svc.validate.Struct(pc); err != nil {
		return svc.validationError(err)
	}
	if err := usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return svc.store.SetPassword(ctx, usr.ID, usr.PasswordHash, NowFunc().UTC())
}
